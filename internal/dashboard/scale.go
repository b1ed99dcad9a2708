package dashboard

import (
	"math"

	"epidash/internal/model"
)

// YlOrRd8 is the ColorBrewer YlOrRd palette with 8 classes, light to dark.
var YlOrRd8 = []string{
	"#ffffcc", "#ffeda0", "#fed976", "#feb24c",
	"#fd8d3c", "#fc4e2a", "#e31a1c", "#b10026",
}

// NaNColor fills regions without data.
const NaNColor = "#d9d9d9"

// ScaleOptions tunes the scale selector.
type ScaleOptions struct {
	MinSpan      float64  // smallest high-low the legend may cover
	LogThreshold float64  // span above which the scale turns logarithmic; 0 disables
	Palette      []string // colours, low to high
}

// DefaultScaleOptions mirrors the reference dashboards.
func DefaultScaleOptions() ScaleOptions {
	return ScaleOptions{MinSpan: 8, LogThreshold: 250, Palette: YlOrRd8}
}

func (o ScaleOptions) normalized() ScaleOptions {
	if o.MinSpan <= 0 {
		o.MinSpan = 8
	}
	if len(o.Palette) == 0 {
		o.Palette = YlOrRd8
	}
	return o
}

// DefaultScale is the fallback used when no bounds can be computed.
func DefaultScale(opts ScaleOptions) model.ColorScale {
	opts = opts.normalized()
	return model.ColorScale{
		Kind:     model.ScaleLinear,
		Low:      0,
		High:     opts.MinSpan,
		Palette:  opts.Palette,
		NaNColor: NaNColor,
	}
}

// SelectScale picks the colour mapping for values spanning [low, high].
func SelectScale(low, high float64, opts ScaleOptions) model.ColorScale {
	opts = opts.normalized()
	if !finite(low) || !finite(high) {
		return DefaultScale(opts)
	}
	if high < low {
		low, high = high, low
	}
	if high-low < opts.MinSpan {
		high = low + opts.MinSpan
	}

	scale := model.ColorScale{
		Kind:     model.ScaleLinear,
		Low:      low,
		High:     high,
		Palette:  opts.Palette,
		NaNColor: NaNColor,
	}
	if opts.LogThreshold > 0 && high-low > opts.LogThreshold {
		scale.Kind = model.ScaleLog
		scale.Low = math.Max(low, 1)
		// clamping can push low past a small or negative high
		if scale.High-scale.Low < opts.MinSpan {
			scale.High = scale.Low + opts.MinSpan
		}
	}
	return scale
}

// ScaleFor selects a scale from the values of an aggregate; an empty
// aggregate gets the default scale.
func ScaleFor(values map[string]float64, opts ScaleOptions) model.ColorScale {
	first := true
	var low, high float64
	for _, v := range values {
		if first {
			low, high, first = v, v, false
			continue
		}
		low = math.Min(low, v)
		high = math.Max(high, v)
	}
	if first {
		return DefaultScale(opts)
	}
	return SelectScale(low, high, opts)
}

// Color maps value through the scale. Absent values get the NaN colour.
func Color(s model.ColorScale, value float64, present bool) string {
	if !present || math.IsNaN(value) || len(s.Palette) == 0 {
		return s.NaNColor
	}
	var frac float64
	switch s.Kind {
	case model.ScaleLog:
		v := math.Max(value, s.Low)
		frac = (math.Log(v) - math.Log(s.Low)) / (math.Log(s.High) - math.Log(s.Low))
	default:
		frac = (value - s.Low) / (s.High - s.Low)
	}
	idx := int(math.Floor(frac * float64(len(s.Palette))))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.Palette) {
		idx = len(s.Palette) - 1
	}
	return s.Palette[idx]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
