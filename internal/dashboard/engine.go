package dashboard

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"epidash/internal/model"
)

// Dataset is the immutable in-memory data every session reads from.
type Dataset struct {
	Regions      []model.Region
	Observations []model.Observation // keyed by region ID
	FacilityLoad []model.Observation // keyed by facility name
	Facilities   []model.Facility

	periods   []int
	ageGroups []string
	regionIDs map[string]struct{}
}

// NewDataset indexes the tables. The slices must not be modified afterwards.
func NewDataset(regions []model.Region, obs, load []model.Observation, facilities []model.Facility) *Dataset {
	d := &Dataset{
		Regions:      regions,
		Observations: obs,
		FacilityLoad: load,
		Facilities:   facilities,
		periods:      PeriodDomain(obs),
		ageGroups:    AgeGroups(obs),
		regionIDs:    make(map[string]struct{}, len(regions)),
	}
	for _, r := range regions {
		d.regionIDs[r.ID] = struct{}{}
	}
	return d
}

func (d *Dataset) Periods() []int      { return d.periods }
func (d *Dataset) AgeGroups() []string { return d.ageGroups }

// PeriodBounds returns the smallest and largest period of the region table.
func (d *Dataset) PeriodBounds() (int, int) {
	if len(d.periods) == 0 {
		return 0, 0
	}
	return d.periods[0], d.periods[len(d.periods)-1]
}

// KnownRegion reports whether id has a geometry. Without any geometry loaded
// every key is accepted.
func (d *Dataset) KnownRegion(id string) bool {
	if len(d.regionIDs) == 0 {
		return true
	}
	_, ok := d.regionIDs[id]
	return ok
}

// EngineOptions configures refreshes.
type EngineOptions struct {
	Scale   ScaleOptions
	Epsilon float64
}

// Engine recomputes views. It is safe for concurrent use.
type Engine struct {
	data   *Dataset
	opts   EngineOptions
	logger *slog.Logger
	obs    Observer

	mu     sync.RWMutex
	scales map[string]model.ColorScale
}

// Observer receives engine and session events; metrics.Registry implements it.
type Observer interface {
	ObserveRefresh(d time.Duration, empty bool)
	ObserveTick(finished bool)
	SessionsChanged(delta int)
}

type nopObserver struct{}

func (nopObserver) ObserveRefresh(time.Duration, bool) {}
func (nopObserver) ObserveTick(bool)                   {}
func (nopObserver) SessionsChanged(int)                {}

// NewEngine builds an engine over data. logger and observer may be nil.
func NewEngine(data *Dataset, opts EngineOptions, logger *slog.Logger, observer Observer) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Engine{
		data:   data,
		opts:   opts,
		logger: logger,
		obs:    observer,
		scales: make(map[string]model.ColorScale),
	}
}

func (e *Engine) Dataset() *Dataset { return e.data }

// DefaultSelection is the view a new session opens on: first period, first
// age group, default measure.
func (e *Engine) DefaultSelection() model.Selection {
	lo, _ := e.data.PeriodBounds()
	var groups []string
	if ag := e.data.AgeGroups(); len(ag) > 0 {
		groups = []string{ag[0]}
	}
	return model.Selection{Period: lo, AgeGroups: groups, Measure: model.DefaultMeasure}
}

// Refresh derives the full view for sel.
func (e *Engine) Refresh(sel model.Selection) (model.View, error) {
	start := time.Now()
	if !sel.Measure.Valid() {
		return model.View{}, fmt.Errorf("refresh: %w", model.ErrInvalidMeasure)
	}

	raw, err := Aggregate(e.data.Observations, sel.Period, sel.AgeGroups, sel.Measure)
	if err != nil {
		return model.View{}, err
	}
	values := make(map[string]float64, len(raw))
	dropped := 0
	for id, v := range raw {
		if !e.data.KnownRegion(id) {
			dropped++
			continue
		}
		values[id] = v
	}
	if dropped > 0 {
		e.logger.Debug("dropped aggregate keys without geometry", "count", dropped)
	}

	points, err := AggregateOverTime(e.data.Observations, sel.Period, sel.AgeGroups, sel.Measure)
	if err != nil {
		return model.View{}, err
	}

	load, err := Aggregate(e.data.FacilityLoad, sel.Period, sel.AgeGroups, sel.Measure)
	if err != nil {
		return model.View{}, err
	}

	scale, err := e.Scale(sel.AgeGroups, sel.Measure)
	if err != nil {
		return model.View{}, err
	}

	view := model.View{
		Selection: sel,
		Map:       values,
		Series:    Backfill(points, e.data.Periods(), sel.Period),
		Ranking:   RankFacilities(e.data.Facilities, load, e.opts.Epsilon),
		Scale:     scale,
		Title:     fmt.Sprintf("%s, period: %d", sel.Measure, sel.Period),
		UpdatedAt: time.Now().UTC(),
	}
	e.obs.ObserveRefresh(time.Since(start), len(values) == 0)
	return view, nil
}

// Scale returns the colour scale for an age group/measure combination. It
// covers every period so playback never recolours the map.
func (e *Engine) Scale(ageGroups []string, measure model.Measure) (model.ColorScale, error) {
	key := scaleKey(ageGroups, measure)
	e.mu.RLock()
	s, ok := e.scales[key]
	e.mu.RUnlock()
	if ok {
		return s, nil
	}

	low, high, found, err := ValueRange(e.data.Observations, ageGroups, measure)
	if err != nil {
		return model.ColorScale{}, err
	}
	if found {
		s = SelectScale(low, high, e.opts.Scale)
	} else {
		s = DefaultScale(e.opts.Scale)
	}

	e.mu.Lock()
	e.scales[key] = s
	e.mu.Unlock()
	return s, nil
}

func scaleKey(groups []string, m model.Measure) string {
	sorted := append([]string(nil), groups...)
	sort.Strings(sorted)
	return m.String() + "|" + strings.Join(sorted, ",")
}
