package dashboard

import (
	"fmt"
	"sort"

	"epidash/internal/model"
)

// Aggregate sums the measure per key for one period over the selected age
// groups. Keys without matching observations are absent from the result,
// which consumers must render as "no data" rather than zero.
func Aggregate(obs []model.Observation, period int, ageGroups []string, measure model.Measure) (map[string]float64, error) {
	if !measure.Valid() {
		return nil, fmt.Errorf("aggregate: %w", model.ErrInvalidMeasure)
	}
	groups := groupSet(ageGroups)
	result := make(map[string]float64)
	for _, o := range obs {
		if o.Period != period {
			continue
		}
		if _, ok := groups[o.AgeGroup]; !ok {
			continue
		}
		result[o.Key] += o.Value(measure)
	}
	return result, nil
}

// AggregateOverTime sums the measure across all keys for every period up to
// and including upto. Periods with no matching observation yield no point.
func AggregateOverTime(obs []model.Observation, upto int, ageGroups []string, measure model.Measure) ([]model.SeriesPoint, error) {
	if !measure.Valid() {
		return nil, fmt.Errorf("aggregate over time: %w", model.ErrInvalidMeasure)
	}
	groups := groupSet(ageGroups)
	totals := make(map[int]float64)
	for _, o := range obs {
		if o.Period > upto {
			continue
		}
		if _, ok := groups[o.AgeGroup]; !ok {
			continue
		}
		totals[o.Period] += o.Value(measure)
	}

	points := make([]model.SeriesPoint, 0, len(totals))
	for p, total := range totals {
		points = append(points, model.SeriesPoint{Period: p, Total: total})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points, nil
}

// Backfill returns one point per domain period up to upto, taking totals from
// points and zero where a period had no observation at all.
func Backfill(points []model.SeriesPoint, domain []int, upto int) []model.SeriesPoint {
	byPeriod := make(map[int]float64, len(points))
	for _, p := range points {
		byPeriod[p.Period] = p.Total
	}
	out := make([]model.SeriesPoint, 0, len(domain))
	for _, period := range domain {
		if period > upto {
			break
		}
		out = append(out, model.SeriesPoint{Period: period, Total: byPeriod[period]})
	}
	return out
}

// ValueRange returns the smallest and largest per-(key, period) sum of the
// measure over the selected age groups across the whole period domain.
// ok is false when nothing matched.
func ValueRange(obs []model.Observation, ageGroups []string, measure model.Measure) (low, high float64, ok bool, err error) {
	if !measure.Valid() {
		return 0, 0, false, fmt.Errorf("value range: %w", model.ErrInvalidMeasure)
	}
	type cell struct {
		key    string
		period int
	}
	groups := groupSet(ageGroups)
	sums := make(map[cell]float64)
	for _, o := range obs {
		if _, in := groups[o.AgeGroup]; !in {
			continue
		}
		sums[cell{o.Key, o.Period}] += o.Value(measure)
	}
	for _, v := range sums {
		if !ok {
			low, high, ok = v, v, true
			continue
		}
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high, ok, nil
}

// PeriodDomain returns the distinct periods of obs in ascending order.
func PeriodDomain(obs []model.Observation) []int {
	seen := make(map[int]struct{})
	for _, o := range obs {
		seen[o.Period] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// AgeGroups returns the distinct age group labels of obs in first-seen order.
func AgeGroups(obs []model.Observation) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range obs {
		if _, ok := seen[o.AgeGroup]; ok {
			continue
		}
		seen[o.AgeGroup] = struct{}{}
		out = append(out, o.AgeGroup)
	}
	return out
}

func groupSet(groups []string) map[string]struct{} {
	set := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		set[g] = struct{}{}
	}
	return set
}
