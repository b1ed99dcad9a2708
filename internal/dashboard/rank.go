package dashboard

import (
	"sort"

	"epidash/internal/model"
)

// DefaultEpsilon keeps occupancy ratios finite for zero-capacity facilities.
const DefaultEpsilon = 1e-6

// Key orders entities by Primary, then Secondary.
type Key struct {
	Primary   float64
	Secondary float64
}

func (k Key) less(o Key) bool {
	if k.Primary != o.Primary {
		return k.Primary < o.Primary
	}
	return k.Secondary < o.Secondary
}

// RankBy returns a copy of items sorted ascending by key. Items with equal
// keys keep their input order.
func RankBy[T any](items []T, key func(T) Key) []T {
	keys := make([]Key, len(items))
	idx := make([]int, len(items))
	for i, it := range items {
		keys[i] = key(it)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]].less(keys[idx[b]]) })

	ranked := make([]T, len(items))
	for i, j := range idx {
		ranked[i] = items[j]
	}
	return ranked
}

// RankFacilities builds the bar chart: facilities ordered by load relative to
// capacity, ties broken by raw load. Facilities without load count as zero.
func RankFacilities(facilities []model.Facility, load map[string]float64, epsilon float64) []model.RankedEntry {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	entries := make([]model.RankedEntry, 0, len(facilities))
	for _, f := range facilities {
		v := load[f.Name]
		entries = append(entries, model.RankedEntry{
			Name:     f.Name,
			Value:    v,
			Capacity: f.Capacity,
			Ratio:    v / (f.Capacity + epsilon),
		})
	}
	return RankBy(entries, func(e model.RankedEntry) Key {
		return Key{Primary: e.Ratio, Secondary: e.Value}
	})
}
