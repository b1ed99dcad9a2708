package model

import (
	"github.com/paulmach/orb"
)

// GenericRecord is a schema-agnostic map for one parsed CSV row
type GenericRecord map[string]interface{}

// Observation is one row of a simulation table. Key is a region identifier
// for the region table and a facility name for the facility table.
type Observation struct {
	Key      string                `json:"key"`
	Period   int                   `json:"period"`
	AgeGroup string                `json:"age_group"`
	Values   [MeasureCount]float64 `json:"values"`
}

// Value returns the observation's value for m.
func (o Observation) Value(m Measure) float64 {
	return o.Values[m]
}

// Region is a geographic unit of the choropleth map
type Region struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Geometry orb.Geometry `json:"-"`
}

// Facility is a named hospital with a fixed bed capacity
type Facility struct {
	Name     string  `json:"name"`
	Capacity float64 `json:"capacity"`
}

// Selection is the user-chosen view of a session
type Selection struct {
	Period    int      `json:"period"`
	AgeGroups []string `json:"age_groups"`
	Measure   Measure  `json:"measure"`
}

// SameFilters reports whether s and o select the same age groups and measure.
func (s Selection) SameFilters(o Selection) bool {
	if s.Measure != o.Measure || len(s.AgeGroups) != len(o.AgeGroups) {
		return false
	}
	seen := make(map[string]int, len(s.AgeGroups))
	for _, g := range s.AgeGroups {
		seen[g]++
	}
	for _, g := range o.AgeGroups {
		if seen[g] == 0 {
			return false
		}
		seen[g]--
	}
	return true
}

// Validate checks the invariants of a selection that do not depend on data.
func (s Selection) Validate() error {
	if !s.Measure.Valid() {
		return ErrInvalidMeasure
	}
	if len(s.AgeGroups) == 0 {
		return ErrNoAgeGroups
	}
	return nil
}
