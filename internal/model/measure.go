package model

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// Measure is one of the recognised numeric columns of the simulation output
type Measure int

const (
	Susceptible Measure = iota
	InfectedNoSymptomsNotContagious
	InfectedNoSymptomsContagious
	InfectedSymptoms
	Hospitalized
	InICU
	Cured
	Dead

	MeasureCount = 8
)

// DefaultMeasure is the measure a fresh session starts on.
const DefaultMeasure = InfectedNoSymptomsNotContagious

var measureNames = [MeasureCount]string{
	"SUSCEPTIBLE",
	"INFECTED_NOSYMPTOMS_NOTCONTAGIOUS",
	"INFECTED_NOSYMPTOMS_CONTAGIOUS",
	"INFECTED_SYMPTOMS",
	"HOSPITALIZED",
	"IN_ICU",
	"CURED",
	"DEAD",
}

var measureByName = func() map[string]Measure {
	m := make(map[string]Measure, MeasureCount)
	for i, n := range measureNames {
		m[n] = Measure(i)
	}
	return m
}()

// Measures returns every recognised measure in column order.
func Measures() []Measure {
	out := make([]Measure, MeasureCount)
	for i := range out {
		out[i] = Measure(i)
	}
	return out
}

// Valid reports whether m is part of the closed set.
func (m Measure) Valid() bool {
	return m >= 0 && int(m) < MeasureCount
}

func (m Measure) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Measure(%d)", int(m))
	}
	return measureNames[m]
}

// ParseMeasure resolves a column name. Besides the canonical upper snake
// case it accepts camel, kebab and lower snake spellings.
func ParseMeasure(name string) (Measure, error) {
	trimmed := strings.TrimSpace(name)
	if m, ok := measureByName[strings.ToUpper(trimmed)]; ok {
		return m, nil
	}
	if m, ok := measureByName[strcase.ToScreamingSnake(trimmed)]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMeasure, name)
}

func (m Measure) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMeasure, int(m))
	}
	return []byte(measureNames[m]), nil
}

func (m *Measure) UnmarshalText(text []byte) error {
	parsed, err := ParseMeasure(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
