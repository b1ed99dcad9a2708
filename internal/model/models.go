package model

// ValidationRules defines validation requirements for a source
type ValidationRules struct {
	RequiredFields []string           `json:"requiredFields" yaml:"required_fields"` // fields that must be present
	NumericFields  []string           `json:"numericFields" yaml:"numeric_fields"`   // fields that must be numeric
	MinValues      map[string]float64 `json:"minValues" yaml:"min_values"`           // min allowed numeric values
	MaxValues      map[string]float64 `json:"maxValues" yaml:"max_values"`           // optional max limits
}

// SourceKind tells the import pipeline how to convert a CSV row
type SourceKind string

const (
	SourceRegions      SourceKind = "regions"       // region observations
	SourceFacilityLoad SourceKind = "facility_load" // facility observations
	SourceFacilities   SourceKind = "facilities"    // facility capacities
)

// Source is one CSV input of the import pipeline
type Source struct {
	Kind       SourceKind       `json:"kind" yaml:"kind"`
	URL        string           `json:"url" yaml:"url"`                                   // local path or http(s) URL
	KeyColumn  string           `json:"keyColumn,omitempty" yaml:"key_column,omitempty"` // e.g. OBJECTID, HOSPITAL
	Validation *ValidationRules `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// DefaultKeyColumn returns the key column used when a source leaves it empty.
func (s Source) DefaultKeyColumn() string {
	if s.KeyColumn != "" {
		return s.KeyColumn
	}
	if s.Kind == SourceRegions {
		return "OBJECTID"
	}
	return "HOSPITAL"
}

// ImportSpec describes one run of the import pipeline
type ImportSpec struct {
	Sources   []Source    `json:"sources"`
	Workers   Workers     `json:"workers"`
	Retry     RetryConfig `json:"retry"`
	BatchSize int         `json:"batchSize"`
}
