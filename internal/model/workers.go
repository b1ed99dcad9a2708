package model

// Workers defines number of workers per import stage
type Workers struct {
	Validation int `json:"validation" yaml:"validation"`
	Convert    int `json:"convert" yaml:"convert"`
}

// WithDefaults fills zero worker counts.
func (w Workers) WithDefaults() Workers {
	if w.Validation <= 0 {
		w.Validation = 3
	}
	if w.Convert <= 0 {
		w.Convert = 2
	}
	return w
}
