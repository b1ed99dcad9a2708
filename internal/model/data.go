package model

import "time"

// SeriesPoint is one point of the line chart
type SeriesPoint struct {
	Period int     `json:"period"`
	Total  float64 `json:"total"`
}

// RankedEntry is one bar of the facility chart, already in rank order
type RankedEntry struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Capacity float64 `json:"capacity"`
	Ratio    float64 `json:"ratio"`
}

// ScaleKind selects the colour mapping function
type ScaleKind string

const (
	ScaleLinear ScaleKind = "linear"
	ScaleLog    ScaleKind = "log"
)

// ColorScale describes the colour legend of the map. Low < High always holds.
type ColorScale struct {
	Kind     ScaleKind `json:"kind"`
	Low      float64   `json:"low"`
	High     float64   `json:"high"`
	Palette  []string  `json:"palette"`
	NaNColor string    `json:"nan_color"`
}

// PlaybackState is the lifecycle of the "play through time" animation
type PlaybackState string

const (
	PlaybackStopped  PlaybackState = "stopped"
	PlaybackPlaying  PlaybackState = "playing"
	PlaybackFinished PlaybackState = "finished"
)

// View is everything a client needs to redraw after one selection change
type View struct {
	Selection Selection          `json:"selection"`
	Playback  PlaybackState      `json:"playback"`
	Map       map[string]float64 `json:"map"`
	Series    []SeriesPoint      `json:"series"`
	Ranking   []RankedEntry      `json:"ranking"`
	Scale     ColorScale         `json:"scale"`
	Title     string             `json:"title"`
	UpdatedAt time.Time          `json:"updated_at"`
}
