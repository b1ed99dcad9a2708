package model

import "errors"

var (
	// ErrInvalidMeasure is returned for a measure name outside the closed set.
	ErrInvalidMeasure = errors.New("invalid measure")
	// ErrEmptySelection marks a selection that matched no observations.
	ErrEmptySelection = errors.New("selection matched no observations")
	// ErrNoAgeGroups is returned when a selection names no age group at all.
	ErrNoAgeGroups      = errors.New("at least one age group is required")
	ErrUnknownSession   = errors.New("unknown session")
	ErrPlaybackFinished = errors.New("playback finished, reset first")
	ErrResetUnsupported = errors.New("playback reset is disabled")
)
