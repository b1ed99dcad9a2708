package dashboard

import (
	"epidash/internal/model"
)

// ClockConfig fixes the bounds and cadence of a playback clock.
type ClockConfig struct {
	Min        int
	Max        int
	Step       int
	AllowReset bool
}

// Clock is the playback state machine. It is not safe for concurrent use;
// its owner serialises access.
type Clock struct {
	cfg    ClockConfig
	state  model.PlaybackState
	period int
	gen    uint64
}

// NewClock returns a stopped clock at cfg.Min.
func NewClock(cfg ClockConfig) *Clock {
	if cfg.Step <= 0 {
		cfg.Step = 1
	}
	if cfg.Max < cfg.Min {
		cfg.Max = cfg.Min
	}
	return &Clock{cfg: cfg, state: model.PlaybackStopped, period: cfg.Min}
}

func (c *Clock) State() model.PlaybackState { return c.state }
func (c *Clock) Period() int                { return c.period }
func (c *Clock) Config() ClockConfig        { return c.cfg }

// Generation identifies the current playing run. Ticks carry the generation
// they were scheduled under so late ticks from an earlier run are ignored.
func (c *Clock) Generation() uint64 { return c.gen }

// Start moves stopped -> playing and returns the generation ticks must carry.
func (c *Clock) Start() (uint64, error) {
	switch c.state {
	case model.PlaybackPlaying:
		return c.gen, nil
	case model.PlaybackFinished:
		return 0, model.ErrPlaybackFinished
	}
	c.gen++
	c.state = model.PlaybackPlaying
	return c.gen, nil
}

// Stop pauses playback and keeps the period. Stopping a clock that is not
// playing does nothing.
func (c *Clock) Stop() {
	if c.state != model.PlaybackPlaying {
		return
	}
	c.gen++
	c.state = model.PlaybackStopped
}

// Tick advances the period by one step. It reports whether the period
// changed; ticks outside the playing state or from a stale generation are
// no-ops.
func (c *Clock) Tick(gen uint64) bool {
	if c.state != model.PlaybackPlaying || gen != c.gen {
		return false
	}
	next := c.period + c.cfg.Step
	if next >= c.cfg.Max {
		next = c.cfg.Max
		c.state = model.PlaybackFinished
		c.gen++
	}
	changed := next != c.period
	c.period = next
	return changed
}

// Reset returns a finished (or stopped) clock to the domain minimum.
func (c *Clock) Reset() error {
	if !c.cfg.AllowReset {
		return model.ErrResetUnsupported
	}
	if c.state == model.PlaybackPlaying {
		c.gen++
	}
	c.state = model.PlaybackStopped
	c.period = c.cfg.Min
	return nil
}

// Seek moves the period on user request, clamped to the domain. A finished
// clock that is moved back becomes stopped so it can be played again.
func (c *Clock) Seek(period int) int {
	if period < c.cfg.Min {
		period = c.cfg.Min
	}
	if period > c.cfg.Max {
		period = c.cfg.Max
	}
	c.period = period
	if c.state == model.PlaybackFinished && period < c.cfg.Max {
		c.state = model.PlaybackStopped
	}
	return period
}
