package dashboard

import (
	"testing"
	"time"

	"epidash/internal/model"

	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	refreshes, ticks, finished, sessions int
}

func (c *countingObserver) ObserveRefresh(time.Duration, bool) { c.refreshes++ }
func (c *countingObserver) ObserveTick(finished bool) {
	c.ticks++
	if finished {
		c.finished++
	}
}
func (c *countingObserver) SessionsChanged(delta int) { c.sessions += delta }

func newTestManager(t *testing.T, opts PlaybackOptions) (*Manager, *countingObserver) {
	t.Helper()
	obs := &countingObserver{}
	engine := NewEngine(fixture(), EngineOptions{Scale: DefaultScaleOptions()}, nil, obs)
	m := NewManager(engine, opts, nil)
	t.Cleanup(m.Close)
	return m, obs
}

func TestEngineRefreshDropsUnknownRegions(t *testing.T) {
	engine := NewEngine(fixture(), EngineOptions{Scale: DefaultScaleOptions()}, nil, nil)
	view, err := engine.Refresh(model.Selection{Period: 4, AgeGroups: []string{"AGE_0_18"}, Measure: measure})
	require.NoError(t, err)

	require.Equal(t, map[string]float64{"1": 100, "2": 200}, view.Map)
	require.Equal(t, []model.SeriesPoint{
		{Period: 0, Total: 4},
		{Period: 2, Total: 10},
		{Period: 4, Total: 307},
	}, view.Series)
	require.Len(t, view.Ranking, 4)
	require.Equal(t, "Hospital D", view.Ranking[0].Name)
	require.Equal(t, "Hospital B", view.Ranking[3].Name)
	require.Less(t, view.Scale.Low, view.Scale.High)
}

func TestEngineScaleIgnoresPeriod(t *testing.T) {
	engine := NewEngine(fixture(), EngineOptions{Scale: DefaultScaleOptions()}, nil, nil)
	groups := []string{"AGE_0_18"}
	a, err := engine.Refresh(model.Selection{Period: 0, AgeGroups: groups, Measure: measure})
	require.NoError(t, err)
	b, err := engine.Refresh(model.Selection{Period: 4, AgeGroups: groups, Measure: measure})
	require.NoError(t, err)
	require.Equal(t, a.Scale, b.Scale)

	c, err := engine.Refresh(model.Selection{Period: 4, AgeGroups: []string{"AGE_19_64"}, Measure: measure})
	require.NoError(t, err)
	require.NotEqual(t, a.Scale, c.Scale)
}

func TestEngineEmptySelectionUsesDefaultScale(t *testing.T) {
	engine := NewEngine(fixture(), EngineOptions{Scale: DefaultScaleOptions()}, nil, nil)
	view, err := engine.Refresh(model.Selection{Period: 2, AgeGroups: []string{"AGE_90_PLUS"}, Measure: model.Dead})
	require.NoError(t, err)
	require.Empty(t, view.Map)
	require.Equal(t, DefaultScale(DefaultScaleOptions()), view.Scale)
	require.Len(t, view.Series, 2)
}

func TestManagerCreateAndUpdate(t *testing.T) {
	m, obs := newTestManager(t, PlaybackOptions{Step: 2})
	s, view, err := m.Create(nil)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	require.Equal(t, 1, obs.sessions)
	require.Equal(t, 0, view.Selection.Period)
	require.Equal(t, []string{"AGE_0_18"}, view.Selection.AgeGroups)
	require.Equal(t, model.PlaybackStopped, view.Playback)

	view, err = s.Update(model.Selection{Period: 99, AgeGroups: []string{"AGE_0_18"}, Measure: measure})
	require.NoError(t, err)
	require.Equal(t, 4, view.Selection.Period, "period is clamped to the domain")

	_, err = s.Update(model.Selection{Period: 0, AgeGroups: nil, Measure: measure})
	require.ErrorIs(t, err, model.ErrNoAgeGroups)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	require.Same(t, s, got)

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	require.ErrorIs(t, err, model.ErrUnknownSession)
	require.ErrorIs(t, m.Delete(s.ID), model.ErrUnknownSession)
}

func TestSessionManualTicks(t *testing.T) {
	m, obs := newTestManager(t, PlaybackOptions{Step: 2, Interval: time.Hour})
	s, _, err := m.Create(nil)
	require.NoError(t, err)

	_, moved, err := s.Tick()
	require.NoError(t, err)
	require.False(t, moved, "ticks while stopped are no-ops")

	_, err = s.Start()
	require.NoError(t, err)

	view, moved, err := s.Tick()
	require.NoError(t, err)
	require.True(t, moved)
	require.Equal(t, 2, view.Selection.Period)

	view, _, err = s.Tick()
	require.NoError(t, err)
	require.Equal(t, 4, view.Selection.Period)
	require.Equal(t, model.PlaybackFinished, view.Playback)
	require.Equal(t, 1, obs.finished)

	_, err = s.Start()
	require.ErrorIs(t, err, model.ErrPlaybackFinished)
}

func TestSessionStopIgnoresStaleTick(t *testing.T) {
	m, _ := newTestManager(t, PlaybackOptions{Step: 2, Interval: time.Hour})
	s, _, err := m.Create(nil)
	require.NoError(t, err)

	_, err = s.Start()
	require.NoError(t, err)
	gen := s.clock.Generation()

	view := s.Stop()
	require.Equal(t, model.PlaybackStopped, view.Playback)
	require.False(t, s.tick(gen))
	require.Equal(t, 0, s.Snapshot().Selection.Period)
}

func TestSessionPlayerReachesEnd(t *testing.T) {
	m, _ := newTestManager(t, PlaybackOptions{Step: 2, Interval: 5 * time.Millisecond, AllowReset: true})
	s, _, err := m.Create(nil)
	require.NoError(t, err)

	frames, cancel := s.Subscribe()
	defer cancel()
	first := <-frames
	require.Equal(t, 0, first.Selection.Period)

	_, err = s.Start()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.Snapshot().Playback == model.PlaybackFinished
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 4, s.Snapshot().Selection.Period)

	view, err := s.Reset()
	require.NoError(t, err)
	require.Equal(t, 0, view.Selection.Period)
	require.Equal(t, model.PlaybackStopped, view.Playback)
}

func TestSessionCloseEndsSubscriptions(t *testing.T) {
	m, _ := newTestManager(t, PlaybackOptions{})
	s, _, err := m.Create(nil)
	require.NoError(t, err)

	frames, cancel := s.Subscribe()
	<-frames
	require.NoError(t, m.Delete(s.ID))
	_, open := <-frames
	require.False(t, open)
	cancel()
}
