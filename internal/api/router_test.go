package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"epidash/internal/api/handler"
	"epidash/internal/dashboard"
	"epidash/internal/metrics"
	"epidash/internal/model"
	"epidash/internal/pipeline"
	"epidash/internal/store"
	"epidash/internal/votes"
	"epidash/pkg/router"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"
)

const measure = model.InfectedNoSymptomsNotContagious

func observation(key string, period int, group string, v float64) model.Observation {
	o := model.Observation{Key: key, Period: period, AgeGroup: group}
	o.Values[measure] = v
	return o
}

type testServer struct {
	handler  http.Handler
	sessions *dashboard.Manager
	store    *store.Store
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	regions := []model.Region{
		{ID: "1", Name: "Groningen", Geometry: orb.Point{6.5, 53.2}},
		{ID: "2", Name: "Friesland", Geometry: orb.Point{5.8, 53.1}},
	}
	obs := []model.Observation{
		observation("1", 0, "AGE_0_18", 1),
		observation("2", 0, "AGE_0_18", 3),
		observation("1", 1, "AGE_0_18", 5),
		observation("1", 2, "AGE_0_18", 9),
		observation("2", 2, "AGE_19_64", 4),
	}
	load := []model.Observation{
		observation("Hospital A", 0, "AGE_0_18", 20),
		observation("Hospital B", 0, "AGE_0_18", 5),
	}
	facilities := []model.Facility{{Name: "Hospital A", Capacity: 100}, {Name: "Hospital B", Capacity: 10}}
	data := dashboard.NewDataset(regions, obs, load, facilities)

	m := metrics.NewMetrics()
	engine := dashboard.NewEngine(data, dashboard.EngineOptions{Scale: dashboard.DefaultScaleOptions()}, nil, m)
	sessions := dashboard.NewManager(engine, dashboard.PlaybackOptions{Interval: time.Hour, Step: 2}, nil)
	t.Cleanup(sessions.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	at := time.Date(2020, 3, 14, 9, 0, 0, 0, time.UTC)
	h := handler.New(handler.Deps{
		Engine:   engine,
		Sessions: sessions,
		Store:    st,
		Runner:   pipeline.NewRunner(st, nil, m),
		Votes: []votes.Vote{
			{Time: at, Name: "pikachu"},
			{Time: at.Add(10 * time.Minute), Name: "eevee"},
			{Time: at.Add(time.Hour), Name: "pikachu"},
		},
		Background: func(fn func(ctx context.Context)) { fn(context.Background()) },
	})

	r := router.New(nil, router.WithRouteMiddleware(m.WrapHandler), router.WithCORS("*"))
	RegisterRoutes(r, h, m.Handler())
	return &testServer{handler: r.Handler(), sessions: sessions, store: st, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) createSession(t *testing.T, body interface{}) handler.SessionResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[handler.SessionResponse](t, rec)
}

func TestMeta(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/meta", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	meta := decode[handler.MetaResponse](t, rec)
	require.Len(t, meta.Measures, model.MeasureCount)
	require.Equal(t, "INFECTED_NOSYMPTOMS_NOTCONTAGIOUS", meta.DefaultMeasure)
	require.Equal(t, []string{"AGE_0_18", "AGE_19_64"}, meta.AgeGroups)
	require.Equal(t, []int{0, 1, 2}, meta.Periods)
	require.Equal(t, 2, meta.MaxPeriod)
	require.Equal(t, 2, meta.Regions)
	require.Equal(t, 2, meta.Facilities)
}

func TestCreateSessionDefaults(t *testing.T) {
	s := newTestServer(t)
	resp := s.createSession(t, nil)

	require.NotEmpty(t, resp.Session.ID)
	require.Equal(t, model.PlaybackStopped, resp.Session.Playback)
	require.Equal(t, 0, resp.View.Selection.Period)
	require.Equal(t, []string{"AGE_0_18"}, resp.View.Selection.AgeGroups)
	require.Equal(t, map[string]float64{"1": 1, "2": 3}, resp.View.Map)
	require.Equal(t, "INFECTED_NOSYMPTOMS_NOTCONTAGIOUS, period: 0", resp.View.Title)
	require.Equal(t, "Hospital A", resp.View.Ranking[0].Name)

	rec := s.do(t, http.MethodGet, "/api/v1/sessions/"+resp.Session.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, resp.Session.ID, decode[dashboard.Snapshot](t, rec).ID)
	require.Equal(t, 1, s.sessions.Len())
}

func TestCreateSessionWithSelection(t *testing.T) {
	s := newTestServer(t)
	period := 2
	resp := s.createSession(t, handler.SelectionRequest{
		Period:    &period,
		AgeGroups: []string{"AGE_0_18", "AGE_19_64"},
	})
	require.Equal(t, map[string]float64{"1": 9, "2": 4}, resp.View.Map)
	require.Equal(t, []model.SeriesPoint{{Period: 0, Total: 4}, {Period: 1, Total: 5}, {Period: 2, Total: 13}}, resp.View.Series)
}

func TestSelectionErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/sessions", handler.SelectionRequest{Measure: "ZOMBIES"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[handler.ErrorResponse](t, rec).Error, "invalid measure")

	rec = s.do(t, http.MethodPost, "/api/v1/sessions", map[string]interface{}{"age_groups": []string{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	id := s.createSession(t, nil).Session.ID
	rec = s.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/selection", map[string]interface{}{"age_groups": []string{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/"+id+"/selection", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	for _, path := range []string{"/api/v1/sessions/missing", "/api/v1/sessions/missing/view", "/api/v1/sessions/missing/map"} {
		require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, nil).Code, path)
	}
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/sessions/missing", nil).Code)
}

func TestUpdateSelectionKeepsScaleAcrossPeriods(t *testing.T) {
	s := newTestServer(t)
	created := s.createSession(t, nil)
	path := "/api/v1/sessions/" + created.Session.ID + "/selection"

	rec := s.do(t, http.MethodPut, path, map[string]int{"period": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[model.View](t, rec)
	require.Equal(t, map[string]float64{"1": 5}, view.Map)
	require.Equal(t, []string{"AGE_0_18"}, view.Selection.AgeGroups)
	require.Equal(t, created.View.Scale, view.Scale)

	rec = s.do(t, http.MethodPut, path, map[string]string{"measure": "DEAD"})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[model.View](t, rec)
	require.Equal(t, model.Dead, view.Selection.Measure)
	require.Equal(t, 1, view.Selection.Period)

	rec = s.do(t, http.MethodGet, "/api/v1/sessions/"+created.Session.ID+"/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.Dead, decode[model.View](t, rec).Selection.Measure)
}

func TestPlayback(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).Session.ID
	base := "/api/v1/sessions/" + id + "/playback/"

	rec := s.do(t, http.MethodPost, base+"start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.PlaybackPlaying, decode[model.View](t, rec).Playback)

	rec = s.do(t, http.MethodPost, base+"tick", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[model.View](t, rec)
	require.Equal(t, model.PlaybackFinished, view.Playback)
	require.Equal(t, 2, view.Selection.Period)

	rec = s.do(t, http.MethodPost, base+"start", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, base+"reset", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, decode[handler.ErrorResponse](t, rec).Error, "reset")

	rec = s.do(t, http.MethodPost, base+"stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.PlaybackFinished, decode[model.View](t, rec).Playback)

	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, base+"rewind", nil).Code)
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).Session.ID

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil).Code)
	require.Zero(t, s.sessions.Len())
}

func TestMap(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).Session.ID

	rec := s.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/map", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	require.Equal(t, "Groningen", fc.Features[0].Properties["NAME"])
	require.Equal(t, 1.0, fc.Features[0].Properties["value"])
	require.NotEmpty(t, fc.Features[0].Properties["color"])
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).Session.ID
	base := "/api/v1/sessions/" + id + "/export"

	rec := s.do(t, http.MethodGet, base+"?format=csv&table=ranking", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), id+"-ranking.csv")
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"rank", "name", "value", "capacity", "ratio"}, rows[0])
	require.Equal(t, "Hospital A", rows[1][1])

	rec = s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]float64{"1": 1, "2": 3}, decode[model.View](t, rec).Map)

	require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, base+"?format=xlsx", nil).Code)
	require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, base+"?format=csv&table=nope", nil).Code)
}

func TestStream(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, nil).Session.ID

	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var view model.View
	require.NoError(t, conn.ReadJSON(&view))
	require.Equal(t, 0, view.Selection.Period)

	rec := s.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/selection", map[string]int{"period": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, conn.ReadJSON(&view))
	require.Equal(t, 2, view.Selection.Period)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil).Code)
	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestImports(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/imports", model.ImportSpec{}).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/imports/missing", nil).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/imports/missing/errors", nil).Code)

	path := filepath.Join(t.TempDir(), "regions.csv")
	require.NoError(t, os.WriteFile(path, []byte("OBJECTID,Time,AGEGROUP,DEAD\n1,0,AGE_0_18,2\n1,x,AGE_0_18,3\n"), 0o644))
	rec := s.do(t, http.MethodPost, "/api/v1/imports", model.ImportSpec{
		Sources: []model.Source{{Kind: model.SourceRegions, URL: path}},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decode[handler.ImportResponse](t, rec).ID

	rec = s.do(t, http.MethodGet, "/api/v1/imports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]model.ImportRun](t, rec)
	require.Len(t, runs, 1)
	require.Equal(t, id, runs[0].ID)

	rec = s.do(t, http.MethodGet, "/api/v1/imports/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	run := decode[model.ImportRun](t, rec)
	require.Equal(t, model.ImportCompleted, run.Status)
	require.Equal(t, int64(1), run.Rows)

	rec = s.do(t, http.MethodGet, "/api/v1/imports/"+id+"/errors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	errs := decode[[]model.ImportError](t, rec)
	require.Len(t, errs, 1)
	require.Equal(t, pipeline.StageConvert, errs[0].Stage)
}

func TestVotes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/votes/leaderboard?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []votes.Standing{{Rank: 1, Name: "pikachu", Votes: 2}}, decode[[]votes.Standing](t, rec))
	require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/votes/leaderboard?limit=-1", nil).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/votes/pikachu/hourly", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hourly := decode[[]votes.HourlyCount](t, rec)
	require.Len(t, hourly, 2)
	require.Equal(t, "09:00", hourly[0].Label)

	rec = s.do(t, http.MethodGet, "/api/v1/votes/palettes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	palettes := decode[handler.PaletteResponse](t, rec)
	require.Len(t, palettes.Generations, 7)
	require.Equal(t, votes.SpriteFallback, palettes.SpriteFallback)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.createSession(t, nil)

	rec := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]interface{}](t, rec)
	require.Equal(t, "ok", health["status"])
	require.Equal(t, 1.0, health["sessions"])

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `http_requests_total{route="/api/v1/sessions",status="201"} 1`)
	require.Contains(t, body, "dashboard_sessions 1")
}
