package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clasificador/pkg/batch"
	"clasificador/pkg/classify"
	"clasificador/pkg/metrics"
	"clasificador/pkg/queue/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	cascade := classify.New(
		classify.Standard(nil, nil, time.Second),
		classify.WithMetrics(metrics.NewCascadeMetrics(reg)),
		classify.WithMemo(time.Minute),
	)
	metrics.RegisterMemo(reg, cascade)
	registry := batch.NewRegistry()
	results := batch.NewMemorySink()
	q := memory.New(registry, batch.NewRunner(cascade, results, 2), 8, 1)
	q.Start()
	t.Cleanup(q.Stop)

	s := NewServer(context.Background(), cascade, registry, results, q)
	s.Gatherer = reg
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGetRoot(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, body["strategies"], 4)
}

func TestPostClassify(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodPost, "/api/classify", `{"narrative":"Robo con arma de fuego en la vía pública a una mujer","row":7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[classify.Outcome](t, rec)
	assert.Equal(t, classify.StrategyRules, out.Strategy)
	assert.Equal(t, 0.5, out.Confidence)
	assert.Equal(t, 7, out.Row)
	assert.Equal(t, "ROBO_ASALTO_VIA_PUBLICA", out.Result.Calificacion)

	rec = do(s, http.MethodPost, "/api/classify", `{"narrative":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[classify.Outcome](t, rec)
	assert.Equal(t, classify.StrategyDefault, out.Strategy)
	assert.Equal(t, 0.0, out.Confidence)

	rec = do(s, http.MethodPost, "/api/classify", `{"narrative":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTest(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/test", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Narrative string           `json:"narrative"`
		Outcome   classify.Outcome `json:"outcome"`
	}](t, rec)
	assert.Equal(t, sampleNarrative, body.Narrative)
	assert.Equal(t, "ROBO_ASALTO_VIA_PUBLICA", body.Outcome.Result.Calificacion)
	assert.Equal(t, "FUEGO", body.Outcome.Result.Armas)
	assert.Equal(t, "MASCULINO", body.Outcome.Result.Imputados)
}

func TestJobLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodPost, "/api/jobs", `{"rows":[
		{"fields":{"Relato":"Hurto de bicicleta frente a la escuela"}},
		{"fields":{"fecha":"2024-05-15"}},
		{"fields":{"descripcion":"Estafa por whatsapp"}}
	]}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	st := decode[batch.Status](t, rec)
	require.NotEmpty(t, st.ID)
	assert.Equal(t, 3, st.Total)

	require.Eventually(t, func() bool {
		rec := do(s, http.MethodGet, "/api/jobs/"+st.ID, "")
		return decode[batch.Status](t, rec).State == batch.StateCompleted
	}, 5*time.Second, 10*time.Millisecond)

	rec = do(s, http.MethodGet, "/api/jobs/"+st.ID+"/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[resultsResp](t, rec)
	require.Len(t, res.Results, 3)
	assert.Equal(t, 1, res.Results[0].Row)
	assert.Equal(t, classify.StrategyDefault, res.Results[1].Strategy)
	assert.Equal(t, "ESTAFAS_OTROS", res.Results[2].Result.Calificacion)
	assert.Equal(t, 100.0, res.Status.Progress)

	rec = do(s, http.MethodGet, "/api/jobs/"+st.ID+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: progress")
	assert.Contains(t, rec.Body.String(), "event: done")

	rec = do(s, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]batch.Status](t, rec)["jobs"], 1)

	rec = do(s, http.MethodPost, "/api/jobs/"+st.ID+"/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, batch.StateCompleted, decode[batch.Status](t, rec).State)

	rec = do(s, http.MethodDelete, "/api/jobs/"+st.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.Results.Results(st.ID))
}

func TestWatchJobFollowsToTerminalState(t *testing.T) {
	s := newTestServer(t)
	job := s.Registry.Register(batch.NewRows([]map[string]string{
		{"relato": "Hurto de bicicleta"},
		{"relato": "Estafa por whatsapp"},
	}))

	statusCh, errCh, err := s.Queue.Add(job)
	require.NoError(t, err)

	st, err := s.watchJob(job.ID, statusCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, batch.StateCompleted, st.State)
	assert.Equal(t, 2, st.Processed)
}

func TestWatchJobReportsRunError(t *testing.T) {
	s := newTestServer(t)
	statusCh := make(chan batch.Status, 2)
	errCh := make(chan error, 1)
	statusCh <- batch.Status{ID: "j", State: batch.StateProcessing}
	statusCh <- batch.Status{ID: "j", State: batch.StateError, Processed: 1}
	close(statusCh)
	errCh <- errors.New("sink closed")
	close(errCh)

	st, err := s.watchJob("j", statusCh, errCh)
	assert.EqualError(t, err, "sink closed")
	assert.Equal(t, batch.StateError, st.State)
	assert.Equal(t, 1, st.Processed)
}

func TestWatchJobStopsWithServer(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	s.Ctx = ctx
	cancel()

	_, err := s.watchJob("j", make(chan batch.Status), make(chan error))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJobErrors(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/api/jobs", `{"rows":[]}`).Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/jobs/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/jobs/missing/results", "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/jobs/missing/events", "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodPost, "/api/jobs/missing/cancel", "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodDelete, "/api/jobs/missing", "").Code)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	do(s, http.MethodPost, "/api/classify", `{"narrative":"robo"}`)
	do(s, http.MethodPost, "/api/classify", `{"narrative":"robo"}`)

	rec := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clasificador_cascade_outcomes_total{strategy="REGLAS"} 2`)
	assert.Contains(t, rec.Body.String(), `clasificador_cascade_attempts_total{status="error",strategy="GEMINI"} 1`)
	assert.Contains(t, rec.Body.String(), "clasificador_memo_hits_total 1")
	assert.Contains(t, rec.Body.String(), "clasificador_memo_misses_total 1")
	assert.Contains(t, rec.Body.String(), "clasificador_memo_entries 1")
}

func TestShutdownSavesJobs(t *testing.T) {
	s := newTestServer(t)
	s.JobsFile = t.TempDir() + "/Jobs.json"
	s.Registry.Register(batch.NewRows([]map[string]string{{"relato": "x"}}))

	require.NoError(t, s.Shutdown(context.Background()))

	restored := batch.NewRegistry()
	require.NoError(t, restored.Restore(s.JobsFile))
	assert.Len(t, restored.List(), 1)
}
