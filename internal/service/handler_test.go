package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easeaico/scenecraft/internal/config"
	"github.com/easeaico/scenecraft/internal/memory"
	"github.com/easeaico/scenecraft/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	result  pipeline.Result
	prompts []string
}

func (s *stubRunner) Run(ctx context.Context, prompt string) pipeline.Result {
	s.prompts = append(s.prompts, prompt)
	return s.result
}

func newTestStore(t *testing.T) *memory.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	store, err := memory.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema(ctx))
	return store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestExecute_Success(t *testing.T) {
	runner := &stubRunner{result: pipeline.Result{
		Status:         pipeline.StatusSuccess,
		CreationID:     "id-1",
		OriginalPrompt: "castle",
		ImagePath:      "/out/a.png",
	}}
	h := NewHandler(runner, newTestStore(t), config.NewRegistry(), nil, nil)

	rec := do(t, h, http.MethodPost, "/execution", `{"prompt":"castle"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"castle"}, runner.prompts)

	var body pipeline.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, pipeline.StatusSuccess, body.Status)
	assert.Equal(t, "id-1", body.CreationID)
}

func TestExecute_Failures(t *testing.T) {
	tests := []struct {
		code pipeline.Code
		want int
	}{
		{pipeline.CodeValidation, http.StatusBadRequest},
		{pipeline.CodeServiceCall, http.StatusBadGateway},
		{pipeline.CodeModelLoad, http.StatusServiceUnavailable},
		{pipeline.CodeStorage, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			runner := &stubRunner{result: pipeline.Result{
				Status: pipeline.StatusFailure,
				Err:    &pipeline.Error{Code: tt.code, Stage: pipeline.StageValidate, Message: "missing prompt"},
			}}
			h := NewHandler(runner, newTestStore(t), config.NewRegistry(), nil, nil)

			rec := do(t, h, http.MethodPost, "/execution", `{"prompt":""}`)
			assert.Equal(t, tt.want, rec.Code)

			var body pipeline.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, pipeline.StatusFailure, body.Status)
			assert.Equal(t, "missing prompt", body.Reason)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestExecute_InvalidBody(t *testing.T) {
	runner := &stubRunner{}
	h := NewHandler(runner, newTestStore(t), config.NewRegistry(), nil, nil)

	rec := do(t, h, http.MethodPost, "/execution", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, runner.prompts)
}

func TestConfigure(t *testing.T) {
	registry := config.NewRegistry()
	h := NewHandler(&stubRunner{}, newTestStore(t), registry, nil, nil)

	rec := do(t, h, http.MethodPost, "/config", `{"super-user":{"app_ids":["a.example","b.example"]}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	c, ok := registry.Get(config.SuperUser)
	require.True(t, ok)
	assert.Equal(t, []string{"a.example", "b.example"}, c.AppIDs)
}

func TestCreationsEndpoints(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	forest, err := store.Insert(ctx, &memory.CreationRecord{Timestamp: base, OriginalPrompt: "mountain forest"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, &memory.CreationRecord{Timestamp: base.Add(time.Second), OriginalPrompt: "desert oasis"})
	require.NoError(t, err)

	h := NewHandler(&stubRunner{}, store, config.NewRegistry(), nil, nil)

	t.Run("list", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/creations?limit=10", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var records []memory.CreationRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		require.Len(t, records, 2)
		assert.Equal(t, "desert oasis", records[0].OriginalPrompt)
	})

	t.Run("similar", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/creations/similar?prompt=forest+walk", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var records []memory.CreationRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		require.Len(t, records, 1)
		assert.Equal(t, forest, records[0].ID)
	})

	t.Run("similar requires prompt", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/creations/similar", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/creations?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/creations/"+forest, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var got memory.CreationRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "mountain forest", got.OriginalPrompt)
	})

	t.Run("get missing", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/creations/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	pipeline.NewMetrics(reg)
	h := NewHandler(&stubRunner{}, newTestStore(t), config.NewRegistry(), reg, nil)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
