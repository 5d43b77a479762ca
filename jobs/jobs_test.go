package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	jobmetrics "github.com/welfaredesk/welfaredesk/internal/jobs"
)

type fakeWarmer struct {
	warmed      int
	invalidated []string
	loaded      []string
	tokens      []string
	failOn      string
}

func (f *fakeWarmer) Warm(ctx context.Context) error {
	f.warmed++
	f.tokens = append(f.tokens, backend.TokenFromContext(ctx))
	return nil
}

func (f *fakeWarmer) Invalidate(_ context.Context, entity string) error {
	f.invalidated = append(f.invalidated, entity)
	return nil
}

func (f *fakeWarmer) Options(_ context.Context, entity string) ([]backend.Option, error) {
	if entity == f.failOn {
		return nil, errors.New("backend down")
	}
	f.loaded = append(f.loaded, entity)
	return nil, nil
}

func (f *fakeWarmer) Entities() []string { return []string{"districts", "study_centers"} }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLookupWarmupAllEntities(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewLookupWarmupJob(warmer, "svc-token", quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewLookupWarmupTask()
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, warmer.warmed)
	assert.Equal(t, []string{"svc-token"}, warmer.tokens)
}

func TestLookupWarmupSelectedEntities(t *testing.T) {
	warmer := &fakeWarmer{failOn: "study_centers"}
	job := NewLookupWarmupJob(warmer, "", quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewLookupWarmupTask("districts", "study_centers")
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load study_centers")
	assert.Equal(t, []string{"districts", "study_centers"}, warmer.invalidated)
	assert.Equal(t, []string{"districts"}, warmer.loaded)
	assert.Zero(t, warmer.warmed)
}

func TestLookupWarmupBadPayloadSkipsRetry(t *testing.T) {
	job := NewLookupWarmupJob(&fakeWarmer{}, "", quietLogger(), nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskLookupWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeCleaner struct {
	olderThan time.Duration
	removed   int64
	err       error
}

func (f *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return f.removed, f.err
}

func TestIdempotencyCleanupUsesRetention(t *testing.T) {
	cleaner := &fakeCleaner{removed: 3}
	job := NewIdempotencyCleanupJob(cleaner, 48*time.Hour, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, cleaner.olderThan)

	task, err = NewIdempotencyCleanupTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, time.Hour, cleaner.olderThan)
}

func TestIdempotencyCleanupPropagatesError(t *testing.T) {
	boom := errors.New("db down")
	job := NewIdempotencyCleanupJob(&fakeCleaner{err: boom}, 0, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	assert.Equal(t, 24*time.Hour, job.Retention)
	err := job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil))
	assert.ErrorIs(t, err, boom)
}

func TestTaskPayloads(t *testing.T) {
	task, err := NewLookupWarmupTask("districts")
	require.NoError(t, err)
	assert.Equal(t, TaskLookupWarmup, task.Type())
	var payload LookupWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, []string{"districts"}, payload.Entities)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, quietLogger()).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rec.Body.String())
}
