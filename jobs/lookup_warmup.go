package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	jobmetrics "github.com/welfaredesk/welfaredesk/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Warmer refreshes cached dropdown options.
type Warmer interface {
	Warm(ctx context.Context) error
	Invalidate(ctx context.Context, entity string) error
	Options(ctx context.Context, entity string) ([]backend.Option, error)
	Entities() []string
}

// LookupWarmupJob reloads dropdown options into the shared cache so the
// first form of the day does not wait on the backend.
type LookupWarmupJob struct {
	Lookups Warmer
	// Token authenticates the warmup against the backend.
	Token   string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLookupWarmupJob wires dependencies for the warmup handler.
func NewLookupWarmupJob(lookups Warmer, token string, logger *slog.Logger, metrics *jobmetrics.Metrics) *LookupWarmupJob {
	return &LookupWarmupJob{Lookups: lookups, Token: token, Logger: logger, Metrics: metrics}
}

// Handle processes lookup warmup tasks.
func (j *LookupWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Lookups == nil {
		return errors.New("lookup warmup: handler not configured")
	}
	var payload LookupWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("lookup warmup: %w: %v", asynq.SkipRetry, err)
		}
	}

	tracker := j.metrics().Track(TaskLookupWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if j.Token != "" {
		ctx = backend.WithToken(ctx, j.Token)
	}
	logger := j.logger()

	if len(payload.Entities) == 0 {
		if err := j.Lookups.Warm(ctx); err != nil {
			logger.Error("lookup warmup", slog.Any("error", err))
			return err
		}
		j.metrics().AddItems(TaskLookupWarmup, int64(len(j.Lookups.Entities())))
		logger.Info("lookup warmup complete", slog.Int("entities", len(j.Lookups.Entities())))
		return nil
	}

	var errs []error
	warmed := 0
	for _, entity := range payload.Entities {
		if err := j.Lookups.Invalidate(ctx, entity); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", entity, err))
			continue
		}
		if _, err := j.Lookups.Options(ctx, entity); err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", entity, err))
			continue
		}
		warmed++
	}
	j.metrics().AddItems(TaskLookupWarmup, int64(warmed))
	if err := errors.Join(errs...); err != nil {
		logger.Error("lookup warmup", slog.Int("warmed", warmed), slog.Any("error", err))
		return err
	}
	logger.Info("lookup warmup complete", slog.Int("entities", warmed))
	return nil
}

func (j *LookupWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LookupWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLookupWarmup))
	}
	return slog.Default().With(slog.String("job", TaskLookupWarmup))
}
