package perf

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/lookup"
)

// slowSource answers dropdowns after a fixed backend delay.
type slowSource struct {
	delay time.Duration
	calls atomic.Int64
}

func (s *slowSource) Dropdown(ctx context.Context, entity string) ([]backend.Option, error) {
	s.calls.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
	}
	opts := make([]backend.Option, 200)
	for i := range opts {
		opts[i] = backend.Option{ID: entity + "-" + string(rune('a'+i%26)), Label: entity}
	}
	return opts, nil
}

var entities = []string{"teachers", "group-leaders", "sc-students", "study-centers"}

func newLookupService(src lookup.Source, reg prometheus.Registerer) *lookup.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return lookup.NewService(src, nil, lookup.Config{Entities: entities, TTL: time.Minute, Size: 16}, reg, logger)
}

func TestLookupLatencyTargets(t *testing.T) {
	src := &slowSource{delay: 40 * time.Millisecond}
	svc := newLookupService(src, prometheus.NewRegistry())
	ctx := context.Background()

	cold := make([]time.Duration, 0, len(entities))
	for _, entity := range entities {
		start := time.Now()
		_, err := svc.Options(ctx, entity)
		require.NoError(t, err)
		cold = append(cold, time.Since(start))
	}

	warm := make([]time.Duration, 0, 400)
	for i := 0; i < 100; i++ {
		for _, entity := range entities {
			start := time.Now()
			_, err := svc.Options(ctx, entity)
			require.NoError(t, err)
			warm = append(warm, time.Since(start))
		}
	}

	assert.Less(t, percentile95(cold), 2*time.Second, "cold lookup p95")
	assert.Less(t, percentile95(warm), 5*time.Millisecond, "cached lookup p95")
	assert.EqualValues(t, len(entities), src.calls.Load())
}

func TestConcurrentMissesShareOneBackendCall(t *testing.T) {
	src := &slowSource{delay: 50 * time.Millisecond}
	reg := prometheus.NewRegistry()
	svc := newLookupService(src, reg)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Options(context.Background(), "teachers")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, src.calls.Load())

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, 1.0, metricValue(t, families, "welfaredesk_lookup_requests_total", map[string]string{"entity": "teachers", "tier": "backend"}))
}

func BenchmarkLookupCachedOptions(b *testing.B) {
	svc := newLookupService(&slowSource{}, nil)
	ctx := context.Background()
	if _, err := svc.Options(ctx, "teachers"); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.Options(ctx, "teachers"); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
