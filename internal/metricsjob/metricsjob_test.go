package metricsjob

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/entity"
)

type stubDailyMetrics struct {
	dependency.DailyMetrics
	mu       sync.Mutex
	runs     int
	blocking chan struct{}
}

func (s *stubDailyMetrics) Recompute(_ context.Context) error {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	if s.blocking != nil {
		<-s.blocking
	}
	return nil
}

func (s *stubDailyMetrics) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

type stubRepo struct {
	dependency.Repository
	daily *stubDailyMetrics
}

func (s *stubRepo) DailyMetrics() dependency.DailyMetrics { return s.daily }

type stubSource struct {
	ingestErr error
}

func (s *stubSource) FetchOrders(_ context.Context) ([]entity.OrderNew, error) { return nil, nil }
func (s *stubSource) Ingest(_ context.Context) error                           { return s.ingestErr }

func TestWorkerRunsOnce(t *testing.T) {
	daily := &stubDailyMetrics{}
	w, err := New(&stubRepo{daily: daily}, &stubSource{}, nil)
	assert.NoError(t, err)

	w.run(context.Background())
	assert.Equal(t, 1, daily.Runs())
}

func TestWorkerSkipsOverlappingRuns(t *testing.T) {
	daily := &stubDailyMetrics{blocking: make(chan struct{})}
	w, err := New(&stubRepo{daily: daily}, &stubSource{}, nil)
	assert.NoError(t, err)

	done := make(chan struct{})
	go func() {
		w.run(context.Background())
		close(done)
	}()

	// wait for the first run to be inside Recompute
	assert.Eventually(t, func() bool { return daily.Runs() == 1 }, time.Second, 5*time.Millisecond)

	// a second run while the first is in flight is skipped
	w.run(context.Background())
	assert.Equal(t, 1, daily.Runs())

	close(daily.blocking)
	<-done
}

func TestWorkerStopsOnIngestError(t *testing.T) {
	daily := &stubDailyMetrics{}
	w, err := New(&stubRepo{daily: daily}, &stubSource{ingestErr: fmt.Errorf("feed down")}, nil)
	assert.NoError(t, err)

	w.run(context.Background())
	assert.Zero(t, daily.Runs())
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(&stubRepo{}, &stubSource{}, &Config{RunAt: "25:00", Timezone: "UTC"})
	assert.Error(t, err)

	_, err = New(&stubRepo{}, &stubSource{}, &Config{RunAt: "03:00", Timezone: "Narnia/Somewhere"})
	assert.Error(t, err)

	w, err := New(&stubRepo{}, &stubSource{}, &Config{RunAt: "23:30", Timezone: "America/Sao_Paulo"})
	assert.NoError(t, err)
	assert.NotNil(t, w)
}
