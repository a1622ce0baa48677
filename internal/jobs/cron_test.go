package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/HamedShams/sprint-pulse/internal/config"
)

type slowService struct {
	calls atomic.Int32
	block chan struct{}
}

func (s *slowService) RunSprintReviews(ctx context.Context) error {
	s.calls.Add(1)
	<-s.block
	return nil
}

func TestReviewSkipsOverlappingRuns(t *testing.T) {
	svc := &slowService{block: make(chan struct{})}
	cfg := config.Config{TZ: "UTC", ReviewCron: "* * * * *", RunTimeout: time.Minute}
	cr := NewCron(cfg, zerolog.Nop(), svc)

	go cr.review()
	require.Eventually(t, func() bool { return svc.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// second trigger while the first is still in flight
	cr.review()
	require.Equal(t, int32(1), svc.calls.Load())

	close(svc.block)
	require.Eventually(t, func() bool { return !cr.running.Load() }, time.Second, 5*time.Millisecond)
	cr.review()
	require.Equal(t, int32(2), svc.calls.Load())
}
