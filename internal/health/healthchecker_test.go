package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubChecker struct {
	healthy atomic.Bool
}

func (s *stubChecker) Name() string                         { return "stub" }
func (s *stubChecker) IsHealthy() bool                      { return s.healthy.Load() }
func (s *stubChecker) Start(context.Context, time.Duration) {}

func TestServiceHealthAggregation(t *testing.T) {
	dep := &stubChecker{}
	svc := NewServiceHealthChecker(zerolog.Nop(), dep)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx, 10*time.Millisecond)

	if svc.IsHealthy() {
		t.Fatal("service must start unhealthy")
	}

	dep.healthy.Store(true)
	deadline := time.Now().Add(2 * time.Second)
	for !svc.IsHealthy() {
		if time.Now().After(deadline) {
			t.Fatal("service never became healthy")
		}
		time.Sleep(5 * time.Millisecond)
	}

	dep.healthy.Store(false)
	deadline = time.Now().Add(2 * time.Second)
	for svc.IsHealthy() {
		if time.Now().After(deadline) {
			t.Fatal("service never became unhealthy")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
