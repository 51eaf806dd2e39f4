// Package server ties the game's long-running pieces (tick loop, arena,
// future transports) into one ordered start/stop sequence with signal
// handling.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Start blocks until the service ends
// or fails; Stop asks it to end.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a start/stop function pair into a Service. A nil
// StartFn returns immediately; a nil StopFn is a no-op.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

func (f *FuncService) Start() error {
	if f.StartFn == nil {
		return nil
	}
	return f.StartFn()
}

func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

type namedService struct {
	name string
	svc  Service
}

// Lifecycle starts registered services in order and stops them in reverse
// order on SIGINT/SIGTERM, context cancellation, or the first service
// failure.
type Lifecycle struct {
	logger *zap.Logger

	mu       sync.Mutex
	services []namedService
	stop     sync.Once
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Start order is registration order; stop
// order is the reverse. A service added after Run has begun is never
// started, but is still stopped on shutdown.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, svc: svc})
}

// Run starts every registered service and blocks until a termination
// signal arrives, ctx is cancelled, or a service fails. It then stops all
// services in reverse order.
//
// Postcondition: Every service has been stopped exactly once. Returns the
// first service failure, or nil on a clean shutdown.
func (l *Lifecycle) Run(ctx context.Context) error {
	began := time.Now()

	services := l.snapshot()
	failures := make(chan error, len(services))
	for _, ns := range services {
		ns := ns
		go func() {
			l.logger.Info("service starting", zap.String("service", ns.name))
			if err := ns.svc.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err))
				failures <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}
	l.logger.Info("services launched", zap.Int("count", len(services)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var failure error
	select {
	case sig := <-sigCh:
		l.logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
	case failure = <-failures:
		l.logger.Error("service error, shutting down", zap.Error(failure))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	l.Shutdown()
	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(began)))
	return failure
}

// Shutdown stops every service in reverse registration order. Safe to call
// more than once; only the first call stops anything.
func (l *Lifecycle) Shutdown() {
	l.stop.Do(func() {
		services := l.snapshot()
		for i := len(services) - 1; i >= 0; i-- {
			ns := services[i]
			l.logger.Info("stopping service", zap.String("service", ns.name))
			ns.svc.Stop()
		}
		l.logger.Info("all services stopped")
	})
}

// snapshot copies the service list so Run and Shutdown iterate without
// holding the lock.
func (l *Lifecycle) snapshot() []namedService {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]namedService(nil), l.services...)
}
