package lifecycle

import (
	"context"

	"github.com/nornchain/go-norn/pkg/logger"
)

// Service is the minimal start/stop contract shared by node components.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager starts services in registration order and stops them in reverse.
type Manager struct {
	services []Service
}

func New() *Manager { return &Manager{} }

func (m *Manager) Add(s Service) { m.services = append(m.services, s) }

// StartAll starts every registered service. On the first failure it stops the
// already-started services and returns the error.
func (m *Manager) StartAll(ctx context.Context) error {
	for i, s := range m.services {
		if err := s.Start(ctx); err != nil {
			logger.ErrorJ("lifecycle", map[string]any{"service": s.Name(), "op": "start", "err": err.Error()})
			for j := i - 1; j >= 0; j-- {
				_ = m.services[j].Stop(ctx)
			}
			return err
		}
		logger.InfoJ("lifecycle", map[string]any{"service": s.Name(), "op": "start", "result": "ok"})
	}
	return nil
}

// StopAll stops services in reverse order, continuing past failures.
func (m *Manager) StopAll(ctx context.Context) error {
	var last error
	for i := len(m.services) - 1; i >= 0; i-- {
		s := m.services[i]
		if err := s.Stop(ctx); err != nil {
			logger.ErrorJ("lifecycle", map[string]any{"service": s.Name(), "op": "stop", "err": err.Error()})
			last = err
			continue
		}
		logger.InfoJ("lifecycle", map[string]any{"service": s.Name(), "op": "stop", "result": "ok"})
	}
	return last
}
