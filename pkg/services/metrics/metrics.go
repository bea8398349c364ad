package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/nspcc-dev/dot-go/pkg/config"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string
	started     atomic.Bool
}

// NewService configures logger and returns new service instance.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		serviceType: name,
		log:         log.With(zap.String("service", name)),
	}
}

// Start runs http service with the exposed endpoint on the configured port.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	if ms.started.Swap(true) {
		ms.log.Info("service already started")
		return nil
	}
	lns := make([]net.Listener, 0, len(ms.http))
	for _, srv := range ms.http {
		ms.log.Info("starting service", zap.String("endpoint", srv.Addr))

		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range lns {
				_ = l.Close()
			}
			ms.started.Store(false)
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		lns = append(lns, ln)
	}
	for i, srv := range ms.http {
		srv.Addr = lns[i].Addr().String() // set Addr to the actual address
		go func(s *http.Server, ln net.Listener) {
			err := s.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to start service", zap.String("endpoint", s.Addr), zap.Error(err))
			}
		}(srv, lns[i])
	}
	return nil
}

// Addresses returns the actual listening addresses, they're only known
// after Start.
func (ms *Service) Addresses() []string {
	addrs := make([]string, 0, len(ms.http))
	for _, srv := range ms.http {
		addrs = append(addrs, srv.Addr)
	}
	return addrs
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	if !ms.config.Enabled {
		return
	}
	if !ms.started.Swap(false) {
		return
	}
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
	_ = ms.log.Sync()
}
