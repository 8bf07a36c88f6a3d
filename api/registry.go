package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/discovery"
)

// ServiceRegistration keeps one consul registration alive by refreshing its
// TTL check every second until Deregister.
type ServiceRegistration struct {
	registry    discovery.Registry
	instanceID  string
	serviceName string
	logger      *zap.Logger
	stopChan    chan struct{}
}

func RegisterService(
	ctx context.Context,
	registry discovery.Registry,
	instanceID, serviceName, addr string,
	logger *zap.Logger,
) (*ServiceRegistration, error) {
	if err := registry.Register(ctx, instanceID, serviceName, addr); err != nil {
		return nil, err
	}

	sr := &ServiceRegistration{
		registry:    registry,
		instanceID:  instanceID,
		serviceName: serviceName,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}

	go sr.refreshLoop()

	return sr, nil
}

func (sr *ServiceRegistration) refreshLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sr.stopChan:
			return
		case <-ticker.C:
			if err := sr.registry.HealthCheck(sr.instanceID, sr.serviceName); err != nil {
				sr.logger.Warn("health check failed", zap.Error(err))
			}
		}
	}
}

// Deregister stops the TTL loop and removes the instance from the registry.
func (sr *ServiceRegistration) Deregister(ctx context.Context) error {
	close(sr.stopChan)
	return sr.registry.Deregister(ctx, sr.instanceID, sr.serviceName)
}
