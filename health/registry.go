// Package health holds the simulated service-connection flags that gate
// every delivery attempt. The flags are flipped at runtime through the
// fault-injection control endpoints to exercise failure behavior.
package health

import (
	"fmt"
	"sync"
)

// Service flag names, as exposed on the control API.
const (
	ServiceRabbitMQ       = "rabbitmq"
	ServiceRedis          = "redis"
	ServiceHTTPDirect     = "http_directo"
	ServiceSimpleRetry    = "reintentos_simples"
	ServiceExpBackoff     = "backoff_exponencial"
	ServiceScheduledRetry = "reintentos_sofisticados"
	ServiceGeneralNetwork = "general_network"
)

// services is the fixed flag set in presentation order.
var services = []string{
	ServiceRabbitMQ,
	ServiceRedis,
	ServiceHTTPDirect,
	ServiceSimpleRetry,
	ServiceExpBackoff,
	ServiceScheduledRetry,
	ServiceGeneralNetwork,
}

// UnknownServiceError is returned by Set for a flag outside the fixed set.
type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("servicio '%s' no reconocido", e.Service)
}

// Registry is the process-wide map of service flags. All flags start up.
// Reads take snapshots; writes are atomic with respect to subsequent reads.
type Registry struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewRegistry() *Registry {
	r := &Registry{flags: make(map[string]bool, len(services))}
	for _, s := range services {
		r.flags[s] = true
	}
	return r
}

// Services returns the fixed flag names in presentation order.
func Services() []string {
	out := make([]string, len(services))
	copy(out, services)
	return out
}

// displayNames are the human labels used in wire texts.
var displayNames = map[string]string{
	ServiceRabbitMQ:       "RabbitMQ",
	ServiceRedis:          "Redis",
	ServiceHTTPDirect:     "HTTP Directo",
	ServiceSimpleRetry:    "Reintentos Simples",
	ServiceExpBackoff:     "Backoff Exponencial",
	ServiceScheduledRetry: "Reintentos Sofisticados",
	ServiceGeneralNetwork: "Red General",
}

// DisplayName returns the human label for a flag, or the flag itself when it
// has no label.
func DisplayName(service string) string {
	if n, ok := displayNames[service]; ok {
		return n
	}
	return service
}

// Snapshot returns a copy of the current flag map.
func (r *Registry) Snapshot() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.flags))
	for k, v := range r.flags {
		out[k] = v
	}
	return out
}

// Healthy reports the current value of one flag. Unknown flags read as down.
func (r *Registry) Healthy(service string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flags[service]
}

// Set flips one flag and returns the resulting snapshot. Flags outside the
// fixed set are rejected with UnknownServiceError.
func (r *Registry) Set(service string, up bool) (map[string]bool, error) {
	r.mu.Lock()
	if _, ok := r.flags[service]; !ok {
		r.mu.Unlock()
		return nil, &UnknownServiceError{Service: service}
	}
	r.flags[service] = up
	r.mu.Unlock()

	return r.Snapshot(), nil
}

// SetAll flips every flag to the given value and returns the snapshot.
func (r *Registry) SetAll(up bool) map[string]bool {
	r.mu.Lock()
	for s := range r.flags {
		r.flags[s] = up
	}
	r.mu.Unlock()

	return r.Snapshot()
}

// Reset turns every flag back on and returns the snapshot.
func (r *Registry) Reset() map[string]bool {
	return r.SetAll(true)
}

// Gate evaluates general_network AND the given service flag in one snapshot.
// When closed, the returned name identifies the offending flag;
// general_network takes precedence over the service-specific flag.
func (r *Registry) Gate(service string) (open bool, downFlag string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.flags[ServiceGeneralNetwork] {
		return false, ServiceGeneralNetwork
	}
	if !r.flags[service] {
		return false, service
	}
	return true, ""
}
