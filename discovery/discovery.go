package discovery

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Registry abstracts the service registry so the API binary can run against
// consul in deployment and against the in-memory registry in tests.
type Registry interface {
	Register(ctx context.Context, instanceID, serviceName, hostPort string) error
	Deregister(ctx context.Context, instanceID, serviceName string) error
	Discover(ctx context.Context, serviceName string) ([]string, error)
	HealthCheck(instanceID, serviceName string) error
}

// GenerateInstanceID returns a unique instance ID in the form
// "ecomarket-api-123456789"; the random suffix avoids collisions when
// several replicas start at once.
func GenerateInstanceID(serviceName string) string {
	return fmt.Sprintf("%s-%d", serviceName, rand.New(rand.NewSource(time.Now().UnixNano())).Int())
}
