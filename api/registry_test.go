package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/discovery"
	"github.com/diana-martinez-ship-it/estructura-avanzada/discovery/inmem"
)

// TestServiceRegistrationLifecycle registers the instance, confirms it is
// discoverable and TTL-fresh, and removes it on Deregister.
func TestServiceRegistrationLifecycle(t *testing.T) {
	ctx := context.Background()
	registry := inmem.NewRegistry()
	instanceID := discovery.GenerateInstanceID("ecomarket")

	sr, err := RegisterService(ctx, registry, instanceID, "ecomarket", "localhost:8000", zap.NewNop())
	require.NoError(t, err)

	addrs, err := registry.Discover(ctx, "ecomarket")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:8000"}, addrs)

	live, err := registry.ServiceAddresses(ctx, "ecomarket")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:8000"}, live)

	require.NoError(t, sr.Deregister(ctx))

	_, err = registry.Discover(ctx, "ecomarket")
	assert.Error(t, err)
}

// TestGenerateInstanceIDPrefix keeps the service name as the id prefix.
func TestGenerateInstanceIDPrefix(t *testing.T) {
	id := discovery.GenerateInstanceID("ecomarket")
	assert.Regexp(t, `^ecomarket-\d+$`, id)
}
