package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(t.Context(), "", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(t.Context()))
}

func TestInitWithEndpoint(t *testing.T) {
	shutdown, err := Init(t.Context(), "http://localhost:4318", "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	_ = shutdown(t.Context())
}

func TestHostPort(t *testing.T) {
	assert.Equal(t, "collector:4318", hostPort("http://collector:4318/"))
	assert.Equal(t, "collector:4318", hostPort("https://collector:4318"))
	assert.Equal(t, "collector:4318", hostPort("collector:4318"))
}
