package redis

import (
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewops/internal/platform/config"
)

func TestNew_UnconfiguredReturnsNil(t *testing.T) {
	client, err := New(config.Redis{URL: ""})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(config.Redis{URL: "redis://[broken"})
	require.Error(t, err)
}

func TestClient_ExposesBareGoRedisClient(t *testing.T) {
	// Decorators such as the org-snapshot cache take the bare go-redis
	// client, not this wrapper; the embedded field must stay exported.
	var wrapper Client
	var bare *goredis.Client = wrapper.Client
	assert.Nil(t, bare)
}
