package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-guard/internal/config"
)

func TestRedisPing(t *testing.T) {
	mr := miniredis.RunT(t)

	r := NewRedis(config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	t.Cleanup(r.Close)

	require.NoError(t, r.Ping(context.Background()))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
}

func TestNilBackendsReportUnconfigured(t *testing.T) {
	var r *Redis
	assert.Error(t, r.Ping(context.Background()))

	var p *Postgres
	assert.Error(t, p.Ping(context.Background()))
	assert.Nil(t, p.PoolHandle())
}
