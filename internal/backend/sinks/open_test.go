package sinks

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/searchmap/internal/backend/bleve"
	"github.com/conduit-lang/searchmap/internal/backend/redis"
	"github.com/conduit-lang/searchmap/internal/config"
	"github.com/conduit-lang/searchmap/internal/mapping"
)

func TestOpen_Bleve(t *testing.T) {
	sink, err := Open(config.BackendConfig{Kind: config.BackendBleve}, nil)
	require.NoError(t, err)
	defer sink.Close()

	assert.IsType(t, &bleve.Sink{}, sink)
}

func TestOpen_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	sink, err := Open(config.BackendConfig{
		Kind:  config.BackendRedis,
		Redis: config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:"},
	}, nil)
	require.NoError(t, err)
	defer sink.Close()
	require.IsType(t, &redis.Sink{}, sink)

	ctx := context.Background()
	require.NoError(t, sink.Index(ctx, mapping.Document{Index: "orders", ID: "1", Fields: map[string]interface{}{"Total": 1.0}}))
	require.NoError(t, sink.Commit(ctx))
	assert.True(t, mr.Exists("test:orders:doc:1"))
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open(config.BackendConfig{Kind: "solr"}, nil)
	assert.Error(t, err)
}
