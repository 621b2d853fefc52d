package auth

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentServer accepts connections and never answers.
func silentServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			_ = conn.Close()
		}
	})
	return ln.Addr().String()
}

func TestRedisRevocationLookupIsBounded(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:                  silentServer(t),
		MaxRetries:            -1,
		ContextTimeoutEnabled: true,
	})
	t.Cleanup(func() { _ = client.Close() })
	list := NewRedisRevocationList(client, 100*time.Millisecond)

	start := time.Now()
	revoked, err := list.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
	assert.False(t, revoked)
	assert.Less(t, time.Since(start), time.Second)

	start = time.Now()
	assert.Error(t, list.Revoke(context.Background(), "jti-1", time.Now().Add(time.Hour)))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRedisRevocationListDefaultsTimeout(t *testing.T) {
	list := NewRedisRevocationList(redis.NewClient(&redis.Options{}), 0)
	assert.Equal(t, DefaultRevocationTimeout, list.timeout)
}

func TestRedisRevocationIgnoresEmptyIDs(t *testing.T) {
	list := NewRedisRevocationList(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), time.Millisecond)

	revoked, err := list.IsRevoked(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, list.Revoke(context.Background(), "", time.Now().Add(time.Hour)))
}
