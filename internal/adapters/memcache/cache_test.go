package memcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_booking/internal/adapters/memcache"
	"hostel_booking/internal/domain"
)

func TestCache_RoundTripIsACopy(t *testing.T) {
	c := memcache.New(time.Minute, time.Minute)
	ctx := context.Background()

	in := domain.RawHostel{"id": "1", "name": "Oak"}
	require.NoError(t, c.Set(ctx, "hostel:1", in, 0))
	in["name"] = "mutated"

	var out domain.RawHostel
	ok, err := c.Get(ctx, "hostel:1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Oak", out["name"])
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Del(ctx, "hostel:1"))
	ok, _ = c.Get(ctx, "hostel:1", &out)
	assert.False(t, ok)
}

func TestCache_TTL(t *testing.T) {
	c := memcache.New(time.Minute, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, 1))

	assert.Eventually(t, func() bool {
		var v int
		ok, _ := c.Get(ctx, "k", &v)
		return !ok
	}, 3*time.Second, 50*time.Millisecond)
}
