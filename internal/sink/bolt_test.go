package sink

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBolt(t *testing.T) *Bolt {
	t.Helper()
	b, err := NewBolt(BoltConfig{Path: filepath.Join(t.TempDir(), "nested", "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBolt_PutGet(t *testing.T) {
	b := openBolt(t)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "run/a.bin", []byte("hello")))

	got, err := b.Get("run/a.bin")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = b.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBolt_ConcurrentPut(t *testing.T) {
	b := openBolt(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Put(ctx, fmt.Sprintf("run/%05d.bin", i), Payload(16)))
		}()
	}
	wg.Wait()

	items, err := b.List(ctx, "run/")
	require.NoError(t, err)
	assert.Len(t, items, 50)
	for _, it := range items {
		assert.Equal(t, int64(16), it.Size)
		assert.NotNil(t, it.LastModified)
	}
}

func TestBolt_ListGroupsFolders(t *testing.T) {
	b := openBolt(t)
	ctx := context.Background()
	for _, k := range []string{"a/1.bin", "a/2.bin", "b/x/1.bin", "top.bin"} {
		require.NoError(t, b.Put(ctx, k, []byte("x")))
	}

	items, err := b.List(ctx, "")
	require.NoError(t, err)

	var keys []string
	for _, it := range items {
		keys = append(keys, it.Key+":"+it.Type)
	}
	assert.Equal(t, []string{"a/:folder", "b/:folder", "top.bin:file"}, keys)

	items, err = b.List(ctx, "b/")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b/x/", items[0].Key)
}

func TestBolt_DeletePrefix(t *testing.T) {
	b := openBolt(t)
	ctx := context.Background()
	for _, k := range []string{"run1/a", "run1/b", "run2/a"} {
		require.NoError(t, b.Put(ctx, k, []byte("x")))
	}

	n, err := b.DeletePrefix(ctx, "run1/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = b.Get("run1/a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.Get("run2/a")
	assert.NoError(t, err)

	_, err = b.DeletePrefix(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyPrefix)
}

func TestBolt_PutCancelled(t *testing.T) {
	b := openBolt(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Put(ctx, "k", []byte("x")), context.Canceled)
}
