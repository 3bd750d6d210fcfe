package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/task"
)

type stubLister struct {
	calls     int
	summaries []task.Summary
	err       error
}

func (s *stubLister) ListByState(_ context.Context, _ string, _ task.State) ([]task.Summary, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]task.Summary(nil), s.summaries...), nil
}

func (s *stubLister) ListAll(_ context.Context, _ string) ([]task.Summary, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]task.Summary(nil), s.summaries...), nil
}

func newTestCache(t *testing.T, backing Lister) (*BoardCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(backing, client, time.Minute, logger), mr
}

func TestListByStateMissThenHit(t *testing.T) {
	backing := &stubLister{summaries: []task.Summary{
		{ID: "DEMO_1", Name: "Fix bug", State: task.StateOpen, Owner: "alice"},
	}}
	c, mr := newTestCache(t, backing)
	ctx := context.Background()

	first, err := c.ListByState(ctx, "DEMO", task.StateOpen)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, backing.calls)

	ttl := mr.TTL("board:DEMO:open")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %v", ttl)

	second, err := c.ListByState(ctx, "DEMO", task.StateOpen)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backing.calls, "second read must come from cache")
}

func TestListAllMissThenHit(t *testing.T) {
	backing := &stubLister{summaries: []task.Summary{
		{ID: "DEMO_1", State: task.StateOpen},
		{ID: "DEMO_2", State: task.StateDone},
	}}
	c, mr := newTestCache(t, backing)
	ctx := context.Background()

	first, err := c.ListAll(ctx, "DEMO")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, mr.Exists("board:DEMO:all"))

	second, err := c.ListAll(ctx, "DEMO")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backing.calls, "second read must come from cache")
}

func TestInvalidateBoardDropsAllColumns(t *testing.T) {
	backing := &stubLister{summaries: []task.Summary{{ID: "DEMO_1"}}}
	c, mr := newTestCache(t, backing)
	ctx := context.Background()

	for _, state := range []task.State{task.StateOpen, task.StateTodo, task.StateDoing, task.StateDone, task.StateClose} {
		_, err := c.ListByState(ctx, "DEMO", state)
		require.NoError(t, err)
	}
	_, err := c.ListAll(ctx, "DEMO")
	require.NoError(t, err)
	require.Equal(t, 6, backing.calls)

	c.InvalidateBoard(ctx, "DEMO")
	for _, suffix := range []string{"open", "todo", "doing", "done", "close", "all"} {
		assert.False(t, mr.Exists("board:DEMO:"+suffix), "key for %s should be gone", suffix)
	}

	_, err = c.ListByState(ctx, "DEMO", task.StateOpen)
	require.NoError(t, err)
	assert.Equal(t, 7, backing.calls)
}

func TestBackingErrorIsNotCached(t *testing.T) {
	backing := &stubLister{err: errors.New("storage down")}
	c, _ := newTestCache(t, backing)

	_, err := c.ListByState(context.Background(), "DEMO", task.StateOpen)
	assert.Error(t, err)
	assert.Equal(t, 1, backing.calls)
}

func TestRedisDownDegradesToBacking(t *testing.T) {
	backing := &stubLister{summaries: []task.Summary{{ID: "DEMO_1"}}}
	c, mr := newTestCache(t, backing)
	mr.Close()

	out, err := c.ListByState(context.Background(), "DEMO", task.StateOpen)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 1, backing.calls)
}
