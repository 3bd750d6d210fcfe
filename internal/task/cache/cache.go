package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"taskhub/internal/task"
)

// Lister is the board-listing slice of the task service.
type Lister interface {
	ListByState(ctx context.Context, appAcronym string, state task.State) ([]task.Summary, error)
	ListAll(ctx context.Context, appAcronym string) ([]task.Summary, error)
}

// BoardCache is a read-through Redis cache over board listings, keyed
// per application and state. Any Redis failure degrades to the backing
// lister; the cache never turns a healthy read into an error.
type BoardCache struct {
	backing Lister
	rdb     redis.UniversalClient
	ttl     time.Duration
	logger  *slog.Logger
}

func New(backing Lister, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *BoardCache {
	return &BoardCache{backing: backing, rdb: rdb, ttl: ttl, logger: logger}
}

func boardKey(appAcronym string, state task.State) string {
	return fmt.Sprintf("board:%s:%s", appAcronym, state)
}

// allKey cannot collide with boardKey: "all" is not a state token.
func allKey(appAcronym string) string {
	return fmt.Sprintf("board:%s:all", appAcronym)
}

func (c *BoardCache) ListByState(ctx context.Context, appAcronym string, state task.State) ([]task.Summary, error) {
	return c.readThrough(ctx, boardKey(appAcronym, state), func() ([]task.Summary, error) {
		return c.backing.ListByState(ctx, appAcronym, state)
	})
}

func (c *BoardCache) ListAll(ctx context.Context, appAcronym string) ([]task.Summary, error) {
	return c.readThrough(ctx, allKey(appAcronym), func() ([]task.Summary, error) {
		return c.backing.ListAll(ctx, appAcronym)
	})
}

func (c *BoardCache) readThrough(ctx context.Context, key string, load func() ([]task.Summary, error)) ([]task.Summary, error) {
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached []task.Summary
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
		// Unreadable payload: fall through and repopulate.
	} else if err != redis.Nil {
		c.logger.WarnContext(ctx, "board cache read failed", "key", key, "error", err)
	}

	summaries, err := load()
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(summaries); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "board cache write failed", "key", key, "error", err)
		}
	}
	return summaries, nil
}

// InvalidateBoard drops every cached listing for one application. It is
// called after any task mutation in the application.
func (c *BoardCache) InvalidateBoard(ctx context.Context, appAcronym string) {
	keys := make([]string, 0, 6)
	for _, state := range []task.State{task.StateOpen, task.StateTodo, task.StateDoing, task.StateDone, task.StateClose} {
		keys = append(keys, boardKey(appAcronym, state))
	}
	keys = append(keys, allKey(appAcronym))
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "board cache invalidation failed", "app", appAcronym, "error", err)
	}
}
