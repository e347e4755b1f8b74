package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"staybook/internal/adapters/observability"
	"staybook/internal/domain"
)

const (
	LabelAdd    = "Add to Favorites"
	LabelRemove = "Remove from Favorites"
)

// stock images used when a hotel carries none; picked by card index.
var hotelImages = []string{
	"https://images.unsplash.com/photo-1566073771259-6a8506099945?auto=format&fit=crop&w=1470&q=80",
	"https://images.unsplash.com/photo-1551882547-ff40c63fe5fa?auto=format&fit=crop&w=1470&q=80",
	"https://images.unsplash.com/photo-1564501049412-61c2a3083791?auto=format&fit=crop&w=1332&q=80",
	"https://images.unsplash.com/photo-1542314831-068cd1dbfeeb?auto=format&fit=crop&w=1470&q=80",
	"https://images.unsplash.com/photo-1571003123894-1f0594d2b5d9?auto=format&fit=crop&w=749&q=80",
}

// Session identifies one browser. It replaces the page-global user copy:
// whatever is known about the user is looked up through it per call.
type Session struct {
	ID string
}

func (s *Session) mirrorKey() string {
	if s == nil || s.ID == "" {
		return ""
	}
	return "session:" + s.ID + ":user"
}

// Controller runs the fetch, transform, render cycles behind every page action.
type Controller struct {
	api      domain.Backend
	cache    domain.Cache
	userID   int64
	cacheTTL time.Duration
	fanOut   int
	log      zerolog.Logger
}

func NewController(api domain.Backend, cache domain.Cache, userID int64, ttl time.Duration) *Controller {
	if userID <= 0 {
		userID = 1
	}
	return &Controller{api: api, cache: cache, userID: userID, cacheTTL: ttl, fanOut: 4, log: log.Logger}
}

// WithLogger swaps the diagnostic logger (tests capture it).
func (c *Controller) WithLogger(l zerolog.Logger) *Controller {
	c.log = l
	return c
}

func (c *Controller) UserID() int64 { return c.userID }

// degrade records a read that collapsed into an empty result.
func (c *Controller) degrade(op string, err error) {
	observability.ObserveFetchFailure(op)
	c.log.Warn().Str("op", op).Err(err).Msg("fetch failed")
}

/********** cache helpers (cache errors never fail a request) **********/

func (c *Controller) cacheGet(ctx context.Context, key string, dst any) bool {
	if c.cache == nil || key == "" {
		return false
	}
	ok, err := c.cache.Get(ctx, key, dst)
	return ok && err == nil
}

func (c *Controller) cacheSet(ctx context.Context, key string, v any) {
	if c.cache == nil || key == "" || c.cacheTTL <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, v, int(c.cacheTTL.Seconds())); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func label(favorite bool) string {
	if favorite {
		return LabelRemove
	}
	return LabelAdd
}

func locationKey(id int64) string { return fmt.Sprintf("location:%d", id) }
