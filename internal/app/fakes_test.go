package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"staybook/internal/app"
	"staybook/internal/domain"
)

var errDown = errors.New("connection refused")

// ---- fakes ----

type fakeBackend struct {
	locations []map[string]any
	hotels    []map[string]any
	user      []byte

	fail  map[string]error // op -> error: locations|hotels|hotels_batch|hotel|hotel <id>|user|put
	mu    sync.Mutex
	calls []string
	puts  [][]byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		locations: []map[string]any{
			{"id": 1, "name": "Paris"},
			{"id": 2, "name": "Rome"},
		},
		hotels: []map[string]any{
			{"id": 10, "name": "Le Meurice", "locationId": 1, "price": 400, "rating": 4.8},
			{"id": 11, "name": "Hotel Artemide", "locationId": "2", "price": 180, "rating": 4.5},
			{"id": "12", "name": "Ritz Paris", "locationId": 1, "price": 900, "rating": 5, "image": "ritz.jpg"},
		},
		user: []byte(`{"id":1,"name":"Ada","favorites":[]}`),
		fail: map[string]error{},
	}
}

func (f *fakeBackend) failing(op string) error { return f.fail[op] }

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) ListLocations(_ context.Context, q domain.LocationQuery) ([]byte, error) {
	f.record(fmt.Sprintf("locations name=%q ids=%v", q.Name, q.IDs))
	if err := f.failing("locations"); err != nil {
		return nil, err
	}
	out := []map[string]any{}
	for _, l := range f.locations {
		if q.Name != "" && l["name"] != q.Name {
			continue
		}
		if len(q.IDs) > 0 && !slices.Contains(q.IDs, toID(l["id"])) {
			continue
		}
		out = append(out, l)
	}
	return json.Marshal(out)
}

func (f *fakeBackend) ListHotels(_ context.Context, q domain.HotelQuery) ([]byte, error) {
	loc := "all"
	if q.LocationID != nil {
		loc = fmt.Sprint(*q.LocationID)
	}
	f.record(fmt.Sprintf("hotels location=%s ids=%v", loc, q.IDs))
	if err := f.failing("hotels"); err != nil {
		return nil, err
	}
	if len(q.IDs) > 0 {
		if err := f.failing("hotels_batch"); err != nil {
			return nil, err
		}
	}
	out := []map[string]any{}
	for _, h := range f.hotels {
		if q.LocationID != nil && toID(h["locationId"]) != *q.LocationID {
			continue
		}
		if len(q.IDs) > 0 && !slices.Contains(q.IDs, toID(h["id"])) {
			continue
		}
		out = append(out, h)
	}
	return json.Marshal(out)
}

func (f *fakeBackend) GetHotel(_ context.Context, id int64) ([]byte, error) {
	f.record(fmt.Sprintf("hotel %d", id))
	if err := f.failing("hotel"); err != nil {
		return nil, err
	}
	if err := f.failing(fmt.Sprintf("hotel %d", id)); err != nil {
		return nil, err
	}
	for _, h := range f.hotels {
		if toID(h["id"]) == id {
			return json.Marshal(h)
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) GetUser(_ context.Context, id int64) ([]byte, error) {
	f.record(fmt.Sprintf("user %d", id))
	if err := f.failing("user"); err != nil {
		return nil, err
	}
	return f.user, nil
}

func (f *fakeBackend) PutUser(_ context.Context, id int64, body []byte) error {
	f.record(fmt.Sprintf("put user %d", id))
	if err := f.failing("put"); err != nil {
		return err
	}
	f.puts = append(f.puts, body)
	f.user = body
	return nil
}

// storedFavorites decodes the favorites array as last persisted.
func (f *fakeBackend) storedFavorites(t *testing.T) []int64 {
	t.Helper()
	var u struct {
		Favorites []int64 `json:"favorites"`
	}
	if err := json.Unmarshal(f.user, &u); err != nil {
		t.Fatalf("stored user: %v", err)
	}
	return u.Favorites
}

func (f *fakeBackend) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func toID(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int64:
		return x
	case string:
		var n int64
		_, _ = fmt.Sscan(x, &n)
		return n
	}
	return 0
}

type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- helpers ----

type harness struct {
	api   *fakeBackend
	cache *fakeCache
	logs  *bytes.Buffer
	c     *app.Controller
	sess  *app.Session
}

func newHarness() *harness {
	h := &harness{api: newFakeBackend(), cache: &fakeCache{}, logs: &bytes.Buffer{}}
	l := zerolog.New(h.logs).Level(zerolog.InfoLevel)
	h.c = app.NewController(h.api, h.cache, 1, time.Minute).WithLogger(l)
	h.sess = &app.Session{ID: "browser-1"}
	return h
}

func (h *harness) logLines() []string {
	s := strings.TrimSpace(h.logs.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
