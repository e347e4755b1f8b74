package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"staybook/internal/domain"
)

const mirrorTTL = 24 * time.Hour

type HotelCard struct {
	domain.Hotel
	Location string
	Image    string
	Favorite bool
	Label    string
}

type FavoriteItem struct {
	HotelID int64  `json:"hotelId"`
	Name    string `json:"name"`
}

type FavoritesView struct {
	Items    []FavoriteItem `json:"items"`
	Degraded bool           `json:"degraded"`
}

// HomeView is everything the page renders. Degraded is set when at least one
// read failed and was replaced by an empty result; Stale when favorites come
// from the session mirror instead of the backend.
type HomeView struct {
	Query     string
	Locations []string
	Hotels    []HotelCard
	Favorites FavoritesView
	Degraded  bool
	Stale     bool
}

// Initialize renders the landing page: suggestions, favorites and every hotel.
func (c *Controller) Initialize(ctx context.Context, sess *Session) HomeView {
	return c.home(ctx, sess, "")
}

// Search renders hotels for a location name. Blank means all hotels; a name
// that matches no location yields no hotels.
func (c *Controller) Search(ctx context.Context, sess *Session, locationName string) HomeView {
	return c.home(ctx, sess, strings.TrimSpace(locationName))
}

func (c *Controller) home(ctx context.Context, sess *Session, query string) HomeView {
	v := HomeView{Query: query}

	locs, err := c.Locations(ctx)
	if err != nil {
		c.degrade("locations", err)
		v.Degraded = true
	}
	for _, l := range locs {
		v.Locations = append(v.Locations, l.Name)
	}

	user, stale, err := c.viewUser(ctx, sess)
	if err != nil {
		v.Degraded = true
	}
	v.Stale = stale
	v.Favorites = c.favoritesView(ctx, user)
	v.Degraded = v.Degraded || v.Favorites.Degraded

	hotels, err := c.findHotels(ctx, query)
	if err != nil {
		c.degrade("hotels", err)
		v.Degraded = true
	}
	var degraded bool
	v.Hotels, degraded = c.cards(ctx, hotels, user)
	v.Degraded = v.Degraded || degraded
	return v
}

// Favorites renders the favorites list alone.
func (c *Controller) Favorites(ctx context.Context, sess *Session) FavoritesView {
	user, _, err := c.viewUser(ctx, sess)
	fv := c.favoritesView(ctx, user)
	fv.Degraded = fv.Degraded || err != nil
	return fv
}

/********** locations **********/

// Locations returns every location, cached.
func (c *Controller) Locations(ctx context.Context) ([]domain.Location, error) {
	var out []domain.Location
	if c.cacheGet(ctx, "locations:all", &out) {
		return out, nil
	}
	raw, err := c.api.ListLocations(ctx, domain.LocationQuery{})
	if err != nil {
		return nil, err
	}
	out, err = mapLocations(raw)
	if err != nil {
		return nil, err
	}
	c.cacheSet(ctx, "locations:all", out)
	for _, l := range out {
		c.cacheSet(ctx, locationKey(l.ID), l)
	}
	return out, nil
}

// ResolveLocation looks a location up by name through the backend filter.
// The first match wins.
func (c *Controller) ResolveLocation(ctx context.Context, name string) (domain.Location, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Location{}, false, nil
	}
	// the backend filter is exact, so the key is too
	key := "locations:name:" + name
	var hit []domain.Location
	if !c.cacheGet(ctx, key, &hit) {
		raw, err := c.api.ListLocations(ctx, domain.LocationQuery{Name: name})
		if err != nil {
			return domain.Location{}, false, err
		}
		if hit, err = mapLocations(raw); err != nil {
			return domain.Location{}, false, err
		}
		if hit == nil {
			hit = []domain.Location{}
		}
		c.cacheSet(ctx, key, hit)
	}
	if len(hit) == 0 {
		return domain.Location{}, false, nil
	}
	c.cacheSet(ctx, locationKey(hit[0].ID), hit[0])
	return hit[0], true, nil
}

// locationsByID resolves ids from cache and fetches the rest in one request.
func (c *Controller) locationsByID(ctx context.Context, ids []int64) (map[int64]domain.Location, error) {
	out := make(map[int64]domain.Location, len(ids))
	var missing []int64
	for _, id := range ids {
		var l domain.Location
		if c.cacheGet(ctx, locationKey(id), &l) {
			out[id] = l
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}
	raw, err := c.api.ListLocations(ctx, domain.LocationQuery{IDs: missing})
	if err != nil {
		return out, err
	}
	locs, err := mapLocations(raw)
	if err != nil {
		return out, err
	}
	for _, l := range locs {
		out[l.ID] = l
		c.cacheSet(ctx, locationKey(l.ID), l)
	}
	return out, nil
}

/********** hotels **********/

func (c *Controller) findHotels(ctx context.Context, name string) ([]domain.Hotel, error) {
	if name == "" {
		return c.listHotels(ctx, domain.HotelQuery{})
	}
	loc, ok, err := c.ResolveLocation(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	return c.listHotels(ctx, domain.HotelQuery{LocationID: &loc.ID})
}

func (c *Controller) listHotels(ctx context.Context, q domain.HotelQuery) ([]domain.Hotel, error) {
	raw, err := c.api.ListHotels(ctx, q)
	if err != nil {
		return nil, err
	}
	return mapHotels(raw)
}

// cards builds hotel cards in server order. Location names are filled with a
// single batched lookup; the bool reports a failed lookup.
func (c *Controller) cards(ctx context.Context, hotels []domain.Hotel, user *domain.User) ([]HotelCard, bool) {
	var ids []int64
	seen := map[int64]bool{}
	for _, h := range hotels {
		if h.LocationName == "" && h.LocationID != 0 && !seen[h.LocationID] {
			seen[h.LocationID] = true
			ids = append(ids, h.LocationID)
		}
	}
	var (
		locs     map[int64]domain.Location
		degraded bool
	)
	if len(ids) > 0 {
		var err error
		if locs, err = c.locationsByID(ctx, ids); err != nil {
			c.degrade("locations_by_id", err)
			degraded = true
		}
	}

	out := make([]HotelCard, 0, len(hotels))
	for i, h := range hotels {
		card := HotelCard{Hotel: h, Location: h.LocationName, Image: h.Image}
		if card.Location == "" {
			card.Location = locs[h.LocationID].Name
		}
		if card.Image == "" {
			card.Image = hotelImages[i%len(hotelImages)]
		}
		card.Favorite = user != nil && user.Favorites.Has(h.ID)
		card.Label = label(card.Favorite)
		out = append(out, card)
	}
	return out, degraded
}

/********** user & favorites **********/

// fetchUser always goes to the backend and refreshes the session mirror.
func (c *Controller) fetchUser(ctx context.Context, sess *Session) (domain.User, error) {
	raw, err := c.api.GetUser(ctx, c.userID)
	if err != nil {
		return domain.User{}, err
	}
	u, err := mapUser(raw)
	if err != nil {
		return domain.User{}, err
	}
	c.mirror(ctx, sess, u)
	return u, nil
}

func (c *Controller) mirror(ctx context.Context, sess *Session, u domain.User) {
	key := sess.mirrorKey()
	if c.cache == nil || key == "" {
		return
	}
	if err := c.cache.Set(ctx, key, u, int(mirrorTTL.Seconds())); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("session mirror write failed")
	}
}

// viewUser is fetchUser for rendering: on failure it logs once and falls back
// to the session mirror (stale=true), or nil when there is none.
func (c *Controller) viewUser(ctx context.Context, sess *Session) (*domain.User, bool, error) {
	u, err := c.fetchUser(ctx, sess)
	if err == nil {
		return &u, false, nil
	}
	c.degrade("user", err)
	var cached domain.User
	if c.cacheGet(ctx, sess.mirrorKey(), &cached) {
		return &cached, true, err
	}
	return nil, false, err
}

// favoritesView resolves favorite hotel names in favorites order, skipping
// hotels the backend no longer has.
func (c *Controller) favoritesView(ctx context.Context, user *domain.User) FavoritesView {
	fv := FavoritesView{Items: []FavoriteItem{}}
	if user == nil || len(user.Favorites) == 0 {
		return fv
	}
	hotels, err := c.hotelsByID(ctx, user.Favorites)
	if err != nil {
		c.degrade("favorites", err)
		fv.Degraded = true
	}
	for _, id := range user.Favorites {
		if h, ok := hotels[id]; ok {
			fv.Items = append(fv.Items, FavoriteItem{HotelID: id, Name: h.Name})
		}
	}
	return fv
}

// hotelsByID tries one batched request and falls back to bounded per-id
// lookups when the batch endpoint fails.
func (c *Controller) hotelsByID(ctx context.Context, ids []int64) (map[int64]domain.Hotel, error) {
	out := make(map[int64]domain.Hotel, len(ids))
	hs, err := c.listHotels(ctx, domain.HotelQuery{IDs: ids})
	if err == nil {
		for _, h := range hs {
			out[h.ID] = h
		}
		return out, nil
	}
	c.log.Debug().Err(err).Msg("batched hotel lookup failed, fetching one by one")

	// each lookup stands alone: a failed id is skipped, the rest still render
	res := make([]*domain.Hotel, len(ids))
	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(c.fanOut)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			raw, err := c.api.GetHotel(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err == nil {
				var h domain.Hotel
				if h, err = mapHotel(raw); err == nil {
					res[i] = &h
					return nil
				}
			}
			errs[i] = fmt.Errorf("hotel %d: %w", id, err)
			return nil
		})
	}
	_ = g.Wait()
	for _, h := range res {
		if h != nil {
			out[h.ID] = *h
		}
	}
	return out, errors.Join(errs...)
}
