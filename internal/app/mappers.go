package app

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"staybook/internal/domain"
)

/********** alias registries (single source of truth) **********/

var hotelAliases = map[string][]string{
	"id":            {"id", "hotelId", "hotel_id"},
	"name":          {"name", "hotel_name", "title"},
	"location_id":   {"locationId", "location_id", "location.id"},
	"location_name": {"location.name", "locationName", "location", "city"},
	"price":         {"price", "pricePerNight", "price_per_night", "price.amount"},
	"rating":        {"rating", "stars", "score"},
	"image":         {"image", "imageUrl", "image_url", "images.0", "images.0.url"},
}

var locationAliases = map[string][]string{
	"id":   {"id", "locationId", "location_id"},
	"name": {"name", "title", "city"},
}

var userAliases = map[string][]string{
	"id":        {"id", "userId", "user_id"},
	"favorites": {"favorites", "favourites", "favoriteHotels"},
}

/********** tiny helpers **********/

// parseID accepts integral JSON numbers and numeric strings ("12", " 12 ").
func parseID(r gjson.Result) (int64, bool) {
	switch r.Type {
	case gjson.Number:
		f := r.Float()
		if f != math.Trunc(f) || f <= 0 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(r.Str), 10, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func firstID(obj gjson.Result, aliases map[string][]string, key string) (int64, bool) {
	for _, p := range aliases[key] {
		if id, ok := parseID(obj.Get(p)); ok {
			return id, true
		}
	}
	return 0, false
}

// firstString: first non-empty JSON string for a named alias set.
func firstString(obj gjson.Result, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if r := obj.Get(p); r.Type == gjson.String {
			if s := strings.TrimSpace(r.Str); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstFloat: number or numeric string ("8,5" allowed).
func firstFloat(obj gjson.Result, aliases map[string][]string, key string) float64 {
	for _, p := range aliases[key] {
		r := obj.Get(p)
		switch r.Type {
		case gjson.Number:
			return r.Float()
		case gjson.String:
			s := strings.TrimSpace(strings.ReplaceAll(r.Str, ",", "."))
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func parseDoc(raw []byte, wantArray bool) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, domain.ErrMalformed
	}
	doc := gjson.ParseBytes(raw)
	if wantArray && !doc.IsArray() {
		return gjson.Result{}, fmt.Errorf("%w: expected array", domain.ErrMalformed)
	}
	if !wantArray && !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: expected object", domain.ErrMalformed)
	}
	return doc, nil
}

/********** mappers **********/

func mapLocation(obj gjson.Result) (domain.Location, bool) {
	id, ok := firstID(obj, locationAliases, "id")
	if !ok {
		return domain.Location{}, false
	}
	return domain.Location{ID: id, Name: firstString(obj, locationAliases, "name")}, true
}

func mapLocations(raw []byte) ([]domain.Location, error) {
	doc, err := parseDoc(raw, true)
	if err != nil {
		return nil, err
	}
	var out []domain.Location
	for _, item := range doc.Array() {
		loc, ok := mapLocation(item)
		if !ok {
			log.Debug().Str("raw", item.Raw).Msg("skipping location without id")
			continue
		}
		out = append(out, loc)
	}
	return out, nil
}

func mapHotelObj(obj gjson.Result) (domain.Hotel, bool) {
	if !obj.IsObject() {
		return domain.Hotel{}, false
	}
	id, ok := firstID(obj, hotelAliases, "id")
	if !ok {
		return domain.Hotel{}, false
	}
	h := domain.Hotel{
		ID:           id,
		Name:         firstString(obj, hotelAliases, "name"),
		LocationName: firstString(obj, hotelAliases, "location_name"),
		Price:        firstFloat(obj, hotelAliases, "price"),
		Rating:       firstFloat(obj, hotelAliases, "rating"),
		Image:        firstString(obj, hotelAliases, "image"),
	}
	h.LocationID, _ = firstID(obj, hotelAliases, "location_id")
	return h, true
}

func mapHotel(raw []byte) (domain.Hotel, error) {
	doc, err := parseDoc(raw, false)
	if err != nil {
		return domain.Hotel{}, err
	}
	h, ok := mapHotelObj(doc)
	if !ok {
		return domain.Hotel{}, fmt.Errorf("%w: hotel without id", domain.ErrMalformed)
	}
	return h, nil
}

func mapHotels(raw []byte) ([]domain.Hotel, error) {
	doc, err := parseDoc(raw, true)
	if err != nil {
		return nil, err
	}
	var out []domain.Hotel
	for _, item := range doc.Array() {
		h, ok := mapHotelObj(item)
		if !ok {
			log.Debug().Str("raw", item.Raw).Msg("skipping hotel without id")
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// mapUser keeps the raw payload so unknown fields survive the full overwrite on PUT.
func mapUser(raw []byte) (domain.User, error) {
	doc, err := parseDoc(raw, false)
	if err != nil {
		return domain.User{}, err
	}
	id, ok := firstID(doc, userAliases, "id")
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user without id", domain.ErrMalformed)
	}
	u := domain.User{ID: id, Raw: append(json.RawMessage(nil), raw...)}
	for _, p := range userAliases["favorites"] {
		fav := doc.Get(p)
		if !fav.IsArray() {
			continue
		}
		u.Favorites = domain.Favorites{}
		for _, r := range fav.Array() {
			if hid, ok := parseID(r); ok {
				u.Favorites, _ = u.Favorites.Add(hid)
			}
		}
		break
	}
	if u.Favorites == nil {
		u.Favorites = domain.Favorites{}
	}
	return u, nil
}

// encodeUser rebuilds the full user object: original fields plus normalized id and favorites.
func encodeUser(u domain.User) ([]byte, error) {
	obj := map[string]any{}
	if len(u.Raw) > 0 {
		if err := json.Unmarshal(u.Raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
		}
	}
	for _, alias := range userAliases["favorites"][1:] {
		delete(obj, alias)
	}
	favs := u.Favorites
	if favs == nil {
		favs = domain.Favorites{}
	}
	obj["id"] = u.ID
	obj["favorites"] = favs
	return json.Marshal(obj)
}
