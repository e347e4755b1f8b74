package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"staybook/internal/domain"
)

func TestParseID(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{`7`, 7, true},
		{`"7"`, 7, true},
		{`" 42 "`, 42, true},
		{`7.0`, 7, true},
		{`7.5`, 0, false},
		{`"abc"`, 0, false},
		{`0`, 0, false},
		{`-3`, 0, false},
		{`null`, 0, false},
		{`true`, 0, false},
		{`9223372036854775807`, 0, false},
		{`1e19`, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseID(gjson.Parse(tc.raw))
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestMapHotels_Aliases(t *testing.T) {
	raw := []byte(`[
		{"id": 1, "name": "A", "locationId": 3, "price": 120, "rating": 4.5},
		{"id": "2", "name": "B", "location": "Paris", "price": "99,50", "rating": "4"},
		{"id": 3, "hotel_name": "C", "location": {"id": "9", "name": "Rome"}, "images": ["c.jpg"]},
		{"name": "no id"},
		"garbage"
	]`)

	hs, err := mapHotels(raw)
	require.NoError(t, err)
	require.Len(t, hs, 3)

	assert.Equal(t, domain.Hotel{ID: 1, Name: "A", LocationID: 3, Price: 120, Rating: 4.5}, hs[0])
	assert.Equal(t, domain.Hotel{ID: 2, Name: "B", LocationName: "Paris", Price: 99.5, Rating: 4}, hs[1])
	assert.Equal(t, domain.Hotel{ID: 3, Name: "C", LocationID: 9, LocationName: "Rome", Image: "c.jpg"}, hs[2])
}

func TestMapHotels_LocationStringIsAName(t *testing.T) {
	hs, err := mapHotels([]byte(`[{"id": 4, "name": "D", "location": "3"}]`))
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, int64(0), hs[0].LocationID)
	assert.Equal(t, "3", hs[0].LocationName)
}

func TestMapHotels_Malformed(t *testing.T) {
	_, err := mapHotels([]byte(`[{"id":1`))
	assert.ErrorIs(t, err, domain.ErrMalformed)

	_, err = mapHotels([]byte(`{"id":1}`))
	assert.ErrorIs(t, err, domain.ErrMalformed)

	_, err = mapHotel([]byte(`{"name":"x"}`))
	assert.ErrorIs(t, err, domain.ErrMalformed)
}

func TestMapUser_DedupesFavorites(t *testing.T) {
	u, err := mapUser([]byte(`{"id": 1, "favorites": [3, "3", 5, "x", 3]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, domain.Favorites{3, 5}, u.Favorites)
}

func TestMapUser_MissingFavorites(t *testing.T) {
	u, err := mapUser([]byte(`{"id": 1}`))
	require.NoError(t, err)
	assert.NotNil(t, u.Favorites)
	assert.Empty(t, u.Favorites)

	b, err := encodeUser(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"favorites":[]}`, string(b))
}

func TestEncodeUser_KeepsUnknownFields(t *testing.T) {
	u, err := mapUser([]byte(`{"id": "1", "email": "a@b.c", "prefs": {"lang": "fr"}, "favorites": ["4"]}`))
	require.NoError(t, err)
	u.Favorites, _ = u.Favorites.Add(8)

	b, err := encodeUser(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"email":"a@b.c","prefs":{"lang":"fr"},"favorites":[4,8]}`, string(b))
}

func TestMapLocations(t *testing.T) {
	locs, err := mapLocations([]byte(`[{"id":1,"name":"Paris"},{"id":"2","name":"Rome"},{"name":"Nowhere"}]`))
	require.NoError(t, err)
	assert.Equal(t, []domain.Location{{ID: 1, Name: "Paris"}, {ID: 2, Name: "Rome"}}, locs)
}
