package domain

import "context"

// Backend is the fixed REST contract. Reads return the raw JSON body;
// decoding happens in the app layer.
type Backend interface {
	ListLocations(ctx context.Context, q LocationQuery) ([]byte, error)
	ListHotels(ctx context.Context, q HotelQuery) ([]byte, error)
	GetHotel(ctx context.Context, id int64) ([]byte, error)
	GetUser(ctx context.Context, id int64) ([]byte, error)
	PutUser(ctx context.Context, id int64, body []byte) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// LocationQuery maps to GET /locations. Name and IDs are independent filters;
// zero values mean no filter.
type LocationQuery struct {
	Name string
	IDs  []int64
}

// HotelQuery maps to GET /hotels.
type HotelQuery struct {
	LocationID *int64
	IDs        []int64
}
