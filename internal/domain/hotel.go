package domain

type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Hotel struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	LocationID   int64   `json:"locationId,omitempty"`
	LocationName string  `json:"location,omitempty"` // set when the backend sends a name instead of an id
	Price        float64 `json:"price"`
	Rating       float64 `json:"rating"`
	Image        string  `json:"image,omitempty"`
}
