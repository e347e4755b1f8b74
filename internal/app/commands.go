package app

import (
	"context"
	"fmt"

	"staybook/internal/domain"
)

type ToggleResult struct {
	HotelID   int64         `json:"hotelId"`
	Favorite  bool          `json:"favorite"`
	Label     string        `json:"label"`
	Favorites FavoritesView `json:"favorites"`
}

type BookingNotice struct {
	HotelID int64  `json:"hotelId"`
	Message string `json:"message"`
}

// ToggleFavorite flips hotelID in the user's favorites and persists the whole
// user. Concurrent writers are last-write-wins.
func (c *Controller) ToggleFavorite(ctx context.Context, sess *Session, hotelID int64) (ToggleResult, error) {
	u, err := c.fetchUser(ctx, sess)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("toggle favorite %d: fetch user: %w", hotelID, err)
	}

	favorite := !u.Favorites.Has(hotelID)
	if favorite {
		u.Favorites, _ = u.Favorites.Add(hotelID)
	} else {
		u.Favorites, _ = u.Favorites.Remove(hotelID)
	}
	if err := c.saveUser(ctx, sess, u); err != nil {
		return ToggleResult{}, fmt.Errorf("toggle favorite %d: %w", hotelID, err)
	}

	return ToggleResult{
		HotelID:   hotelID,
		Favorite:  favorite,
		Label:     label(favorite),
		Favorites: c.favoritesView(ctx, &u),
	}, nil
}

// DeleteFavorite removes hotelID. Removing an absent id writes nothing and
// is not an error.
func (c *Controller) DeleteFavorite(ctx context.Context, sess *Session, hotelID int64) (FavoritesView, error) {
	u, err := c.fetchUser(ctx, sess)
	if err != nil {
		return FavoritesView{}, fmt.Errorf("delete favorite %d: fetch user: %w", hotelID, err)
	}

	var changed bool
	if u.Favorites, changed = u.Favorites.Remove(hotelID); changed {
		if err := c.saveUser(ctx, sess, u); err != nil {
			return FavoritesView{}, fmt.Errorf("delete favorite %d: %w", hotelID, err)
		}
	}
	return c.favoritesView(ctx, &u), nil
}

// BookHotel is a placeholder: nothing leaves the process.
func (c *Controller) BookHotel(_ context.Context, _ *Session, hotelID int64) BookingNotice {
	return BookingNotice{
		HotelID: hotelID,
		Message: fmt.Sprintf("Booking hotel %d... Booking functionality would be implemented here.", hotelID),
	}
}

func (c *Controller) saveUser(ctx context.Context, sess *Session, u domain.User) error {
	body, err := encodeUser(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := c.api.PutUser(ctx, u.ID, body); err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	u.Raw = body
	c.mirror(ctx, sess, u)
	return nil
}
