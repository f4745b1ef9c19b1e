package models

// WishlistEntry is a favorited product. AddedAt is Unix milliseconds.
type WishlistEntry struct {
	ProductSlug string `json:"productSlug"`
	AddedAt     int64  `json:"addedAt"`
}

// Wishlist is persisted as a bare JSON array.
type Wishlist []WishlistEntry

func (w Wishlist) Contains(productSlug string) bool {
	return w.Index(productSlug) >= 0
}

func (w Wishlist) Index(productSlug string) int {
	for i := range w {
		if w[i].ProductSlug == productSlug {
			return i
		}
	}
	return -1
}

func (w Wishlist) Clone() Wishlist {
	out := make(Wishlist, len(w))
	copy(out, w)
	return out
}
