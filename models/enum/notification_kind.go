package enum

import "strings"

// NotificationKind identifies which store operation produced a notification.
type NotificationKind string

const (
	NotificationKindCartItemAdded       NotificationKind = "cart.item_added"
	NotificationKindCartQuantityUpdated NotificationKind = "cart.quantity_updated"
	NotificationKindCartItemRemoved     NotificationKind = "cart.item_removed"
	NotificationKindCartQuantityLimit   NotificationKind = "cart.quantity_limit"
	NotificationKindCartCleared         NotificationKind = "cart.cleared"

	NotificationKindWishlistAdded   NotificationKind = "wishlist.added"
	NotificationKindWishlistRemoved NotificationKind = "wishlist.removed"
	NotificationKindWishlistCleared NotificationKind = "wishlist.cleared"
)

// Store returns the store half of the kind, e.g. "cart".
func (k NotificationKind) Store() string {
	store, _, _ := strings.Cut(string(k), ".")
	return store
}
