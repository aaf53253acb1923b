package enums

import "fmt"

// WishlistStatus tracks where a wishlist sits in its redemption lifecycle.
type WishlistStatus string

const (
	WishlistStatusActive     WishlistStatus = "ACTIVE"
	WishlistStatusProcessing WishlistStatus = "PROCESSING"
	WishlistStatusCompleted  WishlistStatus = "COMPLETED"
	WishlistStatusCancelled  WishlistStatus = "CANCELLED"
	WishlistStatusExpired    WishlistStatus = "EXPIRED"
)

var validWishlistStatuses = []WishlistStatus{
	WishlistStatusActive,
	WishlistStatusProcessing,
	WishlistStatusCompleted,
	WishlistStatusCancelled,
	WishlistStatusExpired,
}

// String implements fmt.Stringer.
func (s WishlistStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WishlistStatus.
func (s WishlistStatus) IsValid() bool {
	for _, candidate := range validWishlistStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further item mutation is allowed.
func (s WishlistStatus) IsTerminal() bool {
	switch s {
	case WishlistStatusCompleted, WishlistStatusCancelled, WishlistStatusExpired:
		return true
	}
	return false
}

// ParseWishlistStatus converts raw input into a WishlistStatus.
func ParseWishlistStatus(value string) (WishlistStatus, error) {
	for _, candidate := range validWishlistStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wishlist status %q", value)
}
