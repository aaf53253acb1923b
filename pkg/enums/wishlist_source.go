package enums

import "fmt"

// WishlistSource records which surface created the wishlist. Informational only.
type WishlistSource string

const (
	WishlistSourceKiosk     WishlistSource = "KIOSK"
	WishlistSourceMobileApp WishlistSource = "MOBILE_APP"
)

var validWishlistSources = []WishlistSource{
	WishlistSourceKiosk,
	WishlistSourceMobileApp,
}

// String implements fmt.Stringer.
func (s WishlistSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WishlistSource.
func (s WishlistSource) IsValid() bool {
	for _, candidate := range validWishlistSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseWishlistSource converts raw input into a WishlistSource.
func ParseWishlistSource(value string) (WishlistSource, error) {
	for _, candidate := range validWishlistSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wishlist source %q", value)
}
