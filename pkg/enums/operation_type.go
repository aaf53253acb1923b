package enums

// OperationType tags which operation an idempotency record belongs to.
type OperationType string

const (
	OperationCreateWishlist OperationType = "CREATE_WISHLIST"
)

// String implements fmt.Stringer.
func (o OperationType) String() string {
	return string(o)
}
