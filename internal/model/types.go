package model

import "time"

// User represents a registered shopper. Users are created lazily on the first
// successful OTP verification for an unseen mobile number.
type User struct {
	ID        int64
	Mobile    string
	Name      *string
	Email     *string
	CreatedAt time.Time
}

// DeviceSession represents one authenticated client device/app instance.
// Sessions are deactivated on logout, never deleted.
type DeviceSession struct {
	ID             int64
	UserID         int64
	SessionKey     string
	DeviceID       *string
	DevicePlatform *string
	DeviceDetails  *string
	IPAddress      *string
	UserAgent      *string
	ExpiresAt      *time.Time
	IsActive       bool
	CreatedAt      time.Time
}

// Product is a catalog entry. AvailableQuantity is the stock counter cart
// operations check against.
type Product struct {
	ID                int64
	Name              string
	MRPPrice          float64
	SalePrice         float64
	PriceUnit         string
	ShippingInfo      string
	SampleRequirement string
	LongDescription   string
	Features          []string
	AvailableQuantity int
}

// CartItem is one product line in a user's cart.
type CartItem struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
	Product   *Product
}

// Member is a profile a user manages alongside their own (e.g. a family member).
type Member struct {
	ID        int64
	UserID    int64
	Name      string
	Relation  string
	CreatedAt time.Time
}

// AuditEntry records one user action against an entity.
type AuditEntry struct {
	ID         int64
	UserID     int64
	Action     string
	EntityType string
	EntityID   *int64
	CartItemID *int64
	Details    *string
	CreatedAt  time.Time
}
