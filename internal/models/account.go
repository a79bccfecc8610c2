package models

import (
	"time"

	"github.com/google/uuid"
)

// Kind names an account variant. Riders and users live in separate tables
// but share the verification flow.
type Kind string

const (
	KindRider Kind = "rider"
	KindUser  Kind = "user"
)

// Kinds lists every account variant.
var Kinds = []Kind{KindRider, KindUser}

// Credentials are the columns the verification flow reads and writes.
type Credentials struct {
	Email              string     `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Phone              string     `gorm:"column:phone;uniqueIndex;not null" json:"phone"`
	PasswordHash       string     `gorm:"column:password_hash;not null" json:"-"`
	OTP                *string    `gorm:"column:otp" json:"-"`
	OTPExpiry          *time.Time `gorm:"column:otp_expiry" json:"-"`
	Verified           bool       `gorm:"column:verified;not null;default:false" json:"verified"`
	OTPDeliveryPending bool       `gorm:"column:otp_delivery_pending;not null;default:false" json:"otp_delivery_pending"`
}

// Account is implemented by every account variant.
type Account interface {
	AccountID() uuid.UUID
	AccountKind() Kind
	Creds() *Credentials
}

// Rider delivers orders. Document paths point into the document store.
type Rider struct {
	BaseModel
	Name string `json:"name"`
	Credentials
	City        string  `json:"city"`
	PlateNumber string  `json:"plate_number"`
	Documents   string  `json:"documents"`
	ValidID     string  `gorm:"column:valid_id" json:"valid_id"`
	Passport    string  `json:"passport"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Role        string  `gorm:"default:rider" json:"role"`
	Orders      []Order `gorm:"foreignKey:RiderID" json:"orders,omitempty"`
}

func (r *Rider) AccountID() uuid.UUID { return r.ID }
func (r *Rider) AccountKind() Kind { return KindRider }
func (r *Rider) Creds() *Credentials { return &r.Credentials }

// User places orders.
type User struct {
	BaseModel
	Name string `json:"name"`
	Credentials
	Address string  `json:"address"`
	Role    string  `gorm:"default:user" json:"role"`
	Orders  []Order `gorm:"foreignKey:UserID" json:"orders,omitempty"`
}

func (u *User) AccountID() uuid.UUID { return u.ID }
func (u *User) AccountKind() Kind { return KindUser }
func (u *User) Creds() *Credentials { return &u.Credentials }

// NewAccount returns an empty record of the given variant, suitable as a
// GORM query destination.
func NewAccount(kind Kind) Account {
	if kind == KindRider {
		return &Rider{}
	}
	return &User{}
}
