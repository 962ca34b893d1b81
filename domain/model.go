package domain

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
)

// Session is the in-memory authentication state for the current user.
// It lives only for the process lifetime; the refresh-token round trip
// is the only way it survives a restart.
type Session struct {
	Username        string `json:"username"`
	UserID          string `json:"userId"`
	AccessToken     string `json:"accessToken"`
	RefreshToken    string `json:"refreshToken"`
	Role            Role   `json:"role"`
	PasswordChanged bool   `json:"passwordChanged"`
}

func (s Session) LoggedIn() bool {
	return s.AccessToken != ""
}

type RoomType string

const (
	SingleBed   RoomType = "SINGLE_BED"
	DoubleBed   RoomType = "DOUBLE_BED"
	LuxuryRoom  RoomType = "LUXURY_ROOM"
	FamilySuite RoomType = "FAMILY_SUITE"
)

// Label returns the display name for a room type, falling back to the raw
// value for types this client does not know about.
func (t RoomType) Label() string {
	switch t {
	case SingleBed:
		return "Single Bed"
	case DoubleBed:
		return "Double Bed"
	case LuxuryRoom:
		return "Luxury Room"
	case FamilySuite:
		return "Family Suite"
	}
	return string(t)
}

type Amenity string

const (
	FreeWifi      Amenity = "FREE_WIFI"
	FreeBreakfast Amenity = "FREE_BREAKFAST"
	RoomService   Amenity = "ROOM_SERVICE"
	MountainView  Amenity = "MOUNTAIN_VIEW"
	PoolAccess    Amenity = "POOL_ACCESS"
)

// RoomListing is one room as returned by the search endpoints.
// Read-only on this side; identity is RoomID.
type RoomListing struct {
	RoomID        string    `json:"roomId"`
	HotelID       string    `json:"hotelId"`
	RoomNumber    string    `json:"roomNumber,omitempty"`
	Name          string    `json:"name,omitempty"`
	Type          RoomType  `json:"type"`
	PricePerNight float64   `json:"pricePerNight"`
	MaxGuests     int       `json:"maxGuests"`
	Amenities     []Amenity `json:"amenities,omitempty"`
	RoadName      string    `json:"roadName,omitempty"`
	City          string    `json:"city,omitempty"`
	Country       string    `json:"country,omitempty"`
	PhotoURL      string    `json:"photoUrl,omitempty"`
}

type Hotel struct {
	HotelID     string `json:"hotelId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RoadName    string `json:"roadName,omitempty"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// Booking dates cross the wire as DD/MM/YYYY strings.
type Booking struct {
	BookingID    string  `json:"bookingId"`
	RoomID       string  `json:"roomId"`
	Username     string  `json:"username,omitempty"`
	ReservedFrom string  `json:"reservedFrom"`
	ReservedTo   string  `json:"reservedTo"`
	TotalCosts   float64 `json:"totalCosts"`
	IsCancelled  bool    `json:"isCancelled"`
	Ticket       string  `json:"ticket,omitempty"`
}

// Cancellable reports whether the booking may still be cancelled: only
// upcoming, not yet cancelled reservations qualify.
func (b Booking) Cancellable(now time.Time) bool {
	if b.IsCancelled {
		return false
	}
	from, err := ParseServerDate(b.ReservedFrom)
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return from.After(today)
}

// Status classifies a booking relative to now, for the manager dashboard.
func (b Booking) Status(now time.Time) string {
	if b.IsCancelled {
		return "Cancelled"
	}
	from, errFrom := ParseServerDate(b.ReservedFrom)
	to, errTo := ParseServerDate(b.ReservedTo)
	if errFrom != nil || errTo != nil {
		return "Unknown"
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch {
	case today.Before(from):
		return "Upcoming"
	case today.After(to):
		return "Finished"
	default:
		return "In Progress"
	}
}

type BookingStats struct {
	TotalBookings int     `json:"totalBookings"`
	TotalRevenue  float64 `json:"totalRevenue"`
}

type Photo struct {
	PhotoID     string `json:"photoId,omitempty"`
	URL         string `json:"url"`
	Type        string `json:"type,omitempty"`
	ReferenceID string `json:"referenceId,omitempty"`
}

// SearchCriteria is one availability search as entered by the user.
// Dates are ISO on this side; guests must be within [1,4] and checkIn
// strictly before checkOut. Immutable once submitted.
type SearchCriteria struct {
	City     string
	Country  string
	CheckIn  string
	CheckOut string
	Guests   int
	Page     int
	Size     int
}

// PagedResult is a server page accumulated on this side. Items are
// append-only for one search session and reset when the criteria change.
type PagedResult[T any] struct {
	Items   []T
	Page    int
	HasMore bool
}

// PageEnvelope is the paged response shape every list endpoint uses.
type PageEnvelope[T any] struct {
	Content    []T `json:"content"`
	TotalPages int `json:"totalPages"`
}

// RegisterRequest is the signup form payload.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,onlyChar"`
	LastName  string `json:"lastName" validate:"required,onlyChar"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,onlyCharAndNum,min=4,max=30"`
	Password  string `json:"password" validate:"required"`
	Role      Role   `json:"role" validate:"required,oneof=USER MANAGER"`
}

// HotelRegistration is the one-time manager hotel registration payload.
type HotelRegistration struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	RoadName    string `json:"roadName" validate:"required"`
	City        string `json:"city" validate:"required"`
	Country     string `json:"country" validate:"required"`
}

// NewRoom is the manager add-room payload.
type NewRoom struct {
	RoomNumber    string    `json:"roomNumber" validate:"required"`
	Type          RoomType  `json:"type" validate:"required,oneof=SINGLE_BED DOUBLE_BED LUXURY_ROOM FAMILY_SUITE"`
	PricePerNight float64   `json:"pricePerNight" validate:"required,gt=0"`
	MaxGuests     int       `json:"maxGuests" validate:"required,min=1,max=4"`
	Amenities     []Amenity `json:"amenities"`
}

func newValidate() *validator.Validate {
	validate := validator.New()
	// Tags are constant, registration cannot fail on them.
	_ = validate.RegisterValidation("onlyChar", onlyCharactersField)
	_ = validate.RegisterValidation("onlyCharAndNum", onlyCharactersAndNumbersField)
	return validate
}

func (r *RegisterRequest) Validate() error {
	return newValidate().Struct(r)
}

func (h *HotelRegistration) Validate() error {
	return newValidate().Struct(h)
}

func (n *NewRoom) Validate() error {
	return newValidate().Struct(n)
}

// Allows only letters [a-z]
func onlyCharactersField(fl validator.FieldLevel) bool {
	re := regexp.MustCompile("[-_a-zA-Z]*")
	matches := re.FindAllString(fl.Field().String(), -1)

	return len(matches) == 1
}

// Allows only letters [a-z] and numbers [0-9]
func onlyCharactersAndNumbersField(fl validator.FieldLevel) bool {
	re := regexp.MustCompile("[-_a-zA-Z0-9]*")
	matches := re.FindAllString(fl.Field().String(), -1)

	return len(matches) == 1
}
