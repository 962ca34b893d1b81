package errors

import (
	"fmt"
	"net/http"
)

// Server-provided message keys. The backend reports failures with one of
// these in the response body; unmapped keys fall back to a generic string.
const (
	InvalidTokenError         = "Token is invalid"
	InvalidUserTokenError     = "Invalid user token"
	ExpiredTokenError         = "Verification token has expired"
	UsernameExist             = "Username already exists"
	InvalidCredentials        = "Invalid username or password"
	NotVerificatedUser        = "User wasn't verified yet"
	EmailAlreadyExist         = "Email already exists in database"
	InvalidRequestFormatError = "Invalid request format"
	RoomAlreadyBooked         = "Room is already booked for the selected dates"
	RoomNotFound              = "Room not found"
	BookingNotFound           = "Booking not found"
	BookingAlreadyCancelled   = "Booking is already cancelled"
	BookingAlreadyStarted     = "Cannot cancel a booking that already started"
	BookingInPast             = "Cannot book dates in the past"
	HotelAlreadyRegistered    = "Manager already has a registered hotel"
)

// userMessages maps server message keys to the strings shown to the user.
var userMessages = map[string]string{
	InvalidTokenError:         "Your session is no longer valid. Please sign in again.",
	InvalidUserTokenError:     "Your session is no longer valid. Please sign in again.",
	ExpiredTokenError:         "The verification link has expired. Request a new one.",
	UsernameExist:             "That username is already taken.",
	InvalidCredentials:        "Incorrect username or password.",
	NotVerificatedUser:        "Your account has not been verified yet.",
	EmailAlreadyExist:         "An account with that email already exists.",
	InvalidRequestFormatError: "The request could not be processed. Please try again.",
	RoomAlreadyBooked:         "This room is already booked for the selected dates.",
	RoomNotFound:              "The room could not be found.",
	BookingNotFound:           "The booking could not be found.",
	BookingAlreadyCancelled:   "This booking has already been cancelled.",
	BookingAlreadyStarted:     "Bookings that already started cannot be cancelled.",
	BookingInPast:             "Bookings cannot start in the past.",
	HotelAlreadyRegistered:    "You already registered a hotel.",
}

// ValidationError is detected on this side before any network call.
// It is handled at the originating form and never reaches global handling.
type ValidationError struct {
	Message string `json:"message"`
}

func (v *ValidationError) Error() string {
	return v.Message
}

// APIError is a non-success response from the backend. MessageKey carries
// the server's message field, mapped to a user-facing string on display.
type APIError struct {
	StatusCode int
	MessageKey string
}

func (e *APIError) Error() string {
	if e.MessageKey == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.MessageKey)
}

// Unauthorized reports whether the response signals an expired or invalid
// access token, i.e. the refresh branch of the interceptor should run.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// UserMessage resolves the server message key through the fixed lookup
// table, falling back to the caller-supplied generic string.
func (e *APIError) UserMessage(fallback string) string {
	if msg, ok := userMessages[e.MessageKey]; ok {
		return msg
	}
	return fallback
}

// AuthExpiredError means both the access and refresh tokens are invalid.
// The only recovery is a redirect to sign-in.
type AuthExpiredError struct{}

func (*AuthExpiredError) Error() string {
	return "session expired, sign in again"
}

var ErrAuthExpired = &AuthExpiredError{}

// NetworkError wraps a transport failure. It passes through the refresh
// interceptor unchanged.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
