package service

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"easystay_client/api"
	"easystay_client/domain"
	"easystay_client/errors"
)

// BookingsPageSize is the fixed page size of the my-bookings list.
const BookingsPageSize = 2

type BookingState int

const (
	BookingIdle BookingState = iota
	BookingDateSelection
	BookingSubmitting
	BookingConfirmed
)

type CancelState int

const (
	CancelIdle CancelState = iota
	CancelConfirmPending
	Cancelling
)

// Navigator is the navigation callback a workflow uses to request a route
// change, e.g. the post-booking redirect to the bookings view.
type Navigator func(route string)

// BookingService drives the booking workflow for a single attempt at a
// time: pick a room, choose dates, submit, then redirect after a short
// delay. A failed submit returns to date selection with the reason shown;
// no partial booking exists on this side. Cancellation of an existing
// booking is a separate confirm-then-submit flow; the server stays the
// source of truth, the client only flips isCancelled locally.
type BookingService struct {
	client        *api.AuthClient
	notifier      *Notifier
	navigate      Navigator
	logger        *logrus.Logger
	tracer        trace.Tracer
	redirectDelay time.Duration

	mu       sync.Mutex
	state    BookingState
	room     domain.RoomListing
	checkIn  string
	checkOut string
	attempt  uuid.UUID

	redirectTimer *time.Timer

	cancelState  CancelState
	cancelTarget string
}

func NewBookingService(client *api.AuthClient, notifier *Notifier, navigate Navigator, logger *logrus.Logger, tracer trace.Tracer) *BookingService {
	return &BookingService{
		client:        client,
		notifier:      notifier,
		navigate:      navigate,
		logger:        logger,
		tracer:        tracer,
		redirectDelay: 2 * time.Second,
	}
}

// Start opens a booking attempt for the given room, optionally preset with
// the dates of the active search. Any previous attempt is discarded.
func (s *BookingService) Start(room domain.RoomListing, checkIn, checkOut string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discardLocked()
	s.state = BookingDateSelection
	s.room = room
	s.checkIn = checkIn
	s.checkOut = clampCheckOut(checkIn, checkOut)
}

// SetDates updates the selected dates. The check-out lower bound is
// clamped to the check-in date.
func (s *BookingService) SetDates(checkIn, checkOut string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != BookingDateSelection {
		return &errors.ValidationError{Message: "No booking in progress."}
	}
	s.checkIn = checkIn
	s.checkOut = clampCheckOut(checkIn, checkOut)
	return nil
}

func clampCheckOut(checkIn, checkOut string) string {
	if checkIn == "" || checkOut == "" {
		return checkOut
	}
	// ISO dates compare lexicographically.
	if checkOut < checkIn {
		return checkIn
	}
	return checkOut
}

// Confirm submits the booking. On success the workflow schedules the
// redirect to the bookings view; on failure it returns to date selection
// with the reason surfaced.
func (s *BookingService) Confirm(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "BookingService.Confirm")
	defer span.End()

	s.mu.Lock()
	if s.state != BookingDateSelection {
		s.mu.Unlock()
		return &errors.ValidationError{Message: "No booking in progress."}
	}
	if s.checkIn == "" || s.checkOut == "" {
		s.mu.Unlock()
		return &errors.ValidationError{Message: "Select both check-in and check-out dates."}
	}

	reservedFrom, errFrom := domain.ToServerDate(s.checkIn)
	reservedTo, errTo := domain.ToServerDate(s.checkOut)
	if errFrom != nil || errTo != nil {
		s.mu.Unlock()
		return &errors.ValidationError{Message: "Invalid booking dates."}
	}
	if s.checkOut <= s.checkIn {
		s.mu.Unlock()
		return &errors.ValidationError{Message: "Check-out must be after check-in."}
	}

	s.state = BookingSubmitting
	attempt := uuid.New()
	s.attempt = attempt
	roomID := s.room.RoomID
	s.mu.Unlock()

	err := s.client.Post(ctx, "/booking", map[string]string{
		"roomId":       roomID,
		"reservedFrom": reservedFrom,
		"reservedTo":   reservedTo,
	}, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The attempt may have been discarded while the request was in flight.
	if s.attempt != attempt || s.state != BookingSubmitting {
		return nil
	}

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.state = BookingDateSelection
		if apiErr, ok := err.(*errors.APIError); ok {
			s.notifier.Error(apiErr.UserMessage("Booking failed. Please try again."))
		} else {
			s.notifier.Error("Booking failed. Please try again.")
		}
		return err
	}

	s.state = BookingConfirmed
	s.logger.WithFields(logrus.Fields{
		"roomId": roomID,
		"from":   reservedFrom,
		"to":     reservedTo,
	}).Info("booking confirmed")
	s.notifier.Success("Booking Confirmed! Redirecting to My Bookings...")

	s.redirectTimer = time.AfterFunc(s.redirectDelay, func() {
		s.mu.Lock()
		stale := s.attempt != attempt || s.state != BookingConfirmed
		if !stale {
			s.discardLocked()
		}
		s.mu.Unlock()

		if !stale && s.navigate != nil {
			s.navigate("/bookings")
		}
	})
	return nil
}

// Discard drops the in-progress attempt without a server call and cancels
// a pending redirect.
func (s *BookingService) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discardLocked()
}

func (s *BookingService) discardLocked() {
	if s.redirectTimer != nil {
		s.redirectTimer.Stop()
		s.redirectTimer = nil
	}
	s.state = BookingIdle
	s.room = domain.RoomListing{}
	s.checkIn = ""
	s.checkOut = ""
	// New attempt identity invalidates any in-flight completion.
	s.attempt = uuid.New()
}

func (s *BookingService) State() BookingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *BookingService) SelectedRoom() domain.RoomListing {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.room
}

func (s *BookingService) Dates() (checkIn, checkOut string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.checkIn, s.checkOut
}

// RequestCancel opens the cancellation confirmation for a booking. Only
// upcoming, not yet cancelled bookings are cancellable.
func (s *BookingService) RequestCancel(booking domain.Booking) error {
	if !booking.Cancellable(time.Now()) {
		return &errors.ValidationError{Message: "This booking can no longer be cancelled."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelState != CancelIdle {
		return &errors.ValidationError{Message: "A cancellation is already in progress."}
	}
	s.cancelState = CancelConfirmPending
	s.cancelTarget = booking.BookingID
	return nil
}

// ConfirmCancel performs the cancellation and returns the cancelled
// booking id so the caller can flip its local copy. On failure the flow
// returns to the confirmation step.
func (s *BookingService) ConfirmCancel(ctx context.Context) (string, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.ConfirmCancel")
	defer span.End()

	s.mu.Lock()
	if s.cancelState != CancelConfirmPending {
		s.mu.Unlock()
		return "", &errors.ValidationError{Message: "No cancellation awaiting confirmation."}
	}
	s.cancelState = Cancelling
	target := s.cancelTarget
	s.mu.Unlock()

	err := s.client.Patch(ctx, "/booking/cancel", url.Values{"bookingId": {target}}, nil, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.cancelState = CancelConfirmPending
		if apiErr, ok := err.(*errors.APIError); ok {
			s.notifier.Error(apiErr.UserMessage("Failed to cancel booking. Please try again."))
		} else {
			s.notifier.Error("Failed to cancel booking. Please try again.")
		}
		return "", err
	}

	s.cancelState = CancelIdle
	s.cancelTarget = ""
	s.notifier.Success("Reservation canceled successfully!")
	return target, nil
}

// DismissCancel backs out of the confirmation without a server call.
func (s *BookingService) DismissCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelState = CancelIdle
	s.cancelTarget = ""
}

func (s *BookingService) CancellationState() CancelState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancelState
}

// BookingItem is one row of the my-bookings view, the booking enriched
// with room details and a photo. Both extras degrade gracefully.
type BookingItem struct {
	domain.Booking
	Room     *domain.RoomListing
	PhotoURL string
}

// BookingsPager pages through the user's bookings, enriching each page.
func (s *BookingService) BookingsPager(username string) *Pager[BookingItem] {
	return NewPager(BookingsPageSize, func(ctx context.Context, page int) ([]BookingItem, error) {
		query := url.Values{
			"username": {username},
			"page":     {strconv.Itoa(page)},
			"size":     {strconv.Itoa(BookingsPageSize)},
		}
		var envelope domain.PageEnvelope[domain.Booking]
		if err := s.client.Get(ctx, "/booking", query, &envelope); err != nil {
			return nil, err
		}

		items := make([]BookingItem, 0, len(envelope.Content))
		for _, booking := range envelope.Content {
			item := BookingItem{Booking: booking, PhotoURL: PhotoPlaceholder}

			var room domain.RoomListing
			if err := s.client.Get(ctx, "/room/getById", url.Values{"roomId": {booking.RoomID}}, &room); err != nil {
				if apiErr, ok := err.(*errors.APIError); ok {
					s.notifier.Error(apiErr.UserMessage("Failed to load the booked room. Please try again later!"))
				} else {
					s.notifier.Error("Failed to load the booked room. Please try again later!")
				}
			} else {
				item.Room = &room
			}

			if photoURL, err := s.client.Public().RoomPhotoURL(ctx, booking.RoomID); err == nil && photoURL != "" {
				item.PhotoURL = photoURL
			}

			items = append(items, item)
		}
		return items, nil
	})
}
