package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"easystay_client/api"
	"easystay_client/domain"
	"easystay_client/errors"
	"easystay_client/store"
)

// CurrentUser is the authenticated user's profile as the server sees it.
type CurrentUser struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

// HotelService covers the manager dashboard: the one-hotel-per-manager
// registration flow, booking stats and the hotel's booking list. Location
// dropdowns come from the public countries API and degrade to free-text
// input when it is unreachable.
type HotelService struct {
	client   *api.AuthClient
	geo      *api.GeoClient
	flags    domain.FlagStore
	sessions domain.SessionStore
	notifier *Notifier
	logger   *logrus.Logger
	tracer   trace.Tracer
}

func NewHotelService(client *api.AuthClient, geo *api.GeoClient, flags domain.FlagStore, sessions domain.SessionStore, notifier *Notifier, logger *logrus.Logger, tracer trace.Tracer) *HotelService {
	return &HotelService{
		client:   client,
		geo:      geo,
		flags:    flags,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
		tracer:   tracer,
	}
}

func (s *HotelService) CurrentUser(ctx context.Context) (CurrentUser, error) {
	var user CurrentUser
	err := s.client.Get(ctx, "/user/currentUser", nil, &user)
	return user, err
}

// ManagerHotel returns the manager's hotel, or nil when none is
// registered yet.
func (s *HotelService) ManagerHotel(ctx context.Context) (*domain.Hotel, error) {
	ctx, span := s.tracer.Start(ctx, "HotelService.ManagerHotel")
	defer span.End()

	user, err := s.CurrentUser(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	query := url.Values{
		"managerUserId": {user.UserID},
		"page":          {"0"},
		"size":          {"1"},
	}
	var envelope domain.PageEnvelope[domain.Hotel]
	if err := s.client.Get(ctx, "/hotel/filterHotels", query, &envelope); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(envelope.Content) == 0 {
		return nil, nil
	}
	hotel := envelope.Content[0]
	return &hotel, nil
}

// ShouldPromptRegistration reports whether the one-time hotel
// registration form should open: the manager changed the initial
// password, the flag is still set, and no hotel exists yet.
func (s *HotelService) ShouldPromptRegistration(ctx context.Context) bool {
	session := s.sessions.Get()
	if session.Role != domain.RoleManager || !s.flags.Get(store.ShowHotelRegistration) {
		return false
	}

	hotel, err := s.ManagerHotel(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to check for an existing hotel")
		return false
	}
	if hotel != nil {
		// The flag outlived an already completed registration.
		if err := s.flags.ClearFlag(store.ShowHotelRegistration); err != nil {
			s.logger.WithError(err).Warn("failed to clear hotel registration flag")
		}
		return false
	}
	return true
}

// RegisterHotel creates the manager's hotel and clears the registration
// prompt flag.
func (s *HotelService) RegisterHotel(ctx context.Context, registration domain.HotelRegistration) (*domain.Hotel, error) {
	ctx, span := s.tracer.Start(ctx, "HotelService.RegisterHotel")
	defer span.End()

	if registration.Name == "" || registration.Description == "" || registration.RoadName == "" ||
		registration.City == "" || registration.Country == "" {
		return nil, &errors.ValidationError{Message: "Please complete all fields."}
	}
	if err := registration.Validate(); err != nil {
		return nil, &errors.ValidationError{Message: "Please check the entered data."}
	}

	var hotel domain.Hotel
	if err := s.client.Post(ctx, "/hotel", registration, &hotel); err != nil {
		span.SetStatus(codes.Error, err.Error())
		if apiErr, ok := err.(*errors.APIError); ok {
			s.notifier.Error(apiErr.UserMessage("Failed to register the hotel. Please try again!"))
		} else if err != errors.ErrAuthExpired {
			s.notifier.Error("Failed to register the hotel. Please try again!")
		}
		return nil, err
	}

	if err := s.flags.ClearFlag(store.ShowHotelRegistration); err != nil {
		s.logger.WithError(err).Warn("failed to clear hotel registration flag")
	}
	s.notifier.Success("Hotel registered successfully!")
	return &hotel, nil
}

// Stats loads the dashboard totals for one hotel.
func (s *HotelService) Stats(ctx context.Context, hotelID string) (domain.BookingStats, error) {
	var stats domain.BookingStats
	err := s.client.Get(ctx, "/booking/getStats", url.Values{"hotelId": {hotelID}}, &stats)
	return stats, err
}

// HotelBookings loads one page of the hotel's bookings. The dashboard
// pages by explicit page number, so the envelope with totalPages comes
// back as is.
func (s *HotelService) HotelBookings(ctx context.Context, hotelID string, page, size int) (domain.PageEnvelope[domain.Booking], error) {
	query := url.Values{
		"hotelId": {hotelID},
		"page":    {strconv.Itoa(page)},
		"size":    {strconv.Itoa(size)},
	}
	var envelope domain.PageEnvelope[domain.Booking]
	err := s.client.Get(ctx, "/booking", query, &envelope)
	return envelope, err
}

// CountryOptions returns the dropdown values for the country field, or
// nil when the geo API is unavailable.
func (s *HotelService) CountryOptions(ctx context.Context) []string {
	countries, err := s.geo.Countries(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load country options")
		return nil
	}
	return countries
}

// CityOptions returns the dropdown values for the city field of one
// country, or nil when the geo API is unavailable.
func (s *HotelService) CityOptions(ctx context.Context, country string) []string {
	cities, err := s.geo.Cities(ctx, country)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"country": country}).WithError(err).Warn("failed to load city options")
		return nil
	}
	return cities
}
