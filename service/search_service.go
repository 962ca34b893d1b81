package service

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"easystay_client/api"
	"easystay_client/domain"
	"easystay_client/errors"
)

// SearchPageSize is the fixed page size of the availability search.
const SearchPageSize = 5

// SearchService validates search criteria and runs the availability
// search. A successful search registers its criteria as the active filter
// context consumed by the rooms pager for the following pages.
type SearchService struct {
	client   *api.Client
	notifier *Notifier
	logger   *logrus.Logger
	tracer   trace.Tracer

	mu     sync.Mutex
	active *domain.SearchCriteria
}

func NewSearchService(client *api.Client, notifier *Notifier, logger *logrus.Logger, tracer trace.Tracer) *SearchService {
	return &SearchService{
		client:   client,
		notifier: notifier,
		logger:   logger,
		tracer:   tracer,
	}
}

// validateCriteria checks one submission, reporting the first violation.
func validateCriteria(criteria domain.SearchCriteria, now time.Time) *errors.ValidationError {
	if criteria.CheckIn == "" || criteria.CheckOut == "" {
		return &errors.ValidationError{Message: "Check-in and check-out dates are required."}
	}
	if criteria.Guests == 0 || criteria.City == "" || criteria.Country == "" {
		return &errors.ValidationError{Message: "Please complete all fields."}
	}

	checkIn, err := domain.ParseClientDate(criteria.CheckIn)
	if err != nil {
		return &errors.ValidationError{Message: "Invalid check-in date."}
	}
	checkOut, err := domain.ParseClientDate(criteria.CheckOut)
	if err != nil {
		return &errors.ValidationError{Message: "Invalid check-out date."}
	}
	if !checkIn.Before(checkOut) {
		return &errors.ValidationError{Message: "Check-out must be after check-in."}
	}
	if criteria.Guests < 1 || criteria.Guests > 4 {
		return &errors.ValidationError{Message: "Guests must be between 1 and 4."}
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if checkIn.Before(today) {
		return &errors.ValidationError{Message: "Check-in cannot be in the past."}
	}
	return nil
}

// Query serializes criteria into the wire format the backend expects,
// dates as DD/MM/YYYY.
func (s *SearchService) Query(criteria domain.SearchCriteria, page int) (url.Values, error) {
	checkIn, err := domain.ToServerDate(criteria.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := domain.ToServerDate(criteria.CheckOut)
	if err != nil {
		return nil, err
	}

	return url.Values{
		"city":     {criteria.City},
		"country":  {criteria.Country},
		"guests":   {strconv.Itoa(criteria.Guests)},
		"checkIn":  {checkIn},
		"checkOut": {checkOut},
		"page":     {strconv.Itoa(page)},
		"size":     {strconv.Itoa(SearchPageSize)},
	}, nil
}

// SubmitSearch validates and runs one availability search, returning the
// first page. No network call is made when validation fails.
func (s *SearchService) SubmitSearch(ctx context.Context, criteria domain.SearchCriteria) (domain.PagedResult[domain.RoomListing], error) {
	ctx, span := s.tracer.Start(ctx, "SearchService.SubmitSearch")
	defer span.End()

	var empty domain.PagedResult[domain.RoomListing]

	if vErr := validateCriteria(criteria, time.Now()); vErr != nil {
		span.SetStatus(codes.Error, vErr.Message)
		return empty, vErr
	}

	query, err := s.Query(criteria, 0)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return empty, &errors.ValidationError{Message: "Invalid search dates."}
	}

	page, err := s.client.SearchAvailability(ctx, query)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if apiErr, ok := err.(*errors.APIError); ok {
			s.notifier.Error(apiErr.UserMessage("An error occurred while searching. Try again."))
		} else {
			s.notifier.Error("An error occurred while searching. Try again.")
		}
		return empty, err
	}

	criteria.Page = 0
	criteria.Size = SearchPageSize
	s.mu.Lock()
	s.active = &criteria
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"city":    criteria.City,
		"country": criteria.Country,
		"results": len(page.Content),
	}).Info("availability search completed")

	return domain.PagedResult[domain.RoomListing]{
		Items:   page.Content,
		Page:    0,
		HasMore: len(page.Content) == SearchPageSize,
	}, nil
}

// ActiveCriteria returns the filter context registered by the last
// successful search.
func (s *SearchService) ActiveCriteria() (domain.SearchCriteria, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return domain.SearchCriteria{}, false
	}
	return *s.active, true
}

// ClearCriteria drops the active filter context, e.g. when navigating to
// the unfiltered rooms view.
func (s *SearchService) ClearCriteria() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = nil
}

// RoomsPager pages through rooms: with an active search it continues that
// search, otherwise it walks the unfiltered listing, newest first.
func (s *SearchService) RoomsPager() *Pager[domain.RoomListing] {
	return NewPager(SearchPageSize, func(ctx context.Context, page int) ([]domain.RoomListing, error) {
		criteria, ok := s.ActiveCriteria()
		if ok {
			query, err := s.Query(criteria, page)
			if err != nil {
				return nil, err
			}
			envelope, err := s.client.SearchAvailability(ctx, query)
			if err != nil {
				return nil, err
			}
			return envelope.Content, nil
		}

		query := url.Values{
			"page":   {strconv.Itoa(page)},
			"size":   {strconv.Itoa(SearchPageSize)},
			"sortBy": {"newestFirst"},
		}
		envelope, err := s.client.SearchRooms(ctx, query)
		if err != nil {
			return nil, err
		}
		return envelope.Content, nil
	})
}
