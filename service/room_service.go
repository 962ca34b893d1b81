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
)

// PhotoPlaceholder is shown wherever a room photo cannot be loaded.
const PhotoPlaceholder = "/assets/images/room-placeholder.png"

// ManagerRoomsPageSize is the page size of the manager's room list.
const ManagerRoomsPageSize = 5

// RoomImage is one image attached to a new room before upload.
type RoomImage struct {
	Filename string
	Data     []byte
}

// RoomDetails is everything the room page shows for one room.
type RoomDetails struct {
	Room      domain.RoomListing
	Hotel     domain.Hotel
	PhotoURLs []string
}

// RoomService covers the manager's room administration and the public
// room details view.
type RoomService struct {
	client   *api.AuthClient
	notifier *Notifier
	logger   *logrus.Logger
	tracer   trace.Tracer
}

func NewRoomService(client *api.AuthClient, notifier *Notifier, logger *logrus.Logger, tracer trace.Tracer) *RoomService {
	return &RoomService{
		client:   client,
		notifier: notifier,
		logger:   logger,
		tracer:   tracer,
	}
}

type newRoomRequest struct {
	HotelID string `json:"hotelId"`
	domain.NewRoom
}

// AddRoom creates the room, then uploads its images one by one. The room
// exists once the create call succeeds; a failed image upload degrades to
// a warning instead of rolling the room back.
func (s *RoomService) AddRoom(ctx context.Context, hotelID string, room domain.NewRoom, images []RoomImage) (string, error) {
	ctx, span := s.tracer.Start(ctx, "RoomService.AddRoom")
	defer span.End()

	if room.RoomNumber == "" || room.Type == "" || room.PricePerNight == 0 || room.MaxGuests == 0 {
		return "", &errors.ValidationError{Message: "Please complete all fields."}
	}
	if err := room.Validate(); err != nil {
		return "", &errors.ValidationError{Message: "Please check the entered data."}
	}

	var created struct {
		RoomID string `json:"roomId"`
	}
	err := s.client.Post(ctx, "/room", newRoomRequest{HotelID: hotelID, NewRoom: room}, &created)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if apiErr, ok := err.(*errors.APIError); ok {
			s.notifier.Error(apiErr.UserMessage("Failed to add the room. Please try again!"))
		} else if err != errors.ErrAuthExpired {
			s.notifier.Error("Failed to add the room. Please try again!")
		}
		return "", err
	}

	uploadFailed := false
	for _, image := range images {
		if err := s.client.UploadPhoto(ctx, "ROOM", created.RoomID, image.Filename, image.Data); err != nil {
			uploadFailed = true
			s.logger.WithFields(logrus.Fields{
				"roomId":   created.RoomID,
				"filename": image.Filename,
			}).WithError(err).Warn("room photo upload failed")
		}
	}
	if uploadFailed {
		s.notifier.Error("The room was saved but some photos could not be uploaded.")
	} else {
		s.notifier.Success("Room added successfully!")
	}

	return created.RoomID, nil
}

func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	ctx, span := s.tracer.Start(ctx, "RoomService.DeleteRoom")
	defer span.End()

	err := s.client.Delete(ctx, "/room", url.Values{"roomId": {roomID}})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if apiErr, ok := err.(*errors.APIError); ok {
			s.notifier.Error(apiErr.UserMessage("Failed to delete the room. Please try again!"))
		} else if err != errors.ErrAuthExpired {
			s.notifier.Error("Failed to delete the room. Please try again!")
		}
		return err
	}

	s.notifier.Success("Room deleted successfully!")
	return nil
}

// ManagerRoomsPager pages through the rooms of the manager's hotel,
// newest first, each enriched with its first photo.
func (s *RoomService) ManagerRoomsPager(hotelID string) *Pager[domain.RoomListing] {
	return NewPager(ManagerRoomsPageSize, func(ctx context.Context, page int) ([]domain.RoomListing, error) {
		query := url.Values{
			"hotelId": {hotelID},
			"sortBy":  {"newestFirst"},
			"page":    {strconv.Itoa(page)},
			"size":    {strconv.Itoa(ManagerRoomsPageSize)},
		}
		envelope, err := s.client.Public().SearchRooms(ctx, query)
		if err != nil {
			return nil, err
		}

		rooms := envelope.Content
		for i := range rooms {
			rooms[i].PhotoURL = PhotoPlaceholder
			if photoURL, err := s.client.Public().RoomPhotoURL(ctx, rooms[i].RoomID); err == nil && photoURL != "" {
				rooms[i].PhotoURL = photoURL
			}
		}
		return rooms, nil
	})
}

// Details loads one room together with its hotel and photo gallery. Both
// enrichment calls degrade: a missing hotel or gallery does not hide the
// room itself.
func (s *RoomService) Details(ctx context.Context, hotelID, roomID string) (RoomDetails, error) {
	ctx, span := s.tracer.Start(ctx, "RoomService.Details")
	defer span.End()

	public := s.client.Public()

	room, err := public.RoomByID(ctx, roomID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return RoomDetails{}, err
	}

	details := RoomDetails{Room: room, PhotoURLs: []string{PhotoPlaceholder}}

	hotel, err := public.HotelByID(ctx, hotelID)
	if err != nil {
		s.logger.WithField("hotelId", hotelID).WithError(err).Warn("failed to load hotel for room details")
	} else {
		details.Hotel = hotel
	}

	photos, err := public.RoomPhotos(ctx, roomID)
	if err == nil && len(photos) > 0 {
		urls := make([]string, 0, len(photos))
		for _, photo := range photos {
			urls = append(urls, photo.URL)
		}
		details.PhotoURLs = urls
	}

	return details, nil
}
