package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"easystay_client/api"
	"easystay_client/domain"
	"easystay_client/errors"
	"easystay_client/store"
)

func newRoomService(t *testing.T, backend *httptest.Server) *RoomService {
	t.Helper()

	sessions := store.NewSessionMemoryStore()
	sessions.Set(domain.Session{Username: "boss", AccessToken: "at", RefreshToken: "rt", Role: domain.RoleManager})

	base := api.NewClient(backend.URL, testLogger(), testTracer())
	client := api.NewAuthClient(base, sessions, testLogger())
	notifier := NewNotifier(time.Minute, testLogger())

	return NewRoomService(client, notifier, testLogger(), testTracer())
}

func TestAddRoomUploadsPhotos(t *testing.T) {
	var gotRoom map[string]interface{}
	var uploads []string

	router := mux.NewRouter()
	router.HandleFunc("/room", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotRoom)
		_ = json.NewEncoder(w).Encode(map[string]string{"roomId": "r9"})
	}).Methods(http.MethodPost)
	router.HandleFunc("/photo", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("bad multipart form: %v", err)
		}
		if r.FormValue("type") != "ROOM" || r.FormValue("id") != "r9" {
			t.Errorf("unexpected form fields: type=%q id=%q", r.FormValue("type"), r.FormValue("id"))
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			return
		}
		uploads = append(uploads, header.Filename)
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)

	backend := httptest.NewServer(router)
	defer backend.Close()

	svc := newRoomService(t, backend)

	roomID, err := svc.AddRoom(context.Background(), "h1", domain.NewRoom{
		RoomNumber:    "101",
		Type:          domain.DoubleBed,
		PricePerNight: 120,
		MaxGuests:     2,
		Amenities:     []domain.Amenity{domain.FreeWifi},
	}, []RoomImage{
		{Filename: "front.jpg", Data: []byte("jpegdata")},
		{Filename: "bath.jpg", Data: []byte("jpegdata")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roomID != "r9" {
		t.Errorf("got roomId %q", roomID)
	}
	if gotRoom["hotelId"] != "h1" || gotRoom["roomNumber"] != "101" {
		t.Errorf("unexpected create body: %v", gotRoom)
	}
	if len(uploads) != 2 || uploads[0] != "front.jpg" {
		t.Errorf("got uploads %v", uploads)
	}
}

func TestAddRoomSurvivesFailedUpload(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/room", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"roomId": "r9"})
	}).Methods(http.MethodPost)
	router.HandleFunc("/photo", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}).Methods(http.MethodPost)

	backend := httptest.NewServer(router)
	defer backend.Close()

	svc := newRoomService(t, backend)

	roomID, err := svc.AddRoom(context.Background(), "h1", domain.NewRoom{
		RoomNumber:    "101",
		Type:          domain.DoubleBed,
		PricePerNight: 120,
		MaxGuests:     2,
	}, []RoomImage{{Filename: "front.jpg", Data: []byte("jpegdata")}})
	if err != nil {
		t.Fatalf("the room itself was created, got error %v", err)
	}
	if roomID != "r9" {
		t.Errorf("got roomId %q", roomID)
	}
}

func TestAddRoomValidation(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	defer backend.Close()

	svc := newRoomService(t, backend)

	_, err := svc.AddRoom(context.Background(), "h1", domain.NewRoom{RoomNumber: "101"}, nil)
	if _, ok := err.(*errors.ValidationError); !ok {
		t.Errorf("got %T, want *errors.ValidationError", err)
	}

	_, err = svc.AddRoom(context.Background(), "h1", domain.NewRoom{
		RoomNumber:    "101",
		Type:          domain.DoubleBed,
		PricePerNight: 120,
		MaxGuests:     9,
	}, nil)
	if _, ok := err.(*errors.ValidationError); !ok {
		t.Errorf("too many guests: got %T, want *errors.ValidationError", err)
	}
}

func TestDeleteRoom(t *testing.T) {
	var deleted string
	router := mux.NewRouter()
	router.HandleFunc("/room", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.URL.Query().Get("roomId")
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodDelete)

	backend := httptest.NewServer(router)
	defer backend.Close()

	svc := newRoomService(t, backend)

	if err := svc.DeleteRoom(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "r1" {
		t.Errorf("backend saw roomId %q", deleted)
	}
}

func TestManagerRoomsPager(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/room/searchRooms", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("hotelId") != "h1" || q.Get("sortBy") != "newestFirst" {
			t.Errorf("unexpected query: %v", q)
		}
		_ = json.NewEncoder(w).Encode(domain.PageEnvelope[domain.RoomListing]{
			Content: []domain.RoomListing{{RoomID: "r1", RoomNumber: "101"}},
		})
	}).Methods(http.MethodGet)
	router.HandleFunc("/photo/getPhoto", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Photo{{URL: "http://cdn/r1.jpg"}})
	}).Methods(http.MethodGet)

	backend := httptest.NewServer(router)
	defer backend.Close()

	svc := newRoomService(t, backend)

	pager := svc.ManagerRoomsPager("h1")
	if err := pager.LoadNext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rooms := pager.Items()
	if len(rooms) != 1 || rooms[0].PhotoURL != "http://cdn/r1.jpg" {
		t.Errorf("got %+v", rooms)
	}
}

func TestRoomDetailsDegradesGracefully(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/room/getById", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.RoomListing{RoomID: "r1", Name: "Sea View"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/hotel/getById", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)
	router.HandleFunc("/photo/getPhoto", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Photo{})
	}).Methods(http.MethodGet)

	backend := httptest.NewServer(router)
	defer backend.Close()

	svc := newRoomService(t, backend)

	details, err := svc.Details(context.Background(), "h1", "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Room.Name != "Sea View" {
		t.Errorf("got room %+v", details.Room)
	}
	if details.Hotel.HotelID != "" {
		t.Error("a missing hotel should stay zero")
	}
	if len(details.PhotoURLs) != 1 || details.PhotoURLs[0] != PhotoPlaceholder {
		t.Errorf("got photos %v, want the placeholder", details.PhotoURLs)
	}
}
