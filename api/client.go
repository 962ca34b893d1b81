package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"easystay_client/domain"
	"easystay_client/errors"
)

// Client talks to the EasyStay backend without credentials. Authenticated
// calls go through AuthClient, which wraps this one.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	tracer     trace.Tracer
	photoCB    *gobreaker.CircuitBreaker
}

func NewClient(baseURL string, logger *logrus.Logger, tracer trace.Tracer) *Client {
	httpClient := &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     10,
		},
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		tracer:     tracer,
		photoCB:    NewBreaker("photoService", logger),
	}
}

func NewBreaker(name string, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			Interval:    0,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Infof("Circuit Breaker '%s' changed from '%s' to '%s'", name, from, to)
			},

			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				apiErr, ok := err.(*errors.APIError)
				return ok && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
			},
		},
	)
}

// roundTrip performs one HTTP exchange. Transport failures come back as
// NetworkError, non-2xx responses as APIError with the server's message
// key. A nil out skips decoding.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body []byte, contentType, bearer string, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errors.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.NetworkError{Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &errors.APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Message != "" {
			apiErr.MessageKey = payload.Message
		} else {
			// Some endpoints report errors as plain text.
			apiErr.MessageKey = strings.TrimSpace(string(respBody))
		}
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("request failed")
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.roundTrip(ctx, http.MethodGet, path, query, nil, "", "", out)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body for %s: %w", path, err)
	}
	return c.roundTrip(ctx, http.MethodPost, path, nil, raw, "application/json", "", out)
}

type loginResponse struct {
	UserID          string      `json:"userId"`
	AccessToken     string      `json:"accessToken"`
	RefreshToken    string      `json:"refreshToken"`
	Role            domain.Role `json:"role"`
	PasswordChanged bool        `json:"passwordChanged"`
}

func (c *Client) Login(ctx context.Context, username, password string) (domain.Session, error) {
	ctx, span := c.tracer.Start(ctx, "Client.Login")
	defer span.End()

	var resp loginResponse
	err := c.Post(ctx, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return domain.Session{}, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return domain.Session{}, fmt.Errorf("login response missing tokens")
	}

	return domain.Session{
		Username:        username,
		UserID:          resp.UserID,
		AccessToken:     resp.AccessToken,
		RefreshToken:    resp.RefreshToken,
		Role:            resp.Role,
		PasswordChanged: resp.PasswordChanged,
	}, nil
}

func (c *Client) Signup(ctx context.Context, req *domain.RegisterRequest) error {
	ctx, span := c.tracer.Start(ctx, "Client.Signup")
	defer span.End()

	return c.Post(ctx, "/auth/signup", req, nil)
}

// ResendPassword triggers the password-reset mail for a username.
func (c *Client) ResendPassword(ctx context.Context, username string) error {
	return c.Post(ctx, "/auth/resend", map[string]string{"username": username}, nil)
}

// Refresh trades the refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "Client.Refresh")
	defer span.End()

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	err := c.Post(ctx, "/auth/refresh", map[string]string{"refreshToken": refreshToken}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}
	return resp.AccessToken, nil
}

func (c *Client) SearchAvailability(ctx context.Context, query url.Values) (domain.PageEnvelope[domain.RoomListing], error) {
	var page domain.PageEnvelope[domain.RoomListing]
	err := c.Get(ctx, "/room/search-availability", query, &page)
	return page, err
}

func (c *Client) SearchRooms(ctx context.Context, query url.Values) (domain.PageEnvelope[domain.RoomListing], error) {
	var page domain.PageEnvelope[domain.RoomListing]
	err := c.Get(ctx, "/room/searchRooms", query, &page)
	return page, err
}

func (c *Client) RoomByID(ctx context.Context, roomID string) (domain.RoomListing, error) {
	var room domain.RoomListing
	err := c.Get(ctx, "/room/getById", url.Values{"roomId": {roomID}}, &room)
	return room, err
}

func (c *Client) HotelByID(ctx context.Context, hotelID string) (domain.Hotel, error) {
	var hotel domain.Hotel
	err := c.Get(ctx, "/hotel/getById", url.Values{"hotelId": {hotelID}}, &hotel)
	return hotel, err
}

// RoomPhotos fetches the stored photos for a room. The call sits behind a
// circuit breaker; callers treat failures as "no photos" and show a
// placeholder.
func (c *Client) RoomPhotos(ctx context.Context, referenceID string) ([]domain.Photo, error) {
	result, err := c.photoCB.Execute(func() (interface{}, error) {
		var photos []domain.Photo
		err := c.Get(ctx, "/photo/getPhoto", url.Values{
			"type":        {"ROOM"},
			"referenceId": {referenceID},
		}, &photos)
		if err != nil {
			return nil, err
		}
		return photos, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Photo), nil
}

// RoomPhotoURL returns the first photo URL for a room, or "" when the
// room has none.
func (c *Client) RoomPhotoURL(ctx context.Context, referenceID string) (string, error) {
	photos, err := c.RoomPhotos(ctx, referenceID)
	if err != nil {
		return "", err
	}
	if len(photos) == 0 {
		return "", nil
	}
	return photos[0].URL, nil
}
