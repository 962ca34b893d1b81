package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"

	"easystay_client/domain"
	"easystay_client/errors"
)

// AuthClient makes authenticated calls resilient to an expired access
// token. On an unauthorized response it performs one silent refresh and
// retries the original request exactly once; a second rejection, or a
// failed refresh, surfaces as ErrAuthExpired and the caller redirects to
// sign-in. Network errors pass through untouched.
type AuthClient struct {
	base     *Client
	sessions domain.SessionStore
	logger   *logrus.Logger

	// Serializes the refresh round trip so concurrent 401s share one.
	refreshMu sync.Mutex
}

func NewAuthClient(base *Client, sessions domain.SessionStore, logger *logrus.Logger) *AuthClient {
	return &AuthClient{
		base:     base,
		sessions: sessions,
		logger:   logger,
	}
}

// Public returns the unauthenticated client for endpoints that need none.
func (c *AuthClient) Public() *Client {
	return c.base
}

// Do sends one authenticated request, running the refresh-and-retry branch
// when the access token is rejected. Never retries more than once per
// original call.
func (c *AuthClient) Do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, out interface{}) error {
	sess := c.sessions.Get()
	err := c.base.roundTrip(ctx, method, path, query, body, contentType, sess.AccessToken, out)

	apiErr, ok := err.(*errors.APIError)
	if !ok || !apiErr.Unauthorized() {
		return err
	}

	token, refreshErr := c.refreshAccessToken(ctx, sess.AccessToken)
	if refreshErr != nil {
		c.logger.WithError(refreshErr).Warn("silent token refresh failed")
		return errors.ErrAuthExpired
	}

	err = c.base.roundTrip(ctx, method, path, query, body, contentType, token, out)
	if apiErr, ok := err.(*errors.APIError); ok && apiErr.Unauthorized() {
		return errors.ErrAuthExpired
	}
	return err
}

// refreshAccessToken obtains a fresh access token and writes it to the
// session store exactly once. When another caller already refreshed while
// we waited on the lock, its token is reused instead of refreshing again.
func (c *AuthClient) refreshAccessToken(ctx context.Context, staleToken string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.sessions.Get()
	if current.AccessToken != "" && current.AccessToken != staleToken {
		return current.AccessToken, nil
	}
	if current.RefreshToken == "" {
		return "", fmt.Errorf("no refresh token in session")
	}

	token, err := c.base.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return "", err
	}

	current.AccessToken = token
	c.sessions.Set(current)
	return token, nil
}

func (c *AuthClient) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *AuthClient) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body for %s: %w", path, err)
	}
	return c.Do(ctx, http.MethodPost, path, nil, raw, "application/json", out)
}

func (c *AuthClient) Patch(ctx context.Context, path string, query url.Values, body interface{}, out interface{}) error {
	var raw []byte
	contentType := ""
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body for %s: %w", path, err)
		}
		contentType = "application/json"
	}
	return c.Do(ctx, http.MethodPatch, path, query, raw, contentType, out)
}

func (c *AuthClient) Delete(ctx context.Context, path string, query url.Values) error {
	return c.Do(ctx, http.MethodDelete, path, query, nil, "", nil)
}

// UploadPhoto sends one image as multipart form data. The form is built
// up front so the interceptor can replay it on a token refresh.
func (c *AuthClient) UploadPhoto(ctx context.Context, photoType, referenceID, filename string, data []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build photo form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("build photo form: %w", err)
	}
	if err := writer.WriteField("type", photoType); err != nil {
		return fmt.Errorf("build photo form: %w", err)
	}
	if err := writer.WriteField("id", referenceID); err != nil {
		return fmt.Errorf("build photo form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("build photo form: %w", err)
	}

	return c.Do(ctx, http.MethodPost, "/photo", nil, buf.Bytes(), writer.FormDataContentType(), nil)
}
