package service

import (
	"context"
	"sync"
	"unicode"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"easystay_client/api"
	"easystay_client/authorization"
	"easystay_client/domain"
	"easystay_client/errors"
	"easystay_client/store"
)

// Routes the auth flows hand back after a successful operation.
const (
	RouteHome           = "/"
	RouteSignIn         = "/sign-in"
	RouteChangePassword = "/change-password"
	RouteHotelManager   = "/hotelManager"
)

// AuthService drives login, signup, password recovery and the forced
// first-login password change. It owns the submit guard for these forms:
// one submission at a time, validation runs before any network call.
type AuthService struct {
	client   *api.AuthClient
	sessions domain.SessionStore
	flags    domain.FlagStore
	notifier *Notifier
	logger   *logrus.Logger
	tracer   trace.Tracer

	mu       sync.Mutex
	inFlight bool
}

func NewAuthService(client *api.AuthClient, sessions domain.SessionStore, flags domain.FlagStore, notifier *Notifier, logger *logrus.Logger, tracer trace.Tracer) *AuthService {
	return &AuthService{
		client:   client,
		sessions: sessions,
		flags:    flags,
		notifier: notifier,
		logger:   logger,
		tracer:   tracer,
	}
}

func (service *AuthService) begin() bool {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.inFlight {
		return false
	}
	service.inFlight = true
	return true
}

func (service *AuthService) end() {
	service.mu.Lock()
	service.inFlight = false
	service.mu.Unlock()
}

func verifyPassword(s string) (valid bool) {
	hasUpperCase := false
	hasLowerCase := false
	hasDigit := false
	hasSpecial := false

	for _, c := range s {
		switch {
		case unicode.IsNumber(c):
			hasDigit = true
		case unicode.IsUpper(c):
			hasUpperCase = true
		case unicode.IsLower(c):
			hasLowerCase = true
		case unicode.Is(unicode.S, c) || unicode.IsPunct(c):
			hasSpecial = true
		}
	}

	valid = len(s) >= 8 && len(s) <= 24 && hasUpperCase && hasLowerCase && hasDigit && hasSpecial
	return
}

const passwordFormatMessage = "Password must be 8-24 characters long and contain an uppercase letter, a lowercase letter, a digit and a special character."

// Login authenticates and stores the session, then returns the route the
// caller should navigate to. Users who never changed the emailed initial
// password are sent to the change-password form first.
func (service *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	ctx, span := service.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if username == "" || password == "" {
		return "", &errors.ValidationError{Message: "Please complete all fields."}
	}

	if !service.begin() {
		return "", &errors.ValidationError{Message: "Submission already in progress."}
	}
	defer service.end()

	session, err := service.client.Public().Login(ctx, username, password)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if apiErr, ok := err.(*errors.APIError); ok {
			service.notifier.Error(apiErr.UserMessage("Incorrect username or password!"))
		} else {
			service.notifier.Error("Sign in failed. Please try again later!")
		}
		return "", err
	}

	// The access token carries the authoritative identity. Tokens the
	// client cannot decode fall back to the response body fields.
	if claims, cErr := authorization.ClaimsFromToken(session.AccessToken); cErr == nil {
		if claims.Username != "" {
			session.Username = claims.Username
		}
		if claims.Role != "" {
			session.Role = domain.Role(claims.Role)
		}
	} else {
		service.logger.WithError(cErr).Warn("unreadable access token claims")
	}

	service.sessions.Set(session)
	service.logger.WithFields(logrus.Fields{
		"username": session.Username,
		"role":     session.Role,
	}).Info("user signed in")

	switch {
	case !session.PasswordChanged:
		return RouteChangePassword, nil
	case session.Role == domain.RoleManager:
		return RouteHotelManager, nil
	default:
		return RouteHome, nil
	}
}

// Signup registers a new account. The server mails the initial password,
// so no password field travels here beyond the generated one it expects.
func (service *AuthService) Signup(ctx context.Context, request *domain.RegisterRequest, confirmPassword string) error {
	ctx, span := service.tracer.Start(ctx, "AuthService.Signup")
	defer span.End()

	if request.FirstName == "" || request.LastName == "" || request.Email == "" ||
		request.Username == "" || request.Password == "" || request.Role == "" {
		return &errors.ValidationError{Message: "Please complete all fields."}
	}
	if err := request.Validate(); err != nil {
		return &errors.ValidationError{Message: "Please check the entered data."}
	}
	if !verifyPassword(request.Password) {
		return &errors.ValidationError{Message: passwordFormatMessage}
	}
	if request.Password != confirmPassword {
		return &errors.ValidationError{Message: "Passwords do not match."}
	}

	if !service.begin() {
		return &errors.ValidationError{Message: "Submission already in progress."}
	}
	defer service.end()

	if err := service.client.Public().Signup(ctx, request); err != nil {
		span.SetStatus(codes.Error, err.Error())
		if apiErr, ok := err.(*errors.APIError); ok {
			service.notifier.Error(apiErr.UserMessage("Sign up failed. Please try again later!"))
		} else {
			service.notifier.Error("Sign up failed. Please try again later!")
		}
		return err
	}

	service.notifier.Success("Account created successfully! You can sign in now.")
	return nil
}

// ResendPassword asks the server to mail a fresh password to the account's
// address.
func (service *AuthService) ResendPassword(ctx context.Context, username string) error {
	if username == "" {
		return &errors.ValidationError{Message: "Please enter your username."}
	}

	if !service.begin() {
		return &errors.ValidationError{Message: "Submission already in progress."}
	}
	defer service.end()

	if err := service.client.Public().ResendPassword(ctx, username); err != nil {
		if apiErr, ok := err.(*errors.APIError); ok {
			service.notifier.Error(apiErr.UserMessage("Failed to resend the password. Please try again later!"))
		} else {
			service.notifier.Error("Failed to resend the password. Please try again later!")
		}
		return err
	}

	service.notifier.Success("A new password is on its way to your email.")
	return nil
}

// ChangePassword replaces the current password and marks the session as
// changed. Managers changing their initial password get flagged for the
// one-time hotel registration prompt. Returns the route to continue on.
func (service *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) (string, error) {
	ctx, span := service.tracer.Start(ctx, "AuthService.ChangePassword")
	defer span.End()

	session := service.sessions.Get()
	if !session.LoggedIn() {
		return "", errors.ErrAuthExpired
	}

	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		return "", &errors.ValidationError{Message: "Please complete all fields."}
	}
	if !verifyPassword(newPassword) {
		return "", &errors.ValidationError{Message: passwordFormatMessage}
	}
	if newPassword != confirmPassword {
		return "", &errors.ValidationError{Message: "Passwords do not match."}
	}

	if !service.begin() {
		return "", &errors.ValidationError{Message: "Submission already in progress."}
	}
	defer service.end()

	err := service.client.Patch(ctx, "/user/changePassw", nil, map[string]string{
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	}, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if apiErr, ok := err.(*errors.APIError); ok {
			service.notifier.Error(apiErr.UserMessage("Failed to change the password. Please try again!"))
		} else if err != errors.ErrAuthExpired {
			service.notifier.Error("Failed to change the password. Please try again!")
		}
		return "", err
	}

	session = service.sessions.Get()
	session.PasswordChanged = true
	service.sessions.Set(session)

	if session.Role == domain.RoleManager {
		if err := service.flags.Set(store.ShowHotelRegistration, true); err != nil {
			service.logger.WithError(err).Warn("failed to persist hotel registration flag")
		}
	}

	service.notifier.Success("Password changed successfully!")

	if session.Role == domain.RoleManager {
		return RouteHotelManager, nil
	}
	return RouteHome, nil
}

// Logout drops the session. The server keeps no session state, so this is
// a purely local operation.
func (service *AuthService) Logout() string {
	session := service.sessions.Get()
	if session.LoggedIn() {
		service.logger.WithField("username", session.Username).Info("user signed out")
	}
	service.sessions.Clear()
	return RouteHome
}

// Session exposes the current session snapshot for route guards.
func (service *AuthService) Session() domain.Session {
	return service.sessions.Get()
}
