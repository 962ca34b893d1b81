package authorization

import (
	"io"
	"testing"

	"github.com/cristalhq/jwt/v4"
	"github.com/sirupsen/logrus"

	"easystay_client/domain"
	"easystay_client/store"
)

func newTestGuard(t *testing.T) (*Guard, domain.SessionStore) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sessions := store.NewSessionMemoryStore()
	guard, err := NewGuard("./rbac_model.conf", "./policy.csv", sessions, logger)
	if err != nil {
		t.Fatalf("guard setup failed: %v", err)
	}
	return guard, sessions
}

func TestGuardAnonymousRoutes(t *testing.T) {
	guard, _ := newTestGuard(t)

	allowed := []string{"/", "/rooms", "/rooms/h1/r1", "/sign-in", "/sign-up", "/forgot-password"}
	for _, route := range allowed {
		if !guard.Allowed(route) {
			t.Errorf("anonymous visitor should reach %s", route)
		}
	}

	denied := []string{"/bookings", "/change-password", "/hotelManager", "/hotelManager/add-room"}
	for _, route := range denied {
		if guard.Allowed(route) {
			t.Errorf("anonymous visitor must not reach %s", route)
		}
	}
}

func TestGuardUserRoutes(t *testing.T) {
	guard, sessions := newTestGuard(t)
	sessions.Set(domain.Session{Username: "mika", AccessToken: "at", Role: domain.RoleUser})

	for _, route := range []string{"/", "/rooms", "/bookings", "/change-password"} {
		if !guard.Allowed(route) {
			t.Errorf("user should reach %s", route)
		}
	}
	for _, route := range []string{"/hotelManager", "/hotelManager/list-rooms"} {
		if guard.Allowed(route) {
			t.Errorf("user must not reach %s", route)
		}
	}
}

func TestGuardManagerRoutes(t *testing.T) {
	guard, sessions := newTestGuard(t)
	sessions.Set(domain.Session{Username: "boss", AccessToken: "at", Role: domain.RoleManager})

	for _, route := range []string{"/", "/hotelManager", "/hotelManager/add-room", "/hotelManager/list-rooms", "/change-password"} {
		if !guard.Allowed(route) {
			t.Errorf("manager should reach %s", route)
		}
	}
	if guard.Allowed("/bookings") {
		t.Error("managers do not book rooms")
	}
}

func TestClaimsFromToken(t *testing.T) {
	signer, err := jwt.NewSignerHS(jwt.HS256, []byte("test-secret-key-0123456789"))
	if err != nil {
		t.Fatal(err)
	}
	token, err := jwt.NewBuilder(signer).Build(map[string]string{
		"username": "mika",
		"userType": "USER",
	})
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ClaimsFromToken(token.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Username != "mika" || claims.Role != "USER" {
		t.Errorf("got %+v", claims)
	}
}

func TestClaimsFromTokenRejectsGarbage(t *testing.T) {
	if _, err := ClaimsFromToken("not-a-jwt"); err == nil {
		t.Error("expected an error for a malformed token")
	}
}
