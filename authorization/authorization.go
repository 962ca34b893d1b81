package authorization

import (
	"encoding/json"
	"fmt"

	"github.com/casbin/casbin"
	"github.com/cristalhq/jwt/v4"
	"github.com/sirupsen/logrus"

	"easystay_client/domain"
)

// anonymousRole is the casbin subject for visitors without a session.
const anonymousRole = "Unauthenticated"

// Guard decides which routes the current session may open. Policy lives
// in the casbin model and policy files; the guard itself is stateless
// beyond the session lookup.
type Guard struct {
	enforcer *casbin.Enforcer
	sessions domain.SessionStore
	logger   *logrus.Logger
}

func NewGuard(modelPath, policyPath string, sessions domain.SessionStore, logger *logrus.Logger) (*Guard, error) {
	enforcer, err := casbin.NewEnforcerSafe(modelPath, policyPath)
	if err != nil {
		return nil, fmt.Errorf("load authorization policy: %w", err)
	}

	return &Guard{
		enforcer: enforcer,
		sessions: sessions,
		logger:   logger,
	}, nil
}

// Allowed reports whether the current session may open the route. Policy
// errors deny access.
func (g *Guard) Allowed(route string) bool {
	role := anonymousRole
	session := g.sessions.Get()
	if session.LoggedIn() {
		role = string(session.Role)
	}

	allowed, err := g.enforcer.EnforceSafe(role, route, "GET")
	if err != nil {
		g.logger.WithError(err).Error("error enforcing authorization policy")
		return false
	}
	if !allowed {
		g.logger.WithFields(logrus.Fields{
			"role":  role,
			"route": route,
		}).Warn("unauthorized navigation attempt")
	}
	return allowed
}

// Claims is the subset of access-token claims this side reads. Tokens are
// not verified here, the server rejects forged ones; the claims only
// steer navigation.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"userType"`
}

func ClaimsFromToken(accessToken string) (Claims, error) {
	token, err := jwt.ParseNoVerify([]byte(accessToken))
	if err != nil {
		return Claims{}, fmt.Errorf("parse access token: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(token.Claims(), &claims); err != nil {
		return Claims{}, fmt.Errorf("decode access token claims: %w", err)
	}
	return claims, nil
}
