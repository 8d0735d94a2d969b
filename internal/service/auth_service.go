package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/reconcile"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
)

var userIDClaims = []string{"userId", "user_id", "uid", "id"}

type loginClient interface {
	Login(ctx context.Context, email, password string) ([]byte, error)
}

// AuthConfig defines how upstream-issued tokens are inspected.
type AuthConfig struct {
	Secret          string
	VerifySignature bool
	AdminMarkers    []string
}

// AuthService delegates credential checks to the student service and decodes
// the token it issues. The gateway never mints tokens of its own.
type AuthService struct {
	client    loginClient
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(client loginClient, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if len(config.AdminMarkers) == 0 {
		config.AdminMarkers = []string{"ADMIN", "ROLE_ADMIN"}
	}
	return &AuthService{client: client, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login forwards credentials upstream and returns the issued token with its decoded identity.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	body, err := s.client.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	token, ok := ExtractToken(body)
	if !ok {
		s.logger.Warn("login response carried no token", zap.String("email", req.Email))
		return nil, appErrors.Clone(appErrors.ErrUpstream, "login response did not contain a token")
	}

	session, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if session.User.Email == "" {
		session.User.Email = req.Email
	}

	s.logger.Info("user signed in", zap.String("subject", session.User.Email), zap.Bool("admin", session.User.IsAdmin))
	return &models.LoginResponse{Token: token, User: session.User, ExpiresAt: session.ExpiresAt}, nil
}

// ParseToken decodes a bearer token into a session. Signatures are only checked
// when a shared secret is configured and verification is enabled.
func (s *AuthService) ParseToken(token string) (*models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token")
	}

	claims := jwt.MapClaims{}
	if s.config.VerifySignature && s.config.Secret != "" {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(s.config.Secret), nil
		}, jwt.WithTimeFunc(s.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, appErrors.Clone(appErrors.ErrSessionExpired, "")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
		}
		if !parsed.Valid {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "malformed token")
		}
	}

	session := &models.Session{Token: token}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt := exp.Time.UTC()
		if !expiresAt.After(s.now()) {
			return nil, appErrors.Clone(appErrors.ErrSessionExpired, "")
		}
		session.ExpiresAt = &expiresAt
	}

	record := models.Record(claims)
	roles := rolesFromClaims(claims)
	session.User = models.UserInfo{
		ID:      reconcile.PickString(record, userIDClaims...),
		Email:   reconcile.PickString(record, "sub", "email"),
		Roles:   roles,
		IsAdmin: hasMarker(roles, s.config.AdminMarkers),
	}
	return session, nil
}

// ExtractToken pulls the bearer token out of a login response that is either a
// bare string, a JSON string, or an object carrying one of the token aliases.
func ExtractToken(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", false
	}

	switch trimmed[0] {
	case '"':
		var token string
		if err := json.Unmarshal(trimmed, &token); err != nil {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	case '{':
		var rec models.Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return "", false
		}
		token := strings.TrimSpace(reconcile.PickString(rec, reconcile.TokenAliases...))
		return token, token != ""
	default:
		token := string(trimmed)
		if strings.Count(token, ".") != 2 || strings.ContainsAny(token, " \t\n") {
			return "", false
		}
		return token, true
	}
}

func rolesFromClaims(claims jwt.MapClaims) []string {
	raw, ok := claims["roles"]
	if !ok {
		raw, ok = claims["role"]
	}
	if !ok || raw == nil {
		return []string{}
	}
	if s, isString := raw.(string); isString {
		return splitRoles(s)
	}
	roles, err := cast.ToStringSliceE(raw)
	if err != nil {
		return []string{}
	}
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if role = strings.TrimSpace(role); role != "" {
			out = append(out, role)
		}
	}
	return out
}

func splitRoles(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	if parts == nil {
		return []string{}
	}
	return parts
}

func hasMarker(roles, markers []string) bool {
	for _, role := range roles {
		for _, marker := range markers {
			if strings.EqualFold(role, marker) {
				return true
			}
		}
	}
	return false
}
