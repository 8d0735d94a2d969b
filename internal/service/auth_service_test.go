package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
)

type loginStub struct {
	body     []byte
	err      error
	email    string
	password string
}

func (l *loginStub) Login(_ context.Context, email, password string) ([]byte, error) {
	l.email, l.password = email, password
	return l.body, l.err
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthServiceLoginObjectResponse(t *testing.T) {
	token := signToken(t, "upstream", jwt.MapClaims{
		"sub":    "warden@campus.test",
		"roles":  []string{"ROLE_USER", "ROLE_ADMIN"},
		"userId": 42,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	client := &loginStub{body: []byte(`{"data":{"accessToken":"` + token + `"}}`)}
	svc := NewAuthService(client, nil, zap.NewNop(), AuthConfig{})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "warden@campus.test", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, token, resp.Token)
	assert.Equal(t, "42", resp.User.ID)
	assert.Equal(t, "warden@campus.test", resp.User.Email)
	assert.True(t, resp.User.IsAdmin)
	require.NotNil(t, resp.ExpiresAt)
	assert.Equal(t, "secret", client.password)
}

func TestAuthServiceLoginBareToken(t *testing.T) {
	token := signToken(t, "upstream", jwt.MapClaims{"sub": "clerk@campus.test", "roles": []string{"STAFF"}, "uid": "u-9"})
	svc := NewAuthService(&loginStub{body: []byte(token)}, nil, nil, AuthConfig{})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "clerk@campus.test", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u-9", resp.User.ID)
	assert.False(t, resp.User.IsAdmin)
	assert.Nil(t, resp.ExpiresAt)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc := NewAuthService(&loginStub{}, nil, nil, AuthConfig{})
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceLoginWithoutToken(t *testing.T) {
	svc := NewAuthService(&loginStub{body: []byte(`{"message":"ok"}`)}, nil, nil, AuthConfig{})
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@b.test", Password: "pw"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
}

func TestAuthServiceLoginPropagatesUpstreamError(t *testing.T) {
	svc := NewAuthService(&loginStub{err: appErrors.ErrInvalidCredentials}, nil, nil, AuthConfig{})
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@b.test", Password: "pw"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceParseTokenExpired(t *testing.T) {
	token := signToken(t, "upstream", jwt.MapClaims{"sub": "a@b.test", "exp": time.Now().Add(-time.Minute).Unix()})
	svc := NewAuthService(nil, nil, nil, AuthConfig{})
	_, err := svc.ParseToken(token)
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
}

func TestAuthServiceParseTokenVerifiesSignature(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{"sub": "a@b.test"})
	svc := NewAuthService(nil, nil, nil, AuthConfig{Secret: "upstream", VerifySignature: true})
	_, err := svc.ParseToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	valid := signToken(t, "upstream", jwt.MapClaims{"sub": "a@b.test", "role": "ADMIN"})
	session, err := svc.ParseToken(valid)
	require.NoError(t, err)
	assert.True(t, session.User.IsAdmin)
}

func TestAuthServiceParseTokenMalformed(t *testing.T) {
	svc := NewAuthService(nil, nil, nil, AuthConfig{})
	_, err := svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ParseToken("  ")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestExtractToken(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
		ok   bool
	}{
		"json string": {body: `"a.b.c"`, want: "a.b.c", ok: true},
		"bare":        {body: " a.b.c\n", want: "a.b.c", ok: true},
		"token field": {body: `{"token":"a.b.c"}`, want: "a.b.c", ok: true},
		"jwt field":   {body: `{"jwt":"a.b.c"}`, want: "a.b.c", ok: true},
		"nested":      {body: `{"data":{"token":"a.b.c"}}`, want: "a.b.c", ok: true},
		"empty":       {body: ``, ok: false},
		"prose":       {body: `login ok`, ok: false},
		"blank field": {body: `{"token":"  "}`, ok: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ExtractToken([]byte(tc.body))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
