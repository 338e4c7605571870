package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/service"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	auth := service.NewAuthService(nil, testSecret, time.Hour)

	token, err := auth.GenerateJWT(&domain.User{ID: "user-1", Email: "a@example.com"})
	require.NoError(t, err)

	userID, err := auth.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifyTokenRejects(t *testing.T) {
	sign := func(method jwt.SigningMethod, claims jwt.MapClaims, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "exp": future}, []byte("other"))},
		{"expired", sign(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Minute).Unix()}, []byte(testSecret))},
		{"no expiry", sign(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}, []byte(testSecret))},
		{"no subject", sign(jwt.SigningMethodHS256, jwt.MapClaims{"exp": future}, []byte(testSecret))},
		{"none algorithm", sign(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u", "exp": future}, jwt.UnsafeAllowNoneSignatureType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyToken(tt.token, testSecret)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, service.ValidatePassword("short"), domain.ErrValidation)
	assert.ErrorIs(t, service.ValidatePassword(strings.Repeat("x", 73)), domain.ErrValidation)
	assert.NoError(t, service.ValidatePassword("long enough"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "someone@example.com", service.NormalizeEmail("  SomeOne@Example.com "))
}

// AuthServiceTestSuite covers signup and login against the database.
type AuthServiceTestSuite struct {
	dbSuite
	auth *service.AuthService
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.dbSuite.SetupTest()
	s.auth = service.NewAuthService(s.userRepo, testSecret, time.Hour)
}

func (s *AuthServiceTestSuite) TestSignupLoginMe() {
	ctx := context.Background()
	name := "Ada"

	user, token, err := s.auth.Signup(ctx, " Ada@Example.com ", "correct horse", &name)
	s.Require().NoError(err)
	s.Equal("ada@example.com", user.Email)
	s.NotEqual("correct horse", user.PasswordHash)

	userID, err := s.auth.VerifyJWT(token)
	s.Require().NoError(err)
	s.Equal(user.ID, userID)

	_, _, err = s.auth.Signup(ctx, "ada@example.com", "another password", nil)
	s.ErrorIs(err, domain.ErrEmailAlreadyExists)

	_, loginToken, err := s.auth.Login(ctx, "ADA@example.com", "correct horse")
	s.Require().NoError(err)
	s.NotEmpty(loginToken)

	_, _, err = s.auth.Login(ctx, "ada@example.com", "wrong password")
	s.ErrorIs(err, domain.ErrInvalidCredentials)

	_, _, err = s.auth.Login(ctx, "nobody@example.com", "correct horse")
	s.ErrorIs(err, domain.ErrInvalidCredentials)

	me, err := s.auth.Me(ctx, user.ID)
	s.Require().NoError(err)
	s.Require().NotNil(me.Name)
	s.Equal("Ada", *me.Name)
}
