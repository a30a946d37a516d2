package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xtrntr/p2pdesk/internal/catalog"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(catalog.NewMemoryStore(), Config{
		Secret:            testSecret,
		AdminEmail:        "admin@p2pdesk.test",
		AdminPasswordHash: string(hash),
	})
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		password    string
		expectError bool
	}{
		{
			name:     "Success",
			username: "alice",
			password: "password123",
		},
		{
			name:        "EmptyUsername",
			username:    "  ",
			password:    "password123",
			expectError: true,
		},
		{
			name:        "EmptyPassword",
			username:    "bob",
			password:    "",
			expectError: true,
		},
		{
			name:        "LongUsername",
			username:    strings.Repeat("a", 51),
			password:    "password123",
			expectError: true,
		},
		{
			name:        "LongPassword",
			username:    "carol",
			password:    strings.Repeat("p", 73),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t)
			trader, err := s.Register(context.Background(), tt.username, tt.password, "gh")
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.username, trader.DisplayName)
			assert.Equal(t, "GH", trader.Country)
			assert.True(t, strings.HasPrefix(trader.ID, "trader-"))
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(trader.PasswordHash), []byte(tt.password)))
		})
	}
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	s := newTestService(t)
	_, err := s.Register(context.Background(), "alice", "password123", "")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "alice", "other", "")
	assert.ErrorIs(t, err, catalog.ErrTraderExists)
}

func TestAuthService_Login(t *testing.T) {
	s := newTestService(t)
	trader, err := s.Register(context.Background(), "alice", "password123", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"Success", "alice", "password123", nil},
		{"WrongPassword", "alice", "wrong", ErrInvalidCredentials},
		{"UnknownUser", "nobody", "password123", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := s.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			userID, err := s.GetUserFromToken(token)
			require.NoError(t, err)
			assert.Equal(t, trader.ID, userID)
		})
	}
}

func TestAuthService_SeededTraderCannotLogin(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, catalog.Seed(context.Background(), s.Store.(*catalog.MemoryStore)))

	_, err := s.Login(context.Background(), "CryptoKing", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetUserFromToken(t *testing.T) {
	s := newTestService(t)

	valid, err := s.sign(jwt.MapClaims{"user_id": "trader1", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)
	expired, err := s.sign(jwt.MapClaims{"user_id": "trader1", "exp": time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, err)
	noUser, err := s.sign(jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "trader1"}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{"Valid", valid, "trader1", false},
		{"Expired", expired, "", true},
		{"MissingUserID", noUser, "", true},
		{"WrongSecret", foreign, "", true},
		{"Garbage", "not-a-token", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetUserFromToken(tt.token)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthService_AdminSession(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2024, 10, 5, 10, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }

	_, err := s.AdminLogin("admin@p2pdesk.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.AdminLogin("someone@p2pdesk.test", "admin-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := s.AdminLogin("Admin@P2PDesk.test", "admin-pass")
	require.NoError(t, err)
	assert.NoError(t, s.VerifyAdminSession(session))

	// trader tokens are not admin sessions
	traderToken, err := s.sign(jwt.MapClaims{"user_id": "trader1", "exp": now.Add(time.Hour).Unix()})
	require.NoError(t, err)
	assert.ErrorIs(t, s.VerifyAdminSession(traderToken), ErrInvalidToken)

	now = now.Add(24*time.Hour + time.Second)
	assert.ErrorIs(t, s.VerifyAdminSession(session), ErrInvalidToken, "sessions expire after 24 hours")
}

func TestAuthService_AdminNotConfigured(t *testing.T) {
	s := NewAuthService(catalog.NewMemoryStore(), Config{Secret: testSecret})
	_, err := s.AdminLogin("admin@p2pdesk.test", "admin-pass")
	assert.ErrorIs(t, err, ErrAdminNotConfigured)
}
