package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"marketplace/internal/apperror"
	"marketplace/internal/models"
	"marketplace/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test_jwt_secret"

func newAuthService(repo *MockUserRepository, refresh bool) *services.AuthService {
	return services.NewAuthService(repo, services.AuthConfig{
		Secret:        testSecret,
		TokenTTL:      time.Hour,
		RefreshClaims: refresh,
	})
}

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates shopper with hashed password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := newAuthService(mockRepo, false)

		mockRepo.On("GetByEmail", ctx, "new@example.com").Return(nil, apperror.ErrNotFound).Once()
		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 7
		}).Return(nil).Once()

		user, err := authService.RegisterUser(ctx, services.NewUser{
			Name: "New", Email: "new@example.com", Password: "password123", Role: models.RoleShopper,
		})
		require.NoError(t, err)
		assert.Equal(t, uint(7), user.ID)
		assert.Equal(t, models.RoleShopper, user.Role)
		assert.NotEqual(t, "password123", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
		mockRepo.AssertExpectations(t)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := newAuthService(mockRepo, false)

		mockRepo.On("GetByEmail", ctx, "taken@example.com").Return(&models.User{ID: 1, Email: "taken@example.com"}, nil).Once()

		_, err := authService.RegisterUser(ctx, services.NewUser{
			Name: "Dup", Email: "taken@example.com", Password: "password123", Role: models.RoleSeller,
		})
		assert.ErrorIs(t, err, apperror.ErrConflict)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("admin cannot self-register", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := newAuthService(mockRepo, false)

		_, err := authService.RegisterUser(ctx, services.NewUser{
			Name: "Root", Email: "root@example.com", Password: "password123", Role: models.RoleAdmin,
		})
		assert.ErrorIs(t, err, apperror.ErrValidation)
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	existingUser := &models.User{ID: 3, Email: "buyer@example.com", PasswordHash: string(hashedPassword), Role: models.RoleShopper}

	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, false)

	mockRepo.On("GetByEmail", ctx, "buyer@example.com").Return(existingUser, nil)
	mockRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperror.ErrNotFound)

	// Test successful login
	user, token, err := authService.LoginUser(ctx, "buyer@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, existingUser, user)
	assert.NotEmpty(t, token)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, models.RoleShopper, claims.Role)

	// Test wrong password
	_, token, err = authService.LoginUser(ctx, "buyer@example.com", "wrongpassword")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.Empty(t, token)

	// Test unknown email
	_, _, err = authService.LoginUser(ctx, "ghost@example.com", "password123")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func signToken(t *testing.T, secret string, claims services.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := newAuthService(new(MockUserRepository), false)

	valid := signToken(t, testSecret, services.Claims{
		UserID:         5,
		Role:           models.RoleSeller,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})
	expired := signToken(t, testSecret, services.Claims{
		UserID:         5,
		Role:           models.RoleSeller,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()},
	})
	wrongSecret := signToken(t, "another_secret", services.Claims{
		UserID:         5,
		Role:           models.RoleSeller,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})

	claims, err := authService.ValidateToken(valid)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)

	// Same header and signature, payload rewritten to claim the admin role.
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	forgedPayload, err := json.Marshal(services.Claims{
		UserID:         5,
		Role:           models.RoleAdmin,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})
	require.NoError(t, err)
	forged := parts[0] + "." + jwt.EncodeSegment(forgedPayload) + "." + parts[2]

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, services.Claims{
		UserID:         5,
		Role:           models.RoleAdmin,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", wrongSecret},
		{"tampered signature", valid[:len(valid)-2] + "xx"},
		{"tampered payload", forged},
		{"alg none", unsigned},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authService.ValidateToken(tt.token)
			assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
		})
	}
}

func TestAuthService_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("role gate without refresh", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := newAuthService(mockRepo, false)
		token, err := authService.IssueToken(&models.User{ID: 9, Role: models.RoleSeller})
		require.NoError(t, err)

		claim, err := authService.Authorize(ctx, token, models.RoleSeller)
		require.NoError(t, err)
		assert.Equal(t, services.AuthClaim{SubjectID: 9, Role: models.RoleSeller}, claim)

		_, err = authService.Authorize(ctx, token, models.RoleShopper)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		_, err = authService.Authorize(ctx, token)
		assert.NoError(t, err)

		_, err = authService.Authorize(ctx, "", models.RoleSeller)
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
		mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("refresh applies current role", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := newAuthService(mockRepo, true)
		token, err := authService.IssueToken(&models.User{ID: 9, Role: models.RoleSeller})
		require.NoError(t, err)

		mockRepo.On("GetByID", ctx, uint(9)).Return(&models.User{ID: 9, Role: models.RoleAdmin}, nil)

		claim, err := authService.Authorize(ctx, token, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, claim.Role)

		_, err = authService.Authorize(ctx, token, models.RoleSeller)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("refresh rejects deleted account", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := newAuthService(mockRepo, true)
		token, err := authService.IssueToken(&models.User{ID: 4, Role: models.RoleShopper})
		require.NoError(t, err)

		mockRepo.On("GetByID", ctx, uint(4)).Return(nil, apperror.ErrNotFound)

		_, err = authService.Authorize(ctx, token, models.RoleShopper)
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	})

	t.Run("refresh surfaces storage failures", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := newAuthService(mockRepo, true)
		token, err := authService.IssueToken(&models.User{ID: 4, Role: models.RoleShopper})
		require.NoError(t, err)

		boom := errors.New("connection reset")
		mockRepo.On("GetByID", ctx, uint(4)).Return(nil, boom)

		_, err = authService.Authorize(ctx, token, models.RoleShopper)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, apperror.ErrUnauthenticated)
	})
}
