package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/apperror"
	"marketplace/internal/models"
	"marketplace/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig is the trust configuration of the authorization gate.
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	// RefreshClaims re-reads the user on every verification, so deleted
	// accounts and role changes apply before the token expires.
	RefreshClaims bool
}

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID uint        `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// AuthClaim is the identity extracted from a verified credential.
type AuthClaim struct {
	SubjectID uint
	Role      models.Role
}

// NewUser holds the fields needed to create an account.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo repositories.UserRepository
	cfg      AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, cfg AuthConfig) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// RegisterUser creates a seller or shopper account. Admins are created by
// other admins or the create-admin command.
func (s *AuthService) RegisterUser(ctx context.Context, in NewUser) (*models.User, error) {
	if in.Role != models.RoleSeller && in.Role != models.RoleShopper {
		return nil, apperror.Invalid("role", "must be seller or shopper")
	}
	return createUser(ctx, s.userRepo, in)
}

// LoginUser checks the credentials and returns the user with a signed token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid password: %w", apperror.ErrUnauthenticated)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken signs an HS256 token carrying the user's id and role.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.cfg.TokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	tokenString, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning its claims if valid.
// It never touches the database.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v: %w", err, apperror.ErrUnauthenticated)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, fmt.Errorf("invalid token: %w", apperror.ErrUnauthenticated)
	}
	return claims, nil
}

// Authorize verifies the credential and checks its role against roles.
// An empty roles list admits any authenticated user.
func (s *AuthService) Authorize(ctx context.Context, tokenString string, roles ...models.Role) (AuthClaim, error) {
	if tokenString == "" {
		return AuthClaim{}, fmt.Errorf("missing credential: %w", apperror.ErrUnauthenticated)
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return AuthClaim{}, err
	}
	claim := AuthClaim{SubjectID: claims.UserID, Role: claims.Role}

	if s.cfg.RefreshClaims {
		user, err := s.userRepo.GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return AuthClaim{}, fmt.Errorf("account %d no longer exists: %w", claims.UserID, apperror.ErrUnauthenticated)
			}
			return AuthClaim{}, err
		}
		claim.Role = user.Role
	}

	if len(roles) == 0 {
		return claim, nil
	}
	for _, role := range roles {
		if claim.Role == role {
			return claim, nil
		}
	}
	log.Debug().Uint("user_id", claim.SubjectID).Str("role", string(claim.Role)).Msg("role not permitted")
	return AuthClaim{}, fmt.Errorf("role %q not permitted: %w", claim.Role, apperror.ErrForbidden)
}

func createUser(ctx context.Context, repo repositories.UserRepository, in NewUser) (*models.User, error) {
	if !in.Role.Valid() {
		return nil, apperror.Invalid("role", "unknown role %q", in.Role)
	}
	if existing, err := repo.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s' already registered: %w", in.Email, apperror.ErrConflict)
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		Role:         in.Role,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	log.Info().Uint("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}
