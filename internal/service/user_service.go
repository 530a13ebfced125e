package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dscatalog/internal/config"
	"dscatalog/internal/domain"
	"dscatalog/internal/dto"
	"dscatalog/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// Token expiration defaults, used when configuration leaves them unset
	AccessTokenExpiration  = 15 * time.Minute
	RefreshTokenExpiration = 7 * 24 * time.Hour

	tokenType  = "Bearer"
	entityUser = "user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

// UserService defines the interface for user business logic
type UserService interface {
	FindAllPaged(ctx context.Context, page domain.PageRequest) (dto.Page[dto.UserSummary], error)
	FindByID(ctx context.Context, id int64) (dto.UserSummary, error)
	Insert(ctx context.Context, input dto.UserInsertInput) (dto.UserSummary, error)
	// Update replaces profile fields and the role set; the password is kept
	Update(ctx context.Context, id int64, input dto.UserInput) (dto.UserSummary, error)
	Delete(ctx context.Context, id int64) error

	Login(ctx context.Context, email, password string) (*dto.LoginResult, error)
	// Logout revokes refreshToken, or every token of userID when
	// refreshToken is empty
	Logout(ctx context.Context, userID int64, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*dto.RefreshResult, error)
	ValidateToken(tokenString string) (*Claims, error)
	GetProfile(ctx context.Context, userID int64) (dto.UserSummary, error)
}

// Claims represents the JWT claims
type Claims struct {
	UserID      int64    `json:"user_id"`
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

type userService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtSecret        string
	accessExpiry     time.Duration
	refreshExpiry    time.Duration
	logger           *zap.Logger
}

// NewUserService creates a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	jwtConfig config.JWTConfig,
	logger *zap.Logger,
) UserService {
	accessExpiry := time.Duration(jwtConfig.AccessExpiry) * time.Minute
	if accessExpiry <= 0 {
		accessExpiry = AccessTokenExpiration
	}
	refreshExpiry := time.Duration(jwtConfig.RefreshExpiry) * 24 * time.Hour
	if refreshExpiry <= 0 {
		refreshExpiry = RefreshTokenExpiration
	}

	return &userService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtSecret:        jwtConfig.Secret,
		accessExpiry:     accessExpiry,
		refreshExpiry:    refreshExpiry,
		logger:           logger,
	}
}

func (s *userService) FindAllPaged(ctx context.Context, page domain.PageRequest) (dto.Page[dto.UserSummary], error) {
	if err := page.Validate(); err != nil {
		return dto.Page[dto.UserSummary]{}, err
	}

	users, total, err := s.userRepo.FindPage(ctx, page)
	if err != nil {
		return dto.Page[dto.UserSummary]{}, translate(entityUser, 0, err)
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	roles, err := s.userRepo.FindRolesFor(ctx, ids)
	if err != nil {
		return dto.Page[dto.UserSummary]{}, translate(entityUser, 0, fmt.Errorf("failed to load roles: %w", err))
	}

	content := make([]dto.UserSummary, len(users))
	for i, u := range users {
		content[i] = dto.NewUserSummary(u, roles[u.ID])
	}

	return dto.NewPage(content, page, total), nil
}

func (s *userService) FindByID(ctx context.Context, id int64) (dto.UserSummary, error) {
	user, roles, err := s.loadUser(ctx, id)
	if err != nil {
		return dto.UserSummary{}, err
	}
	return dto.NewUserSummary(user, roles), nil
}

// Insert creates a user account with a bcrypt-hashed password
func (s *userService) Insert(ctx context.Context, input dto.UserInsertInput) (dto.UserSummary, error) {
	user := input.User()

	existing, err := s.userRepo.FindByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return dto.UserSummary{}, translate(entityUser, 0, fmt.Errorf("failed to check existing user: %w", err))
	}
	if existing != nil {
		return dto.UserSummary{}, translate(entityUser, 0, repository.ErrUserAlreadyExists)
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return dto.UserSummary{}, domain.NewValidation("password must be at most 72 bytes long")
	}
	if err != nil {
		return dto.UserSummary{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hashedPassword

	roles, err := s.userRepo.Create(ctx, user, input.RoleIDs())
	if err != nil {
		return dto.UserSummary{}, translate(entityUser, 0, err)
	}

	return dto.NewUserSummary(user, roles), nil
}

func (s *userService) Update(ctx context.Context, id int64, input dto.UserInput) (dto.UserSummary, error) {
	user := input.User()
	user.ID = id

	roles, err := s.userRepo.Update(ctx, user, input.RoleIDs())
	if err != nil {
		return dto.UserSummary{}, translate(entityUser, id, err)
	}

	return dto.NewUserSummary(user, roles), nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return translate(entityUser, id, err)
	}
	return nil
}

// Login authenticates a user and returns JWT tokens
func (s *userService) Login(ctx context.Context, email, password string) (*dto.LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, translate(entityUser, 0, fmt.Errorf("failed to find user: %w", err))
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	roles, err := s.rolesOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	summary := dto.NewUserSummary(user, roles)

	accessToken, err := s.generateAccessToken(user.ID, summary.Authorities())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, translate(entityUser, user.ID, fmt.Errorf("failed to generate refresh token: %w", err))
	}

	s.purgeExpiredTokens(ctx)

	return &dto.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		User:         summary,
	}, nil
}

func (s *userService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if refreshToken == "" {
		revoked, err := s.refreshTokenRepo.RevokeAllForUser(ctx, userID)
		if err != nil {
			return translate(entityUser, userID, err)
		}
		s.logger.Debug("Revoked all refresh tokens", zap.Int64("user_id", userID), zap.Int64("count", revoked))
		return nil
	}

	if err := s.refreshTokenRepo.Revoke(ctx, userID, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			// unknown, spent or another user's token: nothing of the caller's to revoke
			return nil
		}
		return translate(entityUser, userID, fmt.Errorf("failed to revoke refresh token: %w", err))
	}
	return nil
}

// RefreshToken exchanges a refresh token for a new access token carrying
// the user's current roles, plus a replacement refresh token
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (*dto.RefreshResult, error) {
	refreshToken, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenRevoked) {
			return nil, ErrInvalidToken
		}
		return nil, translate(entityUser, 0, fmt.Errorf("failed to find refresh token: %w", err))
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	user, roles, err := s.loadUser(ctx, refreshToken.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	accessToken, err := s.generateAccessToken(user.ID, dto.NewUserSummary(user, roles).Authorities())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	next := s.newRefreshToken(user.ID)
	if err := s.refreshTokenRepo.Rotate(ctx, refreshTokenString, next); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			// a concurrent refresh spent it first
			return nil, ErrInvalidToken
		}
		return nil, translate(entityUser, user.ID, fmt.Errorf("failed to rotate refresh token: %w", err))
	}

	return &dto.RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: next.Token,
		TokenType:    tokenType,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (dto.UserSummary, error) {
	return s.FindByID(ctx, userID)
}

func (s *userService) loadUser(ctx context.Context, id int64) (*domain.User, []domain.Role, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, translate(entityUser, id, err)
	}

	roles, err := s.rolesOf(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return user, roles, nil
}

func (s *userService) rolesOf(ctx context.Context, userID int64) ([]domain.Role, error) {
	roles, err := s.userRepo.FindRolesFor(ctx, []int64{userID})
	if err != nil {
		return nil, translate(entityUser, userID, fmt.Errorf("failed to load roles: %w", err))
	}
	return roles[userID], nil
}

func (s *userService) purgeExpiredTokens(ctx context.Context) {
	purged, err := s.refreshTokenRepo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Warn("Failed to purge expired refresh tokens", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Debug("Purged expired refresh tokens", zap.Int64("count", purged))
	}
}

// hashPassword hashes a password using bcrypt with cost factor 10
func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *userService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// generateAccessToken signs a token carrying the user id and authorities
func (s *userService) generateAccessToken(userID int64, authorities []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      userID,
		Authorities: authorities,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *userService) newRefreshToken(userID int64) *domain.RefreshToken {
	now := time.Now()
	return &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.refreshExpiry),
		CreatedAt: now,
	}
}

// generateRefreshToken generates a refresh token and stores it in the database
func (s *userService) generateRefreshToken(ctx context.Context, userID int64) (string, error) {
	token := s.newRefreshToken(userID)
	if err := s.refreshTokenRepo.Create(ctx, token); err != nil {
		return "", err
	}
	return token.Token, nil
}
