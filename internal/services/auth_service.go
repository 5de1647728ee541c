package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/config"
	"github.com/modcore/shop-backend/internal/dto"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/modcore/shop-backend/internal/store"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrBanned             = errors.New("account is banned")
)

const (
	AuthEventSignedIn  = "signed_in"
	AuthEventSignedOut = "signed_out"
)

// AuthEvent notifies subscribers of session transitions. The reconciler
// subscribes to start and stop tracking a user.
type AuthEvent struct {
	Type   string
	UserID uuid.UUID
}

type AuthService struct {
	profiles store.ProfileStore
	tokens   store.TokenStore
	cfg      *config.Config

	mu          sync.RWMutex
	subscribers []func(AuthEvent)
}

func NewAuthService(profiles store.ProfileStore, tokens store.TokenStore, cfg *config.Config) *AuthService {
	return &AuthService{profiles: profiles, tokens: tokens, cfg: cfg}
}

// OnAuthStateChange registers a callback fired on sign-in and sign-out.
func (s *AuthService) OnAuthStateChange(fn func(AuthEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *AuthService) notify(ev AuthEvent) {
	s.mu.RLock()
	subs := make([]func(AuthEvent), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// SignUp provisions a profile with balance 0 and opens a session.
func (s *AuthService) SignUp(ctx context.Context, username, email, password string) (*dto.AuthResponse, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if len(username) < 3 || len(username) > 32 {
		return nil, errors.New("username must be between 3 and 32 characters")
	}
	if !strings.Contains(email, "@") {
		return nil, errors.New("valid email required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	if _, err := s.profiles.GetProfileByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}
	if _, err := s.profiles.GetProfileByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &models.Profile{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Password: string(hash),
		Balance:  decimal.Zero,
	}
	if err := s.profiles.InsertProfile(ctx, profile); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	resp, err := s.generateTokenPair(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.notify(AuthEvent{Type: AuthEventSignedIn, UserID: profile.ID})
	return resp, nil
}

// SignIn accepts a username or an email as the identifier. Banned accounts
// are rejected before any session is issued.
func (s *AuthService) SignIn(ctx context.Context, identifier, password string) (*dto.AuthResponse, error) {
	identifier = strings.TrimSpace(identifier)

	var (
		profile *models.Profile
		err     error
	)
	if strings.Contains(identifier, "@") {
		profile, err = s.profiles.GetProfileByEmail(ctx, strings.ToLower(identifier))
	} else {
		profile, err = s.profiles.GetProfileByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if profile.Banned {
		return nil, ErrBanned
	}

	resp, err := s.generateTokenPair(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.notify(AuthEvent{Type: AuthEventSignedIn, UserID: profile.ID})
	return resp, nil
}

// Refresh rotates the refresh token and issues a new pair. A banned user's
// refresh is rejected and every remaining session is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	stored, err := s.tokens.FindActiveToken(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		_ = s.tokens.RevokeToken(ctx, stored.ID)
		return nil, ErrInvalidToken
	}

	if err := s.tokens.RevokeToken(ctx, stored.ID); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	profile, err := s.profiles.GetProfile(ctx, stored.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if profile.Banned {
		_ = s.tokens.RevokeUserTokens(ctx, profile.ID)
		return nil, ErrBanned
	}

	return s.generateTokenPair(ctx, profile)
}

// SignOut revokes the presented refresh token and emits a SignedOut event.
func (s *AuthService) SignOut(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	stored, err := s.tokens.FindActiveToken(ctx, hashToken(refreshToken))
	if err == nil {
		if err := s.tokens.RevokeToken(ctx, stored.ID); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}
	s.notify(AuthEvent{Type: AuthEventSignedOut, UserID: userID})
	return nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, profile *models.Profile) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(profile)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, profile)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:       profile.ID,
			Username: profile.Username,
			Email:    profile.Email,
			Balance:  profile.Balance,
			IsAdmin:  profile.IsAdmin,
			IsOwner:  profile.IsOwner,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(profile *models.Profile) (string, error) {
	claims := jwt.MapClaims{
		"sub":      profile.ID.String(),
		"username": profile.Username,
		"is_admin": profile.IsAdmin,
		"is_owner": profile.IsOwner,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, profile *models.Profile) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    profile.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.tokens.InsertToken(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
