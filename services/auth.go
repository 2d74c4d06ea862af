package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/leveling"
	"github.com/skif48/wellness-engine/repositories"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidSignUp      = errors.New("invalid sign-up request")
)

const minPasswordLength = 6

type AuthService struct {
	upr    repositories.UserProfileRepository
	tokens repositories.AuthTokenRepository
	ttl    time.Duration
}

func NewAuthService(ac *app_config.AppConfig, upr repositories.UserProfileRepository, tokens repositories.AuthTokenRepository) *AuthService {
	return &AuthService{upr: upr, tokens: tokens, ttl: ac.AuthTokenTTL}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers the user at level 1 with no XP.
func (a *AuthService) SignUp(ctx context.Context, req *entities.SignUpRequest) (*entities.UserProfile, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSignUp)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: bad email", ErrInvalidSignUp)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password shorter than %d", ErrInvalidSignUp, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return a.upr.SignUp(ctx, &entities.CreateUserProfileDto{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Progress:     leveling.NewUserProgress(),
	})
}

func (a *AuthService) SignIn(ctx context.Context, req *entities.SignInRequest) (*entities.SignInResponse, error) {
	creds, err := a.upr.GetCredentials(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	profile, err := a.upr.GetUserProfile(ctx, creds.UserId)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := a.tokens.Save(ctx, token, profile.Id, a.ttl); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return &entities.SignInResponse{Token: token, User: profile}, nil
}

func (a *AuthService) SignOut(ctx context.Context, token string) error {
	return a.tokens.Revoke(ctx, token)
}

// CurrentUser resolves a bearer token to its user id.
func (a *AuthService) CurrentUser(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	userId, err := a.tokens.Lookup(ctx, token)
	if err != nil {
		return "", err
	}
	if userId == "" {
		return "", ErrUnauthorized
	}
	return userId, nil
}
