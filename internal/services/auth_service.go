package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage"
)

const tokenType = "bearer"

type AuthService struct {
	store      storage.CredentialStore
	tokens     *auth.TokenManager
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(store storage.CredentialStore, tokens *auth.TokenManager, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:      store,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	in := *req
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	// Skip the bcrypt work for emails we already know about. The create below
	// is conditional, so a concurrent registration still ends in ErrConflict.
	_, err := s.store.GetCredential(ctx, in.Email)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, &StoreError{Op: "get credential", Err: err}
	}

	hash, err := bcrypt.GenerateFromPassword(bcryptInput(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := models.Credential{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
		IsActive:     true,
	}
	if err := s.store.CreateCredential(ctx, cred); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrConflict
		}
		return nil, &StoreError{Op: "create credential", Err: err}
	}

	resp, err := s.issue(cred)
	if err != nil {
		return nil, err
	}
	resp.Message = "User registered successfully"

	slog.Info("user registered", "email", cred.Email)
	return resp, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	cred, err := s.store.GetCredential(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, &StoreError{Op: "get credential", Err: err}
	}
	if !cred.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), bcryptInput(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(cred)
}

// VerifyToken returns the email a token was minted for. It never touches the
// store and every failure is reported as ErrInvalidToken.
func (s *AuthService) VerifyToken(token string) (string, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	return email, nil
}

func (s *AuthService) Me(ctx context.Context, email string) (*dto.UserResponse, error) {
	cred, err := s.store.GetCredential(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, &StoreError{Op: "get credential", Err: err}
	}
	return &dto.UserResponse{Email: cred.Email, Name: cred.Name}, nil
}

func (s *AuthService) issue(cred models.Credential) (*dto.AuthResponse, error) {
	token, err := s.tokens.Generate(cred.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   tokenType,
		User: dto.UserResponse{
			Email: cred.Email,
			Name:  cred.Name,
		},
	}, nil
}

// bcryptInput keeps passwords within bcrypt's 72 byte limit. Longer ones are
// reduced to the base64 of their SHA-256 digest.
func bcryptInput(password string) []byte {
	if len(password) <= 72 {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
