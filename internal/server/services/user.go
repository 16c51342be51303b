// Package services contains server-side business logic. This file implements
// UserService: registration, login and session key registration.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/auth"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
)

const saltSize = 32

// KeyUnwrapper turns a wrapped session key into an AEAD key.
type KeyUnwrapper interface {
	PublicKeyPEM() string
	Unwrap(wrapped string) (*cryptox.AEADKey, error)
}

// SessionKeys stores the negotiated key of each user.
type SessionKeys interface {
	Set(userID string, key *cryptox.AEADKey)
	Get(userID string) (*cryptox.AEADKey, error)
	Delete(userID string)
}

// LoginResult is what a client receives after a successful login.
type LoginResult struct {
	UserID    string
	Token     string
	PublicKey string
}

type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	keys          KeyUnwrapper
	sessions      SessionKeys
	jwtSecret     []byte
	tokenValidity time.Duration
	logger        logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, keys KeyUnwrapper, sessions SessionKeys,
	cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		keys:          keys,
		sessions:      sessions,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		logger:        logger,
	}
}

// Register creates an account. passwordHash is the client-side SHA-256 hex
// digest; only an Argon2id verifier of it is stored.
func (s *UserService) Register(ctx context.Context, username, passwordHash string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	salt := common.GenerateRandByteArray(saltSize)
	user := &models.User{UserName: username, Salt: salt, Verifier: cryptox.MakeVerifier(passwordHash, salt)}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks the password digest and issues a token. Unknown users and
// wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, passwordHash string) (*LoginResult, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Keep the cost of a miss close to the cost of a hit.
			_ = cryptox.MakeVerifier(passwordHash, common.GenerateRandByteArray(saltSize))
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	candidate := cryptox.MakeVerifier(passwordHash, user.Salt)
	if subtle.ConstantTimeCompare(user.Verifier, candidate) != 1 {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	s.sessions.Delete(user.ID)

	return &LoginResult{UserID: user.ID, Token: token, PublicKey: s.keys.PublicKeyPEM()}, nil
}

// Authenticate resolves a bearer token to a user ID.
func (s *UserService) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// SetSessionKey unwraps and stores the session key of userID, replacing
// any previous one.
func (s *UserService) SetSessionKey(ctx context.Context, userID, wrapped string) error {
	key, err := s.keys.Unwrap(wrapped)
	if err != nil {
		return err
	}
	s.sessions.Set(userID, key)
	s.logger.Debug(ctx, "session key registered", "user_id", userID)
	return nil
}
