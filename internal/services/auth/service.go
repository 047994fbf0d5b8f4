package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/arcade/internal/dependencies/clock"
	"github.com/mcoot/arcade/internal/dependencies/random"
	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/storage"
)

// TokenBytes is the amount of randomness in a session credential
const TokenBytes = 16

// Service issues and resolves session credentials
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "auth")),
	}
}

// HashToken returns the at-rest form of a token
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Resolve maps a token to its user. It never fails: any problem, including a
// storage error, means the token does not identify anyone.
func (s *Service) Resolve(ctx context.Context, token string) (*model.User, bool) {
	if token == "" {
		return nil, false
	}

	cred, err := s.storage.GetCredentialByHash(ctx, HashToken(token))
	if err != nil {
		if !errors.Is(err, model.ErrCredentialNotFound) {
			s.logger.Warn("credential lookup failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	user, err := s.storage.GetUser(ctx, cred.PlayerID)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			s.logger.Warn("user lookup failed",
				slog.String("player_id", string(cred.PlayerID)),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	return user, true
}

// RegisterUser stores the user unless they already exist
func (s *Service) RegisterUser(ctx context.Context, user *model.User) (bool, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.clock.Now()
	}
	created, err := s.storage.CreateUserIfAbsent(ctx, user)
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}
	if created {
		s.logger.Info("user registered", slog.String("player_id", string(user.ID)))
	}
	return created, nil
}

// Issue creates a new credential for the user, replacing any previous one
func (s *Service) Issue(ctx context.Context, playerID model.PlayerID) (string, error) {
	b, err := s.random.Bytes(TokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(b)

	cred := &model.Credential{
		PlayerID:  playerID,
		TokenHash: HashToken(token),
		IssuedAt:  s.clock.Now(),
	}
	if err := s.storage.PutCredential(ctx, cred); err != nil {
		return "", fmt.Errorf("store credential: %w", err)
	}

	return token, nil
}

// Revoke deletes the credential the token belongs to. Unknown tokens are ignored.
func (s *Service) Revoke(ctx context.Context, token string) (model.PlayerID, error) {
	if token == "" {
		return "", nil
	}

	cred, err := s.storage.GetCredentialByHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, model.ErrCredentialNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("lookup credential: %w", err)
	}

	if err := s.storage.DeleteCredential(ctx, cred.PlayerID); err != nil {
		return "", fmt.Errorf("delete credential: %w", err)
	}
	return cred.PlayerID, nil
}
