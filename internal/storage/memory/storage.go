package memory

import (
	"context"
	"sync"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	users        map[model.PlayerID]*model.User
	credentials  map[model.PlayerID]*model.Credential
	hashIndex    map[string]model.PlayerID
	hands        map[model.PlayerID]*model.Hand
	draws        map[model.PlayerID][]*model.CardDraw
	auditEntries []*model.AuditEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:       make(map[model.PlayerID]*model.User),
		credentials: make(map[model.PlayerID]*model.Credential),
		hashIndex:   make(map[string]model.PlayerID),
		hands:       make(map[model.PlayerID]*model.Hand),
		draws:       make(map[model.PlayerID][]*model.CardDraw),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUserIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return false, nil
	}
	u := *user
	s.users[user.ID] = &u
	return true, nil
}

func (s *Storage) GetUser(ctx context.Context, id model.PlayerID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// Credential operations

func (s *Storage) PutCredential(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.credentials[cred.PlayerID]; ok {
		delete(s.hashIndex, old.TokenHash)
	}
	c := *cred
	s.credentials[cred.PlayerID] = &c
	s.hashIndex[cred.TokenHash] = cred.PlayerID
	return nil
}

func (s *Storage) GetCredentialByHash(ctx context.Context, tokenHash string) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.hashIndex[tokenHash]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	cred, ok := s.credentials[playerID]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	c := *cred
	return &c, nil
}

func (s *Storage) DeleteCredential(ctx context.Context, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred, ok := s.credentials[playerID]; ok {
		delete(s.hashIndex, cred.TokenHash)
		delete(s.credentials, playerID)
	}
	return nil
}

// Hand operations

func (s *Storage) ResetHand(ctx context.Context, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round := 0
	if hand, ok := s.hands[playerID]; ok {
		round = hand.Round
	}
	hand := model.NewHand(playerID)
	hand.Round = round + 1
	s.hands[playerID] = hand
	return nil
}

func (s *Storage) GetScore(ctx context.Context, playerID model.PlayerID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hand, ok := s.hands[playerID]
	if !ok {
		return 0, nil
	}
	return hand.Score, nil
}

func (s *Storage) GetHand(ctx context.Context, playerID model.PlayerID) (*model.Hand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hand, ok := s.hands[playerID]
	if !ok {
		return nil, model.ErrHandNotFound
	}
	h := *hand
	return &h, nil
}

func (s *Storage) AddScore(ctx context.Context, playerID model.PlayerID, delta storage.DeltaFunc, draws ...*model.CardDraw) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hand, ok := s.hands[playerID]
	if !ok {
		hand = model.NewHand(playerID)
		s.hands[playerID] = hand
	}
	before := hand.Score
	hand.Score = before + delta(before)
	for _, draw := range draws {
		draw.Round = hand.Round
		d := *draw
		s.draws[playerID] = append(s.draws[playerID], &d)
	}
	return before, hand.Score, nil
}

// Draw operations

func (s *Storage) ListDraws(ctx context.Context, playerID model.PlayerID) ([]*model.CardDraw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	round := 0
	if hand, ok := s.hands[playerID]; ok {
		round = hand.Round
	}
	result := make([]*model.CardDraw, 0)
	for _, d := range s.draws[playerID] {
		if d.Round != round {
			continue
		}
		c := *d
		result = append(result, &c)
	}
	return result, nil
}

// Audit operations

func (s *Storage) AppendAudit(ctx context.Context, entry *model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	s.auditEntries = append(s.auditEntries, &e)
	return nil
}

// ListAudit returns a copy of every recorded audit entry in append order
func (s *Storage) ListAudit() []*model.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.AuditEntry, len(s.auditEntries))
	for i, e := range s.auditEntries {
		c := *e
		result[i] = &c
	}
	return result
}

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}
