// Package store holds the client-side mirror of the skills the server knows.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/conorfennell/skillstack/internal/domain"
)

// Lister fetches the full server-side skill list.
type Lister interface {
	ListSkills(ctx context.Context) ([]domain.Skill, error)
}

// Store is the Collection. It only changes through Refresh, which replaces
// the whole sequence; it never merges.
type Store struct {
	lister Lister
	logger *slog.Logger

	mu     sync.RWMutex
	skills []domain.Skill
	index  map[int64]int

	subMu  sync.Mutex
	nextID int
	subs   map[int]func([]domain.Skill)
}

// New creates an empty Store backed by lister.
func New(lister Lister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		lister: lister,
		logger: logger,
		index:  make(map[int64]int),
		subs:   make(map[int]func([]domain.Skill)),
	}
}

// Refresh replaces the Collection with the latest server list.
// On error the held Collection is left as it was.
func (s *Store) Refresh(ctx context.Context) error {
	fetched, err := s.lister.ListSkills(ctx)
	if err != nil {
		return fmt.Errorf("refresh skills: %w", err)
	}

	skills := make([]domain.Skill, 0, len(fetched))
	index := make(map[int64]int, len(fetched))
	for _, sk := range fetched {
		if i, dup := index[sk.ID]; dup {
			s.logger.Warn("Duplicate skill id in list, keeping the later record", "id", sk.ID)
			skills[i] = sk
			continue
		}
		index[sk.ID] = len(skills)
		skills = append(skills, sk)
	}

	s.mu.Lock()
	s.skills = skills
	s.index = index
	s.mu.Unlock()

	s.logger.Debug("Collection refreshed", "skills", len(skills))
	s.notify(skills)
	return nil
}

// Get looks up a skill by id in the current Collection.
func (s *Store) Get(id int64) (domain.Skill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Skill{}, false
	}
	return s.skills[i], true
}

// Skills returns a copy of the Collection in server order.
func (s *Store) Skills() []domain.Skill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Skill(nil), s.skills...)
}

// Len reports the number of skills held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.skills)
}

// Subscribe registers fn to be called with a copy of the Collection after
// every successful Refresh. The returned func removes the subscription.
func (s *Store) Subscribe(fn func([]domain.Skill)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(skills []domain.Skill) {
	s.subMu.Lock()
	fns := make([]func([]domain.Skill), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(append([]domain.Skill(nil), skills...))
	}
}
