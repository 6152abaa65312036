package credentials

import (
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-quiz-session/internal/errors"
	"github.com/rs/zerolog/log"
)

// Store holds the credential pair for one tab. Several stores may share a
// Repo and a Notifier, which is how tabs see each other's changes.
//
// A Store never returns errors: a missing repo (no storage medium) turns every
// operation into a no-op reporting "absent", and repo faults are logged and
// treated the same way.
type Store struct {
	id       string
	repo     Repo
	notifier Notifier
	nowFunc  func() time.Time
	mu       sync.Mutex
}

type StoreOption func(*Store)

func WithNotifier(notifier Notifier) StoreOption {
	return func(s *Store) {
		s.notifier = notifier
	}
}

func WithID(id string) StoreOption {
	return func(s *Store) {
		s.id = id
	}
}

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func NewStore(repo Repo, options ...StoreOption) *Store {
	s := &Store{repo: repo}
	for _, opt := range options {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	return s
}

// ID identifies this store (tab) as the origin of its change events
func (s *Store) ID() string {
	return s.id
}

// Get returns the access credential
func (s *Store) Get() (string, bool) {
	return s.read(KeyAccess)
}

// GetRefresh returns the refresh credential
func (s *Store) GetRefresh() (string, bool) {
	return s.read(KeyRefresh)
}

// Save writes access unconditionally and refresh only when provided.
func (s *Store) Save(access string, refresh *string) {
	if s.repo == nil {
		return
	}

	values := map[string]string{KeyAccess: access}
	if refresh != nil {
		values[KeyRefresh] = *refresh
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Put(values); err != nil {
		log.Warn().Err(err).Str("tab", s.id).Msg("credential store save failed")
		return
	}

	keys := []string{KeyAccess}
	if refresh != nil {
		keys = append(keys, KeyRefresh)
	}
	s.publish(OpSave, keys)
}

// Clear removes both credentials.
func (s *Store) Clear() {
	if s.repo == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(KeyAccess, KeyRefresh); err != nil {
		log.Warn().Err(err).Str("tab", s.id).Msg("credential store clear failed")
		return
	}
	s.publish(OpClear, []string{KeyAccess, KeyRefresh})
}

// Pair returns both credentials as currently stored
func (s *Store) Pair() (Pair, bool) {
	access, ok := s.Get()
	if !ok {
		return Pair{}, false
	}
	pair := Pair{Access: access}
	if refresh, ok := s.GetRefresh(); ok {
		pair.Refresh = &refresh
	}
	return pair, true
}

func (s *Store) read(key string) (string, bool) {
	if s.repo == nil {
		return "", false
	}
	value, ok, err := s.repo.Get(key)
	if apperrors.Is(err, apperrors.ErrInvalidStoreKey) {
		log.Error().Err(err).Str("tab", s.id).Msg("stored credentials cannot be opened with the configured key")
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("tab", s.id).Str("key", key).Msg("credential store read failed")
		return "", false
	}
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (s *Store) publish(op Op, keys []string) {
	if s.notifier == nil {
		return
	}
	event := ChangeEvent{
		Origin: s.id,
		Op:     op,
		Keys:   keys,
		At:     s.nowFunc(),
	}
	if err := s.notifier.Publish(event); err != nil {
		log.Warn().Err(err).Str("tab", s.id).Str("op", string(op)).Msg("credential change broadcast failed")
	}
}
