package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cadencehq/beacon/pkg/internal/database"
	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionStore maps identities to their connection footprint. Live state is
// in memory; last-seen timestamps drain to the database through a flush
// queue, and an optional distributed mirror lets sibling instances answer
// reachability for identities connected elsewhere.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uint]models.Session

	staleness time.Duration
	now       func() time.Time

	flushMu sync.Mutex
	flush   map[uint]models.Session

	mirror *marshaler.Marshaler
}

func NewSessionStore(staleness time.Duration) *SessionStore {
	return &SessionStore{
		sessions:  make(map[uint]models.Session),
		flush:     make(map[uint]models.Session),
		staleness: staleness,
		now:       time.Now,
	}
}

// UseMirror attaches a shared store so reachability survives across
// instances. Mirror writes are best-effort.
func (s *SessionStore) UseMirror(st store.StoreInterface) {
	s.mirror = marshaler.New(cache.New[any](st))
}

func sessionCacheKey(accountId uint) string {
	return fmt.Sprintf("session#%d", accountId)
}

func (s *SessionStore) SetOnline(accountId uint, online bool) {
	now := s.now()

	s.mu.Lock()
	entry := s.sessions[accountId]
	entry.AccountID = accountId
	entry.IsOnline = online
	if now.After(entry.LastSeenAt) {
		entry.LastSeenAt = now
	}
	s.sessions[accountId] = entry
	s.mu.Unlock()

	s.flushMu.Lock()
	s.flush[accountId] = entry
	s.flushMu.Unlock()

	if s.mirror != nil {
		_ = s.mirror.Set(
			context.Background(),
			sessionCacheKey(accountId),
			entry,
			store.WithExpiration(s.staleness),
		)
	}
}

func (s *SessionStore) Heartbeat(accountId uint) {
	s.SetOnline(accountId, true)
}

func (s *SessionStore) Get(accountId uint) (models.Session, bool) {
	s.mu.RLock()
	entry, ok := s.sessions[accountId]
	s.mu.RUnlock()

	if !ok && s.mirror != nil {
		if val, err := s.mirror.Get(
			context.Background(),
			sessionCacheKey(accountId),
			new(models.Session),
		); err == nil {
			return *(val.(*models.Session)), true
		}
	}
	return entry, ok
}

// IsReachable reports whether the identity is online and recently active.
// The staleness threshold guards against stuck online flags left behind by
// crashed clients. An unknown identity is unreachable, not a fault.
func (s *SessionStore) IsReachable(accountId uint) bool {
	entry, ok := s.Get(accountId)
	if !ok || !entry.IsOnline {
		return false
	}
	return s.now().Sub(entry.LastSeenAt) <= s.staleness
}

// FlushLastSeen drains the pending last-seen updates into the database.
// Runs on a timer; relay correctness never depends on it.
func (s *SessionStore) FlushLastSeen() {
	s.flushMu.Lock()
	if len(s.flush) == 0 {
		s.flushMu.Unlock()
		return
	}
	batch := s.flush
	s.flush = make(map[uint]models.Session)
	s.flushMu.Unlock()

	for _, entry := range batch {
		if err := database.C.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"is_online":    entry.IsOnline,
				"last_seen_at": gorm.Expr("GREATEST(last_seen_at, excluded.last_seen_at)"),
				"updated_at":   s.now(),
			}),
		}).Create(&models.Session{
			AccountID:  entry.AccountID,
			IsOnline:   entry.IsOnline,
			LastSeenAt: entry.LastSeenAt,
		}).Error; err != nil {
			log.Error().Err(err).Msg("An error occurred when flushing session last seen...")
			return
		}
	}
}
