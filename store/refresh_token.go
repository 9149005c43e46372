package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/smis/sso"
	"github.com/smis/sso/models"
)

var _ sso.RefreshTokenStore = (*MemoryRefreshTokenStore)(nil)

// RefreshOption configures a refresh token store.
type RefreshOption func(*refreshOptions)

type refreshOptions struct {
	ttl   time.Duration
	clock clock.Clock
}

func defaultRefreshOptions(opts []RefreshOption) refreshOptions {
	o := refreshOptions{ttl: sso.RefreshTokenTTL, clock: clock.WallClock}
	for _, fn := range opts {
		fn(&o)
	}
	if o.ttl <= 0 {
		o.ttl = sso.RefreshTokenTTL
	}
	if o.clock == nil {
		o.clock = clock.WallClock
	}
	return o
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) RefreshOption {
	return func(o *refreshOptions) { o.ttl = ttl }
}

// WithClock sets the clock expiry is computed from.
func WithClock(c clock.Clock) RefreshOption {
	return func(o *refreshOptions) { o.clock = c }
}

// newRefreshToken returns an opaque token bound to nothing but randomness;
// userID and appKey only salt the hash input.
func newRefreshToken(userID, appKey string, now time.Time) (string, error) {
	ns, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	buf := bytes.NewBufferString(appKey)
	buf.WriteString(userID)
	buf.WriteString(strconv.FormatInt(now.UnixNano(), 10))
	token := base64.URLEncoding.EncodeToString([]byte(uuid.NewSHA1(ns, buf.Bytes()).String()))
	return strings.ToUpper(strings.TrimRight(token, "=")), nil
}

// tokenHash returns a stable hex sha256 for a token string.
func tokenHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// MemoryRefreshTokenStore keeps refresh tokens in a process-local map.
type MemoryRefreshTokenStore struct {
	mu      sync.Mutex
	records map[string]models.RefreshTokenRecord
	ttl     time.Duration
	clock   clock.Clock
}

// NewMemoryRefreshTokenStore creates an empty in-memory store.
func NewMemoryRefreshTokenStore(opts ...RefreshOption) *MemoryRefreshTokenStore {
	o := defaultRefreshOptions(opts)
	return &MemoryRefreshTokenStore{
		records: make(map[string]models.RefreshTokenRecord),
		ttl:     o.ttl,
		clock:   o.clock,
	}
}

func (s *MemoryRefreshTokenStore) Generate(ctx context.Context, userID, appKey string) (string, error) {
	now := s.clock.Now()
	token, err := newRefreshToken(userID, appKey, now)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.records[token] = models.RefreshTokenRecord{Token: token, UserID: userID, AppKey: appKey, ExpiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryRefreshTokenStore) Touch(ctx context.Context, token, userID, appKey string) (*models.RefreshTokenRecord, error) {
	expiresAt := s.clock.Now().Add(s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[token]
	if !ok {
		rec = models.RefreshTokenRecord{Token: token, UserID: userID, AppKey: appKey}
	}
	rec.ExpiresAt = expiresAt
	s.records[token] = rec
	return &rec, nil
}

func (s *MemoryRefreshTokenStore) Get(ctx context.Context, token string) (*models.RefreshTokenRecord, error) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[token]
	if !ok {
		return nil, nil
	}
	if rec.Expired(now) {
		delete(s.records, token)
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryRefreshTokenStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.records, token)
	s.mu.Unlock()
	return nil
}

// Len reports how many records are held, expired ones included.
func (s *MemoryRefreshTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sweep removes every expired record and returns how many were dropped.
func (s *MemoryRefreshTokenStore) Sweep() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, token)
			n++
		}
	}
	return n
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *MemoryRefreshTokenStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.clock.After(interval):
				if n := s.Sweep(); n > 0 {
					log.Printf("refresh store: swept %d expired tokens", n)
				}
			}
		}
	}()
}
