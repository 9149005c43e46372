package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juju/clock"
	valkey "github.com/valkey-io/valkey-go"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

var _ sso.RefreshTokenStore = (*ValkeyRefreshTokenStore)(nil)

// ValkeyRefreshTokenStore stores refresh tokens in Valkey (Redis-compatible)
// so several gateway replicas can share sessions.
type ValkeyRefreshTokenStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
	clock  clock.Clock
}

// NewValkeyRefreshTokenStore creates a Valkey-backed refresh token store.
// addr example: "127.0.0.1:6379"; prefix helps namespace keys.
func NewValkeyRefreshTokenStore(addr, prefix string, opts ...RefreshOption) (*ValkeyRefreshTokenStore, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, errors.Infrastructure("connect valkey", err)
	}
	return NewValkeyRefreshTokenStoreWithClient(cli, prefix, opts...), nil
}

// NewValkeyRefreshTokenStoreWithClient wraps an existing client.
func NewValkeyRefreshTokenStoreWithClient(cli valkey.Client, prefix string, opts ...RefreshOption) *ValkeyRefreshTokenStore {
	if prefix == "" {
		prefix = "sso:"
	}
	o := defaultRefreshOptions(opts)
	return &ValkeyRefreshTokenStore{client: cli, prefix: prefix, ttl: o.ttl, clock: o.clock}
}

// Close releases the client connections.
func (s *ValkeyRefreshTokenStore) Close() {
	s.client.Close()
}

func (s *ValkeyRefreshTokenStore) key(token string) string {
	return s.prefix + "refresh:" + tokenHash(token)
}

func (s *ValkeyRefreshTokenStore) set(ctx context.Context, rec *models.RefreshTokenRecord) error {
	jv, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ttl := rec.ExpiresAt.Sub(s.clock.Now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return s.client.Do(ctx, s.client.B().Set().Key(s.key(rec.Token)).Value(string(jv)).Ex(ttl).Build()).Error()
}

func (s *ValkeyRefreshTokenStore) Generate(ctx context.Context, userID, appKey string) (string, error) {
	now := s.clock.Now()
	token, err := newRefreshToken(userID, appKey, now)
	if err != nil {
		return "", err
	}
	rec := &models.RefreshTokenRecord{Token: token, UserID: userID, AppKey: appKey, ExpiresAt: now.Add(s.ttl)}
	if err := s.set(ctx, rec); err != nil {
		return "", errors.Infrastructure("store refresh token", err)
	}
	return token, nil
}

// Touch is a read followed by a SET; concurrent touches of one token are last-write-wins.
func (s *ValkeyRefreshTokenStore) Touch(ctx context.Context, token, userID, appKey string) (*models.RefreshTokenRecord, error) {
	rec, err := s.read(ctx, token)
	if err != nil {
		return nil, errors.Infrastructure("touch refresh token", err)
	}
	if rec == nil {
		rec = &models.RefreshTokenRecord{Token: token, UserID: userID, AppKey: appKey}
	}
	rec.ExpiresAt = s.clock.Now().Add(s.ttl)
	if err := s.set(ctx, rec); err != nil {
		return nil, errors.Infrastructure("touch refresh token", err)
	}
	return rec, nil
}

func (s *ValkeyRefreshTokenStore) read(ctx context.Context, token string) (*models.RefreshTokenRecord, error) {
	jv, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(token)).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.RefreshTokenRecord
	if err := json.Unmarshal([]byte(jv), &rec); err != nil {
		return nil, err
	}
	rec.Token = token
	return &rec, nil
}

func (s *ValkeyRefreshTokenStore) Get(ctx context.Context, token string) (*models.RefreshTokenRecord, error) {
	rec, err := s.read(ctx, token)
	if err != nil {
		return nil, errors.Infrastructure("get refresh token", err)
	}
	if rec == nil {
		return nil, nil
	}
	if rec.Expired(s.clock.Now()) {
		if err := s.Revoke(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return rec, nil
}

func (s *ValkeyRefreshTokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.key(token)).Build()).Error(); err != nil {
		return errors.Infrastructure("revoke refresh token", err)
	}
	return nil
}
