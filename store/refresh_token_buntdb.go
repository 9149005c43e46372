package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juju/clock"
	"github.com/tidwall/buntdb"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

var _ sso.RefreshTokenStore = (*BuntRefreshTokenStore)(nil)

// BuntRefreshTokenStore keeps refresh tokens in a buntdb file so they survive restarts.
// Records are keyed by the token hash; the raw token is never written.
type BuntRefreshTokenStore struct {
	db    *buntdb.DB
	ttl   time.Duration
	clock clock.Clock
}

// NewBuntRefreshTokenStore opens path (":memory:" for a volatile database).
func NewBuntRefreshTokenStore(path string, opts ...RefreshOption) (*BuntRefreshTokenStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Infrastructure("open refresh store", err)
	}
	o := defaultRefreshOptions(opts)
	return &BuntRefreshTokenStore{db: db, ttl: o.ttl, clock: o.clock}, nil
}

// Close closes the underlying database.
func (s *BuntRefreshTokenStore) Close() error {
	return s.db.Close()
}

func (s *BuntRefreshTokenStore) key(token string) string {
	return "refresh:" + tokenHash(token)
}

func (s *BuntRefreshTokenStore) put(tx *buntdb.Tx, rec *models.RefreshTokenRecord, now time.Time) error {
	jv, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ttl := rec.ExpiresAt.Sub(now)
	if ttl <= 0 {
		ttl = time.Millisecond
	}
	_, _, err = tx.Set(s.key(rec.Token), string(jv), &buntdb.SetOptions{Expires: true, TTL: ttl})
	return err
}

func (s *BuntRefreshTokenStore) Generate(ctx context.Context, userID, appKey string) (string, error) {
	now := s.clock.Now()
	token, err := newRefreshToken(userID, appKey, now)
	if err != nil {
		return "", err
	}
	rec := &models.RefreshTokenRecord{Token: token, UserID: userID, AppKey: appKey, ExpiresAt: now.Add(s.ttl)}
	err = s.db.Update(func(tx *buntdb.Tx) error {
		return s.put(tx, rec, now)
	})
	if err != nil {
		return "", errors.Infrastructure("store refresh token", err)
	}
	return token, nil
}

func (s *BuntRefreshTokenStore) Touch(ctx context.Context, token, userID, appKey string) (*models.RefreshTokenRecord, error) {
	now := s.clock.Now()
	var rec *models.RefreshTokenRecord
	err := s.db.Update(func(tx *buntdb.Tx) error {
		cur, err := s.read(tx, token)
		if err != nil {
			return err
		}
		if cur == nil {
			cur = &models.RefreshTokenRecord{Token: token, UserID: userID, AppKey: appKey}
		}
		cur.ExpiresAt = now.Add(s.ttl)
		rec = cur
		return s.put(tx, cur, now)
	})
	if err != nil {
		return nil, errors.Infrastructure("touch refresh token", err)
	}
	return rec, nil
}

// read returns the stored record for token or nil when absent.
func (s *BuntRefreshTokenStore) read(tx *buntdb.Tx, token string) (*models.RefreshTokenRecord, error) {
	jv, err := tx.Get(s.key(token))
	if err == buntdb.ErrNotFound {
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

func (s *BuntRefreshTokenStore) Get(ctx context.Context, token string) (*models.RefreshTokenRecord, error) {
	now := s.clock.Now()
	var rec *models.RefreshTokenRecord
	err := s.db.Update(func(tx *buntdb.Tx) error {
		cur, err := s.read(tx, token)
		if err != nil || cur == nil {
			return err
		}
		// buntdb expires on wall time; the injected clock decides here
		if cur.Expired(now) {
			_, err := tx.Delete(s.key(token))
			if err == buntdb.ErrNotFound {
				err = nil
			}
			return err
		}
		rec = cur
		return nil
	})
	if err != nil {
		return nil, errors.Infrastructure("get refresh token", err)
	}
	return rec, nil
}

func (s *BuntRefreshTokenStore) Revoke(ctx context.Context, token string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(s.key(token))
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return errors.Infrastructure("revoke refresh token", err)
	}
	return nil
}
