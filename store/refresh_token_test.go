package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/smis/sso"
)

var epoch = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// exerciseRefreshStore runs the behaviour every refresh token backend shares.
func exerciseRefreshStore(store sso.RefreshTokenStore, clk *testclock.Clock) {
	ctx := context.Background()

	Convey("generate then get returns the record", func() {
		token, err := store.Generate(ctx, "7", "A")
		So(err, ShouldBeNil)
		So(token, ShouldNotBeEmpty)

		rec, err := store.Get(ctx, token)
		So(err, ShouldBeNil)
		So(rec, ShouldNotBeNil)
		So(rec.UserID, ShouldEqual, "7")
		So(rec.AppKey, ShouldEqual, "A")
		So(rec.ExpiresAt.Equal(epoch.Add(sso.RefreshTokenTTL)), ShouldBeTrue)
	})

	Convey("generated tokens are distinct", func() {
		t1, err := store.Generate(ctx, "7", "A")
		So(err, ShouldBeNil)
		t2, err := store.Generate(ctx, "7", "A")
		So(err, ShouldBeNil)
		So(t1, ShouldNotEqual, t2)
	})

	Convey("expired tokens stay gone", func() {
		token, err := store.Generate(ctx, "7", "A")
		So(err, ShouldBeNil)
		clk.Advance(sso.RefreshTokenTTL)

		rec, err := store.Get(ctx, token)
		So(err, ShouldBeNil)
		So(rec, ShouldBeNil)

		rec, err = store.Get(ctx, token)
		So(err, ShouldBeNil)
		So(rec, ShouldBeNil)
	})

	Convey("touch extends expiry without changing the token", func() {
		token, err := store.Generate(ctx, "7", "A")
		So(err, ShouldBeNil)
		clk.Advance(24 * time.Hour)

		rec, err := store.Touch(ctx, token, "7", "A")
		So(err, ShouldBeNil)
		So(rec.Token, ShouldEqual, token)
		So(rec.ExpiresAt.Equal(epoch.Add(24*time.Hour+sso.RefreshTokenTTL)), ShouldBeTrue)

		clk.Advance(sso.RefreshTokenTTL - time.Hour)
		rec, err = store.Get(ctx, token)
		So(err, ShouldBeNil)
		So(rec, ShouldNotBeNil)
	})

	Convey("touch keeps the stored owner of a known token", func() {
		token, err := store.Generate(ctx, "7", "A")
		So(err, ShouldBeNil)
		rec, err := store.Touch(ctx, token, "8", "B")
		So(err, ShouldBeNil)
		So(rec.UserID, ShouldEqual, "7")
		So(rec.AppKey, ShouldEqual, "A")
	})

	Convey("touch on an unknown token creates it", func() {
		_, err := store.Touch(ctx, "unknown-token", "9", "B")
		So(err, ShouldBeNil)

		rec, err := store.Get(ctx, "unknown-token")
		So(err, ShouldBeNil)
		So(rec, ShouldNotBeNil)
		So(rec.UserID, ShouldEqual, "9")
		So(rec.AppKey, ShouldEqual, "B")
	})

	Convey("revoke removes the token and is idempotent", func() {
		token, err := store.Generate(ctx, "7", "A")
		So(err, ShouldBeNil)
		So(store.Revoke(ctx, token), ShouldBeNil)
		So(store.Revoke(ctx, token), ShouldBeNil)
		So(store.Revoke(ctx, "never-issued"), ShouldBeNil)

		rec, err := store.Get(ctx, token)
		So(err, ShouldBeNil)
		So(rec, ShouldBeNil)
	})
}

func TestMemoryRefreshTokenStore(t *testing.T) {
	Convey("Test memory refresh token store", t, func() {
		clk := testclock.NewClock(epoch)
		store := NewMemoryRefreshTokenStore(WithClock(clk))
		exerciseRefreshStore(store, clk)
	})
}

func TestMemoryRefreshTokenStoreSweep(t *testing.T) {
	Convey("Test sweeping expired refresh tokens", t, func() {
		clk := testclock.NewClock(epoch)
		store := NewMemoryRefreshTokenStore(WithClock(clk), WithRefreshTTL(time.Hour))
		ctx := context.Background()

		_, err := store.Generate(ctx, "1", "A")
		So(err, ShouldBeNil)
		clk.Advance(30 * time.Minute)
		live, err := store.Generate(ctx, "2", "A")
		So(err, ShouldBeNil)
		clk.Advance(45 * time.Minute)

		So(store.Sweep(), ShouldEqual, 1)
		So(store.Len(), ShouldEqual, 1)
		rec, err := store.Get(ctx, live)
		So(err, ShouldBeNil)
		So(rec, ShouldNotBeNil)
	})
}

func TestMemoryRefreshTokenStoreConcurrentTouch(t *testing.T) {
	Convey("Test concurrent touches of one token", t, func() {
		clk := testclock.NewClock(epoch)
		store := NewMemoryRefreshTokenStore(WithClock(clk))
		ctx := context.Background()
		token, err := store.Generate(ctx, "7", "A")
		So(err, ShouldBeNil)

		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = store.Touch(ctx, token, "7", "A")
				_, _ = store.Get(ctx, token)
			}()
		}
		wg.Wait()

		rec, err := store.Get(ctx, token)
		So(err, ShouldBeNil)
		So(rec.Token, ShouldEqual, token)
		So(store.Len(), ShouldEqual, 1)
	})
}

func TestBuntRefreshTokenStore(t *testing.T) {
	Convey("Test buntdb refresh token store", t, func() {
		clk := testclock.NewClock(epoch)
		store, err := NewBuntRefreshTokenStore(":memory:", WithClock(clk))
		So(err, ShouldBeNil)
		defer store.Close()
		exerciseRefreshStore(store, clk)
	})
}

func TestValkeyRefreshTokenStore(t *testing.T) {
	addr := valkeyAddr(t)
	Convey("Test valkey refresh token store", t, func() {
		clk := testclock.NewClock(time.Now())
		store, err := NewValkeyRefreshTokenStore(addr, "sso-test:", WithClock(clk))
		So(err, ShouldBeNil)
		defer store.Close()
		ctx := context.Background()

		token, err := store.Generate(ctx, "7", "A")
		So(err, ShouldBeNil)
		rec, err := store.Get(ctx, token)
		So(err, ShouldBeNil)
		So(rec.UserID, ShouldEqual, "7")

		So(store.Revoke(ctx, token), ShouldBeNil)
		rec, err = store.Get(ctx, token)
		So(err, ShouldBeNil)
		So(rec, ShouldBeNil)
	})
}
