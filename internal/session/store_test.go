package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordema/turnos-client/internal/turnos"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Hour, nil)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":     exp.Unix(),
		"user_id": 7,
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := &turnos.Session{
		User:   turnos.User{ID: 7, Username: "carlos", Role: "profesional"},
		Tokens: turnos.Tokens{Access: "acc", Refresh: "ref"},
	}
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Load(ctx, "carlos")
	require.NoError(t, err)
	assert.Equal(t, sess.User, loaded.User)
	assert.Equal(t, sess.Tokens, loaded.Tokens)
}

func TestStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "nadie")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := &turnos.Session{User: turnos.User{Username: "carlos"}}
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Delete(ctx, "carlos"))

	_, err := store.Load(ctx, "carlos")
	assert.ErrorIs(t, err, ErrNotFound)

	// A second delete is a no-op.
	assert.NoError(t, store.Delete(ctx, "carlos"))
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	got, err := ExpiresAt(signedToken(t, exp))
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))
}

func TestExpiresAtGarbage(t *testing.T) {
	_, err := ExpiresAt("not-a-jwt")
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	now := time.Now()

	live := &turnos.Session{Tokens: turnos.Tokens{Access: signedToken(t, now.Add(time.Hour))}}
	assert.False(t, Expired(live, now))

	stale := &turnos.Session{Tokens: turnos.Tokens{Access: signedToken(t, now.Add(-time.Minute))}}
	assert.True(t, Expired(stale, now))

	broken := &turnos.Session{Tokens: turnos.Tokens{Access: "garbage"}}
	assert.True(t, Expired(broken, now))
}
