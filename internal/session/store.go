// Package session persists the authenticated session blob between runs
// and answers whether its access token is still usable.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ordema/turnos-client/internal/turnos"
	"github.com/ordema/turnos-client/pkg/logging"
)

// ErrNotFound means no session blob exists for the user.
var ErrNotFound = errors.New("session: not found")

// Store keeps sessions as JSON blobs in redis, keyed by username.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewStore wraps a redis client. ttl bounds how long a blob outlives its
// last save.
func NewStore(rdb *redis.Client, ttl time.Duration, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.Component("session"),
	}
}

func key(username string) string {
	return fmt.Sprintf("session:%s", username)
}

// Save writes the session blob.
func (s *Store) Save(ctx context.Context, sess *turnos.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, key(sess.User.Username), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	s.logger.Debug("session saved", "username", sess.User.Username)
	return nil
}

// Load reads the session blob for a user.
func (s *Store) Load(ctx context.Context, username string) (*turnos.Session, error) {
	data, err := s.rdb.Get(ctx, key(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var sess turnos.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &sess, nil
}

// Delete removes the blob on logout. Deleting a missing session is not an
// error.
func (s *Store) Delete(ctx context.Context, username string) error {
	if err := s.rdb.Del(ctx, key(username)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// ExpiresAt reads the exp claim from the access token without verifying
// the signature. Verification happens on the backend; the client only
// needs to know when to prompt for a fresh login.
func ExpiresAt(accessToken string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("session: parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errors.New("session: token has no exp claim")
	}
	return exp.Time, nil
}

// Expired reports whether the session's access token is past its exp
// claim. Unparseable tokens count as expired.
func Expired(sess *turnos.Session, now time.Time) bool {
	exp, err := ExpiresAt(sess.Tokens.Access)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}
