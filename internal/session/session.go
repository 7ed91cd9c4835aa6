// Package session keeps signed-in state in Valkey behind an opaque,
// httpOnly cookie. Each user's live sessions are indexed so they can be
// revoked together.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"homepros/internal/models"
)

const (
	// CookieName is the session cookie.
	CookieName = "hp_session"

	// DefaultTTL is the idle lifetime of a session. Every read extends it.
	DefaultTTL = 24 * time.Hour

	keyPrefix  = "session:"
	userPrefix = "session_user:"
)

// ErrNoSession is returned by Update when the request carries no session
// cookie.
var ErrNoSession = errors.New("no session cookie")

// Data is the session payload.
type Data struct {
	UserID    uuid.UUID   `json:"user_id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	TwoFADone bool        `json:"two_fa_done"`
	CreatedAt time.Time   `json:"created_at"`
}

// IsAdmin reports whether the session belongs to an admin who has passed
// the TOTP step.
func (d *Data) IsAdmin() bool {
	return d.Role == models.RoleAdmin && d.TwoFADone
}

// Store reads and writes sessions.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store. secure marks the cookie Secure and
// belongs on whenever the API is served over TLS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{client: client, ttl: DefaultTTL, secure: secure}
}

func sessionKey(id string) string { return keyPrefix + id }

func userKey(id uuid.UUID) string { return userPrefix + id.String() }

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// Create stores a new session for data, indexes it under the user and
// sets the cookie. It returns the session id.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	id := base64.RawURLEncoding.EncodeToString(raw)

	data.CreatedAt = time.Now().UTC()
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(id), payload, s.ttl)
	pipe.SAdd(ctx, userKey(data.UserID), id)
	pipe.Expire(ctx, userKey(data.UserID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	http.SetCookie(w, s.cookie(id, int(s.ttl.Seconds())))
	return id, nil
}

// Get loads the request's session and extends its lifetime. A missing
// cookie or an expired session yields (nil, nil).
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}

	payload, err := s.client.GetEx(ctx, sessionKey(c.Value), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	data := &Data{}
	if err := json.Unmarshal(payload, data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return data, nil
}

// Update overwrites the request's session in place; the id and cookie
// stay the same.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return ErrNoSession
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(c.Value), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Destroy deletes the request's session and expires the cookie. Without a
// cookie it does nothing.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}

	data, err := s.Get(ctx, r)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(c.Value))
	if data != nil {
		pipe.SRem(ctx, userKey(data.UserID), c.Value)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}

	http.SetCookie(w, s.cookie("", -1))
	return nil
}

// RevokeUser deletes every session of userID and reports how many were
// still live.
func (s *Store) RevokeUser(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	var removed int64
	if len(keys) > 0 {
		if removed, err = s.client.Del(ctx, keys...).Result(); err != nil {
			return 0, fmt.Errorf("revoke user sessions: %w", err)
		}
	}
	if err := s.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return int(removed), fmt.Errorf("revoke user sessions: %w", err)
	}
	return int(removed), nil
}
