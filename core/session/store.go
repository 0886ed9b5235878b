// Package session persists per-user conversation state in Postgres.
//
// A session row carries two independent pieces of state: the durable
// account flags (age_verified, e621_api_key) and the volatile pending
// pointer (pending_post_id, pending_file_key) that names the post the
// user's next plain-text message will tag.
package session

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"github.com/m3rciful/stickerbot/core/logger"
)

// Session mirrors one row of the sessions table.
type Session struct {
	UserID        int64          `db:"user_id"`
	AgeVerified   bool           `db:"age_verified"`
	PendingPostID sql.NullInt64  `db:"pending_post_id"`
	PendingFileKey sql.NullString `db:"pending_file_key"`
	E621APIKey    sql.NullString `db:"e621_api_key"`
}

// HasPending reports whether the session points at a post awaiting tags.
func (s *Session) HasPending() bool {
	return s != nil && s.PendingPostID.Valid && s.PendingFileKey.Valid
}

// HasAPIKey reports whether backend credentials were provisioned.
func (s *Session) HasAPIKey() bool {
	return s != nil && s.E621APIKey.Valid && s.E621APIKey.String != ""
}

// Store reads and writes sessions.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Get returns the session for userID. A user without a row yet gets a
// zero-value session with only UserID set, not an error.
func (st *Store) Get(ctx context.Context, userID int64) (*Session, error) {
	var s Session
	err := st.db.GetContext(ctx, &s,
		`SELECT user_id, age_verified, pending_post_id, pending_file_key, e621_api_key
		   FROM sessions WHERE user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return &Session{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	return &s, nil
}

// SetPending points the session at a post and the stable sticker
// identity it was filed under, replacing any previous pending pointer.
// Later writes win; the pointer stays until the next sticker overwrites
// it.
func (st *Store) SetPending(ctx context.Context, userID int64, postID int, fileKey string) error {
	_, err := st.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, pending_post_id, pending_file_key)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		   SET pending_post_id = EXCLUDED.pending_post_id,
		       pending_file_key = EXCLUDED.pending_file_key`,
		userID, postID, fileKey)
	if err != nil {
		return fmt.Errorf("session set pending: %w", err)
	}
	logger.DB.Debug("pending updated",
		slog.String("event", "session.pending"),
		slog.Int64("user_id", userID),
		slog.Int("post_id", postID),
	)
	return nil
}

// SetAgeVerified marks the user as age verified. The flag only ever
// transitions false to true. It reports whether this call was the one
// that set it, so the caller can suppress duplicate confirmations.
func (st *Store) SetAgeVerified(ctx context.Context, userID int64) (bool, error) {
	var already bool
	err := st.db.GetContext(ctx, &already,
		`SELECT age_verified FROM sessions WHERE user_id = $1`, userID)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("session age check: %w", err)
	}
	if already {
		return false, nil
	}
	_, err = st.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, age_verified)
		 VALUES ($1, TRUE)
		 ON CONFLICT (user_id) DO UPDATE SET age_verified = TRUE`,
		userID)
	if err != nil {
		return false, fmt.Errorf("session set age verified: %w", err)
	}
	logger.DB.Info("age verified",
		slog.String("event", "session.age_verified"),
		slog.Int64("user_id", userID),
	)
	return true, nil
}

// SetAPIKey stores the provisioned backend credential for userID.
func (st *Store) SetAPIKey(ctx context.Context, userID int64, apiKey string) error {
	_, err := st.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, e621_api_key)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET e621_api_key = EXCLUDED.e621_api_key`,
		userID, apiKey)
	if err != nil {
		return fmt.Errorf("session set api key: %w", err)
	}
	logger.DB.Info("api key stored",
		slog.String("event", "session.api_key"),
		slog.Int64("user_id", userID),
	)
	return nil
}
