package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/natserract/pipedrive/pkg/pipedrive"
	"go.uber.org/zap"
)

// ErrTokenNotFound is returned by Load when nothing was saved for a client
var ErrTokenNotFound = errors.New("tokenstore: no token saved for client")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pipedrive_tokens (
	client_id     TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	token_type    TEXT,
	scope         TEXT,
	api_domain    TEXT,
	expires_at    TIMESTAMPTZ,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// An empty refresh token in a grant keeps the stored one
const upsertTokenSQL = `
INSERT INTO pipedrive_tokens (client_id, access_token, refresh_token, token_type, scope, api_domain, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (client_id) DO UPDATE SET
	access_token  = EXCLUDED.access_token,
	refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), pipedrive_tokens.refresh_token),
	token_type    = EXCLUDED.token_type,
	scope         = EXCLUDED.scope,
	api_domain    = EXCLUDED.api_domain,
	expires_at    = EXCLUDED.expires_at,
	updated_at    = EXCLUDED.updated_at`

const selectTokenSQL = `
SELECT access_token, refresh_token, token_type, scope, api_domain, expires_at, updated_at
FROM pipedrive_tokens
WHERE client_id = $1`

// querier is the subset of pgxpool.Pool the store uses
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Token is a persisted OAuth token pair
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	APIDomain    string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token is past its expiry. Tokens
// without a known expiry never report as expired.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Store persists refreshed Pipedrive tokens keyed by OAuth client ID
type Store struct {
	db     querier
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a token store on top of the database pool
func NewStore(db *DB, logger *zap.Logger) *Store {
	return newStore(db.Pool(), logger)
}

func newStore(q querier, logger *zap.Logger) *Store {
	return &Store{
		db:     q,
		logger: logger,
		now:    time.Now,
	}
}

// Save upserts the token payload of a refresh grant for clientID
func (s *Store) Save(ctx context.Context, clientID string, tokens pipedrive.TokenResponse) error {
	if tokens.AccessToken == "" {
		return errors.New("tokenstore: access token is empty")
	}

	now := s.now().UTC()
	expiresAt := pgtype.Timestamptz{}
	if tokens.ExpiresIn > 0 {
		expiresAt = pgtype.Timestamptz{Time: now.Add(time.Duration(tokens.ExpiresIn) * time.Second), Valid: true}
	}

	_, err := s.db.Exec(ctx, upsertTokenSQL,
		clientID,
		tokens.AccessToken,
		tokens.RefreshToken,
		pgtype.Text{String: tokens.TokenType, Valid: tokens.TokenType != ""},
		pgtype.Text{String: tokens.Scope, Valid: tokens.Scope != ""},
		pgtype.Text{String: tokens.APIDomain, Valid: tokens.APIDomain != ""},
		expiresAt,
		now,
	)
	if err != nil {
		s.logger.Error("Failed to save tokens", zap.String("client_id", clientID), zap.Error(err))
		return fmt.Errorf("failed to save tokens for %s: %w", clientID, err)
	}

	s.logger.Info("Saved Pipedrive tokens",
		zap.String("client_id", clientID),
		zap.Int("expires_in", tokens.ExpiresIn))
	return nil
}

// Load returns the last saved token pair for clientID
func (s *Store) Load(ctx context.Context, clientID string) (*Token, error) {
	var (
		token     Token
		tokenType pgtype.Text
		scope     pgtype.Text
		apiDomain pgtype.Text
		expiresAt pgtype.Timestamptz
	)

	err := s.db.QueryRow(ctx, selectTokenSQL, clientID).Scan(
		&token.AccessToken,
		&token.RefreshToken,
		&tokenType,
		&scope,
		&apiDomain,
		&expiresAt,
		&token.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens for %s: %w", clientID, err)
	}

	token.TokenType = tokenType.String
	token.Scope = scope.String
	token.APIDomain = apiDomain.String
	if expiresAt.Valid {
		token.ExpiresAt = expiresAt.Time
	}
	return &token, nil
}

// Callback returns an AuthenticationCallback that saves every refreshed
// token pair for clientID.
func (s *Store) Callback(clientID string) pipedrive.AuthenticationCallback {
	return func(ctx context.Context, tokens pipedrive.TokenResponse) error {
		return s.Save(ctx, clientID, tokens)
	}
}
