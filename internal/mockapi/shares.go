package mockapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// CreateShare issues a share link for a trip. Every call issues a new token.
func (s *Store) CreateShare(ctx context.Context, tripID string) (*types.ShareLink, error) {
	var link *types.ShareLink
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := loadTrip(ctx, tx, tripID); err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		expires := now.Add(s.shareTTL)
		if _, err := tx.ExecContext(ctx, `INSERT INTO shares (token, trip_id, expires_at, created_at)
            VALUES (?, ?, ?, ?)`, token, tripID, formatTime(expires), formatTime(now)); err != nil {
			return fmt.Errorf("inserting share: %w", err)
		}
		link = &types.ShareLink{
			URL:       s.publicURL + "/shared/" + token,
			Token:     token,
			ExpiresAt: expires,
		}
		return nil
	})
	return link, err
}

// SharedTrip resolves a share token. Unknown and expired tokens are
// ErrNotFound.
func (s *Store) SharedTrip(ctx context.Context, token string) (*types.Trip, error) {
	var t *types.Trip
	err := s.read(func() error {
		var tripID, expiresAt string
		err := s.db.QueryRowContext(ctx, "SELECT trip_id, expires_at FROM shares WHERE token = ?", token).
			Scan(&tripID, &expiresAt)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("getting share: %w", err)
		}
		expires, err := parseTime(expiresAt)
		if err != nil {
			return err
		}
		if !s.clock.Now().Before(expires) {
			return types.ErrNotFound
		}
		t, err = loadTrip(ctx, s.db, tripID)
		return err
	})
	return t, err
}
