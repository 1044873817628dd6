// Package attendance provides a PostgreSQL-backed repository for accepted
// credential scans.
package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/dbx"
	"github.com/dmitrijs2005/attendpass/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.CheckIn) (bool, error) {
	query := `
		INSERT INTO checkins (id, session_id, event_id, hall_id, attendee_id, nonce, issued_at, expires_at, scanned_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
		ON CONFLICT (session_id, attendee_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.SessionID, c.EventID, c.HallID, c.AttendeeID, c.Nonce, c.IssuedAt, c.ExpiresAt, c.ScannedAt)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) IncrementAttendance(ctx context.Context, sessionID, eventID string, at time.Time) error {
	query := `
		INSERT INTO session_attendance (session_id, event_id, checkins, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (session_id) DO UPDATE
		SET checkins = session_attendance.checkins + 1, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, eventID, at); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// GetAttendance returns the counter row of a session, or common.ErrorNotFound
// when nobody has checked in yet.
func (r *PostgresRepository) GetAttendance(ctx context.Context, sessionID string) (*models.SessionAttendance, error) {
	query := `
		SELECT session_id, event_id, checkins, updated_at
		FROM session_attendance
		WHERE session_id = $1
	`
	a := &models.SessionAttendance{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&a.SessionID, &a.EventID, &a.CheckIns, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
