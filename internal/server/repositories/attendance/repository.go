package attendance

import (
	"context"
	"time"

	"github.com/dmitrijs2005/attendpass/internal/server/models"
)

// Repository stores accepted scans and per-session counters.
type Repository interface {
	// Create stores c and reports whether a row was inserted. An attendee
	// already checked in to the session inserts nothing.
	Create(ctx context.Context, c *models.CheckIn) (bool, error)
	IncrementAttendance(ctx context.Context, sessionID, eventID string, at time.Time) error
	GetAttendance(ctx context.Context, sessionID string) (*models.SessionAttendance, error)
}
