package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	"github.com/dmitrijs2005/attendpass/internal/dbx"
	"github.com/dmitrijs2005/attendpass/internal/server/models"
	"github.com/dmitrijs2005/attendpass/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Recorder receives the handoff of every accepted credential.
type Recorder interface {
	// Record stores the check-in of attendeeID and reports false when that
	// attendee was already checked in to the session.
	Record(ctx context.Context, p credential.Payload, attendeeID string, scannedAt time.Time) (bool, error)
	// Attendance returns the counter of a session, or common.ErrorNotFound
	// before its first check-in.
	Attendance(ctx context.Context, sessionID string) (*models.SessionAttendance, error)
}

// PostgresRecorder writes check-ins and bumps the session counter in one
// transaction.
type PostgresRecorder struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostgresRecorder(db *sql.DB, m repomanager.RepositoryManager) *PostgresRecorder {
	return &PostgresRecorder{db: db, repomanager: m}
}

func (r *PostgresRecorder) Record(ctx context.Context, p credential.Payload, attendeeID string, scannedAt time.Time) (bool, error) {
	c := &models.CheckIn{
		ID:         uuid.NewString(),
		SessionID:  p.SessionID,
		EventID:    p.EventID,
		HallID:     p.HallID,
		AttendeeID: attendeeID,
		Nonce:      p.Nonce,
		IssuedAt:   p.IssuedTime(),
		ExpiresAt:  p.ExpiresTime(),
		ScannedAt:  scannedAt,
	}

	var created bool
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := r.repomanager.Attendance(tx)

		var err error
		created, err = repo.Create(ctx, c)
		if err != nil {
			return fmt.Errorf("error creating check-in: %w", err)
		}
		if !created {
			return nil
		}
		if err := repo.IncrementAttendance(ctx, c.SessionID, c.EventID, scannedAt); err != nil {
			return fmt.Errorf("error updating attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *PostgresRecorder) Attendance(ctx context.Context, sessionID string) (*models.SessionAttendance, error) {
	return r.repomanager.Attendance(r.db).GetAttendance(ctx, sessionID)
}

// MemoryRecorder keeps check-ins in process memory.
type MemoryRecorder struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	sessions map[string]*models.SessionAttendance
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		seen:     make(map[string]struct{}),
		sessions: make(map[string]*models.SessionAttendance),
	}
}

func (m *MemoryRecorder) Record(_ context.Context, p credential.Payload, attendeeID string, scannedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := p.SessionID + "\x00" + attendeeID
	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = struct{}{}

	a, ok := m.sessions[p.SessionID]
	if !ok {
		a = &models.SessionAttendance{SessionID: p.SessionID, EventID: p.EventID}
		m.sessions[p.SessionID] = a
	}
	a.CheckIns++
	a.UpdatedAt = scannedAt
	return true, nil
}

func (m *MemoryRecorder) Attendance(_ context.Context, sessionID string) (*models.SessionAttendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.sessions[sessionID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *a
	return &out, nil
}
