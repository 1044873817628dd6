package models

import "time"

// CheckIn records one attendee presenting an accepted credential.
// Nonce identifies which credential they presented.
type CheckIn struct {
	ID         string    `db:"id"`
	SessionID  string    `db:"session_id"`
	EventID    string    `db:"event_id"`
	HallID     string    `db:"hall_id"`
	AttendeeID string    `db:"attendee_id"`
	Nonce      string    `db:"nonce"`
	IssuedAt   time.Time `db:"issued_at"`
	ExpiresAt  time.Time `db:"expires_at"`
	ScannedAt  time.Time `db:"scanned_at"`
}

// SessionAttendance counts the distinct attendees of a session.
type SessionAttendance struct {
	SessionID string    `db:"session_id"`
	EventID   string    `db:"event_id"`
	CheckIns  int64     `db:"checkins"`
	UpdatedAt time.Time `db:"updated_at"`
}
