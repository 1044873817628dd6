// Package services contains the server-side business logic: credential
// issuance and renewal, and the check-in path that validates scanned codes
// and hands accepted ones to attendance recording.
package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	"github.com/dmitrijs2005/attendpass/internal/logging"
	"github.com/dmitrijs2005/attendpass/internal/server/latest"
	"github.com/dmitrijs2005/attendpass/internal/server/models"
)

// CheckInOutcome is the validation result plus what happened to the handoff.
// Recorded is set when the check-in reached the recorder; Duplicate when the
// attendee had already checked in to the session.
type CheckInOutcome struct {
	credential.Result
	Recorded  bool
	Duplicate bool
}

// CheckInService validates scanned credentials and records accepted ones.
type CheckInService struct {
	validator     *credential.Validator
	recorder      Recorder
	latest        latest.Store
	enforceLatest bool
	clock         clock.Clock
	logger        logging.Logger
}

// NewCheckInService builds the check-in path. recorder and store may be nil;
// the superseded check runs only with enforceLatest set and a store present.
func NewCheckInService(v *credential.Validator, recorder Recorder, store latest.Store,
	enforceLatest bool, clk clock.Clock, logger logging.Logger) *CheckInService {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &CheckInService{
		validator:     v,
		recorder:      recorder,
		latest:        store,
		enforceLatest: enforceLatest,
		clock:         clk,
		logger:        logger,
	}
}

// CheckIn validates wire and, when accepted and attendeeID is set, records
// that attendee as present. Rejections come back as outcomes; the error is
// reserved for bad input and failures of the registry or the recorder.
func (s *CheckInService) CheckIn(ctx context.Context, wire, attendeeID string) (*CheckInOutcome, error) {
	if err := checkAttendeeID(attendeeID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	res := s.validator.ValidateAt(wire, now)

	if !res.Accepted {
		s.logRejection(ctx, res)
		return &CheckInOutcome{Result: res}, nil
	}
	p := *res.Payload

	if s.enforceLatest && s.latest != nil {
		nonce, err := s.latest.Get(ctx, p.SessionID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return nil, fmt.Errorf("%w: latest credential lookup: %w", common.ErrorUnavailable, err)
		case nonce != p.Nonce:
			s.logger.Info(ctx, "superseded credential rejected",
				"session_id", p.SessionID, "event_id", p.EventID)
			return &CheckInOutcome{Result: credential.Result{Reason: credential.ReasonSuperseded}}, nil
		}
	}

	out := &CheckInOutcome{Result: res}
	if s.recorder != nil && attendeeID != "" {
		created, err := s.recorder.Record(ctx, p, attendeeID, now)
		if err != nil {
			return nil, fmt.Errorf("%w: record check-in: %w", common.ErrorInternal, err)
		}
		out.Recorded = true
		out.Duplicate = !created
	}

	s.logger.Info(ctx, "credential accepted",
		"session_id", p.SessionID,
		"event_id", p.EventID,
		"hall_id", p.HallID,
		"attendee_id", attendeeID,
		"recorded", out.Recorded,
		"duplicate", out.Duplicate,
	)
	return out, nil
}

func checkAttendeeID(id string) error {
	switch {
	case len(id) > credential.MaxFieldLength:
		return fmt.Errorf("%w: attendee id longer than %d bytes", credential.ErrInvalidInput, credential.MaxFieldLength)
	case !utf8.ValidString(id):
		return fmt.Errorf("%w: attendee id is not valid UTF-8", credential.ErrInvalidInput)
	}
	return nil
}

func (s *CheckInService) logRejection(ctx context.Context, res credential.Result) {
	args := []any{"reason", string(res.Reason)}
	if res.Err != nil {
		args = append(args, "error", res.Err.Error())
	}
	// A tag that does not verify means the code was edited or forged.
	if res.Reason == credential.ReasonTagMismatch {
		s.logger.Warn(ctx, "credential tag mismatch", args...)
		return
	}
	s.logger.Info(ctx, "credential rejected", args...)
}

// Attendance returns the check-in counter of sessionID.
func (s *CheckInService) Attendance(ctx context.Context, sessionID string) (*models.SessionAttendance, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", credential.ErrInvalidInput)
	}
	if s.recorder == nil {
		return nil, common.ErrorNotFound
	}

	a, err := s.recorder.Attendance(ctx, sessionID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: read attendance: %w", common.ErrorInternal, err)
	}
	return a, nil
}
