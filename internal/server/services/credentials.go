package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	"github.com/dmitrijs2005/attendpass/internal/logging"
	"github.com/dmitrijs2005/attendpass/internal/server/exports"
	"github.com/dmitrijs2005/attendpass/internal/server/latest"
)

// ErrExportDisabled is returned when a batch asks for a manifest but no
// exporter is configured.
var ErrExportDisabled = errors.New("manifest export is not enabled")

// Issued is a credential together with its wire form.
type Issued struct {
	Credential *credential.Credential
	Wire       string
}

// BatchItem is one entry of a batch response, in request order.
type BatchItem struct {
	SessionID string
	Issued    *Issued
	Err       error
}

// BatchOutcome carries per-item results and, when requested, the manifest location.
type BatchOutcome struct {
	Items     []BatchItem
	ExportKey string
	ExportURL string
}

// CredentialService issues and renews credentials and keeps the latest
// registry up to date.
type CredentialService struct {
	issuer   *credential.Issuer
	bulk     *credential.BulkIssuer
	renewer  *credential.Renewer
	codec    credential.Codec
	latest   latest.Store
	exporter exports.Exporter
	logger   logging.Logger
}

// NewCredentialService wires the core components. store and exporter are optional.
func NewCredentialService(issuer *credential.Issuer, bulk *credential.BulkIssuer, renewer *credential.Renewer,
	store latest.Store, exporter exports.Exporter, logger logging.Logger) *CredentialService {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &CredentialService{
		issuer:   issuer,
		bulk:     bulk,
		renewer:  renewer,
		latest:   store,
		exporter: exporter,
		logger:   logger,
	}
}

// registryTTL covers the longest validity any credential can have, so an
// entry never disappears while an older credential of the session is still fresh.
func (s *CredentialService) registryTTL() time.Duration {
	return time.Duration(s.issuer.Policy().MaxExpiryMinutes) * time.Minute
}

func (s *CredentialService) remember(ctx context.Context, c *credential.Credential) error {
	if s.latest == nil {
		return nil
	}
	if err := s.latest.Put(ctx, c.SessionID, c.Nonce, s.registryTTL()); err != nil {
		return fmt.Errorf("%w: record latest credential: %w", common.ErrorUnavailable, err)
	}
	return nil
}

func (s *CredentialService) finish(ctx context.Context, c *credential.Credential) (*Issued, error) {
	wire, err := s.codec.Encode(c)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", credential.ErrIssuanceFailed, err)
	}
	if err := s.remember(ctx, c); err != nil {
		return nil, err
	}
	return &Issued{Credential: c, Wire: wire}, nil
}

// Issue mints one credential.
func (s *CredentialService) Issue(ctx context.Context, req credential.Request) (*Issued, error) {
	c, err := s.issuer.Issue(req)
	if err != nil {
		return nil, err
	}
	out, err := s.finish(ctx, c)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "credential issued",
		"session_id", c.SessionID, "event_id", c.EventID, "expires_at", c.ExpiresAt)
	return out, nil
}

// IssueBatch mints credentials for reqs. Item failures stay in their slot.
// With export set, successful items are written to a print manifest.
func (s *CredentialService) IssueBatch(ctx context.Context, reqs []credential.Request,
	policy credential.BatchPolicy, export bool) (*BatchOutcome, error) {
	if export && s.exporter == nil {
		return nil, ErrExportDisabled
	}

	results, err := s.bulk.Issue(ctx, reqs, policy)
	if err != nil {
		return nil, err
	}

	out := &BatchOutcome{Items: make([]BatchItem, len(results))}
	var rows []exports.Row
	failed := 0

	for i, r := range results {
		item := BatchItem{SessionID: r.SessionID, Err: r.Err}
		if r.Err == nil {
			item.Issued, item.Err = s.finish(ctx, r.Credential)
		}
		if item.Err != nil {
			failed++
		} else {
			rows = append(rows, exports.Row{
				SessionID: r.SessionID,
				Wire:      item.Issued.Wire,
				ExpiresAt: item.Issued.Credential.ExpiresAt,
			})
		}
		out.Items[i] = item
	}

	s.logger.Info(ctx, "batch issued", "requested", len(reqs), "failed", failed)

	if export {
		key, url, err := s.exporter.Export(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorUnavailable, err)
		}
		out.ExportKey, out.ExportURL = key, url
		s.logger.Info(ctx, "print manifest exported", "key", key, "rows", len(rows))
	}
	return out, nil
}

// Renew replaces a presented credential with a fresh one for the same
// session. The old tag must still verify; its freshness does not matter.
func (s *CredentialService) Renew(ctx context.Context, wire string, expiryMinutes *int) (*Issued, error) {
	c, err := s.renewer.RenewWire(wire, expiryMinutes)
	if err != nil {
		return nil, err
	}
	out, err := s.finish(ctx, c)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "credential renewed",
		"session_id", c.SessionID, "event_id", c.EventID, "expires_at", c.ExpiresAt)
	return out, nil
}
