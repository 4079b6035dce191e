package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/rephone-market/internal/orders"
)

type Lookup interface {
	Lookup(ctx context.Context, imei string) (json.RawMessage, error)
}

type Listings interface {
	ByIMEI(ctx context.Context, imei string) (Listing, error)
	Pending(ctx context.Context) ([]Listing, error)
	SetStatus(ctx context.Context, imei string, st orders.ModerationStatus, adminID string) error
}

type Report struct {
	Listing
	VerificationStatus json.RawMessage `json:"verificationStatus"`
}

type Service struct {
	log      *slog.Logger
	listings Listings
	lookup   Lookup
}

func NewService(log *slog.Logger, listings Listings, lookup Lookup) *Service {
	return &Service{log: log, listings: listings, lookup: lookup}
}

// Status reports the listing behind imei together with the imei.info result.
// Unknown IMEIs are rejected before the provider is called.
func (s *Service) Status(ctx context.Context, imei string) (Report, error) {
	l, err := s.listings.ByIMEI(ctx, imei)
	if err != nil {
		return Report{}, err
	}
	res, err := s.lookup.Lookup(ctx, imei)
	if err != nil {
		s.log.Error("imei lookup failed", "imei", imei, "err", err)
		return Report{}, err
	}
	return Report{Listing: l, VerificationStatus: res}, nil
}

func (s *Service) Verify(ctx context.Context, imei string, st orders.ModerationStatus, adminID string) error {
	if st != orders.ModerationVerified && st != orders.ModerationRejected {
		return fmt.Errorf("%w: status must be verified or rejected", orders.ErrValidation)
	}
	if err := s.listings.SetStatus(ctx, imei, st, adminID); err != nil {
		return err
	}
	s.log.Info("listing moderated", "imei", imei, "status", st, "admin_id", adminID)
	return nil
}

func (s *Service) Requests(ctx context.Context) ([]Listing, error) {
	return s.listings.Pending(ctx)
}
