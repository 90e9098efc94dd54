// Package settlement implements the protocol every money movement goes
// through. Callers hand over a precomputed list of signed balance deltas and
// get back either a committed result with resulting balances or an error with
// zero effect (grouped path) / the documented bounded fallback effect.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"

	"casino/internal/audit"
	"casino/internal/models"

	"github.com/google/uuid"
)

// Service picks a commit path at construction time via a capability probe and
// runs every request through it.
type Service struct {
	store    Store
	backend  Backend
	fallback bool
	sink     audit.Sink
}

// NewService probes the store and wires the grouped backend when the backend
// supports multi-record commits, the compare-and-swap fallback otherwise.
// forceFallback pins the fallback path regardless of the probe.
func NewService(store Store, sink audit.Sink, forceFallback bool) *Service {
	if store == nil {
		panic("store is required")
	}
	if sink == nil {
		sink = audit.NopSink{}
	}

	s := &Service{store: store, sink: sink}
	if store.SupportsGrouping() && !forceFallback {
		s.backend = &groupedBackend{store: store}
	} else {
		s.backend = &casBackend{store: store}
		s.fallback = true
		log.Println("settlement: running on compare-and-swap fallback path")
	}
	return s
}

// UsesFallback reports which commit path the probe selected.
func (s *Service) UsesFallback() bool { return s.fallback }

// Execute validates and commits one settlement request. A concurrent
// modification on the fallback path is retried once; after that it surfaces
// as a generic settlement failure. Every rejection leaves balances untouched,
// every acceptance returns the resulting balances.
func (s *Service) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}

	err := s.backend.Commit(ctx, req)
	if errors.Is(err, ErrConcurrentModification) {
		err = s.backend.Commit(ctx, req)
		if errors.Is(err, ErrConcurrentModification) {
			err = fmt.Errorf("%w: retry exhausted", ErrSettlementFailed)
		}
	}
	if err != nil {
		return nil, err
	}

	balances, berr := s.store.Balances(ctx, touchedRefs(req))
	if berr != nil {
		// The commit stands; only the balance read-back failed.
		balances = map[AccountRef]int64{}
	}

	s.emit(req)

	return &Result{Reference: req.Reference, Balances: balances}, nil
}

func (s *Service) emit(req Request) {
	details := models.JSON{"entries": len(req.Entries), "items": len(req.Items)}
	for _, e := range req.Entries {
		details[e.Type] = e.Amount
	}
	s.sink.Emit(audit.Event{
		TenantID:   req.TenantID,
		EntityType: "settlement",
		EntityID:   req.Reference,
		Action:     "commit",
		Details:    details,
	})
}

func validate(req Request) error {
	if req.TenantID == "" {
		return fmt.Errorf("%w: missing tenant", ErrInvalidAmount)
	}
	if len(req.Entries) == 0 && len(req.Items) == 0 {
		return fmt.Errorf("%w: empty request", ErrInvalidAmount)
	}
	for _, e := range req.Entries {
		if e.Amount == 0 {
			return fmt.Errorf("%w: zero entry", ErrInvalidAmount)
		}
		if e.Account.ID == 0 {
			return ErrAccountNotFound
		}
		if e.Type == "" {
			return fmt.Errorf("%w: entry without type", ErrInvalidAmount)
		}
	}
	for _, m := range req.Items {
		if m.Amount <= 0 {
			return fmt.Errorf("%w: item move amount", ErrInvalidAmount)
		}
	}
	return nil
}

func logRows(req Request) []models.Transaction {
	rows := make([]models.Transaction, 0, len(req.Entries))
	for _, e := range req.Entries {
		rows = append(rows, models.Transaction{
			TenantID:  req.TenantID,
			WalletID:  e.WalletID,
			Account:   string(e.Account.Kind),
			Type:      e.Type,
			Amount:    e.Amount,
			Reference: req.Reference,
			Metadata:  e.Metadata,
			Earned:    e.Earned,
		})
	}
	return rows
}

func touchedRefs(req Request) []AccountRef {
	seen := make(map[AccountRef]bool, len(req.Entries))
	refs := make([]AccountRef, 0, len(req.Entries))
	for _, e := range req.Entries {
		if !seen[e.Account] {
			seen[e.Account] = true
			refs = append(refs, e.Account)
		}
	}
	return refs
}
