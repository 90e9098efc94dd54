package settlement

import (
	"context"
	"fmt"
	"log"
)

// groupedBackend commits everything inside one storage group: all debits,
// credits, log rows and item moves apply together or not at all.
type groupedBackend struct {
	store Store
}

func (b *groupedBackend) Commit(ctx context.Context, req Request) error {
	return b.store.InGroup(ctx, func(tx Store) error {
		for _, e := range req.Entries {
			if e.Amount < 0 {
				if err := tx.DebitIfSufficient(ctx, e.Account, -e.Amount); err != nil {
					return err
				}
			}
		}
		for _, e := range req.Entries {
			if e.Amount > 0 {
				if err := tx.Credit(ctx, e.Account, e.Amount); err != nil {
					return err
				}
			}
		}
		if err := tx.AppendTransactions(ctx, logRows(req)); err != nil {
			return err
		}
		if len(req.Items) > 0 {
			if err := tx.MoveItems(ctx, req.TenantID, req.Items); err != nil {
				return err
			}
		}
		return nil
	})
}

// casBackend is the compare-and-swap fallback used when the store cannot
// group writes. Order matters: conditional debits first (a failure aborts
// with nothing written), then log rows, then credits and item moves. A crash
// after the debits but before the credits leaves a debit without its matching
// credit; that window is accepted and bounded, and can never produce a
// negative or double-spent balance.
type casBackend struct {
	store Store
}

func (b *casBackend) Commit(ctx context.Context, req Request) error {
	var debited []Entry
	for _, e := range req.Entries {
		if e.Amount >= 0 {
			continue
		}
		if err := b.store.DebitIfSufficient(ctx, e.Account, -e.Amount); err != nil {
			b.compensate(ctx, debited)
			return err
		}
		debited = append(debited, e)
	}

	if err := b.store.AppendTransactions(ctx, logRows(req)); err != nil {
		b.compensate(ctx, debited)
		return fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	for _, e := range req.Entries {
		if e.Amount > 0 {
			if err := b.store.Credit(ctx, e.Account, e.Amount); err != nil {
				// Log rows are already durable; surfacing the failure is all
				// that is left. The caller sees a settlement failure and the
				// account stays at the last committed step.
				return fmt.Errorf("%w: credit after debit: %v", ErrSettlementFailed, err)
			}
		}
	}

	if len(req.Items) > 0 {
		if err := b.store.MoveItems(ctx, req.TenantID, req.Items); err != nil {
			return fmt.Errorf("%w: item move: %v", ErrSettlementFailed, err)
		}
	}
	return nil
}

// compensate re-credits debits that already landed when a later conditional
// debit of the same request failed. Best effort: a failure here is the same
// crash window the fallback path already documents.
func (b *casBackend) compensate(ctx context.Context, debited []Entry) {
	for _, e := range debited {
		if err := b.store.Credit(ctx, e.Account, -e.Amount); err != nil {
			log.Printf("settlement: compensation credit failed for account %v: %v", e.Account, err)
		}
	}
}
