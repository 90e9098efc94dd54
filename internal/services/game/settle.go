// Package game resolves games of chance into settlements. Mechanics are pure
// functions over an injected random source; only the computed (won, payout)
// pair ever reaches the money path, through exactly one settlement call.
package game

import (
	"context"

	"casino/internal/models"
	"casino/internal/services/settlement"
)

// Settler commits one settlement request.
type Settler interface {
	Execute(ctx context.Context, req settlement.Request) (*settlement.Result, error)
}

// Settle commits a finished game round: a bet debit of betAmount and, when
// won, a paired payout credit of proposedPayout, in one settlement request.
// The commit paths debit before crediting, so a payout can never post without
// its bet. Returns the applied payout and the resulting wallet balance.
func Settle(ctx context.Context, settler Settler, tenantID string, walletID uint, gameName string, betAmount int64, won bool, proposedPayout int64) (int64, int64, error) {
	if betAmount <= 0 {
		return 0, 0, ErrInvalidBet
	}

	meta := models.JSON{"game": gameName}
	entries := []settlement.Entry{{
		Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: walletID},
		WalletID: walletID,
		Type:     models.TransactionTypeBet,
		Amount:   -betAmount,
		Metadata: meta,
	}}

	applied := int64(0)
	if won && proposedPayout > 0 {
		applied = proposedPayout
		entries = append(entries, settlement.Entry{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: walletID},
			WalletID: walletID,
			Type:     models.TransactionTypePayout,
			Amount:   proposedPayout,
			Metadata: meta,
			Earned:   true,
		})
	}

	res, err := settler.Execute(ctx, settlement.Request{
		TenantID: tenantID,
		Entries:  entries,
	})
	if err != nil {
		return 0, 0, err
	}
	balance := res.Balances[settlement.AccountRef{Kind: settlement.KindWallet, ID: walletID}]
	return applied, balance, nil
}
