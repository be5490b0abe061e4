/*
bank.go - Bank terminal facade (read-only)

PURPOSE:
  The bank terminal lets a cardholder check their balance and view their
  transaction history. It can do nothing else: no issue, no recharge, no
  debit. Errors from the ledger propagate untouched - in-process there is
  no partial success to guard against, so "fail gracefully" degenerates to
  normal error propagation.

SEE ALSO:
  - ledger: Balance/History semantics
  - payment.go: The facade that actually moves money
*/
package actors

import (
	"context"
	"time"

	"github.com/festpay/card-engine/ledger"
)

// =============================================================================
// BANK TERMINAL
// =============================================================================

// BankTerminal is a read-only view over the ledger.
type BankTerminal struct {
	ID     string
	ledger *ledger.CardLedger
}

func NewBankTerminal(id string, l *ledger.CardLedger) *BankTerminal {
	return &BankTerminal{ID: id, ledger: l}
}

// BalanceInfo is what the bank terminal displays for a balance query.
type BalanceInfo struct {
	CardID    ledger.CardID
	UserID    ledger.UserID
	Balance   ledger.Money
	QueriedAt time.Time
}

// CheckBalance returns the current balance of a card.
func (b *BankTerminal) CheckBalance(ctx context.Context, cardID ledger.CardID) (BalanceInfo, error) {
	card, err := b.ledger.Card(ctx, cardID)
	if err != nil {
		return BalanceInfo{}, err
	}
	return BalanceInfo{
		CardID:    card.ID,
		UserID:    card.UserID,
		Balance:   card.Balance,
		QueriedAt: time.Now(),
	}, nil
}

// CheckHistory returns the card's records in chronological order.
func (b *BankTerminal) CheckHistory(ctx context.Context, cardID ledger.CardID) ([]ledger.Record, error) {
	return b.ledger.History(ctx, cardID)
}
