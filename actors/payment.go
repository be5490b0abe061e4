/*
payment.go - Payment terminal facade

PURPOSE:
  The payment terminal at a shop or stand debits cards in exchange for
  goods. No PIN is required; if the card is stolen and not yet blocked,
  the funds are simply spendable. A payment either fully applies or is
  denied outright - never retried, never partially applied.

CONNECTIVITY:
  Real terminals lose their link to the ledger. In this single-process
  design that is a policy simulation, not I/O: a pre-flight check the
  terminal performs before touching ledger state. SetConnected makes the
  check fail deterministically in tests.

DENIALS:
  Every failure surfaces as a DeniedError whose message is what the
  terminal would display ("payment denied: ..."), while Unwrap preserves
  the underlying kind so callers can still errors.Is the cause.

SEE ALSO:
  - ledger: Debit preconditions and their ordering
  - bank.go: Read-only counterpart
*/
package actors

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/festpay/card-engine/ledger"
)

// =============================================================================
// TERMINAL ERRORS
// =============================================================================

// ErrConnectivity is returned when the terminal's (simulated) link to the
// ledger is down. Checked before any mutation is attempted.
var ErrConnectivity = errors.New("connection failure")

// DeniedError is the terminal-facing denial. It wraps the underlying
// error kind so it stays distinguishable for testing.
type DeniedError struct {
	CardID ledger.CardID
	Err    error
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("payment denied: %v", e.Err)
}

func (e *DeniedError) Unwrap() error {
	return e.Err
}

// =============================================================================
// PAYMENT TERMINAL
// =============================================================================

// PaymentTerminal debits cards on behalf of one shop. Its ID is the
// counterparty recorded on every PAYMENT record it produces.
type PaymentTerminal struct {
	ID       string
	ShopName string

	ledger    *ledger.CardLedger
	connected atomic.Bool
}

func NewPaymentTerminal(id, shopName string, l *ledger.CardLedger) *PaymentTerminal {
	t := &PaymentTerminal{ID: id, ShopName: shopName, ledger: l}
	t.connected.Store(true)
	return t
}

// SetConnected flips the simulated connectivity state. Used by tests and
// demo scenarios to force deterministic denials.
func (t *PaymentTerminal) SetConnected(connected bool) {
	t.connected.Store(connected)
}

// Receipt is the result of a successful payment.
type Receipt struct {
	CardID     ledger.CardID
	Amount     ledger.Money
	NewBalance ledger.Money
	TerminalID string
	ShopName   string
	Status     string
	At         time.Time
}

// ProcessPayment debits the card for the given amount with this
// terminal's id as counterparty. The connectivity pre-check runs before
// any ledger state is touched; every precondition failure becomes a
// DeniedError and leaves the balance unchanged.
func (t *PaymentTerminal) ProcessPayment(ctx context.Context, cardID ledger.CardID, amount ledger.Money) (Receipt, error) {
	if !t.connected.Load() {
		return Receipt{}, &DeniedError{CardID: cardID, Err: ErrConnectivity}
	}

	newBalance, err := t.ledger.Debit(ctx, cardID, amount, t.ID)
	if err != nil {
		return Receipt{}, &DeniedError{CardID: cardID, Err: err}
	}

	return Receipt{
		CardID:     cardID,
		Amount:     amount,
		NewBalance: newBalance,
		TerminalID: t.ID,
		ShopName:   t.ShopName,
		Status:     "SUCCESS",
		At:         time.Now(),
	}, nil
}

// VerifyCard checks a card without processing a payment: it must exist
// and be active. Read-only.
func (t *PaymentTerminal) VerifyCard(ctx context.Context, cardID ledger.CardID) (ledger.Card, error) {
	if !t.connected.Load() {
		return ledger.Card{}, &DeniedError{CardID: cardID, Err: ErrConnectivity}
	}

	card, err := t.ledger.Card(ctx, cardID)
	if err != nil {
		return ledger.Card{}, &DeniedError{CardID: cardID, Err: err}
	}
	if !card.Active() {
		return ledger.Card{}, &DeniedError{CardID: cardID, Err: &ledger.NotActiveError{CardID: cardID, Status: card.Status}}
	}
	return card, nil
}
