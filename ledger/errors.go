/*
errors.go - Centralized error types for the card ledger

PURPOSE:
  All ledger error kinds in one place. Facade packages wrap these with
  actor-appropriate messages but must preserve the kind, so callers and
  tests can always distinguish failures with errors.Is.

ERROR CATEGORIES:
  1. Lookup errors    - unknown or duplicate cards
  2. State errors     - card not in a state that permits the operation
  3. Amount errors    - invalid or insufficient amounts

USAGE:
  if errors.Is(err, ledger.ErrInsufficientFunds) {
      // deny the payment, balance is untouched
  }

SEE ALSO:
  - ledger.go: Where these errors are returned
  - actors: DeniedError wraps these for terminal-facing messages
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCardNotFound is returned when a card id is not registered for
	// this event, for every operation type.
	ErrCardNotFound = errors.New("card not found")

	// ErrDuplicateCard is returned when issuing a card id that already exists.
	ErrDuplicateCard = errors.New("card already exists")

	// ErrCardNotActive is returned when a balance mutation targets a
	// blocked or expired card.
	ErrCardNotActive = errors.New("card not active")

	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	// The balance is left unchanged.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned for amounts that are negative, or zero
	// where a strictly positive amount is required.
	ErrInvalidAmount = errors.New("invalid amount")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientFundsError reports a balance shortage on a debit attempt.
type InsufficientFundsError struct {
	CardID    CardID
	Balance   Money
	Requested Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: card %s has %s, requested %s",
		e.CardID, e.Balance, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// Shortfall returns how much was missing.
func (e *InsufficientFundsError) Shortfall() Money {
	return e.Requested.Sub(e.Balance)
}

// NotActiveError reports which state prevented a mutation. It covers both
// BLOCKED and EXPIRED; check Status to tell them apart.
type NotActiveError struct {
	CardID CardID
	Status CardStatus
}

func (e *NotActiveError) Error() string {
	return fmt.Sprintf("card %s is %s", e.CardID, e.Status)
}

func (e *NotActiveError) Unwrap() error {
	return ErrCardNotActive
}

// InvalidAmountError reports the offending amount.
type InvalidAmountError struct {
	Amount Money
	Reason string // "negative" or "not positive"
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: %s", e.Amount, e.Reason)
}

func (e *InvalidAmountError) Unwrap() error {
	return ErrInvalidAmount
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates an unknown card.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCardNotFound)
}

// IsClientError reports whether the failure is due to invalid caller
// input rather than engine state corruption.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrDuplicateCard) ||
		errors.Is(err, ErrCardNotActive)
}
