/*
Package ledger is the card-ledger engine for the event payment system.

PURPOSE:
  Maintains each prepaid card's authoritative balance and its append-only
  transaction history, and enforces the invariants that make issuance,
  recharge and payment safe even though no PIN protects card use:

    1. CONSERVATION: value enters only via ISSUE and RECHARGE, leaves only
       via PAYMENT. Nothing ever moves value between two cards directly.
    2. NON-NEGATIVITY: a card balance is never below zero.
    3. AUDITABILITY: history is append-only, insertion order is
       chronological order, and it is never truncated or reordered.

KEY CONCEPTS IN THIS FILE (types.go):
  - Card: the stateful value-holding record tied to one user
  - Record: an immutable journal entry for one balance-affecting event
  - CardStatus: ACTIVE / BLOCKED / EXPIRED lifecycle
  - User: minimal owner record referenced (not owned) by cards

DESIGN PRINCIPLES:
  1. Single writer: only CardLedger mutates balances; everything else gets
     snapshots or read-only views.
  2. Immutability: Records are never modified after append.
  3. Type safety: distinct string types for card/user/record ids.

SEE ALSO:
  - money.go: Exact minor-unit currency arithmetic
  - ledger.go: The operations that mutate and read this state
  - store.go: Journal persistence interface for Records
*/
package ledger

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CardID string
type UserID string
type RecordID string

// =============================================================================
// CARD STATUS - Lifecycle states
// =============================================================================

type CardStatus string

const (
	// StatusActive cards accept recharges and payments.
	StatusActive CardStatus = "ACTIVE"

	// StatusBlocked cards reject all balance mutation. Blocking is the
	// security control in lieu of a PIN: a reported-lost card is blocked
	// so whoever holds it cannot spend the funds. Reversible.
	StatusBlocked CardStatus = "BLOCKED"

	// StatusExpired is terminal. Set when the event ends; any remaining
	// balance is forfeited, not refunded.
	StatusExpired CardStatus = "EXPIRED"
)

// =============================================================================
// RECORD - Immutable journal entry
// =============================================================================

type RecordKind string

const (
	KindIssue    RecordKind = "ISSUE"    // Card created with an initial balance
	KindRecharge RecordKind = "RECHARGE" // Organizer added funds
	KindPayment  RecordKind = "PAYMENT"  // Funds spent at a shop terminal
)

// Record captures one balance-affecting event. Amount is always a positive
// magnitude; the Kind says which direction value moved. Balance is the
// card balance immediately after the event.
type Record struct {
	ID           RecordID
	CardID       CardID
	Kind         RecordKind
	Amount       Money
	Balance      Money
	Counterparty string // issuing organizer id, or store/terminal id for payments
	Note         string
	At           time.Time
}

// =============================================================================
// CARD - Stateful value-holding entity
// =============================================================================

// Card is a snapshot of one card's state. The ledger hands out copies;
// mutating a Card a caller holds has no effect on ledger state.
type Card struct {
	ID       CardID
	UserID   UserID
	Balance  Money
	Status   CardStatus
	IssuedAt time.Time
}

// Active reports whether the card currently accepts balance mutation.
func (c Card) Active() bool { return c.Status == StatusActive }

// =============================================================================
// USER - Minimal owner record
// =============================================================================

// User is external to the ledger core; cards reference a UserID without
// owning the user. A user may hold several cards, each independent.
type User struct {
	ID   UserID
	Name string
}

// =============================================================================
// TOTALS - Conservation accounting
// =============================================================================

// Totals aggregates journal activity per record kind. Used by the
// conservation audit: issued + recharged - debited must equal the sum of
// all card balances at every point in time.
type Totals struct {
	Issued    Money
	Recharged Money
	Debited   Money
	Records   int
}

// Net returns total value created minus total value destroyed.
func (t Totals) Net() Money {
	return t.Issued.Add(t.Recharged).Sub(t.Debited)
}
