/*
ledger.go - The card ledger: sole authority over balances and history

PURPOSE:
  CardLedger owns the card_id -> Card mapping exclusively. It exposes the
  only operations that may mutate a balance (Issue, Recharge, Debit) and
  the only operations that may read one (Balance, Card, History). Role
  facades hold a reference to one shared CardLedger and restrict
  themselves to a subset of these operations.

VALIDATION ORDER:
  Every operation validates in a fixed order before touching any state:
    existence -> status -> amount -> funds
  An operation either fully applies or fully fails. The journal record is
  appended before the in-memory balance is committed, so a journal failure
  leaves the balance untouched.

CONCURRENCY:
  Operations on one card are mutually exclusive: each card carries its own
  mutex held across the whole read-validate-append-commit sequence.
  Operations on different cards do not contend beyond a brief read lock on
  the card map. No operation spans more than one card, so there is never
  multi-card lock ordering to worry about.

NO PIN:
  Nothing here authenticates the cardholder. The protections are the
  invariants themselves plus the Block operation for reported-lost cards.

SEE ALSO:
  - types.go: Card, Record, CardStatus
  - store.go: Journal interface
  - errors.go: Error kinds returned here
*/
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CARD LEDGER
// =============================================================================

// CardLedger is the single writer for all card state. Construct one with
// NewCardLedger and share it by reference; there is no process-wide
// singleton.
type CardLedger struct {
	mu      sync.RWMutex
	cards   map[CardID]*cardState
	journal Journal
	now     func() time.Time
}

// cardState pairs a card with its own mutex so per-card operations are
// mutually exclusive while distinct cards proceed independently.
type cardState struct {
	mu   sync.Mutex
	card Card
}

func NewCardLedger(journal Journal) *CardLedger {
	return &CardLedger{
		cards:   make(map[CardID]*cardState),
		journal: journal,
		now:     time.Now,
	}
}

// =============================================================================
// MUTATING OPERATIONS - Issue, Recharge, Debit
// =============================================================================

// Issue creates a new ACTIVE card with the given initial balance and
// appends an ISSUE record. Fails with ErrDuplicateCard if the id exists
// and ErrInvalidAmount if the initial balance is negative. A zero initial
// balance is valid - cards are commonly issued empty and recharged at the
// gate.
func (l *CardLedger) Issue(ctx context.Context, cardID CardID, userID UserID, initial Money, organizerID string) (Card, error) {
	if initial.IsNegative() {
		return Card{}, &InvalidAmountError{Amount: initial, Reason: "negative"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.cards[cardID]; exists {
		return Card{}, ErrDuplicateCard
	}

	card := Card{
		ID:       cardID,
		UserID:   userID,
		Balance:  initial,
		Status:   StatusActive,
		IssuedAt: l.now(),
	}

	rec := Record{
		ID:           RecordID(uuid.NewString()),
		CardID:       cardID,
		Kind:         KindIssue,
		Amount:       initial,
		Balance:      initial,
		Counterparty: organizerID,
		Note:         "card issued",
		At:           card.IssuedAt,
	}
	if err := l.journal.Append(ctx, rec); err != nil {
		return Card{}, err
	}

	l.cards[cardID] = &cardState{card: card}
	return card, nil
}

// Recharge adds funds to an active card and appends a RECHARGE record.
// The amount must be strictly positive. Returns the new balance.
func (l *CardLedger) Recharge(ctx context.Context, cardID CardID, amount Money, organizerID string) (Money, error) {
	state, err := l.lookup(cardID)
	if err != nil {
		return Money{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if !state.card.Active() {
		return Money{}, &NotActiveError{CardID: cardID, Status: state.card.Status}
	}
	if !amount.IsPositive() {
		return Money{}, &InvalidAmountError{Amount: amount, Reason: "not positive"}
	}

	newBalance := state.card.Balance.Add(amount)
	rec := Record{
		ID:           RecordID(uuid.NewString()),
		CardID:       cardID,
		Kind:         KindRecharge,
		Amount:       amount,
		Balance:      newBalance,
		Counterparty: organizerID,
		Note:         "recharged by organizer",
		At:           l.now(),
	}
	if err := l.journal.Append(ctx, rec); err != nil {
		return Money{}, err
	}

	state.card.Balance = newBalance
	return newBalance, nil
}

// Debit removes funds from an active card and appends a PAYMENT record.
// This is the payment primitive and the only operation that destroys
// value; the merchant side is out of scope, so a debit is terminal.
//
// Preconditions, checked in order before any state is touched:
// card exists, card is ACTIVE, amount > 0, balance >= amount.
// On ErrInsufficientFunds the balance is unchanged. Returns the new
// balance on success.
func (l *CardLedger) Debit(ctx context.Context, cardID CardID, amount Money, counterparty string) (Money, error) {
	state, err := l.lookup(cardID)
	if err != nil {
		return Money{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if !state.card.Active() {
		return Money{}, &NotActiveError{CardID: cardID, Status: state.card.Status}
	}
	if !amount.IsPositive() {
		return Money{}, &InvalidAmountError{Amount: amount, Reason: "not positive"}
	}
	if state.card.Balance.LessThan(amount) {
		return Money{}, &InsufficientFundsError{
			CardID:    cardID,
			Balance:   state.card.Balance,
			Requested: amount,
		}
	}

	newBalance := state.card.Balance.Sub(amount)
	rec := Record{
		ID:           RecordID(uuid.NewString()),
		CardID:       cardID,
		Kind:         KindPayment,
		Amount:       amount,
		Balance:      newBalance,
		Counterparty: counterparty,
		Note:         "payment",
		At:           l.now(),
	}
	if err := l.journal.Append(ctx, rec); err != nil {
		return Money{}, err
	}

	state.card.Balance = newBalance
	return newBalance, nil
}

// =============================================================================
// STATUS TRANSITIONS - Block, Activate, Expire
// =============================================================================

// Block marks a card BLOCKED so no balance mutation can touch it. This is
// the security control for reported-lost cards. Blocking a blocked card
// is a no-op success; blocking an expired card fails, EXPIRED is terminal.
func (l *CardLedger) Block(ctx context.Context, cardID CardID) error {
	return l.transition(cardID, StatusBlocked)
}

// Activate returns a blocked card to ACTIVE. Activating an active card is
// a no-op success; activating an expired card fails.
func (l *CardLedger) Activate(ctx context.Context, cardID CardID) error {
	return l.transition(cardID, StatusActive)
}

// Expire marks a card EXPIRED when the event ends. Terminal: any
// remaining balance is forfeited, not refunded, and no further operation
// may mutate the card. Expiring an expired card is a no-op success.
func (l *CardLedger) Expire(ctx context.Context, cardID CardID) error {
	return l.transition(cardID, StatusExpired)
}

func (l *CardLedger) transition(cardID CardID, to CardStatus) error {
	state, err := l.lookup(cardID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.card.Status == to {
		return nil // same-status transition confirms state, nothing else
	}
	if state.card.Status == StatusExpired {
		return &NotActiveError{CardID: cardID, Status: StatusExpired}
	}

	state.card.Status = to
	return nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Balance returns the current balance. Fails with ErrCardNotFound.
func (l *CardLedger) Balance(ctx context.Context, cardID CardID) (Money, error) {
	state, err := l.lookup(cardID)
	if err != nil {
		return Money{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.card.Balance, nil
}

// Card returns a snapshot copy of the card. Mutating the returned value
// has no effect on ledger state.
func (l *CardLedger) Card(ctx context.Context, cardID CardID) (Card, error) {
	state, err := l.lookup(cardID)
	if err != nil {
		return Card{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.card, nil
}

// History returns the card's records in insertion order. The slice is a
// defensive copy; stored history cannot be mutated through it.
func (l *CardLedger) History(ctx context.Context, cardID CardID) ([]Record, error) {
	if _, err := l.lookup(cardID); err != nil {
		return nil, err
	}
	return l.journal.LoadByCard(ctx, cardID)
}

// Cards returns snapshots of every card, sorted by id.
func (l *CardLedger) Cards(ctx context.Context) []Card {
	l.mu.RLock()
	states := make([]*cardState, 0, len(l.cards))
	for _, s := range l.cards {
		states = append(states, s)
	}
	l.mu.RUnlock()

	cards := make([]Card, 0, len(states))
	for _, s := range states {
		s.mu.Lock()
		cards = append(cards, s.card)
		s.mu.Unlock()
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards
}

func (l *CardLedger) lookup(cardID CardID) (*cardState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state, ok := l.cards[cardID]
	if !ok {
		return nil, ErrCardNotFound
	}
	return state, nil
}

// =============================================================================
// CONSERVATION AUDIT
// =============================================================================

// AuditReport compares journal totals against live balances.
type AuditReport struct {
	Totals     Totals
	BalanceSum Money
	Cards      int
	Balanced   bool
}

// Audit verifies the conservation invariant: the sum of all card balances
// equals total issued + total recharged - total debited. A report that is
// not Balanced means a bug, not a business condition.
func (l *CardLedger) Audit(ctx context.Context) (AuditReport, error) {
	totals, err := l.journal.Totals(ctx)
	if err != nil {
		return AuditReport{}, err
	}

	cards := l.Cards(ctx)
	var sum Money
	for _, c := range cards {
		sum = sum.Add(c.Balance)
	}

	return AuditReport{
		Totals:     totals,
		BalanceSum: sum,
		Cards:      len(cards),
		Balanced:   sum == totals.Net(),
	}, nil
}
