/*
organizer.go - Event organizer facade

PURPOSE:
  The organizer is the only actor that may create users, issue cards, and
  recharge them. It is also the actor that blocks a reported-lost card,
  re-activates it, and expires cards when the event ends.

IDENTITY:
  Every mutation the organizer performs is recorded in the journal with
  the organizer's own id as counterparty, so the audit trail shows who
  put value on a card.

SEE ALSO:
  - ledger: Issue/Recharge/Block/Activate/Expire semantics
  - directory.go: User registry checked before issuance
*/
package actors

import (
	"context"

	"github.com/festpay/card-engine/ledger"
)

// =============================================================================
// ORGANIZER
// =============================================================================

// Organizer is the sole issuer and recharger of cards.
type Organizer struct {
	ID        string
	ledger    *ledger.CardLedger
	directory *Directory
}

func NewOrganizer(id string, l *ledger.CardLedger, d *Directory) *Organizer {
	return &Organizer{ID: id, ledger: l, directory: d}
}

// Directory exposes the user registry for read access.
func (o *Organizer) Directory() *Directory {
	return o.directory
}

// CreateUser registers a new user in the directory.
func (o *Organizer) CreateUser(userID ledger.UserID, name string) (ledger.User, error) {
	return o.directory.Create(userID, name)
}

// IssueCard issues a new active card to an existing user. The user must
// already be registered; issuing to an unknown user fails with
// ErrUserNotFound before the ledger is touched. Cards are commonly issued
// with a zero initial balance and recharged at the gate.
func (o *Organizer) IssueCard(ctx context.Context, cardID ledger.CardID, userID ledger.UserID, initial ledger.Money) (ledger.Card, error) {
	if _, err := o.directory.Lookup(userID); err != nil {
		return ledger.Card{}, err
	}
	return o.ledger.Issue(ctx, cardID, userID, initial, o.ID)
}

// RechargeCard adds funds to a card. Returns the new balance.
func (o *Organizer) RechargeCard(ctx context.Context, cardID ledger.CardID, amount ledger.Money) (ledger.Money, error) {
	return o.ledger.Recharge(ctx, cardID, amount, o.ID)
}

// BlockCard blocks a card, e.g. after the holder reports it lost.
func (o *Organizer) BlockCard(ctx context.Context, cardID ledger.CardID) error {
	return o.ledger.Block(ctx, cardID)
}

// ActivateCard re-activates a blocked card, e.g. the holder found it again.
func (o *Organizer) ActivateCard(ctx context.Context, cardID ledger.CardID) error {
	return o.ledger.Activate(ctx, cardID)
}

// ExpireCard expires a card when the event ends. Terminal; any remaining
// balance is forfeited.
func (o *Organizer) ExpireCard(ctx context.Context, cardID ledger.CardID) error {
	return o.ledger.Expire(ctx, cardID)
}
