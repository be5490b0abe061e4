package actors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festpay/card-engine/actors"
	"github.com/festpay/card-engine/ledger"
	"github.com/festpay/card-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type system struct {
	cards     *ledger.CardLedger
	organizer *actors.Organizer
	bank      *actors.BankTerminal
	terminal  *actors.PaymentTerminal
}

func newTestSystem(t *testing.T) *system {
	t.Helper()
	cards := ledger.NewCardLedger(store.NewMemory())
	directory := actors.NewDirectory()
	return &system{
		cards:     cards,
		organizer: actors.NewOrganizer("ORG001", cards, directory),
		bank:      actors.NewBankTerminal("BANK001", cards),
		terminal:  actors.NewPaymentTerminal("TERM001", "Food Stand", cards),
	}
}

func money(t *testing.T, s string) ledger.Money {
	t.Helper()
	m, err := ledger.ParseMoney(s)
	require.NoError(t, err)
	return m
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestDirectory_CreateAndLookup(t *testing.T) {
	d := actors.NewDirectory()

	user, err := d.Create("USER001", "Alfredo Martinez")
	require.NoError(t, err)
	assert.Equal(t, ledger.UserID("USER001"), user.ID)

	found, err := d.Lookup("USER001")
	require.NoError(t, err)
	assert.Equal(t, "Alfredo Martinez", found.Name)
}

func TestDirectory_DuplicateUser_Rejected(t *testing.T) {
	d := actors.NewDirectory()

	_, err := d.Create("USER001", "Alfredo")
	require.NoError(t, err)

	_, err = d.Create("USER001", "Impostor")
	assert.ErrorIs(t, err, actors.ErrDuplicateUser)

	// Original record untouched.
	found, err := d.Lookup("USER001")
	require.NoError(t, err)
	assert.Equal(t, "Alfredo", found.Name)
}

func TestDirectory_UnknownUser(t *testing.T) {
	d := actors.NewDirectory()

	_, err := d.Lookup("USER999")
	assert.ErrorIs(t, err, actors.ErrUserNotFound)
}

// =============================================================================
// ORGANIZER
// =============================================================================

func TestOrganizer_IssueCard_RequiresExistingUser(t *testing.T) {
	// GIVEN: No users registered
	// WHEN: Issuing a card to an unknown user
	// THEN: ErrUserNotFound, and the ledger was never touched

	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.organizer.IssueCard(ctx, "CARD001", "USER999", ledger.Cents(0))
	assert.ErrorIs(t, err, actors.ErrUserNotFound)

	_, err = s.cards.Balance(ctx, "CARD001")
	assert.ErrorIs(t, err, ledger.ErrCardNotFound)
}

func TestOrganizer_IssueAndRecharge(t *testing.T) {
	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.organizer.CreateUser("USER001", "Alfredo")
	require.NoError(t, err)

	card, err := s.organizer.IssueCard(ctx, "CARD001", "USER001", ledger.Cents(0))
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusActive, card.Status)

	newBalance, err := s.organizer.RechargeCard(ctx, "CARD001", money(t, "50.00"))
	require.NoError(t, err)
	assert.Equal(t, money(t, "50.00"), newBalance)

	// The organizer's id is the counterparty on both records.
	history, err := s.bank.CheckHistory(ctx, "CARD001")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "ORG001", history[0].Counterparty)
	assert.Equal(t, "ORG001", history[1].Counterparty)
}

func TestOrganizer_MultipleCardsPerUser(t *testing.T) {
	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.organizer.CreateUser("USER001", "Alfredo")
	require.NoError(t, err)

	_, err = s.organizer.IssueCard(ctx, "CARD001", "USER001", money(t, "10.00"))
	require.NoError(t, err)
	_, err = s.organizer.IssueCard(ctx, "CARD002", "USER001", money(t, "20.00"))
	require.NoError(t, err)

	// Cards are independent: blocking one leaves the other usable.
	require.NoError(t, s.organizer.BlockCard(ctx, "CARD001"))

	_, err = s.terminal.ProcessPayment(ctx, "CARD002", money(t, "5.00"))
	assert.NoError(t, err)
}

// =============================================================================
// BANK TERMINAL
// =============================================================================

func TestBankTerminal_CheckBalance(t *testing.T) {
	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.organizer.CreateUser("USER001", "Alfredo")
	require.NoError(t, err)
	_, err = s.organizer.IssueCard(ctx, "CARD001", "USER001", money(t, "42.00"))
	require.NoError(t, err)

	info, err := s.bank.CheckBalance(ctx, "CARD001")
	require.NoError(t, err)
	assert.Equal(t, ledger.CardID("CARD001"), info.CardID)
	assert.Equal(t, ledger.UserID("USER001"), info.UserID)
	assert.Equal(t, money(t, "42.00"), info.Balance)
}

func TestBankTerminal_UnknownCard_PropagatesKind(t *testing.T) {
	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.bank.CheckBalance(ctx, "CARD999")
	assert.ErrorIs(t, err, ledger.ErrCardNotFound)

	_, err = s.bank.CheckHistory(ctx, "CARD999")
	assert.ErrorIs(t, err, ledger.ErrCardNotFound)
}

// =============================================================================
// PAYMENT TERMINAL
// =============================================================================

func TestPaymentTerminal_SuccessfulPayment(t *testing.T) {
	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.organizer.CreateUser("USER001", "Alfredo")
	require.NoError(t, err)
	_, err = s.organizer.IssueCard(ctx, "CARD001", "USER001", money(t, "50.00"))
	require.NoError(t, err)

	receipt, err := s.terminal.ProcessPayment(ctx, "CARD001", money(t, "15.50"))
	require.NoError(t, err)

	assert.Equal(t, money(t, "15.50"), receipt.Amount)
	assert.Equal(t, money(t, "34.50"), receipt.NewBalance)
	assert.Equal(t, "TERM001", receipt.TerminalID)
	assert.Equal(t, "Food Stand", receipt.ShopName)
	assert.Equal(t, "SUCCESS", receipt.Status)

	// The terminal id is the counterparty on the payment record.
	history, err := s.bank.CheckHistory(ctx, "CARD001")
	require.NoError(t, err)
	assert.Equal(t, "TERM001", history[1].Counterparty)
}

func TestPaymentTerminal_DenialWrapsKind(t *testing.T) {
	// The terminal reports "payment denied", but the underlying kind
	// stays reachable through errors.Is / errors.As.

	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.organizer.CreateUser("USER001", "Alfredo")
	require.NoError(t, err)
	_, err = s.organizer.IssueCard(ctx, "CARD001", "USER001", money(t, "10.00"))
	require.NoError(t, err)

	_, err = s.terminal.ProcessPayment(ctx, "CARD001", money(t, "25.00"))
	require.Error(t, err)

	var denied *actors.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Error(), "payment denied")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestPaymentTerminal_UnknownCard_Denied(t *testing.T) {
	s := newTestSystem(t)

	_, err := s.terminal.ProcessPayment(context.Background(), "CARD999", money(t, "5.00"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrCardNotFound)

	var denied *actors.DeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestPaymentTerminal_ConnectivityFailure_AbortsBeforeMutation(t *testing.T) {
	// GIVEN: A funded card and a terminal that lost its connection
	// WHEN: A payment is attempted
	// THEN: Denied with ErrConnectivity; balance and history untouched

	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.organizer.CreateUser("USER001", "Alfredo")
	require.NoError(t, err)
	_, err = s.organizer.IssueCard(ctx, "CARD001", "USER001", money(t, "50.00"))
	require.NoError(t, err)

	s.terminal.SetConnected(false)

	_, err = s.terminal.ProcessPayment(ctx, "CARD001", money(t, "5.00"))
	require.Error(t, err)
	assert.ErrorIs(t, err, actors.ErrConnectivity)

	info, err := s.bank.CheckBalance(ctx, "CARD001")
	require.NoError(t, err)
	assert.Equal(t, money(t, "50.00"), info.Balance)

	history, err := s.bank.CheckHistory(ctx, "CARD001")
	require.NoError(t, err)
	assert.Len(t, history, 1, "no partial debit on connectivity failure")

	// Reconnect and the same payment goes through.
	s.terminal.SetConnected(true)
	_, err = s.terminal.ProcessPayment(ctx, "CARD001", money(t, "5.00"))
	assert.NoError(t, err)
}

func TestPaymentTerminal_BlockedCard_Denied(t *testing.T) {
	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.organizer.CreateUser("USER001", "Alfredo")
	require.NoError(t, err)
	_, err = s.organizer.IssueCard(ctx, "CARD001", "USER001", money(t, "30.00"))
	require.NoError(t, err)
	require.NoError(t, s.organizer.BlockCard(ctx, "CARD001"))

	_, err = s.terminal.ProcessPayment(ctx, "CARD001", money(t, "5.00"))
	assert.ErrorIs(t, err, ledger.ErrCardNotActive)

	info, err := s.bank.CheckBalance(ctx, "CARD001")
	require.NoError(t, err)
	assert.Equal(t, money(t, "30.00"), info.Balance)
}

func TestPaymentTerminal_VerifyCard(t *testing.T) {
	s := newTestSystem(t)
	ctx := context.Background()

	_, err := s.organizer.CreateUser("USER001", "Alfredo")
	require.NoError(t, err)
	_, err = s.organizer.IssueCard(ctx, "CARD001", "USER001", money(t, "10.00"))
	require.NoError(t, err)

	card, err := s.terminal.VerifyCard(ctx, "CARD001")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusActive, card.Status)

	require.NoError(t, s.organizer.BlockCard(ctx, "CARD001"))
	_, err = s.terminal.VerifyCard(ctx, "CARD001")
	assert.ErrorIs(t, err, ledger.ErrCardNotActive)
}
