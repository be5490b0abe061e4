/*
scenarios.go - Demo scenario runners

PURPOSE:
  Pre-built scenarios that exercise the card engine end to end and return
  a structured transcript. Each run builds a FRESH system (its own ledger,
  journal, and actors), so scenarios never disturb the server's live
  state and are safe to trigger repeatedly.

AVAILABLE SCENARIOS:
  normal-lifecycle:    create user, issue, recharge, pay twice, history
  insufficient-funds:  payment larger than the balance is denied
  unknown-card:        payment on an unregistered card is denied
  blocked-card:        lost card is blocked; recharge and payment denied

USAGE VIA API:
  POST /api/scenarios/run
  {"scenario_id": "normal-lifecycle"}

ADDING NEW SCENARIOS:
 1. Add to the 'scenarios' slice with ID, name, description
 2. Create a runner function: runXxxScenario(ctx)
 3. Add a case to RunScenario

SEE ALSO:
  - cmd/demo: CLI entry point running the fixed scenarios
  - handlers.go: RunScenario, ListScenarios handlers
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/festpay/card-engine/actors"
	"github.com/festpay/card-engine/ledger"
	"github.com/festpay/card-engine/ledger/store"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "normal-lifecycle",
		Name:        "Normal Card Lifecycle",
		Description: "User created, card issued empty, recharged, spent at two shops, history checked",
	},
	{
		ID:          "insufficient-funds",
		Name:        "Insufficient Funds",
		Description: "Payment exceeding the balance is denied and the balance is unchanged",
	},
	{
		ID:          "unknown-card",
		Name:        "Unknown Card",
		Description: "Payment with an unregistered card id is denied",
	},
	{
		ID:          "blocked-card",
		Name:        "Blocked Card",
		Description: "Reported-lost card is blocked; recharge and payment are both denied",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// RunScenario runs a scenario and returns its transcript.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	var req RunScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := runScenario(r.Context(), req.ScenarioID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// runScenario dispatches by id over a fresh system.
func runScenario(ctx context.Context, id string) (ScenarioResultDTO, error) {
	for _, s := range scenarios {
		if s.ID != id {
			continue
		}
		sys := newScenarioSystem()
		switch id {
		case "normal-lifecycle":
			sys.runNormalLifecycle(ctx)
		case "insufficient-funds":
			sys.runInsufficientFunds(ctx)
		case "unknown-card":
			sys.runUnknownCard(ctx)
		case "blocked-card":
			sys.runBlockedCard(ctx)
		}
		return ScenarioResultDTO{ScenarioID: s.ID, Name: s.Name, Steps: sys.steps}, nil
	}
	return ScenarioResultDTO{}, fmt.Errorf("no scenario %q", id)
}

// =============================================================================
// SCENARIO SYSTEM - Fresh actors over a fresh ledger
// =============================================================================

type scenarioSystem struct {
	organizer *actors.Organizer
	bank      *actors.BankTerminal
	food      *actors.PaymentTerminal
	merch     *actors.PaymentTerminal
	steps     []StepDTO
}

func newScenarioSystem() *scenarioSystem {
	cards := ledger.NewCardLedger(store.NewMemory())
	directory := actors.NewDirectory()
	return &scenarioSystem{
		organizer: actors.NewOrganizer("ORG001", cards, directory),
		bank:      actors.NewBankTerminal("BANK001", cards),
		food:      actors.NewPaymentTerminal("TERM001", "Food Stand", cards),
		merch:     actors.NewPaymentTerminal("TERM002", "Merch Shop", cards),
	}
}

func (s *scenarioSystem) step(description string, outcome string, ok bool) {
	s.steps = append(s.steps, StepDTO{Description: description, Outcome: outcome, OK: ok})
}

func (s *scenarioSystem) stepErr(description string, err error) {
	if err != nil {
		s.step(description, err.Error(), false)
		return
	}
	s.step(description, "ok", true)
}

func must(s string) ledger.Money {
	m, err := ledger.ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// =============================================================================
// SCENARIO RUNNERS
// =============================================================================

func (s *scenarioSystem) runNormalLifecycle(ctx context.Context) {
	user, err := s.organizer.CreateUser("USER001", "Alfredo Martinez")
	s.stepErr(fmt.Sprintf("create user %s", user.ID), err)

	card, err := s.organizer.IssueCard(ctx, "CARD001", "USER001", ledger.Cents(0))
	s.stepErr(fmt.Sprintf("issue card %s with balance %s", card.ID, card.Balance), err)

	newBalance, err := s.organizer.RechargeCard(ctx, "CARD001", must("50.00"))
	s.stepErr(fmt.Sprintf("recharge 50.00, new balance %s", newBalance), err)

	info, err := s.bank.CheckBalance(ctx, "CARD001")
	s.stepErr(fmt.Sprintf("bank terminal shows balance %s", info.Balance), err)

	receipt, err := s.food.ProcessPayment(ctx, "CARD001", must("15.50"))
	s.stepErr(fmt.Sprintf("pay 15.50 at %s, remaining %s", s.food.ShopName, receipt.NewBalance), err)

	receipt, err = s.merch.ProcessPayment(ctx, "CARD001", must("20.00"))
	s.stepErr(fmt.Sprintf("pay 20.00 at %s, remaining %s", s.merch.ShopName, receipt.NewBalance), err)

	history, err := s.bank.CheckHistory(ctx, "CARD001")
	s.stepErr(fmt.Sprintf("bank terminal shows %d history entries", len(history)), err)
}

func (s *scenarioSystem) runInsufficientFunds(ctx context.Context) {
	_, err := s.organizer.CreateUser("USER002", "Berta Ruiz")
	s.stepErr("create user USER002", err)

	_, err = s.organizer.IssueCard(ctx, "CARD002", "USER002", must("10.00"))
	s.stepErr("issue card CARD002 with balance 10.00", err)

	_, err = s.food.ProcessPayment(ctx, "CARD002", must("25.00"))
	if err != nil {
		// Denial is the expected outcome here
		s.step("pay 25.00 with balance 10.00", err.Error(), true)
	} else {
		s.step("pay 25.00 with balance 10.00", "unexpectedly succeeded", false)
	}

	info, err := s.bank.CheckBalance(ctx, "CARD002")
	s.stepErr(fmt.Sprintf("balance unchanged at %s", info.Balance), err)
}

func (s *scenarioSystem) runUnknownCard(ctx context.Context) {
	_, err := s.food.ProcessPayment(ctx, "CARD999", must("5.00"))
	if err != nil {
		s.step("pay 5.00 with unregistered card CARD999", err.Error(), true)
	} else {
		s.step("pay 5.00 with unregistered card CARD999", "unexpectedly succeeded", false)
	}
}

func (s *scenarioSystem) runBlockedCard(ctx context.Context) {
	_, err := s.organizer.CreateUser("USER003", "Carla Diaz")
	s.stepErr("create user USER003", err)

	_, err = s.organizer.IssueCard(ctx, "CARD003", "USER003", must("30.00"))
	s.stepErr("issue card CARD003 with balance 30.00", err)

	err = s.organizer.BlockCard(ctx, "CARD003")
	s.stepErr("block card after loss report", err)

	_, err = s.food.ProcessPayment(ctx, "CARD003", must("5.00"))
	if err != nil {
		s.step("pay 5.00 with blocked card", err.Error(), true)
	} else {
		s.step("pay 5.00 with blocked card", "unexpectedly succeeded", false)
	}

	_, err = s.organizer.RechargeCard(ctx, "CARD003", must("10.00"))
	if err != nil {
		s.step("recharge blocked card", err.Error(), true)
	} else {
		s.step("recharge blocked card", "unexpectedly succeeded", false)
	}

	info, err := s.bank.CheckBalance(ctx, "CARD003")
	s.stepErr(fmt.Sprintf("balance still %s", info.Balance), err)
}
