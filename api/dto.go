/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AT THE BOUNDARY:
  Amounts cross the API as decimal strings ("50.00"), parsed into exact
  minor units on the way in and formatted on the way out. No float ever
  carries a balance.

VALIDATION:
  Request structs carry validator tags; handlers run them through the
  shared validator instance before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger: Domain types these map to
*/
package api

import (
	"time"

	"github.com/festpay/card-engine/actors"
	"github.com/festpay/card-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CreateUserRequest registers a new user.
type CreateUserRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueCardRequest issues a new card to an existing user.
type IssueCardRequest struct {
	CardID  string `json:"card_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
	Initial string `json:"initial_balance,omitempty"` // decimal string, defaults to "0"
}

// CardDTO represents a card snapshot.
type CardDTO struct {
	CardID   string `json:"card_id"`
	UserID   string `json:"user_id"`
	Balance  string `json:"balance"`
	Status   string `json:"status"`
	IssuedAt string `json:"issued_at"`
}

// RechargeRequest adds funds to a card.
type RechargeRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// RechargeDTO is the result of a recharge.
type RechargeDTO struct {
	CardID     string `json:"card_id"`
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
}

// BalanceDTO is the bank terminal's balance view.
type BalanceDTO struct {
	CardID    string `json:"card_id"`
	UserID    string `json:"user_id"`
	Balance   string `json:"balance"`
	QueriedAt string `json:"queried_at"`
}

// RecordDTO represents one journal record.
type RecordDTO struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Amount       string `json:"amount"`
	Balance      string `json:"balance"`
	Counterparty string `json:"counterparty,omitempty"`
	Note         string `json:"note,omitempty"`
	At           string `json:"at"`
}

// HistoryDTO is the bank terminal's history view.
type HistoryDTO struct {
	CardID  string      `json:"card_id"`
	Count   int         `json:"count"`
	Records []RecordDTO `json:"records"`
}

// PaymentRequest processes a payment at a terminal.
type PaymentRequest struct {
	TerminalID string `json:"terminal_id" validate:"required"`
	CardID     string `json:"card_id" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
}

// ReceiptDTO is a successful payment result.
type ReceiptDTO struct {
	CardID     string `json:"card_id"`
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
	TerminalID string `json:"terminal_id"`
	ShopName   string `json:"shop_name,omitempty"`
	Status     string `json:"status"`
	At         string `json:"at"`
}

// AuditDTO reports conservation accounting.
type AuditDTO struct {
	Issued     string `json:"issued"`
	Recharged  string `json:"recharged"`
	Debited    string `json:"debited"`
	BalanceSum string `json:"balance_sum"`
	Cards      int    `json:"cards"`
	Records    int    `json:"records"`
	Balanced   bool   `json:"balanced"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RunScenarioRequest selects a scenario to run.
type RunScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// StepDTO is one step of a scenario transcript.
type StepDTO struct {
	Description string `json:"description"`
	Outcome     string `json:"outcome"`
	OK          bool   `json:"ok"`
}

// ScenarioResultDTO is a full scenario transcript.
type ScenarioResultDTO struct {
	ScenarioID string    `json:"scenario_id"`
	Name       string    `json:"name"`
	Steps      []StepDTO `json:"steps"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCardDTO(c ledger.Card) CardDTO {
	return CardDTO{
		CardID:   string(c.ID),
		UserID:   string(c.UserID),
		Balance:  c.Balance.String(),
		Status:   string(c.Status),
		IssuedAt: c.IssuedAt.Format(time.RFC3339),
	}
}

func toRecordDTO(rec ledger.Record) RecordDTO {
	return RecordDTO{
		ID:           string(rec.ID),
		Kind:         string(rec.Kind),
		Amount:       rec.Amount.String(),
		Balance:      rec.Balance.String(),
		Counterparty: rec.Counterparty,
		Note:         rec.Note,
		At:           rec.At.Format(time.RFC3339),
	}
}

func toRecordDTOs(recs []ledger.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toRecordDTO(rec)
	}
	return dtos
}

func toReceiptDTO(r actors.Receipt) ReceiptDTO {
	return ReceiptDTO{
		CardID:     string(r.CardID),
		Amount:     r.Amount.String(),
		NewBalance: r.NewBalance.String(),
		TerminalID: r.TerminalID,
		ShopName:   r.ShopName,
		Status:     r.Status,
		At:         r.At.Format(time.RFC3339),
	}
}
