package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festpay/card-engine/actors"
	"github.com/festpay/card-engine/api"
	"github.com/festpay/card-engine/ledger"
	"github.com/festpay/card-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testAPI struct {
	router   http.Handler
	terminal *actors.PaymentTerminal
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cards := ledger.NewCardLedger(store.NewMemory())
	directory := actors.NewDirectory()
	organizer := actors.NewOrganizer("ORG001", cards, directory)
	bank := actors.NewBankTerminal("BANK001", cards)
	terminal := actors.NewPaymentTerminal("TERM001", "Food Stand", cards)

	h := api.NewHandler(cards, organizer, bank)
	h.RegisterTerminal(terminal)

	return &testAPI{
		router:   api.NewRouter(h, []string{"*"}),
		terminal: terminal,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

// seedCard registers USER001 and issues CARD001 with the given balance.
func (a *testAPI) seedCard(t *testing.T, balance string) {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/users", map[string]string{
		"id": "USER001", "name": "Alfredo Martinez",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/cards", map[string]string{
		"card_id": "CARD001", "user_id": "USER001", "initial_balance": balance,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

func TestAPI_CreateUser(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/users", map[string]string{
		"id": "USER001", "name": "Alfredo Martinez",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	user := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "USER001", user["id"])
	assert.Equal(t, "Alfredo Martinez", user["name"])
}

func TestAPI_CreateUser_Duplicate_409(t *testing.T) {
	a := newTestAPI(t)

	body := map[string]string{"id": "USER001", "name": "Alfredo"}
	rec := a.do(t, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/users", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "duplicate_user", resp["code"])
}

func TestAPI_CreateUser_MissingFields_400(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/users", map[string]string{"id": "USER001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_GetUser_Unknown_404(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/users/USER999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "user_not_found", resp["code"])
}

// =============================================================================
// CARD ENDPOINTS
// =============================================================================

func TestAPI_IssueCard_UnknownUser_404(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/cards", map[string]string{
		"card_id": "CARD001", "user_id": "USER999",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "user_not_found", resp["code"])
}

func TestAPI_IssueCard_DefaultsToZeroBalance(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/users", map[string]string{
		"id": "USER001", "name": "Alfredo",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/cards", map[string]string{
		"card_id": "CARD001", "user_id": "USER001",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	card := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "0.00", card["balance"])
	assert.Equal(t, "ACTIVE", card["status"])
}

func TestAPI_IssueCard_Duplicate_409(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "10.00")

	rec := a.do(t, http.MethodPost, "/api/cards", map[string]string{
		"card_id": "CARD001", "user_id": "USER001",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "duplicate_card", resp["code"])
}

func TestAPI_IssueCard_SubCentInitial_400(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/users", map[string]string{
		"id": "USER001", "name": "Alfredo",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/cards", map[string]string{
		"card_id": "CARD001", "user_id": "USER001", "initial_balance": "1.005",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_GetBalance(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "50.00")

	rec := a.do(t, http.MethodGet, "/api/cards/CARD001/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	balance := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "CARD001", balance["card_id"])
	assert.Equal(t, "USER001", balance["user_id"])
	assert.Equal(t, "50.00", balance["balance"])
}

func TestAPI_GetBalance_Unknown_404(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/cards/CARD999/balance", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "card_not_found", resp["code"])
}

func TestAPI_Recharge(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "10.00")

	rec := a.do(t, http.MethodPost, "/api/cards/CARD001/recharge", map[string]string{
		"amount": "40.00",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "40.00", result["amount"])
	assert.Equal(t, "50.00", result["new_balance"])
}

func TestAPI_Recharge_NegativeAmount_400(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "10.00")

	rec := a.do(t, http.MethodPost, "/api/cards/CARD001/recharge", map[string]string{
		"amount": "-5.00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "invalid_amount", resp["code"])
}

func TestAPI_History_OrderAndShape(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "0.00")

	rec := a.do(t, http.MethodPost, "/api/cards/CARD001/recharge", map[string]string{"amount": "50.00"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/payments", map[string]string{
		"terminal_id": "TERM001", "card_id": "CARD001", "amount": "15.50",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/cards/CARD001/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history struct {
		CardID  string `json:"card_id"`
		Count   int    `json:"count"`
		Records []struct {
			Kind         string `json:"kind"`
			Amount       string `json:"amount"`
			Balance      string `json:"balance"`
			Counterparty string `json:"counterparty"`
		} `json:"records"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))

	require.Equal(t, 3, history.Count)
	assert.Equal(t, "ISSUE", history.Records[0].Kind)
	assert.Equal(t, "RECHARGE", history.Records[1].Kind)
	assert.Equal(t, "PAYMENT", history.Records[2].Kind)
	assert.Equal(t, "34.50", history.Records[2].Balance)
	assert.Equal(t, "TERM001", history.Records[2].Counterparty)
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

func TestAPI_BlockThenActivate(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "30.00")

	rec := a.do(t, http.MethodPost, "/api/cards/CARD001/block", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	card := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "BLOCKED", card["status"])

	// Blocked cards reject payments with 422.
	rec = a.do(t, http.MethodPost, "/api/payments", map[string]string{
		"terminal_id": "TERM001", "card_id": "CARD001", "amount": "5.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "card_not_active", resp["code"])

	rec = a.do(t, http.MethodPost, "/api/cards/CARD001/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	card = decodeBody[map[string]any](t, rec)
	assert.Equal(t, "ACTIVE", card["status"])
}

func TestAPI_Expire_IsTerminal(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "12.00")

	rec := a.do(t, http.MethodPost, "/api/cards/CARD001/expire", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Re-activation of an expired card fails.
	rec = a.do(t, http.MethodPost, "/api/cards/CARD001/activate", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The forfeited balance is still readable.
	rec = a.do(t, http.MethodGet, "/api/cards/CARD001/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "12.00", balance["balance"])
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestAPI_Payment_Success(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "50.00")

	rec := a.do(t, http.MethodPost, "/api/payments", map[string]string{
		"terminal_id": "TERM001", "card_id": "CARD001", "amount": "15.50",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	receipt := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "15.50", receipt["amount"])
	assert.Equal(t, "34.50", receipt["new_balance"])
	assert.Equal(t, "TERM001", receipt["terminal_id"])
	assert.Equal(t, "Food Stand", receipt["shop_name"])
	assert.Equal(t, "SUCCESS", receipt["status"])
}

func TestAPI_Payment_InsufficientFunds_422(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "10.00")

	rec := a.do(t, http.MethodPost, "/api/payments", map[string]string{
		"terminal_id": "TERM001", "card_id": "CARD001", "amount": "25.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "insufficient_funds", resp["code"])

	// Balance unchanged after the denial.
	rec = a.do(t, http.MethodGet, "/api/cards/CARD001/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "10.00", balance["balance"])
}

func TestAPI_Payment_UnknownTerminal_404(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "10.00")

	rec := a.do(t, http.MethodPost, "/api/payments", map[string]string{
		"terminal_id": "TERM999", "card_id": "CARD001", "amount": "5.00",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Payment_Disconnected_503(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "50.00")

	a.terminal.SetConnected(false)

	rec := a.do(t, http.MethodPost, "/api/payments", map[string]string{
		"terminal_id": "TERM001", "card_id": "CARD001", "amount": "5.00",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "connectivity_failure", resp["code"])
}

// =============================================================================
// AUDIT
// =============================================================================

func TestAPI_Audit_Balanced(t *testing.T) {
	a := newTestAPI(t)
	a.seedCard(t, "20.00")

	rec := a.do(t, http.MethodPost, "/api/cards/CARD001/recharge", map[string]string{"amount": "30.00"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/payments", map[string]string{
		"terminal_id": "TERM001", "card_id": "CARD001", "amount": "12.34",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	audit := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "20.00", audit["issued"])
	assert.Equal(t, "30.00", audit["recharged"])
	assert.Equal(t, "12.34", audit["debited"])
	assert.Equal(t, "37.66", audit["balance_sum"])
	assert.Equal(t, true, audit["balanced"])
}
