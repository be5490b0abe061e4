/*
main.go - CLI demo of the event card payment system

PURPOSE:
  Runs three fixed scenarios against a fresh in-memory system and prints
  human-readable results:

    1. Normal card lifecycle: user, card, recharge, payments, history
    2. Insufficient funds: oversized payment denied, balance untouched
    3. Unknown card: payment with an unregistered id denied

  Demo only; exit status is not contractual.

USAGE:
  go run ./cmd/demo
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/festpay/card-engine/actors"
	"github.com/festpay/card-engine/ledger"
	"github.com/festpay/card-engine/ledger/store"
)

func section(title string) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  %s\n", title)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()
}

func main() {
	ctx := context.Background()

	cards := ledger.NewCardLedger(store.NewMemory())
	directory := actors.NewDirectory()

	organizer := actors.NewOrganizer("ORG001", cards, directory)
	bank := actors.NewBankTerminal("BANK001", cards)
	food := actors.NewPaymentTerminal("TERM001", "Food Stand", cards)
	merch := actors.NewPaymentTerminal("TERM002", "Merch Shop", cards)

	section("EVENT CARD PAYMENT SYSTEM - DEMO")

	// ========================================
	// SCENARIO 1: Normal card lifecycle
	// ========================================
	section("SCENARIO 1: Normal Card Lifecycle")

	fmt.Println("1. Creating user...")
	user, err := organizer.CreateUser("USER001", "Alfredo Martinez")
	check(err)
	fmt.Printf("   user created: %s (id: %s)\n", user.Name, user.ID)

	fmt.Println("\n2. Issuing card...")
	card, err := organizer.IssueCard(ctx, "CARD001", "USER001", ledger.Cents(0))
	check(err)
	fmt.Printf("   card id: %s\n", card.ID)
	fmt.Printf("   initial balance: %s\n", card.Balance)

	fmt.Println("\n3. Organizer recharges the card...")
	newBalance, err := organizer.RechargeCard(ctx, "CARD001", money("50.00"))
	check(err)
	fmt.Printf("   recharged 50.00, new balance: %s\n", newBalance)

	fmt.Println("\n4. User checks balance at the bank terminal...")
	info, err := bank.CheckBalance(ctx, "CARD001")
	check(err)
	fmt.Printf("   current balance: %s\n", info.Balance)

	fmt.Println("\n5. User pays at the food stand...")
	receipt, err := food.ProcessPayment(ctx, "CARD001", money("15.50"))
	check(err)
	fmt.Printf("   paid %s, remaining balance: %s\n", receipt.Amount, receipt.NewBalance)

	fmt.Println("\n6. User pays at the merch shop...")
	receipt, err = merch.ProcessPayment(ctx, "CARD001", money("20.00"))
	check(err)
	fmt.Printf("   paid %s, remaining balance: %s\n", receipt.Amount, receipt.NewBalance)

	fmt.Println("\n7. User views transaction history...")
	history, err := bank.CheckHistory(ctx, "CARD001")
	check(err)
	fmt.Printf("   %d transactions:\n", len(history))
	for _, rec := range history {
		fmt.Printf("     - %-8s %8s at %s (%s)\n",
			rec.Kind, rec.Amount, rec.At.Format("15:04"), rec.Counterparty)
	}

	// ========================================
	// SCENARIO 2: Insufficient funds
	// ========================================
	section("SCENARIO 2: Insufficient Funds")

	info, err = bank.CheckBalance(ctx, "CARD001")
	check(err)
	fmt.Printf("1. Current balance: %s\n", info.Balance)

	fmt.Println("2. User attempts to pay 100.00...")
	_, err = food.ProcessPayment(ctx, "CARD001", money("100.00"))
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		fmt.Printf("   %v\n", err)
		fmt.Println("   payment correctly denied")
	} else {
		fmt.Printf("   UNEXPECTED: %v\n", err)
	}

	// ========================================
	// SCENARIO 3: Unknown card
	// ========================================
	section("SCENARIO 3: Unknown Card")

	fmt.Println("1. Someone tries a card not registered for this event...")
	_, err = food.ProcessPayment(ctx, "CARD999", money("5.00"))
	if errors.Is(err, ledger.ErrCardNotFound) {
		fmt.Printf("   %v\n", err)
		fmt.Println("   payment correctly denied")
	} else {
		fmt.Printf("   UNEXPECTED: %v\n", err)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
}

func money(s string) ledger.Money {
	m, err := ledger.ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
