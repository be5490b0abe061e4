/*
store.go - Journal persistence interface

PURPOSE:
  The Journal is the append-only store behind a card's transaction
  history. Balance lives on the Card (the ledger is the single writer);
  the Journal is the audit trail that explains how every balance got
  there, and the source for conservation accounting.

APPEND-ONLY CONTRACT:
  - Append(): the ONLY write operation
  - NO Update() or Delete() methods exist
  - LoadByCard returns records in insertion order, which the ledger
    guarantees is chronological order per card

IMPLEMENTATIONS:
  - ledger/store/memory.go: in-memory (tests, demo, default server mode)
  - store/sqlite/sqlite.go:  SQLite-backed (":memory:" by default)

WRITE ORDERING:
  The ledger appends the Record BEFORE committing the balance change. If
  the append fails, the operation fails whole and the balance is
  untouched - no partial mutation ever reaches either side.

SEE ALSO:
  - ledger.go: The only caller of Append
  - types.go: Record and Totals definitions
*/
package ledger

import "context"

// Journal persists transaction records.
// IMPORTANT: Journal is APPEND-ONLY. No Update, No Delete. Ever.
type Journal interface {
	// Append persists a record. This is the ONLY write operation.
	Append(ctx context.Context, rec Record) error

	// LoadByCard returns all records for a card in insertion order.
	// Implementations must return a copy the caller cannot use to
	// mutate stored history.
	LoadByCard(ctx context.Context, cardID CardID) ([]Record, error)

	// Totals aggregates issued/recharged/debited value across all cards,
	// for the conservation audit.
	Totals(ctx context.Context) (Totals, error)
}
