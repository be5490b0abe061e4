/*
Package sqlite provides a SQLite-backed Journal implementation.

PURPOSE:
  Implements ledger.Journal using SQLite. The default path is ":memory:",
  which keeps the no-persistence property of the engine; pointing it at a
  file is a development convenience, not a durability promise.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the records table
  - No DELETE statements on the records table
  - A monotonic seq column preserves insertion order per card

AMOUNT STORAGE:
  Amounts are stored as INTEGER minor units, exactly as the ledger holds
  them. Nothing is ever converted through a float.

WAL MODE:
  Opened with WAL so history reads do not block the single writer.

USAGE:
  journal, err := sqlite.New(":memory:")
  if err != nil {
      log.Fatal(err)
  }
  defer journal.Close()

  cards := ledger.NewCardLedger(journal)

SEE ALSO:
  - ledger/store.go: Journal interface definition
  - ledger/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/festpay/card-engine/ledger"
)

// Journal implements ledger.Journal on SQLite.
type Journal struct {
	db *sql.DB
}

// New opens (and migrates) a journal at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
	-- Records (append-only journal)
	CREATE TABLE IF NOT EXISTS records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		card_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount_units INTEGER NOT NULL,
		balance_units INTEGER NOT NULL,
		counterparty TEXT,
		note TEXT,
		at TEXT NOT NULL
	);

	-- Per-card history reads (hot path)
	CREATE INDEX IF NOT EXISTS idx_records_card
		ON records(card_id, seq);

	-- Conservation totals by kind
	CREATE INDEX IF NOT EXISTS idx_records_kind
		ON records(kind);
	`
	_, err := j.db.Exec(schema)
	return err
}

// =============================================================================
// JOURNAL (ledger.Journal interface)
// =============================================================================

// Append adds a record to the journal.
func (j *Journal) Append(ctx context.Context, rec ledger.Record) error {
	query := `
		INSERT INTO records
		(id, card_id, kind, amount_units, balance_units, counterparty, note, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		string(rec.ID),
		string(rec.CardID),
		string(rec.Kind),
		rec.Amount.Units(),
		rec.Balance.Units(),
		rec.Counterparty,
		rec.Note,
		rec.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// LoadByCard returns all records for a card in insertion order.
func (j *Journal) LoadByCard(ctx context.Context, cardID ledger.CardID) ([]ledger.Record, error) {
	query := `
		SELECT id, card_id, kind, amount_units, balance_units, counterparty, note, at
		FROM records
		WHERE card_id = ?
		ORDER BY seq ASC
	`
	rows, err := j.db.QueryContext(ctx, query, string(cardID))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []ledger.Record
	for rows.Next() {
		var (
			rec          ledger.Record
			id, card     string
			kind         string
			amount, bal  int64
			counterparty sql.NullString
			note         sql.NullString
			at           string
		)
		if err := rows.Scan(&id, &card, &kind, &amount, &bal, &counterparty, &note, &at); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.ID = ledger.RecordID(id)
		rec.CardID = ledger.CardID(card)
		rec.Kind = ledger.RecordKind(kind)
		rec.Amount = ledger.Cents(amount)
		rec.Balance = ledger.Cents(bal)
		rec.Counterparty = counterparty.String
		rec.Note = note.String
		rec.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("failed to parse record time: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Totals aggregates issued/recharged/debited value across all cards.
func (j *Journal) Totals(ctx context.Context) (ledger.Totals, error) {
	query := `
		SELECT kind, COALESCE(SUM(amount_units), 0), COUNT(*)
		FROM records
		GROUP BY kind
	`
	rows, err := j.db.QueryContext(ctx, query)
	if err != nil {
		return ledger.Totals{}, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	var totals ledger.Totals
	for rows.Next() {
		var (
			kind  string
			units int64
			count int
		)
		if err := rows.Scan(&kind, &units, &count); err != nil {
			return ledger.Totals{}, fmt.Errorf("failed to scan totals: %w", err)
		}
		totals.Records += count
		switch ledger.RecordKind(kind) {
		case ledger.KindIssue:
			totals.Issued = ledger.Cents(units)
		case ledger.KindRecharge:
			totals.Recharged = ledger.Cents(units)
		case ledger.KindPayment:
			totals.Debited = ledger.Cents(units)
		}
	}
	return totals, rows.Err()
}
