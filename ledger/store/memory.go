// Package store provides Journal implementations.
package store

import (
	"context"
	"sync"

	"github.com/festpay/card-engine/ledger"
)

// =============================================================================
// MEMORY JOURNAL - In-memory implementation (tests, demo, default server)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[ledger.CardID][]ledger.Record
	totals  ledger.Totals
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[ledger.CardID][]ledger.Record),
	}
}

// Append adds a single record. Append-only: insertion order is preserved
// and nothing is ever updated or deleted.
func (m *Memory) Append(_ context.Context, rec ledger.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.CardID] = append(m.records[rec.CardID], rec)
	m.totals.Records++
	switch rec.Kind {
	case ledger.KindIssue:
		m.totals.Issued = m.totals.Issued.Add(rec.Amount)
	case ledger.KindRecharge:
		m.totals.Recharged = m.totals.Recharged.Add(rec.Amount)
	case ledger.KindPayment:
		m.totals.Debited = m.totals.Debited.Add(rec.Amount)
	}
	return nil
}

// LoadByCard returns a copy of the card's records in insertion order.
func (m *Memory) LoadByCard(_ context.Context, cardID ledger.CardID) ([]ledger.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Record, len(m.records[cardID]))
	copy(result, m.records[cardID])
	return result, nil
}

// Totals returns aggregate issued/recharged/debited value.
func (m *Memory) Totals(_ context.Context) (ledger.Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totals, nil
}
