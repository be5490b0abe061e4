/*
Package actors provides the role facades over the card ledger.

PURPOSE:
  Each actor in the event payment system - organizer, bank terminal,
  payment terminal - holds a reference to the same shared CardLedger but
  is restricted, by its own interface, to the subset of operations its
  role permits. An actor validates role-specific preconditions, then
  delegates to the ledger, which enforces the real invariants.

WHO MAY DO WHAT:
  Organizer:       create users, issue, recharge, block/activate/expire
  BankTerminal:    read balance and history, nothing else
  PaymentTerminal: debit with its own store id as counterparty

  The ledger exposes the full operation set; permission control is simply
  which facade a caller is handed at construction time. There is no
  process-wide singleton and no hidden role check.

SEE ALSO:
  - ledger: The engine underneath
  - organizer.go, bank.go, payment.go: Facade implementations
*/
package actors

import (
	"errors"
	"fmt"
	"sync"

	"github.com/festpay/card-engine/ledger"
)

// =============================================================================
// DIRECTORY ERRORS
// =============================================================================

var (
	// ErrUserNotFound is returned when a user id is not registered.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser is returned when registering an existing user id.
	ErrDuplicateUser = errors.New("user already exists")
)

// =============================================================================
// DIRECTORY - User registry
// =============================================================================

// Directory is the user registry. Users are external to the ledger core:
// cards reference a UserID, and a user may hold several independent cards.
type Directory struct {
	mu    sync.RWMutex
	users map[ledger.UserID]ledger.User
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[ledger.UserID]ledger.User)}
}

// Create registers a new user.
func (d *Directory) Create(userID ledger.UserID, name string) (ledger.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.users[userID]; exists {
		return ledger.User{}, fmt.Errorf("user %s: %w", userID, ErrDuplicateUser)
	}
	user := ledger.User{ID: userID, Name: name}
	d.users[userID] = user
	return user, nil
}

// Lookup returns the user or ErrUserNotFound.
func (d *Directory) Lookup(userID ledger.UserID) (ledger.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[userID]
	if !ok {
		return ledger.User{}, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	return user, nil
}

// Users returns all registered users in no particular order.
func (d *Directory) Users() []ledger.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	users := make([]ledger.User, 0, len(d.users))
	for _, u := range d.users {
		users = append(users, u)
	}
	return users
}
