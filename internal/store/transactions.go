package store

import (
	"errors"
	"sort"
	"time"

	"github.com/roach88/gpos/internal/model"
)

// ErrNilTransaction is returned by AddTransaction for a nil transaction.
var ErrNilTransaction = errors.New("nil transaction")

// AddTransaction records a completed sale and returns it as stored.
//
// The store assigns the next transaction id, stamps the current time and
// marks the transaction completed. Stock of every product referenced by a
// line is decremented by the line quantity; lines for products no longer in
// the catalog are recorded but affect no stock. The caller's value is not
// retained.
func (s *Store) AddTransaction(tx *model.Transaction) (*model.Transaction, error) {
	if tx == nil {
		return nil, ErrNilTransaction
	}
	stored := tx.Clone()
	stored.Recalculate()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored.ID = s.state.NextTransactionID
	s.state.NextTransactionID++
	stored.Timestamp = s.clock.Now()
	stored.Completed = true
	s.state.Transactions = append(s.state.Transactions, stored)

	for _, item := range stored.Items {
		if i := s.productIndexLocked(item.ProductID()); i >= 0 {
			s.state.Products[i].Quantity -= item.Quantity
		}
	}

	s.markDirtyLocked()
	return stored.Clone(), nil
}

// Transactions returns copies of all transactions in insertion order.
func (s *Store) Transactions() []*model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTransactions(s.state.Transactions)
}

// TransactionByID returns a copy of the transaction with id.
func (s *Store) TransactionByID(id int) (*model.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.state.Transactions {
		if t != nil && t.ID == id {
			return t.Clone(), true
		}
	}
	return nil, false
}

// TransactionsBetween returns transactions with start <= timestamp <= end,
// newest first. A zero start or end leaves that side unbounded.
func (s *Store) TransactionsBetween(start, end time.Time) []*model.Transaction {
	s.mu.Lock()
	out := []*model.Transaction{}
	for _, t := range s.state.Transactions {
		if t != nil && inRange(t.Timestamp, start, end) {
			out = append(out, t.Clone())
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func inRange(ts, start, end time.Time) bool {
	if !start.IsZero() && ts.Before(start) {
		return false
	}
	if !end.IsZero() && ts.After(end) {
		return false
	}
	return true
}
