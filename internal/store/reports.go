package store

import "time"

// TotalSales is the sum of all transaction totals, in cents.
func (s *Store) TotalSales() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, t := range s.state.Transactions {
		if t != nil {
			total += t.Total
		}
	}
	return total
}

// SalesForDate sums totals of transactions on the calendar day of day,
// evaluated in day's location.
func (s *Store) SalesForDate(day time.Time) int64 {
	y, m, d := day.Date()
	loc := day.Location()

	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, t := range s.state.Transactions {
		if t == nil {
			continue
		}
		ty, tm, td := t.Timestamp.In(loc).Date()
		if ty == y && tm == m && td == d {
			total += t.Total
		}
	}
	return total
}

// SalesForDateRange sums totals of transactions in the inclusive range
// (see TransactionsBetween).
func (s *Store) SalesForDateRange(start, end time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, t := range s.state.Transactions {
		if t != nil && inRange(t.Timestamp, start, end) {
			total += t.Total
		}
	}
	return total
}

// SalesByCategory sums line totals per category of the product snapshot
// captured on each line. Blank categories are reported under "All".
func (s *Store) SalesByCategory() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]int64{}
	for _, t := range s.state.Transactions {
		if t == nil {
			continue
		}
		for _, item := range t.Items {
			out[item.Product.EffectiveCategory()] += item.TotalPrice
		}
	}
	return out
}
