package db

import (
	"time"
)

const (
	OrderByPrintedAt = "printed_at"
	OrderByID        = "id"
)

// QueuePolicy holds the selection knobs that vary per deployment: which
// timestamp/id column orders the queue, which order status counts as
// active (or is excluded), and how long a claim lease lives before an
// abandoned cycle's items return to the pool.
type QueuePolicy struct {
	OrderBy       string
	ActiveStatus  string
	ExcludeStatus string
	LeaseTTL      time.Duration
}

func (p QueuePolicy) withDefaults() QueuePolicy {
	if p.OrderBy == "" {
		p.OrderBy = OrderByPrintedAt
	}
	if p.ActiveStatus == "" && p.ExcludeStatus == "" {
		p.ActiveStatus = "1"
	}
	if p.LeaseTTL <= 0 {
		p.LeaseTTL = 2 * time.Minute
	}
	return p
}
