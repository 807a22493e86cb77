package core

import "fmt"

// ValidationError marks a malformed order item. The dispatcher isolates
// it to the single item instead of aborting the cycle.
type ValidationError struct {
	ItemID int64
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("item %d: invalid %s: %s", e.ItemID, e.Field, e.Reason)
}
