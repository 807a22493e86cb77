package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/orrn/printq/internal/core"
)

// QueueOperations implements core.QueueStore on the order_items table.
type QueueOperations struct {
	policy QueuePolicy
}

func NewQueueOperations(policy QueuePolicy) *QueueOperations {
	return &QueueOperations{policy: policy.withDefaults()}
}

func (o *QueueOperations) pendingQuery(keyword string, forClaim bool, now time.Time) (string, []interface{}) {
	conditions := []string{"order_items.is_print = 0"}
	var args []interface{}

	if o.policy.ActiveStatus != "" {
		conditions = append(conditions, "orders.status = ?")
		args = append(args, o.policy.ActiveStatus)
	}
	if o.policy.ExcludeStatus != "" {
		conditions = append(conditions, "orders.status != ?")
		args = append(args, o.policy.ExcludeStatus)
	}
	if keyword != "" {
		conditions = append(conditions, "substr(products.code, 1, 2) = ?")
		args = append(args, keyword)
	}
	if forClaim {
		conditions = append(conditions, "(order_items.claimed_by IS NULL OR order_items.claimed_at < ?)")
		args = append(args, now.Add(-o.policy.LeaseTTL))
	}

	query := selectPendingColumns + " WHERE " + strings.Join(conditions, " AND ")
	switch o.policy.OrderBy {
	case OrderByID:
		query += " ORDER BY order_items.id ASC"
	default:
		query += " ORDER BY order_items.printed_at ASC, order_items.id ASC"
	}
	query += " LIMIT ?"

	return query, args
}

// SelectPending is the read-only fetch: bounded, ordered, no side effects.
func (o *QueueOperations) SelectPending(ctx context.Context, limit int, keyword string) ([]core.OrderItem, error) {
	query, args := o.pendingQuery(keyword, false, time.Time{})
	args = append(args, limit)

	rows, err := GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ClaimPending selects and leases in one transaction, so overlapping
// dispatch cycles never claim the same row while a lease is live.
func (o *QueueOperations) ClaimPending(ctx context.Context, claimID string, limit int, keyword string) ([]core.OrderItem, error) {
	now := time.Now()

	tx, err := GetDB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback()

	query, args := o.pendingQuery(keyword, true, now)
	args = append(args, limit)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select claimable items: %w", err)
	}
	items, err := scanItems(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit claim: %w", err)
		}
		return nil, nil
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}

	update := fmt.Sprintf(ClaimItems, placeholders(len(ids)))
	updateArgs := append([]interface{}{claimID, now}, idArgs(ids)...)
	if _, err := tx.ExecContext(ctx, update, updateArgs...); err != nil {
		return nil, fmt.Errorf("failed to claim items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	return items, nil
}

// MarkPrinted flips the print flag for the given ids and clears their
// leases. Already-printed ids are untouched, so the affected count is
// the number of newly acknowledged rows.
func (o *QueueOperations) MarkPrinted(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(MarkPrinted, placeholders(len(ids)))
	result, err := GetDB().ExecContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark items printed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

// ReleaseItems frees individual leases without touching the print flag.
func (o *QueueOperations) ReleaseItems(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(ReleaseItems, placeholders(len(ids)))
	if _, err := GetDB().ExecContext(ctx, query, idArgs(ids)...); err != nil {
		return fmt.Errorf("failed to release items: %w", err)
	}
	return nil
}

// ReleaseClaim frees every unprinted row still leased to claimID.
func (o *QueueOperations) ReleaseClaim(ctx context.Context, claimID string) error {
	if _, err := GetDB().ExecContext(ctx, ReleaseClaim, claimID); err != nil {
		return fmt.Errorf("failed to release claim: %w", err)
	}
	return nil
}

// CountPending reports queue depth for the health endpoint.
func (o *QueueOperations) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB().QueryRowContext(ctx, CountPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending items: %w", err)
	}
	return count, nil
}

func scanItems(rows *sql.Rows) ([]core.OrderItem, error) {
	var items []core.OrderItem
	for rows.Next() {
		var (
			item         core.OrderItem
			delivery     sql.NullString
			deliveryCode sql.NullString
			date         sql.NullTime
			addons       sql.NullString
			remark       sql.NullString
			orderBy      sql.NullString
		)
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.Code, &item.Title, &item.Set,
			&delivery, &deliveryCode, &date, &item.SKU, &item.Qty,
			&addons, &remark, &orderBy); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.Delivery = delivery.String
		item.DeliveryCode = deliveryCode.String
		item.Addons = addons.String
		item.Remark = remark.String
		item.OrderBy = orderBy.String
		if date.Valid {
			item.Date = date.Time
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []interface{} {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
