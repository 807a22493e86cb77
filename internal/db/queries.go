package db

const orderSchemaSQL = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		display_name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS delivery (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		title TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS product_sku (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id),
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		"set" INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT '1',
		delivery_id INTEGER REFERENCES delivery(id),
		delivery_code TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL REFERENCES orders(id),
		product_id INTEGER NOT NULL REFERENCES products(id),
		sku_id INTEGER NOT NULL REFERENCES product_sku(id),
		qty INTEGER NOT NULL DEFAULT 1,
		addons TEXT,
		remark TEXT,
		is_print INTEGER NOT NULL DEFAULT 0,
		printed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_by INTEGER REFERENCES users(id),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_pending
		ON order_items(is_print, printed_at);
`

const claimColumnsSQL = `
	ALTER TABLE order_items ADD COLUMN claimed_by TEXT;
	ALTER TABLE order_items ADD COLUMN claimed_at DATETIME;

	CREATE INDEX IF NOT EXISTS idx_order_items_claim
		ON order_items(claimed_by);
`

const selectPendingColumns = `
	SELECT
		order_items.id,
		orders.id,
		products.code,
		products.title,
		orders."set",
		delivery.name,
		orders.delivery_code,
		order_items.printed_at,
		product_sku.name,
		order_items.qty,
		order_items.addons,
		order_items.remark,
		users.display_name
	FROM order_items
	INNER JOIN orders ON orders.id = order_items.order_id
	INNER JOIN products ON products.id = order_items.product_id
	INNER JOIN product_sku ON product_sku.id = order_items.sku_id
	LEFT JOIN delivery ON delivery.id = orders.delivery_id
	LEFT JOIN users ON users.id = order_items.created_by
`

const (
	ClaimItems = `
		UPDATE order_items SET claimed_by = ?, claimed_at = ? WHERE id IN (%s)
	`

	MarkPrinted = `
		UPDATE order_items SET is_print = 1, claimed_by = NULL, claimed_at = NULL
		WHERE id IN (%s) AND is_print = 0
	`

	ReleaseItems = `
		UPDATE order_items SET claimed_by = NULL, claimed_at = NULL
		WHERE id IN (%s) AND is_print = 0
	`

	ReleaseClaim = `
		UPDATE order_items SET claimed_by = NULL, claimed_at = NULL
		WHERE claimed_by = ? AND is_print = 0
	`

	CountPending = `
		SELECT COUNT(*) FROM order_items
		INNER JOIN orders ON orders.id = order_items.order_id
		WHERE order_items.is_print = 0
	`
)
