package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// CreateStore has no RETURNING on MySQL, so the row is read back inside the
// same transaction to pick up the generated timestamp.
func (m *MySQLAdapter) CreateStore(ctx context.Context, name, address string) (*domain.Store, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO stores (name, address) VALUES (?, ?)`,
		name, address,
	)
	if err != nil {
		return nil, fmt.Errorf("insert store: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var s domain.Store
	err = tx.QueryRowContext(ctx, `
		SELECT store_id, name, address, created_at
		FROM stores WHERE store_id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("read back store: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &s, nil
}

func (m *MySQLAdapter) GetStore(ctx context.Context, storeID int64) (*domain.Store, error) {
	var s domain.Store
	err := m.db.QueryRowContext(ctx, `
		SELECT store_id, name, address, created_at
		FROM stores WHERE store_id = ?`, storeID,
	).Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	return &s, nil
}

func (m *MySQLAdapter) ListStores(ctx context.Context) ([]domain.Store, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT store_id, name, address, created_at
		FROM stores ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	return scanStores(rows)
}

func (m *MySQLAdapter) Begin(ctx context.Context) (port.InventoryTx, error) {
	ct, err := beginConnTx(ctx, m.db)
	if err != nil {
		return nil, err
	}
	return &mysqlInventoryTx{connTx: ct}, nil
}

type mysqlInventoryTx struct {
	*connTx
}

func (t *mysqlInventoryTx) CreateItem(ctx context.Context, item domain.InventoryItem) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO inventoryitems (store_id, item_name, quantity, price)
		VALUES (?, ?, ?, ?)`,
		item.StoreID, item.Name, item.Quantity, item.Price,
	)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (t *mysqlInventoryTx) ListItems(ctx context.Context, storeID int64) ([]domain.InventoryItem, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT item_id, store_id, item_name, quantity, price
		FROM inventoryitems WHERE store_id = ?
		ORDER BY item_name`, storeID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	return scanItems(rows)
}

func (t *mysqlInventoryTx) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE inventoryitems SET quantity = ? WHERE item_id = ?`,
		quantity, itemID,
	)
	if err != nil {
		return false, fmt.Errorf("update quantity: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
