package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

type PostgresAdapter struct {
	db *sql.DB
}

func NewPostgresAdapter(db *sql.DB) *PostgresAdapter {
	return &PostgresAdapter{db: db}
}

func (p *PostgresAdapter) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresAdapter) CreateStore(ctx context.Context, name, address string) (*domain.Store, error) {
	var s domain.Store
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO stores (name, address)
		VALUES ($1, $2)
		RETURNING store_id, name, address, created_at`,
		name, address,
	).Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert store: %w", err)
	}
	return &s, nil
}

func (p *PostgresAdapter) GetStore(ctx context.Context, storeID int64) (*domain.Store, error) {
	var s domain.Store
	err := p.db.QueryRowContext(ctx, `
		SELECT store_id, name, address, created_at
		FROM stores WHERE store_id = $1`, storeID,
	).Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	return &s, nil
}

func (p *PostgresAdapter) ListStores(ctx context.Context) ([]domain.Store, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT store_id, name, address, created_at
		FROM stores ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	return scanStores(rows)
}

func (p *PostgresAdapter) Begin(ctx context.Context) (port.InventoryTx, error) {
	ct, err := beginConnTx(ctx, p.db)
	if err != nil {
		return nil, err
	}
	return &postgresInventoryTx{connTx: ct}, nil
}

type postgresInventoryTx struct {
	*connTx
}

func (t *postgresInventoryTx) CreateItem(ctx context.Context, item domain.InventoryItem) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO inventoryitems (store_id, item_name, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING item_id`,
		item.StoreID, item.Name, item.Quantity, item.Price,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

func (t *postgresInventoryTx) ListItems(ctx context.Context, storeID int64) ([]domain.InventoryItem, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT item_id, store_id, item_name, quantity, price
		FROM inventoryitems WHERE store_id = $1
		ORDER BY item_name`, storeID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	return scanItems(rows)
}

func (t *postgresInventoryTx) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE inventoryitems SET quantity = $1 WHERE item_id = $2`,
		quantity, itemID,
	)
	if err != nil {
		return false, fmt.Errorf("update quantity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

func scanStores(rows *sql.Rows) ([]domain.Store, error) {
	defer rows.Close()

	stores := []domain.Store{}
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return stores, nil
}

func scanItems(rows *sql.Rows) ([]domain.InventoryItem, error) {
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(&it.ID, &it.StoreID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}
