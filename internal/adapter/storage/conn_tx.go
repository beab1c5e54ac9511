package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// connTx is a transaction on a connection checked out for one request.
// The connection goes back to the pool exactly once, on Commit or Rollback.
type connTx struct {
	conn *sql.Conn
	tx   *sql.Tx
	done bool
}

func beginConnTx(ctx context.Context, db *sql.DB) (*connTx, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &connTx{conn: conn, tx: tx}, nil
}

func (c *connTx) Commit() error {
	if c.done {
		return sql.ErrTxDone
	}
	c.done = true
	defer c.conn.Close()

	if err := c.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *connTx) Rollback() error {
	if c.done {
		return nil
	}
	c.done = true
	defer c.conn.Close()

	if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
