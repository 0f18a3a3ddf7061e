package mcaller

import (
	"context"
	"database/sql"
	"fmt"
)

// SQL returns the db for the current sql method, connecting if necessary.
func (call *Call) SQL(ctx context.Context) (*sql.DB, error) {
	if call.method.Kind != KindSQL {
		return nil, fmt.Errorf("%w: %s method %s", ErrWrongKind, call.method.Kind, call.method.Name)
	}
	return call.caller.DB(ctx)
}

// DB returns the db of the caller. If there is no db yet it is created
// with the connector.
func (c *Caller) DB(ctx context.Context) (*sql.DB, error) {
	c.dbMu.Lock()
	db := c.db
	c.dbMu.Unlock()
	if db != nil {
		return db, nil
	}
	if c.dbConnector == nil {
		return nil, fmt.Errorf("%w: no sql connection", ErrNoConnection)
	}
	if err := c.Reconnect(ctx); err != nil {
		return nil, err
	}
	c.dbMu.Lock()
	defer c.dbMu.Unlock()
	return c.db, nil
}

// Reconnect re-creates the db with the connector. The old db is closed.
func (c *Caller) Reconnect(ctx context.Context) error {
	if c.dbConnector == nil {
		return ErrNoConnector
	}
	db, err := c.dbConnector(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	c.dbMu.Lock()
	old := c.db
	c.db = db
	c.dbMu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Warn("failed to close old db", "error", err)
		}
	}
	log.Debug("reconnected to database")
	return nil
}

func (c *Caller) sqlNotes() Notes {
	c.dbMu.Lock()
	defer c.dbMu.Unlock()
	if c.db == nil && c.dbConnector == nil {
		return unavailable("caller has no sql connection")
	}
	return Notes{Available: true}
}
