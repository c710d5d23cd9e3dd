// internal/core/db/store.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/tripwire/internal/types"
)

/*
 * Relational rule store.
 *
 * Implements rules.RuleStore over the rules table created by
 * 001_rules.sql. List is a single SELECT, so every pass sees a statement
 * level snapshot of the table: a concurrent insert is either fully visible
 * or not at all. Rows come back ORDER BY rule_id, which for UUIDv7 ids is
 * insertion order on both drivers.
 *
 * created_at is stored as RFC3339Nano UTC text so both drivers scan it the
 * same way.
 */

// SQLStore persists rules in SQLite or PostgreSQL.
type SQLStore struct {
	queries *Queries
}

type ruleRow struct {
	ID        string `db:"rule_id"`
	Condition string `db:"condition"`
	Action    string `db:"action"`
	CreatedAt string `db:"created_at"`
}

func (r ruleRow) record() types.RuleRecord {
	created, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	return types.RuleRecord{
		ID:        types.RuleID(r.ID),
		Condition: r.Condition,
		Action:    r.Action,
		CreatedAt: created,
	}
}

// NewSQLStore returns a store over an open, migrated database.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &SQLStore{queries: queries}, nil
}

func (s *SQLStore) List(ctx context.Context) ([]types.RuleRecord, error) {
	var rows []ruleRow
	if err := s.queries.Select(ctx, "list-rules", &rows); err != nil {
		return nil, fmt.Errorf("select rules: %w", err)
	}
	out := make([]types.RuleRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}

func (s *SQLStore) Insert(ctx context.Context, condition, action string) (types.RuleRecord, error) {
	rec := types.RuleRecord{
		ID:        types.NewRuleID(),
		Condition: condition,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.queries.Exec(ctx, "insert-rule",
		string(rec.ID), rec.Condition, rec.Action, rec.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return types.RuleRecord{}, fmt.Errorf("insert rule: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Get(ctx context.Context, id types.RuleID) (types.RuleRecord, error) {
	var row ruleRow
	err := s.queries.Get(ctx, "get-rule", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.RuleRecord{}, types.ErrRuleNotFound
	}
	if err != nil {
		return types.RuleRecord{}, fmt.Errorf("get rule: %w", err)
	}
	return row.record(), nil
}

func (s *SQLStore) Remove(ctx context.Context, id types.RuleID) (bool, error) {
	res, err := s.queries.Exec(ctx, "delete-rule", string(id))
	if err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.queries.Exec(ctx, "clear-rules"); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	return nil
}
