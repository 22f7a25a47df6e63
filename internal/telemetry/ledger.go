// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records token usage and estimated cost per exchange.
//
// The ledger is a small sqlite database with one row per successful
// completion. The transcript remains the source of truth for the displayed
// estimate; the ledger keeps durable per-exchange history, including which
// model actually produced each reply.
package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// =============================================================================
// LEDGER TYPE
// =============================================================================

// Exchange is one recorded completion.
type Exchange struct {
	RecordedAt       time.Time
	ConversationID   int
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}

// Totals aggregates recorded exchanges.
type Totals struct {
	Exchanges        int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}

// Ledger is the sqlite-backed usage store.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (or creates) the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	l := &Ledger{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return l, nil
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TEXT NOT NULL,
		conversation_id INTEGER NOT NULL,
		model TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		cost_usd REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_conversation
		ON exchanges(conversation_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// Record appends one exchange to the ledger. A zero RecordedAt is filled
// with the current time.
func (l *Ledger) Record(ex Exchange) error {
	if ex.RecordedAt.IsZero() {
		ex.RecordedAt = time.Now().UTC()
	}

	_, err := l.db.Exec(`
		INSERT INTO exchanges
			(recorded_at, conversation_id, model, prompt_tokens, completion_tokens, total_tokens, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ex.RecordedAt.Format(time.RFC3339),
		ex.ConversationID,
		ex.Model,
		ex.PromptTokens,
		ex.CompletionTokens,
		ex.TotalTokens,
		ex.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	return nil
}

// PurgeConversation removes every row for a deleted conversation.
func (l *Ledger) PurgeConversation(conversationID int) error {
	if _, err := l.db.Exec(`DELETE FROM exchanges WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("failed to purge conversation %d: %w", conversationID, err)
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// ConversationTotals aggregates every exchange recorded for one conversation.
func (l *Ledger) ConversationTotals(conversationID int) (Totals, error) {
	return l.queryTotals(`
		SELECT COUNT(*),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(cost_usd), 0)
		FROM exchanges WHERE conversation_id = ?`, conversationID)
}

// AllTimeTotals aggregates every recorded exchange.
func (l *Ledger) AllTimeTotals() (Totals, error) {
	return l.queryTotals(`
		SELECT COUNT(*),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(cost_usd), 0)
		FROM exchanges`)
}

func (l *Ledger) queryTotals(query string, args ...any) (Totals, error) {
	var t Totals
	row := l.db.QueryRow(query, args...)
	if err := row.Scan(&t.Exchanges, &t.PromptTokens, &t.CompletionTokens, &t.TotalTokens, &t.CostUSD); err != nil {
		return Totals{}, fmt.Errorf("failed to query totals: %w", err)
	}
	return t, nil
}
