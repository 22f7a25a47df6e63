// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := OpenLedger(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndConversationTotals(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Record(Exchange{
		ConversationID:   1,
		Model:            "gpt-4o-mini",
		PromptTokens:     1000,
		CompletionTokens: 500,
		TotalTokens:      1500,
		CostUSD:          0.00045,
	}))
	require.NoError(t, l.Record(Exchange{
		ConversationID:   1,
		Model:            "gpt-4o",
		PromptTokens:     200,
		CompletionTokens: 100,
		TotalTokens:      300,
		CostUSD:          0.0025,
	}))
	require.NoError(t, l.Record(Exchange{
		ConversationID:   2,
		Model:            "gpt-4o-mini",
		PromptTokens:     50,
		CompletionTokens: 25,
		TotalTokens:      75,
		CostUSD:          0.0000225,
	}))

	totals, err := l.ConversationTotals(1)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Exchanges)
	assert.Equal(t, 1200, totals.PromptTokens)
	assert.Equal(t, 600, totals.CompletionTokens)
	assert.Equal(t, 1800, totals.TotalTokens)
	assert.InDelta(t, 0.00295, totals.CostUSD, 1e-9)
}

func TestAllTimeTotals(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Record(Exchange{ConversationID: 1, Model: "gpt-4o", TotalTokens: 10, CostUSD: 0.001}))
	require.NoError(t, l.Record(Exchange{ConversationID: 2, Model: "gpt-4o", TotalTokens: 20, CostUSD: 0.002}))

	totals, err := l.AllTimeTotals()
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Exchanges)
	assert.Equal(t, 30, totals.TotalTokens)
	assert.InDelta(t, 0.003, totals.CostUSD, 1e-9)
}

func TestTotalsEmptyLedger(t *testing.T) {
	l := newTestLedger(t)

	totals, err := l.ConversationTotals(1)
	require.NoError(t, err)
	assert.Zero(t, totals.Exchanges)
	assert.Zero(t, totals.CostUSD)

	all, err := l.AllTimeTotals()
	require.NoError(t, err)
	assert.Zero(t, all.Exchanges)
}

func TestPurgeConversation(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Record(Exchange{ConversationID: 1, Model: "gpt-4o", TotalTokens: 10, CostUSD: 0.001}))
	require.NoError(t, l.Record(Exchange{ConversationID: 2, Model: "gpt-4o", TotalTokens: 20, CostUSD: 0.002}))

	require.NoError(t, l.PurgeConversation(1))

	gone, err := l.ConversationTotals(1)
	require.NoError(t, err)
	assert.Zero(t, gone.Exchanges)

	kept, err := l.ConversationTotals(2)
	require.NoError(t, err)
	assert.Equal(t, 1, kept.Exchanges)
}

func TestRecordFillsTimestamp(t *testing.T) {
	l := newTestLedger(t)

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, l.Record(Exchange{ConversationID: 1, Model: "gpt-4o"}))

	var recorded string
	require.NoError(t, l.db.QueryRow(`SELECT recorded_at FROM exchanges`).Scan(&recorded))

	ts, err := time.Parse(time.RFC3339, recorded)
	require.NoError(t, err)
	assert.True(t, ts.After(before), "recorded_at should default to now")
}

func TestLedgerPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")

	l, err := OpenLedger(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(Exchange{ConversationID: 1, Model: "gpt-4o", TotalTokens: 5, CostUSD: 0.0005}))
	require.NoError(t, l.Close())

	reopened, err := OpenLedger(path)
	require.NoError(t, err)
	defer reopened.Close()

	totals, err := reopened.AllTimeTotals()
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Exchanges)
	assert.Equal(t, 5, totals.TotalTokens)
}
