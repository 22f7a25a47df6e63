// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// parley is a single-user terminal chat client for OpenAI-compatible APIs.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/morganforge/parley/internal/config"
	"github.com/morganforge/parley/internal/llm"
	"github.com/morganforge/parley/internal/storage"
	"github.com/morganforge/parley/internal/telemetry"
	"github.com/morganforge/parley/internal/ui/chat"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Best effort: a missing .env file is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}

	store := storage.NewStore(dataDir)
	conv, err := store.Bootstrap()
	if err != nil {
		if errors.Is(err, storage.ErrCorruptStore) {
			return fmt.Errorf("%w\nfix or remove the files under %s and try again", err, dataDir)
		}
		return err
	}

	ledger, err := telemetry.OpenLedger(filepath.Join(dataDir, "usage.db"))
	if err != nil {
		return err
	}
	defer ledger.Close()

	apiKey := llm.ResolveAPIKey("")
	if apiKey != "" && !llm.ValidateAPIKey(apiKey) {
		// Malformed env keys fall through to the in-app prompt
		apiKey = ""
	}

	m := chat.New(cfg, store, ledger, conv, apiKey)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}
	return nil
}
