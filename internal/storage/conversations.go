// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for parley.
//
// Each conversation is one JSON file under <baseDir>/conversations/, named
// <id>.json. A separate <baseDir>/current.json pointer file records which
// conversation is active. Every mutation writes the record first and the
// pointer second, so the pointer never references a record that was not yet
// written. The store assumes a single process owns the directory.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/morganforge/parley/internal/model"
	"github.com/morganforge/parley/internal/util"
)

// =============================================================================
// STORE TYPE
// =============================================================================

// Summary contains the metadata needed to list a conversation.
type Summary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// activePointer is the on-disk shape of current.json.
type activePointer struct {
	CurrentConversationID int `json:"current_conversation_id"`
}

// Store handles conversation persistence and the active pointer.
type Store struct {
	baseDir  string
	activeID int
}

// NewStore creates a store rooted at baseDir. The directory tree is created
// lazily on first write.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

// Bootstrap prepares the store for a session and returns the active
// conversation. On first run (no records, no pointer file) it creates
// conversation 1 with the default persona, persists it, and points at it.
// On later runs it loads the pointer and the record it references; a
// pointer that cannot be parsed, references a missing or unparseable
// record, or is absent while records exist is ErrCorruptStore.
func (s *Store) Bootstrap() (*model.Conversation, error) {
	data, err := os.ReadFile(s.pointerPath())
	if err != nil {
		if os.IsNotExist(err) {
			maxID, maxErr := s.maxID()
			if maxErr != nil {
				return nil, maxErr
			}
			if maxID > 0 {
				return nil, fmt.Errorf("%w: conversation records exist but the active pointer is missing", ErrCorruptStore)
			}
			return s.Create("")
		}
		return nil, fmt.Errorf("failed to read active pointer: %w", err)
	}

	var ptr activePointer
	if err := json.Unmarshal(data, &ptr); err != nil {
		return nil, fmt.Errorf("%w: unparseable active pointer: %v", ErrCorruptStore, err)
	}

	conv, err := s.load(ptr.CurrentConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: active pointer references conversation %d: %v",
			ErrCorruptStore, ptr.CurrentConversationID, err)
	}

	s.activeID = conv.ID
	return conv, nil
}

// =============================================================================
// CREATE / SWITCH
// =============================================================================

// Create makes a new conversation with the next free id and switches to it.
// An empty personality falls back to the default persona.
func (s *Store) Create(personality string) (*model.Conversation, error) {
	maxID, err := s.maxID()
	if err != nil {
		return nil, err
	}

	conv := model.NewConversation(maxID+1, personality)
	if err := s.save(conv); err != nil {
		return nil, err
	}
	if err := s.setPointer(conv.ID); err != nil {
		return nil, err
	}

	s.activeID = conv.ID
	return conv, nil
}

// SwitchActive makes the given conversation active and returns it.
func (s *Store) SwitchActive(id int) (*model.Conversation, error) {
	conv, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := s.setPointer(id); err != nil {
		return nil, err
	}

	s.activeID = id
	return conv, nil
}

// ActiveID returns the id of the active conversation.
func (s *Store) ActiveID() int {
	return s.activeID
}

// =============================================================================
// LIST
// =============================================================================

// List returns summaries of every stored conversation, newest id first.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.conversationsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("failed to read conversations directory: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}

		conv, err := s.load(id)
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{ID: conv.ID, Name: conv.Name})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID > summaries[j].ID
	})

	return summaries, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a conversation. The last remaining conversation and the
// active conversation cannot be deleted; the store is left unchanged when a
// guard fires.
func (s *Store) Delete(id int) error {
	summaries, err := s.List()
	if err != nil {
		return err
	}
	if len(summaries) <= 1 {
		return ErrLastConversation
	}
	if id == s.activeID {
		return ErrActiveConversation
	}

	if err := os.Remove(s.recordPath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("failed to delete conversation %d: %w", id, err)
	}
	return nil
}

// =============================================================================
// FIELD UPDATES
// =============================================================================

// ReplaceMessages overwrites a conversation's transcript and persists it.
func (s *Store) ReplaceMessages(id int, msgs []model.Message) error {
	return s.update(id, func(conv *model.Conversation) {
		conv.Messages = msgs
	})
}

// Rename sets a conversation's display name and persists it.
func (s *Store) Rename(id int, name string) error {
	return s.update(id, func(conv *model.Conversation) {
		conv.Name = name
	})
}

// SetPersonality sets a conversation's persona and persists it.
func (s *Store) SetPersonality(id int, personality string) error {
	return s.update(id, func(conv *model.Conversation) {
		conv.Personality = personality
	})
}

// Load retrieves a conversation by id without changing the active pointer.
func (s *Store) Load(id int) (*model.Conversation, error) {
	return s.load(id)
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

func (s *Store) update(id int, mutate func(*model.Conversation)) error {
	conv, err := s.load(id)
	if err != nil {
		return err
	}
	mutate(conv)
	return s.save(conv)
}

func (s *Store) load(id int) (*model.Conversation, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to read conversation %d: %w", id, err)
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse conversation %d: %w", id, err)
	}
	if conv.Messages == nil {
		conv.Messages = make([]model.Message, 0)
	}
	return &conv, nil
}

func (s *Store) save(conv *model.Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode conversation %d: %w", conv.ID, err)
	}
	if err := util.AtomicWriteFile(s.recordPath(conv.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write conversation %d: %w", conv.ID, err)
	}
	return nil
}

func (s *Store) setPointer(id int) error {
	data, err := json.MarshalIndent(activePointer{CurrentConversationID: id}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode active pointer: %w", err)
	}
	if err := util.AtomicWriteFile(s.pointerPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write active pointer: %w", err)
	}
	return nil
}

// maxID returns the highest existing conversation id, or 0 when the store
// is empty.
func (s *Store) maxID() (int, error) {
	entries, err := os.ReadDir(s.conversationsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read conversations directory: %w", err)
	}

	max := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (s *Store) conversationsDir() string {
	return filepath.Join(s.baseDir, "conversations")
}

func (s *Store) recordPath(id int) string {
	return filepath.Join(s.conversationsDir(), strconv.Itoa(id)+".json")
}

func (s *Store) pointerPath() string {
	return filepath.Join(s.baseDir, "current.json")
}
