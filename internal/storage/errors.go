// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// =============================================================================
// ERRORS
// =============================================================================

// Sentinel errors for store operations. Compare with errors.Is.
var (
	// ErrConversationNotFound is returned when a conversation doesn't exist.
	ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

	// ErrLastConversation is returned when deleting the only conversation.
	ErrLastConversation = &ConversationError{Message: "cannot delete the last conversation"}

	// ErrActiveConversation is returned when deleting the active conversation.
	ErrActiveConversation = &ConversationError{Message: "cannot delete the active conversation"}

	// ErrCorruptStore is returned when the active pointer or the record it
	// references cannot be read back. The caller should fail loudly rather
	// than fabricate state.
	ErrCorruptStore = &ConversationError{Message: "conversation store is corrupt"}
)

// ConversationError represents a conversation-related error.
// It implements the error interface and can be compared using errors.Is.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
