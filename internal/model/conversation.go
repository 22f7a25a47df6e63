// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// DefaultPersonality is the system prompt given to conversations created
// without an explicit persona.
const DefaultPersonality = "You are a helpful assistant. Answer concisely and clearly."

// MaxPersonalityLen caps the length of a persona edited through the UI,
// in runes.
const MaxPersonalityLen = 1000

// HistoryWindow is the number of trailing messages sent to the completion
// API alongside a new prompt.
const HistoryWindow = 10

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a named chat transcript and its persona.
// The zero ID is never valid; ids are assigned by the store.
type Conversation struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Personality string    `json:"personality"`
	Messages    []Message `json:"messages"`
}

// NewConversation creates a conversation with the default name for the
// given id. An empty personality falls back to DefaultPersonality.
func NewConversation(id int, personality string) *Conversation {
	if personality == "" {
		personality = DefaultPersonality
	}
	return &Conversation{
		ID:          id,
		Name:        fmt.Sprintf("Conversation %d", id),
		Personality: personality,
		Messages:    make([]Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddUserMessage appends a user message to the transcript.
func (c *Conversation) AddUserMessage(content string) Message {
	msg := NewUserMessage(content)
	c.Messages = append(c.Messages, msg)
	return msg
}

// AddAssistantMessage appends an assistant message with its token usage.
func (c *Conversation) AddAssistantMessage(content string, usage Usage) Message {
	msg := NewAssistantMessage(content, usage)
	c.Messages = append(c.Messages, msg)
	return msg
}

// Window returns the most recent n messages of the transcript. It returns
// the full transcript when it holds fewer than n messages.
func (c *Conversation) Window(n int) []Message {
	if n <= 0 {
		return nil
	}
	if len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// LastMessage returns the most recent message, or a zero Message if empty.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:          c.ID,
		Name:        c.Name,
		Personality: c.Personality,
		Messages:    make([]Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		if msg.Usage != nil {
			usage := *msg.Usage
			msg.Usage = &usage
		}
		clone.Messages[i] = msg
	}
	return clone
}
