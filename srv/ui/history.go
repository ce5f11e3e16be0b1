package ui

import (
	"sync"
	"time"
)

// Message is one line of the progress log shown on the workflow page.
type Message struct {
	Text      string    `json:"text"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

// maxMessages bounds the progress log kept per session.
const maxMessages = 200

type MessageHistory struct {
	Messages []Message `json:"messages"`
	mu       sync.RWMutex
}

func (h *MessageHistory) AddMessage(level, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Messages = append(h.Messages, Message{Text: text, Level: level, Timestamp: time.Now()})
	if len(h.Messages) > maxMessages {
		h.Messages = h.Messages[len(h.Messages)-maxMessages:]
	}
}

// UpdateOutput records chapter generation progress.
func (h *MessageHistory) UpdateOutput(message string) {
	h.AddMessage("info", message)
}

func (h *MessageHistory) GetMessages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	messages := make([]Message, len(h.Messages))
	copy(messages, h.Messages)
	return messages
}
