package session

import (
	"encoding/json"
	"fmt"
	"os/exec"
)

// logEntry mirrors one record of `llm logs list --json`.
type logEntry struct {
	ConversationID   string `json:"conversation_id"`
	ConversationName string `json:"conversation_name"`
	Model            string `json:"model"`
	Prompt           string `json:"prompt"`
	Response         string `json:"response"`
}

// FetchHistory runs `<binary> logs list --json` and returns the raw
// output. It is meant to run off the orchestrator goroutine; the result
// is folded in with ImportLogs.
func FetchHistory(binary string) ([]byte, error) {
	out, err := exec.Command(binary, "logs", "list", "--json").Output()
	if err != nil {
		return nil, fmt.Errorf("run %s logs list: %w", binary, err)
	}
	return out, nil
}

// ImportLogs rebuilds conversations from the CLI's log listing and
// appends them to the store. The listing is newest-first, so entries are
// walked in reverse and consecutive entries sharing a conversation id
// become one thread with prompt/response pairs in chronological order.
// Returns the number of conversations imported.
func (s *Store) ImportLogs(data []byte) (int, error) {
	var entries []logEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parse log listing: %w", err)
	}

	imported := 0
	var current *Conversation
	var currentSourceID string
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if current == nil || e.ConversationID != currentSourceID {
			id := s.CreateConversation()
			current = s.byID[id]
			currentSourceID = e.ConversationID
			if e.ConversationName != "" {
				current.Name = e.ConversationName
			}
			if e.Model != "" {
				current.Model = e.Model
			}
			imported++
		}
		s.appendMessage(current, Message{Role: RoleUser, Content: e.Prompt, Status: StatusComplete})
		s.appendMessage(current, Message{Role: RoleModel, Content: e.Response, Status: StatusComplete})
	}
	return imported, nil
}
