// Package session owns every conversation and message in the application.
// The store is deliberately not safe for concurrent use: all mutation
// happens on the orchestrator goroutine, and background workers reach it
// only through events. That single-writer discipline is what makes the
// rest of the program race-free without a single lock.
package session

import (
	"errors"
	"fmt"

	"github.com/parleyhq/parley/pkg/logging"
)

// Role identifies the author of a message.
type Role int

const (
	RoleUser Role = iota
	RoleModel
)

func (r Role) String() string {
	if r == RoleUser {
		return "user"
	}
	return "model"
}

// Status is a message's completion state.
type Status int

const (
	// StatusComplete is the resting state for user messages and
	// finished replies.
	StatusComplete Status = iota
	// StatusPending marks a reply that is still streaming.
	StatusPending
	// StatusFailed marks a reply whose subprocess failed; Reason says why.
	StatusFailed
)

// Message is one entry in a conversation. Content grows while a reply
// streams and freezes once the status leaves StatusPending.
type Message struct {
	ID      int64
	Role    Role
	Content string
	Status  Status
	Reason  string
}

// Conversation is an ordered, append-only thread bound to one model.
type Conversation struct {
	ID       int64
	Name     string
	Model    string
	Messages []Message
}

// LastMessage returns the newest message, or nil for an empty thread.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

var (
	// ErrNoConversation is returned when an operation targets a
	// conversation id the store does not know.
	ErrNoConversation = errors.New("no such conversation")
	// ErrReplyPending rejects a second in-flight reply for the same
	// conversation.
	ErrReplyPending = errors.New("conversation already has a pending reply")
)

type messageRef struct {
	conv  *Conversation
	index int
}

// Store holds all conversations and the active selection.
type Store struct {
	log *logging.Logger

	conversations []*Conversation
	byID          map[int64]*Conversation
	messages      map[int64]messageRef
	pending       map[int64]int64 // conversation id -> pending message id

	activeID   int64 // 0 means no selection
	nextConvID int64
	nextMsgID  int64
	dirty      bool
}

// NewStore creates an empty store.
func NewStore(log *logging.Logger) *Store {
	return &Store{
		log:      log,
		byID:     make(map[int64]*Conversation),
		messages: make(map[int64]messageRef),
		pending:  make(map[int64]int64),
	}
}

// CreateConversation appends a new empty conversation and returns its id.
// Creation order defines list order, which never changes afterwards.
func (s *Store) CreateConversation() int64 {
	s.nextConvID++
	conv := &Conversation{
		ID:   s.nextConvID,
		Name: fmt.Sprintf("Conversation %d", s.nextConvID),
	}
	s.conversations = append(s.conversations, conv)
	s.byID[conv.ID] = conv
	s.markDirty()
	return conv.ID
}

// SelectConversation makes id the active conversation.
func (s *Store) SelectConversation(id int64) error {
	if _, ok := s.byID[id]; !ok {
		return ErrNoConversation
	}
	s.activeID = id
	s.markDirty()
	return nil
}

// ActiveConversation returns the selected conversation, or nil.
func (s *Store) ActiveConversation() *Conversation {
	return s.byID[s.activeID]
}

// Conversations returns all conversations in creation order.
func (s *Store) Conversations() []*Conversation {
	return s.conversations
}

// Conversation looks up one conversation by id.
func (s *Store) Conversation(id int64) *Conversation {
	return s.byID[id]
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	return len(s.conversations)
}

// AppendUserMessage adds a complete user message to a conversation.
func (s *Store) AppendUserMessage(convID int64, text string) (int64, error) {
	conv, ok := s.byID[convID]
	if !ok {
		return 0, ErrNoConversation
	}
	id := s.appendMessage(conv, Message{Role: RoleUser, Content: text, Status: StatusComplete})
	return id, nil
}

// BeginModelReply opens a streaming model message. At most one pending
// reply may exist per conversation; a second one is rejected so the
// caller can surface the refusal to the user.
func (s *Store) BeginModelReply(convID int64) (int64, error) {
	conv, ok := s.byID[convID]
	if !ok {
		return 0, ErrNoConversation
	}
	if _, busy := s.pending[convID]; busy {
		return 0, ErrReplyPending
	}
	id := s.appendMessage(conv, Message{Role: RoleModel, Status: StatusPending})
	s.pending[convID] = id
	return id, nil
}

// AppendToReply appends a streamed chunk to a pending reply. An unknown
// or already-settled message id is tolerated with a warning: the owning
// request may have outlived its target.
func (s *Store) AppendToReply(msgID int64, chunk string) {
	msg := s.pendingMessage(msgID, "append")
	if msg == nil {
		return
	}
	msg.Content += chunk
	s.markDirty()
}

// CompleteReply settles a pending reply. status must be StatusComplete or
// StatusFailed; reason is kept only for failures.
func (s *Store) CompleteReply(msgID int64, status Status, reason string) {
	msg := s.pendingMessage(msgID, "complete")
	if msg == nil {
		return
	}
	msg.Status = status
	if status == StatusFailed {
		msg.Reason = reason
	}
	delete(s.pending, s.messages[msgID].conv.ID)
	s.markDirty()
}

// SetModel binds a model identifier to a conversation.
func (s *Store) SetModel(convID int64, modelID string) error {
	conv, ok := s.byID[convID]
	if !ok {
		return ErrNoConversation
	}
	conv.Model = modelID
	s.markDirty()
	return nil
}

// HasPendingReply reports whether a conversation has a streaming reply.
func (s *Store) HasPendingReply(convID int64) bool {
	_, ok := s.pending[convID]
	return ok
}

// PendingCount returns the number of in-flight replies across all
// conversations.
func (s *Store) PendingCount() int {
	return len(s.pending)
}

// ConsumeDirty reports whether state changed since the last call and
// resets the flag. The orchestrator renders when it returns true.
func (s *Store) ConsumeDirty() bool {
	d := s.dirty
	s.dirty = false
	return d
}

func (s *Store) appendMessage(conv *Conversation, msg Message) int64 {
	s.nextMsgID++
	msg.ID = s.nextMsgID
	conv.Messages = append(conv.Messages, msg)
	s.messages[msg.ID] = messageRef{conv: conv, index: len(conv.Messages) - 1}
	s.markDirty()
	return msg.ID
}

// pendingMessage resolves a message id that should be a pending reply.
// Anything else is a stale event from a worker; log and ignore it.
func (s *Store) pendingMessage(msgID int64, op string) *Message {
	ref, ok := s.messages[msgID]
	if !ok {
		s.log.Warn("session", "event for unknown message", map[string]any{"op": op, "message_id": msgID})
		return nil
	}
	msg := &ref.conv.Messages[ref.index]
	if msg.Status != StatusPending {
		s.log.Warn("session", "event for settled message", map[string]any{"op": op, "message_id": msgID})
		return nil
	}
	return msg
}

func (s *Store) markDirty() {
	s.dirty = true
}
