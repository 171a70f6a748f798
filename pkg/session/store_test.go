package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAndSelect(t *testing.T) {
	s := NewStore(nil)
	require.Equal(t, 0, s.Len())
	require.Nil(t, s.ActiveConversation())

	id := s.CreateConversation()
	require.Equal(t, 1, s.Len())
	require.Empty(t, s.Conversation(id).Messages)

	require.NoError(t, s.SelectConversation(id))
	require.Equal(t, id, s.ActiveConversation().ID)
	require.ErrorIs(t, s.SelectConversation(999), ErrNoConversation)
}

func TestListOrderIsCreationOrder(t *testing.T) {
	s := NewStore(nil)
	first := s.CreateConversation()
	second := s.CreateConversation()
	third := s.CreateConversation()

	// Background completions on older conversations must not reorder
	// the list.
	mid, err := s.BeginModelReply(second)
	require.NoError(t, err)
	s.AppendToReply(mid, "late data")
	s.CompleteReply(mid, StatusComplete, "")

	convs := s.Conversations()
	require.Equal(t, []int64{first, second, third},
		[]int64{convs[0].ID, convs[1].ID, convs[2].ID})
}

func TestSingleInFlightReplyPerConversation(t *testing.T) {
	s := NewStore(nil)
	a := s.CreateConversation()
	b := s.CreateConversation()

	replyA, err := s.BeginModelReply(a)
	require.NoError(t, err)
	require.True(t, s.HasPendingReply(a))

	_, err = s.BeginModelReply(a)
	require.ErrorIs(t, err, ErrReplyPending)

	// A different conversation is unaffected.
	replyB, err := s.BeginModelReply(b)
	require.NoError(t, err)
	require.Equal(t, 2, s.PendingCount())

	s.CompleteReply(replyA, StatusComplete, "")
	require.False(t, s.HasPendingReply(a))
	require.True(t, s.HasPendingReply(b))

	// Once settled, a new reply is allowed again.
	_, err = s.BeginModelReply(a)
	require.NoError(t, err)
	_ = replyB
}

func TestChunksApplyInOrder(t *testing.T) {
	s := NewStore(nil)
	conv := s.CreateConversation()
	other := s.CreateConversation()

	reply, err := s.BeginModelReply(conv)
	require.NoError(t, err)
	otherReply, err := s.BeginModelReply(other)
	require.NoError(t, err)

	// Interleave with another conversation's traffic.
	s.AppendToReply(reply, "The answer")
	s.AppendToReply(otherReply, "unrelated")
	s.AppendToReply(reply, " is ")
	s.AppendToReply(otherReply, " noise")
	s.AppendToReply(reply, "42.")

	s.CompleteReply(reply, StatusComplete, "")
	msg := s.Conversation(conv).LastMessage()
	require.Equal(t, "The answer is 42.", msg.Content)
	require.Equal(t, StatusComplete, msg.Status)
}

func TestFailedReplyKeepsReason(t *testing.T) {
	s := NewStore(nil)
	conv := s.CreateConversation()
	reply, err := s.BeginModelReply(conv)
	require.NoError(t, err)

	s.AppendToReply(reply, "partial out")
	s.CompleteReply(reply, StatusFailed, "exit status 2: model not found")

	msg := s.Conversation(conv).LastMessage()
	require.Equal(t, StatusFailed, msg.Status)
	require.Equal(t, "exit status 2: model not found", msg.Reason)
	require.Equal(t, "partial out", msg.Content)
	require.False(t, s.HasPendingReply(conv))
}

func TestUnknownMessageTargetIsNoOp(t *testing.T) {
	s := NewStore(nil)
	conv := s.CreateConversation()
	userID, err := s.AppendUserMessage(conv, "hello")
	require.NoError(t, err)

	// Unknown id: ignored.
	s.AppendToReply(12345, "ghost chunk")
	s.CompleteReply(12345, StatusComplete, "")

	// A settled (user) message is equally off limits.
	s.AppendToReply(userID, "ghost chunk")
	require.Equal(t, "hello", s.Conversation(conv).Messages[0].Content)
}

func TestSetModel(t *testing.T) {
	s := NewStore(nil)
	conv := s.CreateConversation()
	require.NoError(t, s.SetModel(conv, "haiku"))
	require.Equal(t, "haiku", s.Conversation(conv).Model)
	require.ErrorIs(t, s.SetModel(999, "haiku"), ErrNoConversation)
}

func TestDirtyFlag(t *testing.T) {
	s := NewStore(nil)
	require.False(t, s.ConsumeDirty())

	s.CreateConversation()
	require.True(t, s.ConsumeDirty())
	require.False(t, s.ConsumeDirty())

	// No-op events do not mark the store dirty.
	s.AppendToReply(12345, "ghost")
	require.False(t, s.ConsumeDirty())
}

// Mirrors the end-to-end flow: new conversation, user sends "2+2?", the
// subprocess streams "4" and exits cleanly.
func TestSendAndStreamScenario(t *testing.T) {
	s := NewStore(nil)
	require.Equal(t, 0, s.Len())

	conv := s.CreateConversation()
	require.Equal(t, 1, s.Len())
	require.Empty(t, s.Conversation(conv).Messages)

	_, err := s.AppendUserMessage(conv, "2+2?")
	require.NoError(t, err)
	reply, err := s.BeginModelReply(conv)
	require.NoError(t, err)
	require.Equal(t, 1, s.PendingCount())

	s.AppendToReply(reply, "4")
	s.CompleteReply(reply, StatusComplete, "")

	msgs := s.Conversation(conv).Messages
	require.Len(t, msgs, 2)
	require.Equal(t, "2+2?", msgs[0].Content)
	require.Equal(t, "4", msgs[1].Content)
	require.Equal(t, StatusComplete, msgs[1].Status)
	require.Equal(t, 0, s.PendingCount())
}
