package memory

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_EmptyHistory(t *testing.T) {
	sess := NewStore(0).Session("")
	history, err := sess.LoadHistory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSession_AppendAndLoadInOrder(t *testing.T) {
	ctx := context.Background()
	sess := NewStore(0).Session("s1")

	require.NoError(t, sess.AppendTurn(ctx, "hello", "hi there"))
	require.NoError(t, sess.AppendTurn(ctx, "how are you?", "great"))

	history, err := sess.LoadHistory(ctx)
	require.NoError(t, err)

	assert.Contains(t, history, "Human: hello")
	assert.Contains(t, history, "AI: hi there")
	assert.Contains(t, history, "Human: how are you?")
	// Oldest first.
	assert.Less(t,
		strings.Index(history, "hello"),
		strings.Index(history, "how are you?"))
}

func TestSession_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	sess := NewStore(2).Session("")

	for i := 0; i < 5; i++ {
		require.NoError(t, sess.AppendTurn(ctx,
			fmt.Sprintf("question %d", i),
			fmt.Sprintf("answer %d", i)))
	}

	n, err := sess.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n) // 2 turns = 4 messages

	history, err := sess.LoadHistory(ctx)
	require.NoError(t, err)
	assert.NotContains(t, history, "question 0")
	assert.NotContains(t, history, "question 2")
	assert.Contains(t, history, "question 3")
	assert.Contains(t, history, "question 4")
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)

	a := store.Session("a")
	b := store.Session("b")
	require.NoError(t, a.AppendTurn(ctx, "secret", "noted"))

	historyB, err := b.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, historyB)
}

func TestStore_SameIDSameSession(t *testing.T) {
	store := NewStore(0)
	assert.Same(t, store.Session("x"), store.Session("x"))
	assert.NotSame(t, store.Session("x"), store.Session("y"))
}

func TestStore_NewSessionIDUnique(t *testing.T) {
	store := NewStore(0)
	a := store.NewSessionID()
	b := store.NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
