package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyMatchingKey(t *testing.T) {
	hub := NewHub(4)

	alice, cleanupAlice := hub.Subscribe("alice")
	defer cleanupAlice()
	bob, cleanupBob := hub.Subscribe("bob")
	defer cleanupBob()

	hub.Publish(Event{Key: "alice", Name: "record.updated", Data: "x"})

	require.Len(t, alice, 1)
	got := <-alice
	assert.Equal(t, "record.updated", got.Name)
	assert.Equal(t, "x", got.Data)
	assert.Len(t, bob, 0)
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(1)
	ch, cleanup := hub.Subscribe("alice")
	defer cleanup()

	hub.Publish(Event{Key: "alice", Name: "first"})
	hub.Publish(Event{Key: "alice", Name: "second"})

	require.Len(t, ch, 1)
	assert.Equal(t, "first", (<-ch).Name)
}

func TestHub_CleanupUnsubscribes(t *testing.T) {
	hub := NewHub(0)
	ch, cleanup := hub.Subscribe("alice")
	assert.Equal(t, 1, hub.SubscriberCount("alice"))

	cleanup()
	cleanup()

	assert.Equal(t, 0, hub.SubscriberCount("alice"))
	_, open := <-ch
	assert.False(t, open)

	// Publishing to a key without streams is a no-op
	hub.Publish(Event{Key: "alice", Name: "ignored"})
}
