package ai

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s376930/Chat-Arena/internal/event"
	"github.com/s376930/Chat-Arena/internal/persona"
	"github.com/s376930/Chat-Arena/internal/provider"
	"github.com/s376930/Chat-Arena/pkg/types"
)

func testAIConfig() types.AIConfig {
	return types.AIConfig{
		Enabled:         true,
		DefaultProvider: "scripted",
		MaxParticipants: 2,
		Behavior:        fastBehavior(),
		Memory:          types.MemoryConfig{MaxEntries: 10},
	}
}

func newTestRegistry(t *testing.T, cfg types.AIConfig) *Registry {
	t.Helper()
	event.Reset()

	providers := provider.NewRegistry(cfg.DefaultProvider)
	providers.Register(&scriptedProvider{script: []scriptedReply{
		{resp: speak("plotting", "Nice to meet you!")},
	}})

	r := NewRegistry(cfg, providers, persona.NewRegistry())
	t.Cleanup(func() { r.Shutdown(context.Background()) })
	return r
}

func TestRegistrySpawn(t *testing.T) {
	r := newTestRegistry(t, testAIConfig())
	ctx := context.Background()

	require.True(t, r.Available())

	sess, err := r.Spawn(ctx, "user_1", "sess_1", "space exploration", "argue for Mars")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sess.AIID, "ai_"))
	assert.Equal(t, "user_1", sess.PartnerID)
	assert.Equal(t, "sess_1", sess.SessionID)
	assert.Equal(t, "space exploration", sess.Topic)
	assert.Equal(t, "argue for Mars", sess.Task)
	assert.Equal(t, "scripted", sess.Provider)
	assert.Equal(t, "test-model", sess.Model)
	assert.NotEmpty(t, sess.PersonaID)
	assert.NotEmpty(t, sess.PersonaName)
	assert.True(t, sess.IsActive)
	assert.NotEmpty(t, sess.CreatedAt)

	assert.Equal(t, 1, r.Count())
	assert.True(t, r.IsAI(sess.AIID))

	participant, ok := r.Get(sess.AIID)
	require.True(t, ok)
	assert.True(t, participant.Active())
	assert.Equal(t, "user_1", participant.PartnerID())

	byPartner, ok := r.ByPartner("user_1")
	require.True(t, ok)
	assert.Equal(t, sess.AIID, byPartner.ID())
}

func TestRegistrySpawnDisabled(t *testing.T) {
	cfg := testAIConfig()
	cfg.Enabled = false
	r := newTestRegistry(t, cfg)

	assert.False(t, r.Available())

	_, err := r.Spawn(context.Background(), "user_1", "sess_1", "t", "task")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "disabled")
}

func TestRegistrySpawnWithoutProviders(t *testing.T) {
	event.Reset()
	r := NewRegistry(testAIConfig(), provider.NewRegistry("scripted"), persona.NewRegistry())

	assert.False(t, r.Available())

	_, err := r.Spawn(context.Background(), "user_1", "sess_1", "t", "task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no available LLM provider")
}

func TestRegistrySpawnRespectsLimit(t *testing.T) {
	cfg := testAIConfig()
	cfg.MaxParticipants = 1
	r := newTestRegistry(t, cfg)
	ctx := context.Background()

	_, err := r.Spawn(ctx, "user_1", "sess_1", "t", "task")
	require.NoError(t, err)

	_, err = r.Spawn(ctx, "user_2", "sess_2", "t", "task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
	assert.Equal(t, 1, r.Count())
}

func TestRegistryRemove(t *testing.T) {
	r := newTestRegistry(t, testAIConfig())
	ctx := context.Background()

	sess, err := r.Spawn(ctx, "user_1", "sess_1", "t", "task")
	require.NoError(t, err)

	participant, ok := r.Get(sess.AIID)
	require.True(t, ok)

	r.Remove(ctx, sess.AIID)

	assert.Zero(t, r.Count())
	assert.False(t, participant.Active())
	_, ok = r.Get(sess.AIID)
	assert.False(t, ok)

	// Removing an unknown ID is a no-op.
	r.Remove(ctx, "ai_missing")
}

func TestRegistryRemoveByPartner(t *testing.T) {
	r := newTestRegistry(t, testAIConfig())
	ctx := context.Background()

	_, err := r.Spawn(ctx, "user_1", "sess_1", "t", "task")
	require.NoError(t, err)

	r.RemoveByPartner(ctx, "user_1")
	assert.Zero(t, r.Count())

	r.RemoveByPartner(ctx, "user_unknown")
}

func TestRegistryForward(t *testing.T) {
	r := newTestRegistry(t, testAIConfig())
	ctx := context.Background()

	rec := &messageRecorder{}
	r.OnMessage(rec.record)

	sess, err := r.Spawn(ctx, "user_1", "sess_1", "t", "task")
	require.NoError(t, err)

	r.Forward(ctx, sess.AIID, "hello there")

	require.Equal(t, 1, rec.count())
	msg := rec.last()
	assert.Equal(t, sess.AIID, msg.aiID)
	assert.Equal(t, "Nice to meet you!", msg.speech)

	// Unknown AI IDs are logged and dropped, not delivered.
	r.Forward(ctx, "ai_missing", "anyone?")
	assert.Equal(t, 1, rec.count())
}

func TestRegistryIsAI(t *testing.T) {
	r := newTestRegistry(t, testAIConfig())

	assert.True(t, r.IsAI("ai_deadbeef"))
	assert.False(t, r.IsAI("user_deadbeef"))
}

func TestRegistrySnapshotsSorted(t *testing.T) {
	r := newTestRegistry(t, testAIConfig())
	ctx := context.Background()

	_, err := r.Spawn(ctx, "user_1", "sess_1", "t", "task")
	require.NoError(t, err)
	_, err = r.Spawn(ctx, "user_2", "sess_2", "t", "task")
	require.NoError(t, err)

	snapshots := r.Snapshots()
	require.Len(t, snapshots, 2)
	assert.Less(t, snapshots[0].AIID, snapshots[1].AIID)
	for _, snap := range snapshots {
		assert.True(t, snap.IsActive)
		assert.Equal(t, "scripted", snap.Provider)
	}
}

func TestRegistryShutdown(t *testing.T) {
	r := newTestRegistry(t, testAIConfig())
	ctx := context.Background()

	_, err := r.Spawn(ctx, "user_1", "sess_1", "t", "task")
	require.NoError(t, err)
	_, err = r.Spawn(ctx, "user_2", "sess_2", "t", "task")
	require.NoError(t, err)

	r.Shutdown(ctx)
	assert.Zero(t, r.Count())
}

func TestRegistryPublishesLifecycleEvents(t *testing.T) {
	r := newTestRegistry(t, testAIConfig())
	ctx := context.Background()

	var mu sync.Mutex
	var seen []event.EventType
	unsubscribe := event.SubscribeAll(func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
	})
	defer unsubscribe()

	sess, err := r.Spawn(ctx, "user_1", "sess_1", "t", "task")
	require.NoError(t, err)
	r.Remove(ctx, sess.AIID)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		spawned, removed := false, false
		for _, typ := range seen {
			switch typ {
			case event.AISpawned:
				spawned = true
			case event.AIRemoved:
				removed = true
			}
		}
		return spawned && removed
	}, 2*time.Second, 10*time.Millisecond)
}
