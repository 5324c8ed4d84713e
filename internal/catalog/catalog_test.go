package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s376930/Chat-Arena/internal/storage"
	"github.com/s376930/Chat-Arena/pkg/types"
)

func newTestStore(t *testing.T) (*Store, *storage.Storage) {
	t.Helper()
	st := storage.New(t.TempDir())
	return New(st), st
}

func TestConsentFallback(t *testing.T) {
	s, _ := newTestStore(t)

	doc := s.Consent()
	assert.Equal(t, "Research Participation Consent", doc.Title)
	assert.Equal(t, "1.0", doc.Version)
	assert.Len(t, doc.Checkboxes, 2)
}

func TestSetConsentPersists(t *testing.T) {
	ctx := context.Background()
	st := storage.New(t.TempDir())
	s := New(st)

	doc := types.ConsentDocument{
		Title:      "Study Consent",
		Version:    "2.0",
		Content:    "Updated terms.",
		Checkboxes: []string{"I agree"},
	}
	require.NoError(t, s.SetConsent(ctx, doc))
	assert.Equal(t, "Study Consent", s.Consent().Title)

	// A fresh store over the same directory sees the saved document
	fresh := New(st)
	assert.Equal(t, "2.0", fresh.Consent().Version)
	assert.Equal(t, []string{"I agree"}, fresh.Consent().Checkboxes)
}

func TestAddTopicAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first, err := s.AddTopic(ctx, "Favorite books")
	require.NoError(t, err)
	second, err := s.AddTopic(ctx, "Travel stories")
	require.NoError(t, err)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Len(t, s.Topics(), 2)
}

func TestUpdateTopic(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	topic, err := s.AddTopic(ctx, "Old text")
	require.NoError(t, err)

	updated, err := s.UpdateTopic(ctx, topic.ID, "New text")
	require.NoError(t, err)
	assert.Equal(t, "New text", updated.Text)
	assert.Equal(t, "New text", s.Topics()[0].Text)

	_, err = s.UpdateTopic(ctx, 999, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTopic(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	topic, err := s.AddTopic(ctx, "Disposable")
	require.NoError(t, err)

	require.NoError(t, s.DeleteTopic(ctx, topic.ID))
	assert.Empty(t, s.Topics())

	assert.ErrorIs(t, s.DeleteTopic(ctx, topic.ID), ErrNotFound)
}

func TestTaskCRUD(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	task, err := s.AddTask(ctx, "Convince your partner")
	require.NoError(t, err)
	assert.Equal(t, 1, task.ID)

	updated, err := s.UpdateTask(ctx, task.ID, "Listen actively")
	require.NoError(t, err)
	assert.Equal(t, "Listen actively", updated.Text)

	_, err = s.UpdateTask(ctx, 42, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	assert.Empty(t, s.Tasks())
	assert.ErrorIs(t, s.DeleteTask(ctx, task.ID), ErrNotFound)
}

func TestRandomTopicEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok := s.RandomTopic()
	assert.False(t, ok)
}

func TestRandomTopicReturnsMember(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.AddTopic(ctx, "Only topic")
	require.NoError(t, err)

	topic, ok := s.RandomTopic()
	require.True(t, ok)
	assert.Equal(t, "Only topic", topic.Text)
}

func TestRandomTasks(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	assert.Nil(t, s.RandomTasks(2))

	_, err := s.AddTask(ctx, "Task one")
	require.NoError(t, err)

	// Fewer tasks than requested returns all of them
	assert.Len(t, s.RandomTasks(2), 1)

	_, err = s.AddTask(ctx, "Task two")
	require.NoError(t, err)
	_, err = s.AddTask(ctx, "Task three")
	require.NoError(t, err)

	pair := s.RandomTasks(2)
	require.Len(t, pair, 2)
	assert.NotEqual(t, pair[0].ID, pair[1].ID)
}

func TestReloadPicksUpExternalWrites(t *testing.T) {
	ctx := context.Background()
	st := storage.New(t.TempDir())
	s := New(st)
	assert.Empty(t, s.Topics())

	// Simulate an out-of-band edit to the catalog file
	data := types.TopicsTasks{
		Topics: []types.Topic{{ID: 7, Text: "External topic"}},
		Tasks:  []types.Task{{ID: 3, Text: "External task"}},
	}
	require.NoError(t, st.Put(ctx, []string{"topics_tasks"}, data))

	s.Reload(ctx)
	require.Len(t, s.Topics(), 1)
	assert.Equal(t, 7, s.Topics()[0].ID)
	assert.Equal(t, "External task", s.Tasks()[0].Text)
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := storage.New(dir)
	s := New(st)

	w, err := NewWatcher(dir, s)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	data := types.TopicsTasks{Topics: []types.Topic{{ID: 1, Text: "Watched topic"}}}
	require.NoError(t, st.Put(ctx, []string{"topics_tasks"}, data))

	require.Eventually(t, func() bool {
		return len(s.Topics()) == 1
	}, 2*time.Second, 20*time.Millisecond, "watcher should reload the catalog")
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	st := storage.New(dir)
	s := New(st)

	w, err := NewWatcher(dir, s)
	require.NoError(t, err)
	w.Start()

	require.NoError(t, w.Stop())
	// Second stop must not panic or hang
	require.NoError(t, w.Stop())
}
