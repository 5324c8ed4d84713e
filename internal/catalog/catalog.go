// Package catalog serves the topic/task catalog and the consent document
// from the data directory, with an in-memory cache for the hot pairing path.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/storage"
	"github.com/s376930/Chat-Arena/pkg/types"
)

const (
	topicsTasksKey = "topics_tasks"
	consentKey     = "consent"
)

// ErrNotFound is returned when a topic or task ID does not exist.
var ErrNotFound = errors.New("not found")

// DefaultConsent is served when no consent document has been configured.
var DefaultConsent = types.ConsentDocument{
	Title:   "Research Participation Consent",
	Version: "1.0",
	Content: "By participating, you agree to have your conversation data collected for research purposes.",
	Checkboxes: []string{
		"I am 18 years or older",
		"I consent to data collection for research",
	},
}

// Store is the catalog store. Reads hit the in-memory cache; admin edits go
// through storage and refresh the cache. Reload re-reads everything from disk
// and is also triggered by the file watcher when the catalog files change
// underneath the server.
type Store struct {
	storage *storage.Storage
	log     zerolog.Logger

	mu      sync.RWMutex
	topics  []types.Topic
	tasks   []types.Task
	consent *types.ConsentDocument // nil serves DefaultConsent
}

// New creates a catalog store and primes the cache from storage.
func New(store *storage.Storage) *Store {
	s := &Store{
		storage: store,
		log:     logging.Component("catalog"),
	}
	s.Reload(context.Background())
	return s
}

// Reload refreshes the cached catalogs from storage. A missing topics/tasks
// file yields empty catalogs; a missing consent file falls back to the
// built-in document.
func (s *Store) Reload(ctx context.Context) {
	var tt types.TopicsTasks
	if err := s.storage.Get(ctx, []string{topicsTasksKey}, &tt); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn().Err(err).Msg("failed to load topics/tasks")
	}

	var consent *types.ConsentDocument
	var doc types.ConsentDocument
	err := s.storage.Get(ctx, []string{consentKey}, &doc)
	switch {
	case err == nil:
		consent = &doc
	case !errors.Is(err, storage.ErrNotFound):
		s.log.Warn().Err(err).Msg("failed to load consent document")
	}

	s.mu.Lock()
	s.topics = tt.Topics
	s.tasks = tt.Tasks
	s.consent = consent
	s.mu.Unlock()

	s.log.Debug().
		Int("topics", len(tt.Topics)).
		Int("tasks", len(tt.Tasks)).
		Msg("catalog reloaded")
}

// Topics returns a copy of all topics.
func (s *Store) Topics() []types.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Topic(nil), s.topics...)
}

// Tasks returns a copy of all tasks.
func (s *Store) Tasks() []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Task(nil), s.tasks...)
}

// RandomTopic returns a uniformly random topic. ok is false when the catalog
// is empty.
func (s *Store) RandomTopic() (topic types.Topic, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.topics) == 0 {
		return types.Topic{}, false
	}
	return s.topics[rand.Intn(len(s.topics))], true
}

// RandomTasks returns up to count distinct random tasks. When the catalog
// holds fewer than count tasks, all of them are returned.
func (s *Store) RandomTasks(count int) []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.tasks) == 0 {
		return nil
	}
	if len(s.tasks) <= count {
		return append([]types.Task(nil), s.tasks...)
	}
	out := make([]types.Task, 0, count)
	for _, i := range rand.Perm(len(s.tasks))[:count] {
		out = append(out, s.tasks[i])
	}
	return out
}

// Consent returns the active consent document.
func (s *Store) Consent() types.ConsentDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.consent == nil {
		return DefaultConsent
	}
	return *s.consent
}

// SetConsent replaces the consent document and persists it.
func (s *Store) SetConsent(ctx context.Context, doc types.ConsentDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Put(ctx, []string{consentKey}, doc); err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	s.consent = &doc
	return nil
}

// AddTopic appends a topic under the next free ID and persists the catalog.
func (s *Store) AddTopic(ctx context.Context, text string) (types.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic := types.Topic{ID: nextTopicID(s.topics), Text: text}
	topics := append(append([]types.Topic(nil), s.topics...), topic)
	if err := s.persist(ctx, topics, s.tasks); err != nil {
		return types.Topic{}, err
	}
	s.topics = topics
	return topic, nil
}

// UpdateTopic rewrites the text of an existing topic.
func (s *Store) UpdateTopic(ctx context.Context, id int, text string) (types.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topics := append([]types.Topic(nil), s.topics...)
	for i := range topics {
		if topics[i].ID != id {
			continue
		}
		topics[i].Text = text
		if err := s.persist(ctx, topics, s.tasks); err != nil {
			return types.Topic{}, err
		}
		s.topics = topics
		return topics[i], nil
	}
	return types.Topic{}, ErrNotFound
}

// DeleteTopic removes a topic by ID.
func (s *Store) DeleteTopic(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topics := make([]types.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		if t.ID != id {
			topics = append(topics, t)
		}
	}
	if len(topics) == len(s.topics) {
		return ErrNotFound
	}
	if err := s.persist(ctx, topics, s.tasks); err != nil {
		return err
	}
	s.topics = topics
	return nil
}

// AddTask appends a task under the next free ID and persists the catalog.
func (s *Store) AddTask(ctx context.Context, text string) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := types.Task{ID: nextTaskID(s.tasks), Text: text}
	tasks := append(append([]types.Task(nil), s.tasks...), task)
	if err := s.persist(ctx, s.topics, tasks); err != nil {
		return types.Task{}, err
	}
	s.tasks = tasks
	return task, nil
}

// UpdateTask rewrites the text of an existing task.
func (s *Store) UpdateTask(ctx context.Context, id int, text string) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := append([]types.Task(nil), s.tasks...)
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		tasks[i].Text = text
		if err := s.persist(ctx, s.topics, tasks); err != nil {
			return types.Task{}, err
		}
		s.tasks = tasks
		return tasks[i], nil
	}
	return types.Task{}, ErrNotFound
}

// DeleteTask removes a task by ID.
func (s *Store) DeleteTask(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]types.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.ID != id {
			tasks = append(tasks, t)
		}
	}
	if len(tasks) == len(s.tasks) {
		return ErrNotFound
	}
	if err := s.persist(ctx, s.topics, tasks); err != nil {
		return err
	}
	s.tasks = tasks
	return nil
}

// persist writes the full catalog. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, topics []types.Topic, tasks []types.Task) error {
	data := types.TopicsTasks{Topics: topics, Tasks: tasks}
	if err := s.storage.Put(ctx, []string{topicsTasksKey}, data); err != nil {
		return fmt.Errorf("save topics/tasks: %w", err)
	}
	return nil
}

func nextTopicID(topics []types.Topic) int {
	max := 0
	for _, t := range topics {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

func nextTaskID(tasks []types.Task) int {
	max := 0
	for _, t := range tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}
