// Package ai hosts the AI conversation partners: per-participant state
// machines over an LLM provider, and the registry that spawns them into
// pairings, forwards partner messages and tears them down.
package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/event"
	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/persona"
	"github.com/s376930/Chat-Arena/internal/provider"
	"github.com/s376930/Chat-Arena/internal/session"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// ErrUnavailable reports that no AI participant can be spawned right now:
// the subsystem is disabled, no provider came up, or the cap is reached.
var ErrUnavailable = errors.New("AI participant unavailable")

// Registry creates and tracks AI participants. It degrades gracefully:
// with no providers available it simply reports unavailable and the
// server keeps running with human-only pairing.
type Registry struct {
	log       zerolog.Logger
	cfg       types.AIConfig
	providers *provider.Registry
	personas  *persona.Registry

	mu           sync.RWMutex
	onMessage    MessageFunc
	participants map[string]*Participant
}

// NewRegistry creates an AI registry over the given provider and persona
// pools.
func NewRegistry(cfg types.AIConfig, providers *provider.Registry, personas *persona.Registry) *Registry {
	return &Registry{
		log:          logging.Component("ai"),
		cfg:          cfg,
		providers:    providers,
		personas:     personas,
		participants: make(map[string]*Participant),
	}
}

// OnMessage installs the delivery callback every participant emits
// through. Must be set before the first spawn for messages to flow.
func (r *Registry) OnMessage(fn MessageFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onMessage = fn
}

// deliver fans a participant's message out to the installed callback.
func (r *Registry) deliver(aiID, think, speech string) {
	r.mu.RLock()
	fn := r.onMessage
	r.mu.RUnlock()

	if fn != nil {
		fn(aiID, think, speech)
	}
}

// Available reports whether AI participants can be spawned at all:
// enabled in config and at least one provider came up.
func (r *Registry) Available() bool {
	return r.cfg.Enabled && r.providers.Count() > 0
}

// Spawn creates an AI participant for a conversation and starts it. The
// returned record carries the minted AI ID and the persona and provider
// it runs on.
func (r *Registry) Spawn(ctx context.Context, partnerID, sessionID, topic, task string) (types.AISession, error) {
	if !r.cfg.Enabled {
		return types.AISession{}, fmt.Errorf("%w: AI participants are disabled", ErrUnavailable)
	}

	prov, err := r.providers.Default()
	if err != nil {
		return types.AISession{}, fmt.Errorf("%w: no available LLM provider", ErrUnavailable)
	}

	pers, ok := r.personas.Random()
	if !ok {
		return types.AISession{}, fmt.Errorf("no available persona")
	}

	r.mu.Lock()
	if limit := r.cfg.MaxParticipants; limit > 0 && len(r.participants) >= limit {
		r.mu.Unlock()
		return types.AISession{}, fmt.Errorf("%w: participant limit reached (%d)", ErrUnavailable, limit)
	}

	aiID := session.NewAIID()
	for r.participants[aiID] != nil {
		aiID = session.NewAIID()
	}

	participant := NewParticipant(aiID, prov, pers, r.cfg.Behavior, r.cfg.Memory, r.deliver)
	r.participants[aiID] = participant
	r.mu.Unlock()

	participant.StartConversation(partnerID, sessionID, topic, task)

	event.Publish(event.Event{Type: event.AISpawned, Data: event.AISpawnedData{
		AIID:      aiID,
		PartnerID: partnerID,
		SessionID: sessionID,
		Persona:   pers.Name,
		Provider:  prov.ID(),
	}})

	r.log.Info().
		Str("ai_id", aiID).
		Str("persona", pers.Name).
		Str("provider", prov.ID()).
		Str("partner_id", partnerID).
		Msg("created AI participant")

	return types.AISession{
		AIID:        aiID,
		PartnerID:   partnerID,
		SessionID:   sessionID,
		PersonaID:   pers.ID,
		PersonaName: pers.Name,
		Provider:    prov.ID(),
		Model:       prov.Model(),
		Topic:       topic,
		Task:        task,
		IsActive:    true,
		CreatedAt:   types.NowTimestamp(),
	}, nil
}

// Remove ends an AI participant's conversation and discards it.
func (r *Registry) Remove(ctx context.Context, aiID string) {
	r.mu.Lock()
	participant, ok := r.participants[aiID]
	delete(r.participants, aiID)
	r.mu.Unlock()

	if !ok {
		return
	}

	sessionID := participant.SessionID()
	participant.EndConversation()

	event.Publish(event.Event{Type: event.AIRemoved, Data: event.AIRemovedData{
		AIID:      aiID,
		SessionID: sessionID,
	}})

	r.log.Info().Str("ai_id", aiID).Msg("removed AI participant")
}

// RemoveByPartner removes the AI participant paired with the given human.
func (r *Registry) RemoveByPartner(ctx context.Context, partnerID string) {
	if participant, ok := r.ByPartner(partnerID); ok {
		r.Remove(ctx, participant.ID())
	}
}

// Get returns a participant by AI ID.
func (r *Registry) Get(aiID string) (*Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	participant, ok := r.participants[aiID]
	return participant, ok
}

// ByPartner returns the participant paired with the given human.
func (r *Registry) ByPartner(partnerID string) (*Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, participant := range r.participants {
		if participant.PartnerID() == partnerID {
			return participant, true
		}
	}
	return nil, false
}

// IsAI reports whether a user ID belongs to an AI participant.
func (r *Registry) IsAI(userID string) bool {
	r.mu.RLock()
	_, ok := r.participants[userID]
	r.mu.RUnlock()
	return ok || strings.HasPrefix(userID, "ai_")
}

// Count returns the number of live AI participants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// Snapshots reports the state of every live participant, sorted by AI ID.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	participants := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		participants = append(participants, p)
	}
	r.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(participants))
	for _, p := range participants {
		snapshots = append(snapshots, p.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].AIID < snapshots[j].AIID })
	return snapshots
}

// Forward routes a human partner's message to their AI participant.
func (r *Registry) Forward(ctx context.Context, aiID, content string) {
	participant, ok := r.Get(aiID)
	if !ok {
		r.log.Warn().Str("ai_id", aiID).Msg("message for unknown AI participant")
		return
	}
	participant.ReceiveMessage(ctx, content)
}

// Shutdown ends every AI conversation and empties the registry.
func (r *Registry) Shutdown(ctx context.Context) {
	r.log.Info().Msg("shutting down AI registry")

	r.mu.RLock()
	ids := make([]string, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Remove(ctx, id)
	}

	r.log.Info().Msg("AI registry shutdown complete")
}
