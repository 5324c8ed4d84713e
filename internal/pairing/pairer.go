package pairing

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/catalog"
	"github.com/s376930/Chat-Arena/internal/conversation"
	"github.com/s376930/Chat-Arena/internal/event"
	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/session"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// Pairing error messages shown to users.
const (
	msgConsentRequired = "Consent required to participate"
	msgNoTopicsTasks   = "No topics or tasks available. Please try again later."
)

// Separation reasons carried on pair.broken events.
const (
	ReasonReassign   = "reassign"
	ReasonDisconnect = "disconnect"
	ReasonInactivity = "inactivity"
)

// AI is the slice of the AI participant subsystem the pairer drives. A nil
// AI means the subsystem is absent and the fallback path never fires.
type AI interface {
	// Available reports whether an AI participant can be created right now.
	Available() bool
	// Spawn creates an AI participant conversing with partnerID in the given
	// session. The returned record carries the minted AI ID plus the persona
	// and provider the registry picked for it.
	Spawn(ctx context.Context, partnerID, sessionID, topic, task string) (types.AISession, error)
	// Remove tears an AI participant down. Safe for unknown IDs.
	Remove(ctx context.Context, aiID string)
}

// NewSessionID mints a sortable conversation session ID.
func NewSessionID() string {
	return ulid.Make().String()
}

// Pairer runs the pairing protocol: queueing, atomic matching, the AI
// fallback for odd waiters, and the separation flows (reassign, disconnect,
// inactivity eviction). It owns no state of its own beyond timers; pairing
// truth lives in the session table and the queue.
type Pairer struct {
	log           zerolog.Logger
	table         *session.Table
	queue         *Queue
	catalog       *catalog.Store
	conversations *conversation.Log
	ai            AI

	delayEnabled bool
	delay        time.Duration
	forceAIOnOdd bool
}

// New wires a Pairer over its collaborators. ai may be nil.
func New(table *session.Table, queue *Queue, cat *catalog.Store, conversations *conversation.Log, ai AI, cfg *types.Config) *Pairer {
	return &Pairer{
		log:           logging.Component("pairing"),
		table:         table,
		queue:         queue,
		catalog:       cat,
		conversations: conversations,
		ai:            ai,
		delayEnabled:  cfg.Pairing.DelayEnabled,
		delay:         cfg.Pairing.Delay(),
		forceAIOnOdd:  cfg.AI.ForceOnOddUsers,
	}
}

// Join handles a user's join request. Without consent the user gets an error
// frame and nothing else happens. Otherwise the user is marked consented,
// enqueued, told their position and immediately offered for matching. A join
// from an already-paired user is ignored: a user must never sit in the queue
// while paired.
func (p *Pairer) Join(ctx context.Context, userID string, consent bool) {
	if !consent {
		p.table.Send(userID, types.ErrorFrame(msgConsentRequired))
		return
	}

	if s, ok := p.table.Get(userID); ok && s.Paired {
		p.log.Debug().Str("user", userID).Msg("join ignored, user already paired")
		return
	}

	p.table.Update(userID, func(s *types.Session) {
		s.Consented = true
	})
	p.table.Touch(userID)

	position := p.queue.Add(userID)
	event.Publish(event.Event{
		Type: event.UserWaiting,
		Data: event.UserWaitingData{UserID: userID, Position: position},
	})
	p.table.Send(userID, types.WaitingFrame(position))

	p.TryPair(ctx, userID)
}

// TryPair attempts to match userID with another waiter. When no eligible
// partner exists the AI fallback is considered for whoever is now the lone
// eligible waiter.
func (p *Pairer) TryPair(ctx context.Context, userID string) {
	partnerID, ok := p.queue.TakePartner(userID)
	if !ok {
		p.maybePairOddWithAI(ctx)
		return
	}

	topic, topicOK := p.catalog.RandomTopic()
	tasks := p.catalog.RandomTasks(2)
	if !topicOK || len(tasks) < 2 {
		p.queue.Add(userID)
		p.queue.Add(partnerID)
		p.table.Send(userID, types.ErrorFrame(msgNoTopicsTasks))
		p.table.Send(partnerID, types.ErrorFrame(msgNoTopicsTasks))
		p.log.Warn().Msg("pairing aborted, catalog has no topics or too few tasks")
		return
	}

	sessionID := NewSessionID()
	if !p.table.PairUsers(userID, partnerID, sessionID, tasks[0].Text, tasks[1].Text) {
		// Partner vanished or got paired elsewhere between dequeue and
		// commit. The requester goes back in line; the partner is no
		// longer ours to manage.
		p.queue.Add(userID)
		p.log.Warn().Str("user", userID).Str("partner", partnerID).
			Msg("atomic pairing failed, requeueing user")
		return
	}

	p.conversations.Begin(ctx, sessionID, topic.Text, []types.Participant{
		{UserID: userID, Task: tasks[0].Text},
		{UserID: partnerID, Task: tasks[1].Text},
	})

	event.Publish(event.Event{
		Type: event.PairCreated,
		Data: event.PairCreatedData{
			SessionID: sessionID,
			UserA:     userID,
			UserB:     partnerID,
			Topic:     topic.Text,
		},
	})

	p.table.Send(userID, types.PairedFrame(topic.Text, tasks[0].Text, sessionID))
	p.table.Send(partnerID, types.PairedFrame(topic.Text, tasks[1].Text, sessionID))

	p.log.Info().Str("user", userID).Str("partner", partnerID).
		Str("session", sessionID).Str("topic", topic.Text).
		Msg("paired users")
}

// PairWithAI pairs userID with a freshly spawned AI participant. Returns
// false when the AI subsystem is unavailable, the catalog is empty, the
// spawn fails or the user vanished mid-flight; the user stays queued in
// those cases (except when already gone).
func (p *Pairer) PairWithAI(ctx context.Context, userID string) bool {
	if p.ai == nil || !p.ai.Available() {
		return false
	}

	topic, topicOK := p.catalog.RandomTopic()
	tasks := p.catalog.RandomTasks(2)
	if !topicOK || len(tasks) < 2 {
		p.log.Warn().Msg("AI pairing aborted, catalog has no topics or too few tasks")
		return false
	}

	// Out of the queue before the spawn so a concurrent match can't grab
	// the user while the participant spins up.
	p.queue.Remove(userID)

	sessionID := NewSessionID()
	rec, err := p.ai.Spawn(ctx, userID, sessionID, topic.Text, tasks[1].Text)
	if err != nil {
		p.queue.Add(userID)
		p.log.Warn().Err(err).Str("user", userID).
			Msg("failed to create AI participant, user keeps waiting")
		return false
	}

	if !p.table.PairWithAI(userID, rec.AIID, sessionID, tasks[0].Text) {
		p.ai.Remove(ctx, rec.AIID)
		p.log.Warn().Str("user", userID).Str("ai", rec.AIID).
			Msg("user vanished during AI spawn, participant removed")
		return false
	}

	rec.PartnerID = userID
	rec.SessionID = sessionID
	rec.Topic = topic.Text
	rec.Task = tasks[1].Text
	p.table.CreateAISession(rec)

	p.conversations.Begin(ctx, sessionID, topic.Text, []types.Participant{
		{UserID: userID, Task: tasks[0].Text},
		{UserID: rec.AIID, Task: tasks[1].Text},
	})

	event.Publish(event.Event{
		Type: event.PairCreated,
		Data: event.PairCreatedData{
			SessionID: sessionID,
			UserA:     userID,
			UserB:     rec.AIID,
			Topic:     topic.Text,
			WithAI:    true,
		},
	})

	p.table.Send(userID, types.PairedFrame(topic.Text, tasks[0].Text, sessionID))

	p.log.Info().Str("user", userID).Str("ai", rec.AIID).
		Str("session", sessionID).Str("persona", rec.PersonaName).
		Msg("paired user with AI participant")
	return true
}

// Reassign gives a user a new partner: the old pairing is dissolved on both
// sides, the conversation ends, and the requester requeues behind a cooldown
// (when enabled) so the very next match is unlikely to be the same person.
func (p *Pairer) Reassign(ctx context.Context, userID string) {
	if s, ok := p.table.Get(userID); ok && s.Paired {
		p.separate(ctx, s, ReasonReassign)
		if s.SessionID != "" {
			p.conversations.End(ctx, s.SessionID)
		}
	}

	p.table.ClearPairing(userID)
	p.requeue(ctx, userID)
}

// Disconnect tears a user down after their transport closed: the surviving
// partner is notified and requeued (or the AI removed), the conversation
// ends, and the user's session and queue entries disappear.
func (p *Pairer) Disconnect(ctx context.Context, userID string) {
	if s, ok := p.table.Get(userID); ok {
		if s.Paired && s.PartnerID != "" {
			p.separate(ctx, s, ReasonDisconnect)
		}
		if s.SessionID != "" {
			p.conversations.End(ctx, s.SessionID)
		}
	}

	p.queue.Remove(userID)
	p.queue.ClearCooldown(userID)
	p.table.Disconnect(userID)
}

// KickInactive evicts a user whose pairing went quiet. The user keeps their
// connection but loses consent, pairing and queue standing, so they may
// rejoin without reconnecting. The surviving partner is treated exactly as
// in a reassignment.
func (p *Pairer) KickInactive(ctx context.Context, userID string) {
	s, ok := p.table.Get(userID)
	if !ok {
		return
	}

	p.table.Send(userID, types.InactivityKickFrame())

	if s.Paired && s.PartnerID != "" {
		p.separate(ctx, s, ReasonInactivity)
	}
	if s.SessionID != "" {
		p.conversations.End(ctx, s.SessionID)
	}

	p.queue.Remove(userID)
	p.queue.ClearCooldown(userID)
	p.table.ClearPairing(userID)
	p.table.Update(userID, func(sess *types.Session) {
		sess.Consented = false
		sess.LastActivity = nil
	})

	event.Publish(event.Event{
		Type: event.UserEvicted,
		Data: event.UserEvictedData{UserID: userID},
	})
	p.log.Info().Str("user", userID).Msg("evicted inactive user")
}

// separate handles the partner side of a breakup: an AI partner is removed
// outright, a human partner is notified and requeued behind a cooldown.
func (p *Pairer) separate(ctx context.Context, s types.Session, reason string) {
	partnerID := s.PartnerID
	if partnerID == "" {
		return
	}

	if s.IsAIPartner {
		if p.ai != nil {
			p.ai.Remove(ctx, partnerID)
		}
		p.table.RemoveAISession(partnerID)
	} else if p.table.ClearPairing(partnerID) {
		p.table.Send(partnerID, types.PartnerLeftFrame())
		p.requeue(ctx, partnerID)
	}

	event.Publish(event.Event{
		Type: event.PairBroken,
		Data: event.PairBrokenData{
			SessionID: s.SessionID,
			UserID:    s.UserID,
			PartnerID: partnerID,
			Reason:    reason,
		},
	})
}

// requeue puts a separated user back in line: cooldown (when enabled), queue
// position, waiting frame, then either a deferred or an immediate match
// attempt.
func (p *Pairer) requeue(ctx context.Context, userID string) {
	if p.delayEnabled {
		p.queue.SetCooldown(userID)
	}

	position := p.queue.Add(userID)
	event.Publish(event.Event{
		Type: event.UserWaiting,
		Data: event.UserWaitingData{UserID: userID, Position: position},
	})
	p.table.Send(userID, types.WaitingFrame(position))

	if p.delayEnabled {
		p.schedulePairing(userID, p.delay)
	} else {
		p.TryPair(ctx, userID)
	}
}

// schedulePairing arms a one-shot retry for a user coming off cooldown.
func (p *Pairer) schedulePairing(userID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		p.delayedPair(context.Background(), userID)
	})
}

// delayedPair re-attempts pairing after a cooldown, provided the user still
// exists, is still unpaired and is still waiting. If the regular match finds
// nobody, the AI fallback gets a chance.
func (p *Pairer) delayedPair(ctx context.Context, userID string) {
	s, ok := p.table.Get(userID)
	if !ok || s.Paired {
		return
	}
	if p.queue.Position(userID) == 0 {
		return
	}

	p.TryPair(ctx, userID)

	if s, ok := p.table.Get(userID); ok && !s.Paired {
		p.maybePairOddWithAI(ctx)
	}
}

// maybePairOddWithAI pairs the lone eligible waiter with an AI participant
// when the fallback policy allows it.
func (p *Pairer) maybePairOddWithAI(ctx context.Context) {
	if !p.forceAIOnOdd || p.ai == nil || !p.ai.Available() {
		return
	}
	oddUser, ok := p.queue.OddUser()
	if !ok {
		return
	}
	p.PairWithAI(ctx, oddUser)
}
