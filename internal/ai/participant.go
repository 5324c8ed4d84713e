package ai

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/persona"
	"github.com/s376930/Chat-Arena/internal/provider"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// Fallbacks for zeroed behavior knobs, matching the shipped defaults.
const (
	defaultTypingMsPerWord = 200
	defaultMinTypingDelay  = 500 * time.Millisecond
	defaultMaxTypingDelay  = 3 * time.Second
	defaultIdleTimeout     = 2 * time.Minute
	defaultIdleCheck       = 30 * time.Second
	defaultMaxRetries      = 3
	defaultRetryDelay      = time.Second
	retryMaxInterval       = 30 * time.Second
)

// MessageFunc delivers a generated AI message: the participant's ID, its
// private reasoning and the sanitized partner-visible speech.
type MessageFunc func(aiID, think, speech string)

// participantState is the mutable conversation state, guarded by
// Participant.mu.
type participantState struct {
	partnerID          string
	sessionID          string
	topic              string
	task               string
	active             bool
	lastPartnerMessage time.Time
	lastAIMessage      time.Time
	createdAt          time.Time
}

// Participant drives one AI conversation partner: it remembers the
// exchange, classifies partner mood, generates replies with retries,
// paces itself like a typing human and nudges partners who go quiet.
type Participant struct {
	id         string
	log        zerolog.Logger
	provider   provider.Provider
	persona    persona.Persona
	behavior   types.BehaviorConfig
	onMessage  MessageFunc
	memory     *Memory
	classifier SentimentClassifier

	mu        sync.Mutex
	state     participantState
	sentiment string
	stopIdle  chan struct{}

	// genMu serializes response generation so an idle nudge can never
	// interleave with a reply in progress.
	genMu sync.Mutex
}

// NewParticipant creates an AI participant ready to start a conversation.
func NewParticipant(id string, prov provider.Provider, p persona.Persona, behavior types.BehaviorConfig, memory types.MemoryConfig, onMessage MessageFunc) *Participant {
	return &Participant{
		id:         id,
		log:        logging.Component("ai"),
		provider:   prov,
		persona:    p,
		behavior:   behavior,
		onMessage:  onMessage,
		memory:     NewMemory(memory.MaxEntries),
		classifier: KeywordClassifier{},
		sentiment:  "neutral",
		state:      participantState{createdAt: time.Now()},
	}
}

// ID returns the participant's AI user ID.
func (p *Participant) ID() string { return p.id }

// Persona returns the persona this participant embodies.
func (p *Participant) Persona() persona.Persona { return p.persona }

// PartnerID returns the current human partner, or "" when idle.
func (p *Participant) PartnerID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.partnerID
}

// SessionID returns the current conversation session, or "" when idle.
func (p *Participant) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.sessionID
}

// Active reports whether the participant is in a conversation.
func (p *Participant) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.active
}

// StartConversation binds the participant to a human partner and begins
// idle monitoring.
func (p *Participant) StartConversation(partnerID, sessionID, topic, task string) {
	p.mu.Lock()
	if p.stopIdle != nil {
		close(p.stopIdle)
	}
	p.state = participantState{
		partnerID:          partnerID,
		sessionID:          sessionID,
		topic:              topic,
		task:               task,
		active:             true,
		lastPartnerMessage: time.Now(),
		createdAt:          p.state.createdAt,
	}
	stop := make(chan struct{})
	p.stopIdle = stop
	p.mu.Unlock()

	p.memory.SetContext(topic, task, sessionID)

	go p.idleLoop(stop)

	p.log.Info().
		Str("ai_id", p.id).
		Str("partner_id", partnerID).
		Str("session_id", sessionID).
		Msg("started conversation")
}

// EndConversation deactivates the participant and clears its memory for
// the next conversation. Safe to call twice.
func (p *Participant) EndConversation() {
	p.mu.Lock()
	wasActive := p.state.active
	p.state.active = false
	if p.stopIdle != nil {
		close(p.stopIdle)
		p.stopIdle = nil
	}
	p.mu.Unlock()

	p.memory.Clear()

	if wasActive {
		p.log.Info().Str("ai_id", p.id).Msg("ended conversation")
	}
}

// ReceiveMessage handles a message from the human partner: classify it,
// remember it, and respond.
func (p *Participant) ReceiveMessage(ctx context.Context, content string) {
	p.mu.Lock()
	if !p.state.active {
		p.mu.Unlock()
		p.log.Warn().Str("ai_id", p.id).Msg("message received while inactive")
		return
	}
	p.state.lastPartnerMessage = time.Now()
	p.mu.Unlock()

	result := p.classifier.Classify(content)

	p.mu.Lock()
	p.sentiment = result.Sentiment
	p.mu.Unlock()

	p.memory.AddPartnerMessage(content, result.Sentiment)

	p.respond(ctx, false)
}

// respond generates one reply and delivers it through the callback.
// Reports whether a message actually went out.
func (p *Participant) respond(ctx context.Context, idlePrompt bool) bool {
	p.genMu.Lock()
	defer p.genMu.Unlock()

	p.mu.Lock()
	if !p.state.active {
		p.mu.Unlock()
		return false
	}
	idleFor := time.Since(p.state.lastPartnerMessage)
	if idlePrompt && idleFor < p.idleTimeout() {
		// The partner spoke while this nudge waited its turn.
		p.mu.Unlock()
		return false
	}
	sentiment := p.sentiment
	p.mu.Unlock()

	req := &provider.Request{
		System: BuildSystemPrompt(PromptState{
			Persona:            p.persona,
			Topic:              p.memory.Topic(),
			Task:               p.memory.Task(),
			PartnerSentiment:   sentiment,
			ConversationTurn:   p.memory.TurnCount(),
			PartnerIdleSeconds: int(idleFor.Seconds()),
			IdlePrompt:         idlePrompt,
		}),
		Messages: p.memory.MessagesForLLM(),
	}

	resp, err := p.generateWithRetry(ctx, req)
	if err != nil {
		p.log.Error().Err(err).Str("ai_id", p.id).Msg("failed to generate response")
		return false
	}

	speech := SanitizeSpeech(resp.Speech)
	if speech == "" {
		p.log.Warn().Str("ai_id", p.id).Msg("speech empty after sanitization")
		return false
	}

	time.Sleep(p.typingDelay(speech))

	p.memory.AddAIMessage(resp.Think, speech)

	p.mu.Lock()
	p.state.lastAIMessage = time.Now()
	active := p.state.active
	p.mu.Unlock()

	// The conversation may have ended while the model was thinking; a
	// dead pairing must not receive a late message.
	if !active {
		return false
	}

	if p.onMessage != nil {
		p.onMessage(p.id, resp.Think, speech)
	}
	return true
}

// generateWithRetry calls the provider until it yields a response with
// speech, backing off between attempts.
func (p *Participant) generateWithRetry(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	retry := p.newRetryBackoff(ctx)

	for {
		resp, err := p.provider.Generate(ctx, req)
		if err == nil {
			if resp.Speech != "" {
				return resp, nil
			}
			err = provider.ErrEmptySpeech
			p.log.Warn().Str("ai_id", p.id).Msg("response had no speech, retrying")
		} else {
			p.log.Error().Err(err).Str("ai_id", p.id).Msg("generation attempt failed")
		}

		next := retry.NextBackOff()
		if next == backoff.Stop {
			return nil, err
		}
		time.Sleep(next)
	}
}

// newRetryBackoff builds the per-turn retry schedule: exponential with
// jitter, starting at the configured retry delay, capped at the
// configured attempt count.
func (p *Participant) newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryDelay()
	b.MaxInterval = retryMaxInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.maxRetries()-1)), ctx)
}

// typingDelay paces the reply like a human typing: per-word cost clamped
// to the configured window, with ±20% jitter.
func (p *Participant) typingDelay(text string) time.Duration {
	perWord := p.behavior.TypingSpeedMsPerWord
	if perWord <= 0 {
		perWord = defaultTypingMsPerWord
	}

	words := len(strings.Fields(text))
	delay := time.Duration(words*perWord) * time.Millisecond

	lower := p.behavior.MinResponseDelay()
	if lower <= 0 {
		lower = defaultMinTypingDelay
	}
	upper := p.behavior.MaxResponseDelay()
	if upper <= 0 {
		upper = defaultMaxTypingDelay
	}
	if delay < lower {
		delay = lower
	}
	if delay > upper {
		delay = upper
	}

	return time.Duration(float64(delay) * (0.8 + 0.4*rand.Float64()))
}

// idleLoop watches for a quiet partner and sends re-engagement messages.
func (p *Participant) idleLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.idleCheckInterval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		active := p.state.active
		idleFor := time.Since(p.state.lastPartnerMessage)
		p.mu.Unlock()

		if !active {
			return
		}
		if idleFor < p.idleTimeout() {
			continue
		}

		p.log.Info().
			Str("ai_id", p.id).
			Dur("idle", idleFor).
			Msg("partner idle, sending re-engagement")

		// Only a delivered nudge resets the clock, so a failed attempt
		// is retried on the next tick.
		if p.respond(context.Background(), true) {
			p.mu.Lock()
			p.state.lastPartnerMessage = time.Now()
			p.mu.Unlock()
		}
	}
}

func (p *Participant) idleTimeout() time.Duration {
	if t := p.behavior.IdleTimeout(); t > 0 {
		return t
	}
	return defaultIdleTimeout
}

func (p *Participant) idleCheckInterval() time.Duration {
	if t := p.behavior.IdleCheckInterval(); t > 0 {
		return t
	}
	return defaultIdleCheck
}

func (p *Participant) maxRetries() int {
	if p.behavior.MaxRetries > 0 {
		return p.behavior.MaxRetries
	}
	return defaultMaxRetries
}

func (p *Participant) retryDelay() time.Duration {
	if t := p.behavior.RetryDelay(); t > 0 {
		return t
	}
	return defaultRetryDelay
}

// Snapshot is the externally visible state of one AI participant.
type Snapshot struct {
	AIID        string `json:"ai_id"`
	PartnerID   string `json:"partner_id"`
	SessionID   string `json:"session_id"`
	Topic       string `json:"topic"`
	Task        string `json:"task"`
	IsActive    bool   `json:"is_active"`
	PersonaID   string `json:"persona_id"`
	PersonaName string `json:"persona_name"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	TurnCount   int    `json:"turn_count"`
	Sentiment   string `json:"current_sentiment"`
}

// Snapshot reports the participant's current state.
func (p *Participant) Snapshot() Snapshot {
	p.mu.Lock()
	state := p.state
	sentiment := p.sentiment
	p.mu.Unlock()

	return Snapshot{
		AIID:        p.id,
		PartnerID:   state.partnerID,
		SessionID:   state.sessionID,
		Topic:       state.topic,
		Task:        state.task,
		IsActive:    state.active,
		PersonaID:   p.persona.ID,
		PersonaName: p.persona.Name,
		Provider:    p.provider.ID(),
		Model:       p.provider.Model(),
		TurnCount:   p.memory.TurnCount(),
		Sentiment:   sentiment,
	}
}
