package ai

import (
	"fmt"
	"strings"

	"github.com/s376930/Chat-Arena/internal/persona"
)

const responseFormatInstructions = `
## Response Format

You MUST respond using EXACTLY this format:

<think>[Your internal reasoning, strategy, and observations about the conversation]</think>
<speech>[Your actual message to your conversation partner]</speech>

IMPORTANT:
- The <think> section is private - only for your internal reasoning
- The <speech> section is what your partner will see
- Both sections are REQUIRED in every response
- Keep your speech natural and conversational
- Your think section should show genuine engagement with the topic
`

const conversationGuidelines = `
## Conversation Guidelines

1. Be authentic to your persona while remaining respectful
2. Ask follow-up questions to show genuine interest
3. Share relevant thoughts and experiences
4. Keep responses conversational, not too long
5. Stay on topic but allow natural conversation flow
6. Be mindful of your partner's emotional state
7. If the conversation stalls, gently introduce new angles on the topic
`

const idlePromptAddition = `
## Current Situation

Your conversation partner has been quiet for a while. Generate a friendly message to:
- Re-engage them in the conversation
- Ask an interesting question related to the topic
- Or share an observation that might spark discussion

Keep it natural - don't make them feel bad for being quiet.
`

// PromptState carries everything the system prompt embeds about the
// current conversation.
type PromptState struct {
	Persona            persona.Persona
	Topic              string
	Task               string
	PartnerSentiment   string
	ConversationTurn   int
	PartnerIdleSeconds int
	IdlePrompt         bool
}

// BuildSystemPrompt assembles the full system prompt: persona, task,
// response format, guidelines, conversation state and (when nudging a
// quiet partner) the idle re-engagement framing.
func BuildSystemPrompt(state PromptState) string {
	if state.PartnerSentiment == "" {
		state.PartnerSentiment = "neutral"
	}

	sections := []string{
		state.Persona.PromptSection(),
		taskSection(state.Topic, state.Task),
		responseFormatInstructions,
		conversationGuidelines,
		stateSection(state),
	}
	if state.IdlePrompt {
		sections = append(sections, idlePromptAddition)
	}

	return strings.Join(sections, "\n\n")
}

func taskSection(topic, task string) string {
	lines := []string{"## Your Conversation Task"}

	if topic != "" {
		lines = append(lines, "\n**Topic**: "+topic)
	}
	if task != "" {
		lines = append(lines, "\n**Your Role**: "+task)
	}

	lines = append(lines,
		"\nEngage naturally in conversation about this topic while fulfilling your role. "+
			"Be conversational and authentic, not robotic or formal.")

	return strings.Join(lines, "\n")
}

func stateSection(state PromptState) string {
	lines := []string{
		"## Current Conversation State",
		fmt.Sprintf("\n- Conversation turn: %d", state.ConversationTurn),
		"- Partner's apparent mood: " + state.PartnerSentiment,
	}

	if state.PartnerIdleSeconds > 0 {
		lines = append(lines, fmt.Sprintf("- Partner has been quiet for: %d seconds", state.PartnerIdleSeconds))
	}

	switch state.PartnerSentiment {
	case "negative", "frustrated", "sad":
		lines = append(lines, "\n*Note: Your partner seems to be in a difficult mood. Be extra empathetic and supportive.*")
	case "excited", "happy", "enthusiastic":
		lines = append(lines, "\n*Note: Your partner seems engaged and positive. Match their energy!*")
	}

	return strings.Join(lines, "\n")
}
