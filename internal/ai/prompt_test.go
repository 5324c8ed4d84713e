package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s376930/Chat-Arena/internal/persona"
)

func testPersona() persona.Persona {
	return persona.Persona{
		ID:                 "curious_alex",
		Name:               "Alex",
		Traits:             []string{"Genuinely curious and eager to learn"},
		CommunicationStyle: "Casual and warm",
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(PromptState{
		Persona:          testPersona(),
		Topic:            "space exploration",
		Task:             "argue for Mars colonization",
		PartnerSentiment: "positive",
		ConversationTurn: 3,
	})

	assert.Contains(t, prompt, "You are Alex.")
	assert.Contains(t, prompt, "- Genuinely curious and eager to learn")
	assert.Contains(t, prompt, "**Topic**: space exploration")
	assert.Contains(t, prompt, "**Your Role**: argue for Mars colonization")
	assert.Contains(t, prompt, "## Response Format")
	assert.Contains(t, prompt, "<think>[Your internal reasoning")
	assert.Contains(t, prompt, "## Conversation Guidelines")
	assert.Contains(t, prompt, "- Conversation turn: 3")
	assert.Contains(t, prompt, "- Partner's apparent mood: positive")

	assert.NotContains(t, prompt, "## Current Situation")
	assert.NotContains(t, prompt, "quiet for")
}

func TestBuildSystemPromptSectionOrder(t *testing.T) {
	prompt := BuildSystemPrompt(PromptState{Persona: testPersona()})

	identity := strings.Index(prompt, "You are Alex.")
	task := strings.Index(prompt, "## Your Conversation Task")
	format := strings.Index(prompt, "## Response Format")
	guidelines := strings.Index(prompt, "## Conversation Guidelines")
	state := strings.Index(prompt, "## Current Conversation State")

	for _, idx := range []int{identity, task, format, guidelines, state} {
		require.GreaterOrEqual(t, idx, 0)
	}
	assert.True(t, identity < task && task < format && format < guidelines && guidelines < state)
}

func TestBuildSystemPromptDefaultsMood(t *testing.T) {
	prompt := BuildSystemPrompt(PromptState{Persona: testPersona()})
	assert.Contains(t, prompt, "- Partner's apparent mood: neutral")
}

func TestBuildSystemPromptMoodNotes(t *testing.T) {
	difficult := BuildSystemPrompt(PromptState{Persona: testPersona(), PartnerSentiment: "negative"})
	assert.Contains(t, difficult, "Be extra empathetic and supportive.")

	upbeat := BuildSystemPrompt(PromptState{Persona: testPersona(), PartnerSentiment: "enthusiastic"})
	assert.Contains(t, upbeat, "Match their energy!")

	plain := BuildSystemPrompt(PromptState{Persona: testPersona(), PartnerSentiment: "mixed"})
	assert.NotContains(t, plain, "*Note:")
}

func TestBuildSystemPromptIdle(t *testing.T) {
	prompt := BuildSystemPrompt(PromptState{
		Persona:            testPersona(),
		PartnerSentiment:   "neutral",
		PartnerIdleSeconds: 45,
		IdlePrompt:         true,
	})

	assert.Contains(t, prompt, "- Partner has been quiet for: 45 seconds")
	assert.Contains(t, prompt, "## Current Situation")
	assert.Contains(t, prompt, "Re-engage them in the conversation")
}

func TestTaskSectionOmitsEmptyFields(t *testing.T) {
	prompt := BuildSystemPrompt(PromptState{Persona: testPersona()})

	assert.NotContains(t, prompt, "**Topic**")
	assert.NotContains(t, prompt, "**Your Role**")
	assert.Contains(t, prompt, "Engage naturally in conversation about this topic")
}
