package ai

import (
	"regexp"
	"strings"
)

var (
	// Tags like <speech>, </speech>, <pause duration="1s"/>.
	tagArtifactRe = regexp.MustCompile(`<[^>]+>`)

	// Bracketed stage directions: [Steepling hands], [laughs].
	bracketArtifactRe = regexp.MustCompile(`\[[^\]]*\]`)

	// Capitalized parenthetical stage directions: (Sighs), (Laughing
	// nervously), (Pauses). Ordinary parenthetical asides stay.
	stageDirectionRe = regexp.MustCompile(`\(\s*(?:[A-Z][a-z]*(?:ing|s|ed)?(?:\s+\w+)*)\s*\)`)

	// Lowercase parentheticals that are clearly actions.
	actionVerbRe = regexp.MustCompile(`(?i)\(\s*(?:sighs?|laughs?|laughing|chuckles?|chuckling|smiles?|smiling|` +
		`grins?|grinning|nods?|nodding|shrugs?|shrugging|pauses?|pausing|` +
		`thinks?|thinking|frowns?|frowning|winks?|winking|gestures?|gesturing|` +
		`leans?\s+\w+|clears?\s+throat|rolls?\s+eyes?|raises?\s+eyebrow)` +
		`(?:\s+\w+)*\s*\)`)

	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// SanitizeSpeech strips model artifacts from speech while keeping the
// message itself: markup tags, bracketed content and parenthetical stage
// directions all go, then whitespace collapses to single spaces. Running
// it on already-clean text is a no-op.
func SanitizeSpeech(text string) string {
	if text == "" {
		return text
	}

	text = tagArtifactRe.ReplaceAllString(text, "")
	text = bracketArtifactRe.ReplaceAllString(text, "")
	text = stageDirectionRe.ReplaceAllString(text, "")
	text = actionVerbRe.ReplaceAllString(text, "")
	text = whitespaceRunRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
