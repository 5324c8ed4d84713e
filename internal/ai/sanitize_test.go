package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSpeech(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "clean text untouched",
			in:   "Hello there, how are you?",
			want: "Hello there, how are you?",
		},
		{
			name: "leaked speech tags",
			in:   "<speech>Hello there</speech>",
			want: "Hello there",
		},
		{
			name: "tag with attributes",
			in:   `<pause duration="1s"/>Anyway, as I was saying.`,
			want: "Anyway, as I was saying.",
		},
		{
			name: "bracketed stage direction",
			in:   "[Steepling hands] Indeed.",
			want: "Indeed.",
		},
		{
			name: "lowercase action parenthetical",
			in:   "(sighs) Fine, let's go.",
			want: "Fine, let's go.",
		},
		{
			name: "capitalized stage direction",
			in:   "(Laughing) Sure!",
			want: "Sure!",
		},
		{
			name: "multi-word capitalized direction",
			in:   "(Leans forward with interest) Tell me more.",
			want: "Tell me more.",
		},
		{
			name: "lowercase lean",
			in:   "(leans back) That's a big claim.",
			want: "That's a big claim.",
		},
		{
			name: "ordinary aside survives",
			in:   "I think (honestly) it's fine",
			want: "I think (honestly) it's fine",
		},
		{
			name: "whitespace collapses",
			in:   "Hello    there\n\nfriend",
			want: "Hello there friend",
		},
		{
			name: "everything is artifact",
			in:   "<speech>(sighs)</speech>",
			want: "",
		},
		{
			name: "mixed artifacts",
			in:   "[smiles] <speech>That's (chuckles) great!</speech>",
			want: "That's great!",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSpeech(tt.in))
		})
	}
}

func TestSanitizeSpeechIdempotent(t *testing.T) {
	once := SanitizeSpeech("[grins] Well <speech>that (pauses dramatically) settles it.</speech>")
	assert.Equal(t, "Well that settles it.", once)
	assert.Equal(t, once, SanitizeSpeech(once))
}
