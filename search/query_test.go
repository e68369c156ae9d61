package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback int
		terms    string
		room     string
		limit    int
	}{
		{
			name:  "plain terms",
			input: "/find release notes",
			terms: "release notes",
			limit: 10,
		},
		{
			name:     "configured fallback applies without a limit flag",
			input:    "/find release notes",
			fallback: 25,
			terms:    "release notes",
			limit:    25,
		},
		{
			name:     "limit flag wins over the fallback",
			input:    "/find standup --limit 3",
			fallback: 25,
			terms:    "standup",
			limit:    3,
		},
		{
			name:  "room flag",
			input: "/find deploy --room dev-chat",
			terms: "deploy",
			room:  "dev-chat",
			limit: 10,
		},
		{
			name:  "limit flag",
			input: "/find standup --limit 3",
			terms: "standup",
			limit: 3,
		},
		{
			name:  "flags in any order",
			input: "/find --room general release --limit 5 notes",
			terms: "release notes",
			room:  "general",
			limit: 5,
		},
		{
			name:  "invalid limit keeps the default",
			input: "/find x --limit zero",
			terms: "x",
			limit: 10,
		},
		{
			name:  "empty input",
			input: "",
			terms: "",
			limit: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			q := NewQuery(tt.input, tt.fallback)
			req.Equal(tt.input, q.RawInput)
			req.Equal(tt.terms, q.Terms)
			req.Equal(tt.room, q.RoomID)
			req.Equal(tt.limit, q.Limit)
		})
	}
}
