package search

import (
	"strconv"
	"strings"
)

// Query is the structured form of a search request. It decouples the
// raw compose-box input from the index engine.
type Query struct {
	RawInput string // the original user input
	Terms    string // the text handed to the index
	RoomID   string // optional room restriction
	Limit    int    // number of results
}

const defaultLimit = 10

// NewQuery parses command-line style search input. fallbackLimit caps
// the results when no --limit flag is given; zero or negative falls
// back to the built-in default.
// Example: /find release notes --room dev-chat --limit 5
func NewQuery(input string, fallbackLimit int) *Query {
	if fallbackLimit <= 0 {
		fallbackLimit = defaultLimit
	}
	query := &Query{
		RawInput: input,
		Limit:    fallbackLimit,
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "room":
				query.RoomID = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = n
				}
			}
			i++
			continue
		}

		// Leading slash commands are not search terms
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, part)
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}
