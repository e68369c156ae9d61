package domain

import (
	"math"
	"strings"

	"chathub/errors"

	"github.com/samber/lo"
)

const (
	MinPollOptions = 2
	MaxPollOptions = 10
)

// Poll is the payload embedded in a poll-kind message. Votes are
// anonymous aggregate counters; UserVotes tracks only the option labels
// the local viewer already picked, not a voter ledger.
type Poll struct {
	Question      string
	Options       []string
	AllowMultiple bool
	Votes         map[string]int
	UserVotes     []string
}

func (p *Poll) Kind() Kind { return KindPoll }

// NewPoll validates the creation form. Blank options are dropped,
// duplicate labels keep their first occurrence, and the list is capped
// at MaxPollOptions before the minimum is enforced.
func NewPoll(question string, options []string, allowMultiple bool) (*Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.ErrInvalidQuestion
	}

	trimmed := lo.FilterMap(options, func(opt string, _ int) (string, bool) {
		opt = strings.TrimSpace(opt)
		return opt, opt != ""
	})
	trimmed = lo.Uniq(trimmed)
	if len(trimmed) > MaxPollOptions {
		trimmed = trimmed[:MaxPollOptions]
	}
	if len(trimmed) < MinPollOptions {
		return nil, errors.ErrInsufficientOptions
	}

	votes := make(map[string]int, len(trimmed))
	for _, opt := range trimmed {
		votes[opt] = 0
	}
	return &Poll{
		Question:      question,
		Options:       trimmed,
		AllowMultiple: allowMultiple,
		Votes:         votes,
	}, nil
}

// Vote records one vote for the option at index. Voting an option the
// viewer already picked is a silent no-op, even when multiple
// selections are allowed; it reports whether the tally changed.
func (p *Poll) Vote(index int) (bool, error) {
	if index < 0 || index >= len(p.Options) {
		return false, errors.ErrUnknownOption
	}
	label := p.Options[index]
	if lo.Contains(p.UserVotes, label) {
		return false, nil
	}
	if p.Votes == nil {
		p.Votes = make(map[string]int, len(p.Options))
	}
	p.Votes[label]++
	p.UserVotes = append(p.UserVotes, label)
	return true, nil
}

// TotalVotes is the sum of all option counters.
func (p *Poll) TotalVotes() int {
	return lo.SumBy(p.Options, func(opt string) int { return p.Votes[opt] })
}

// Percentage returns the rounded share of the option label, 0 when the
// poll has no votes yet.
func (p *Poll) Percentage(label string) int {
	total := p.TotalVotes()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(p.Votes[label]) / float64(total) * 100))
}

// Clone returns a deep copy so read paths never alias the stored tally.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	cp := &Poll{
		Question:      p.Question,
		Options:       append([]string(nil), p.Options...),
		AllowMultiple: p.AllowMultiple,
		Votes:         make(map[string]int, len(p.Votes)),
		UserVotes:     append([]string(nil), p.UserVotes...),
	}
	for k, v := range p.Votes {
		cp.Votes[k] = v
	}
	return cp
}
