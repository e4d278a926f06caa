package prompt

import (
	"errors"
	"strings"
)

// ErrEmptyInput means no answer survived filtering, so there is nothing to narrate.
var ErrEmptyInput = errors.New("no sufficient data to generate a story")

var (
	DefaultSentinels      = []string{"No", "false", "لا"}
	DefaultReservedPrefix = "id_"
)

// Builder turns an Answer Mapping into the single prompt string sent upstream.
type Builder struct {
	sentinels      map[string]struct{}
	reservedPrefix string
}

// Prompt is a built prompt plus the bookkeeping callers log.
type Prompt struct {
	Text    string
	Kept    int
	Dropped int
}

// NewBuilder compares sentinels against trimmed values, case-sensitively. An empty
// reservedPrefix disables key filtering.
func NewBuilder(sentinels []string, reservedPrefix string) *Builder {
	set := make(map[string]struct{}, len(sentinels))
	for _, s := range sentinels {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = struct{}{}
		}
	}
	return &Builder{sentinels: set, reservedPrefix: reservedPrefix}
}

func DefaultBuilder() *Builder {
	return NewBuilder(DefaultSentinels, DefaultReservedPrefix)
}

// Keep reports whether an answer carries information worth narrating.
func (b *Builder) Keep(a Answer) bool {
	if b.reservedPrefix != "" && strings.HasPrefix(a.Key, b.reservedPrefix) {
		return false
	}
	v := strings.TrimSpace(a.Value)
	if v == "" {
		return false
	}
	_, sentinel := b.sentinels[v]
	return !sentinel
}

// Filter returns the kept answers in their original order. It never mutates its input.
func (b *Builder) Filter(answers Answers) Answers {
	out := make(Answers, 0, len(answers))
	for _, a := range answers {
		if b.Keep(a) {
			out = append(out, Answer{Key: a.Key, Value: strings.TrimSpace(a.Value)})
		}
	}
	return out
}

// Serialize renders answers as "- key: value" lines.
func Serialize(answers Answers) string {
	lines := make([]string, 0, len(answers))
	for _, a := range answers {
		lines = append(lines, "- "+a.Key+": "+a.Value)
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) Build(answers Answers) (Prompt, error) {
	kept := b.Filter(answers)
	entries := Serialize(kept)
	if strings.TrimSpace(entries) == "" {
		return Prompt{Dropped: len(answers)}, ErrEmptyInput
	}
	return Prompt{
		Text:    SystemInstruction + "\n\n" + taskInstruction(entries),
		Kept:    len(kept),
		Dropped: len(answers) - len(kept),
	}, nil
}
