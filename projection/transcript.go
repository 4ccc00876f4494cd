// Package projection builds per-contact transcripts from stored messages.
// Handles ordering and deduplication; it never touches the network or disk.
package projection

import (
	"fmt"
	"sort"

	"messenger-lab/domain"
)

// Transcript is the chronological, deduplicated rendering of one
// conversation. It is derived state: rebuilt from the profile on demand and
// never persisted.
type Transcript struct {
	Contact string
	Lines   []string

	seen map[string]struct{}
}

func NewTranscript(contact string) *Transcript {
	return &Transcript{Contact: contact, seen: make(map[string]struct{})}
}

// Render is the single line format every transcript entry uses.
func Render(msg domain.Message) string {
	return fmt.Sprintf("%s : %s", msg.From, msg.Text)
}

// Merge folds messages into the transcript and returns the lines it added.
// The input is stable-sorted ascending by timestamp, so equal timestamps
// keep their original relative order. A line whose exact text is already
// present is skipped, which makes merging idempotent: feeding the same
// accumulated input through repeated polling cycles adds nothing twice.
func (t *Transcript) Merge(messages []domain.Message) []string {
	ordered := append([]domain.Message(nil), messages...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	var added []string
	for _, msg := range ordered {
		line := Render(msg)
		if _, dup := t.seen[line]; dup {
			continue
		}
		t.seen[line] = struct{}{}
		t.Lines = append(t.Lines, line)
		added = append(added, line)
	}
	return added
}

// Build renders a complete transcript in one shot.
func Build(contact string, messages []domain.Message) []string {
	t := NewTranscript(contact)
	t.Merge(messages)
	return t.Lines
}
