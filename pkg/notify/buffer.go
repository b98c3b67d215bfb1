package notify

import (
	"strings"
)

// Buffer collects the ordered log lines of one account-cycle. It is owned by
// the cycle that created it and never shared across accounts.
type Buffer struct {
	account string
	lines   []string
}

func NewBuffer(account string) *Buffer {
	return &Buffer{account: account}
}

func (b *Buffer) Account() string {
	return b.account
}

// Append adds one line to the cycle log.
func (b *Buffer) Append(line string) {
	b.lines = append(b.lines, "["+b.account+"] "+line)
}

func (b *Buffer) Len() int {
	return len(b.lines)
}

func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Join renders the buffered lines as one payload, capped at limit characters.
// When the cap is exceeded the oldest content is dropped so that the most
// recent outcomes survive.
func (b *Buffer) Join(limit int) string {
	joined := strings.Join(b.lines, "\n")
	if limit > 0 && len(joined) > limit {
		joined = joined[len(joined)-limit:]
	}
	return joined
}
