package chat

import (
	"sync"
	"time"

	"github.com/cosmosinnovate/openchat-cli/internal/api"
)

// TurnStatus distinguishes a partial answer from a finished one. Only the
// most recent assistant turn of an active exchange is ever non-complete.
type TurnStatus string

const (
	StatusStreaming TurnStatus = "streaming"
	StatusComplete  TurnStatus = "complete"
	StatusFailed    TurnStatus = "failed"
	StatusCancelled TurnStatus = "cancelled"
)

// Turn is one message in the active conversation.
type Turn struct {
	// id is buffer-assigned, monotonic, and never reused.
	id int64

	Role      api.Role
	Content   string
	Status    TurnStatus
	CreatedAt time.Time
}

// NewUserTurn creates a user turn.
func NewUserTurn(content string) Turn {
	return Turn{Role: api.RoleUser, Content: content, Status: StatusComplete, CreatedAt: time.Now()}
}

// NewAssistantPlaceholder creates the empty assistant turn appended before
// the network exchange starts.
func NewAssistantPlaceholder() Turn {
	return Turn{Role: api.RoleAssistant, Status: StatusStreaming, CreatedAt: time.Now()}
}

// Buffer holds the ordered turn sequence of the active conversation. Turn
// boundaries are append-only; the single in-place mutation is content growth
// of an assistant placeholder, addressed by the id Append hands out so an
// exchange can only ever touch the turn it owns. Content only grows, never
// shrinks, during an exchange.
type Buffer struct {
	mu     sync.Mutex
	turns  []Turn
	nextID int64
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a turn at the end of the sequence and returns its id. The id
// space is never reused, so a stale id is a no-op rather than a collision
// after Reset or Load.
func (b *Buffer) Append(t Turn) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	t.id = b.nextID
	b.turns = append(b.turns, t)
	return t.id
}

// AppendToTurn grows the content of the identified turn while it is an
// assistant turn still streaming. Deltas addressed to a finished or
// vanished turn are dropped rather than attached to the wrong one.
func (b *Buffer) AppendToTurn(id int64, text string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.turns {
		if b.turns[i].id != id {
			continue
		}
		if b.turns[i].Role != api.RoleAssistant || b.turns[i].Status != StatusStreaming {
			return false
		}
		b.turns[i].Content += text
		return true
	}
	return false
}

// FinishTurn stamps the terminal status on the identified turn if it is an
// assistant turn still streaming. Terminal statuses never transition again.
func (b *Buffer) FinishTurn(id int64, status TurnStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.turns {
		if b.turns[i].id != id {
			continue
		}
		if b.turns[i].Role == api.RoleAssistant && b.turns[i].Status == StatusStreaming {
			b.turns[i].Status = status
		}
		return
	}
}

// Snapshot returns a copy of the full ordered sequence.
func (b *Buffer) Snapshot() []Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Turn, len(b.turns))
	copy(out, b.turns)
	return out
}

// Wire converts the current sequence to its transport form.
func (b *Buffer) Wire() []api.Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]api.Turn, 0, len(b.turns))
	for _, t := range b.turns {
		out = append(out, api.Turn{Role: t.Role, Content: t.Content})
	}
	return out
}

// Load replaces the sequence with turns fetched from the server.
func (b *Buffer) Load(turns []api.Turn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = make([]Turn, 0, len(turns))
	for _, t := range turns {
		b.nextID++
		b.turns = append(b.turns, Turn{id: b.nextID, Role: t.Role, Content: t.Content, Status: StatusComplete})
	}
}

// Reset empties the buffer for a new conversation.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = nil
}

// Len returns the number of turns.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.turns)
}
