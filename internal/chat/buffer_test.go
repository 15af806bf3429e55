package chat

import (
	"testing"

	"github.com/cosmosinnovate/openchat-cli/internal/api"
)

func TestBufferAppendAndSnapshot(t *testing.T) {
	b := NewBuffer()
	b.Append(NewUserTurn("hello"))
	b.Append(NewAssistantPlaceholder())

	snap := b.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len = %d, want 2", len(snap))
	}
	if snap[0].Role != api.RoleUser || snap[0].Status != StatusComplete {
		t.Errorf("user turn = %+v", snap[0])
	}
	if snap[1].Role != api.RoleAssistant || snap[1].Status != StatusStreaming || snap[1].Content != "" {
		t.Errorf("placeholder = %+v", snap[1])
	}
}

func TestBufferAppendToTurn(t *testing.T) {
	b := NewBuffer()
	b.Append(NewUserTurn("q"))
	id := b.Append(NewAssistantPlaceholder())

	if !b.AppendToTurn(id, "Hel") {
		t.Fatal("AppendToTurn rejected streaming placeholder")
	}
	if !b.AppendToTurn(id, "lo") {
		t.Fatal("AppendToTurn rejected streaming placeholder")
	}
	if got := b.Snapshot()[1].Content; got != "Hello" {
		t.Errorf("content = %q, want %q", got, "Hello")
	}
}

func TestBufferAppendToTurnRejectsUserTurn(t *testing.T) {
	b := NewBuffer()
	id := b.Append(NewUserTurn("q"))

	if b.AppendToTurn(id, "stray") {
		t.Fatal("AppendToTurn accepted a user turn")
	}
	if got := b.Snapshot()[0].Content; got != "q" {
		t.Errorf("user content mutated: %q", got)
	}
}

func TestBufferAppendToTurnUnknownID(t *testing.T) {
	b := NewBuffer()
	if b.AppendToTurn(99, "x") {
		t.Fatal("AppendToTurn accepted an unknown id")
	}
}

func TestBufferAppendToTurnAfterFinish(t *testing.T) {
	b := NewBuffer()
	b.Append(NewUserTurn("q"))
	id := b.Append(NewAssistantPlaceholder())
	b.FinishTurn(id, StatusCancelled)

	if b.AppendToTurn(id, "late") {
		t.Fatal("AppendToTurn accepted a finished turn")
	}
}

func TestBufferFinishTurn(t *testing.T) {
	b := NewBuffer()
	b.Append(NewUserTurn("q"))
	id := b.Append(NewAssistantPlaceholder())
	b.AppendToTurn(id, "partial")

	b.FinishTurn(id, StatusFailed)
	snap := b.Snapshot()
	if snap[1].Status != StatusFailed {
		t.Errorf("status = %q, want failed", snap[1].Status)
	}
	if snap[1].Content != "partial" {
		t.Errorf("partial content lost: %q", snap[1].Content)
	}

	// Already terminal; a second finish must not overwrite.
	b.FinishTurn(id, StatusComplete)
	if got := b.Snapshot()[1].Status; got != StatusFailed {
		t.Errorf("terminal status overwritten to %q", got)
	}
}

func TestBufferFinishTurnNotLast(t *testing.T) {
	b := NewBuffer()
	b.Append(NewUserTurn("q1"))
	first := b.Append(NewAssistantPlaceholder())
	b.AppendToTurn(first, "old answer")
	b.Append(NewUserTurn("q2"))
	second := b.Append(NewAssistantPlaceholder())

	// Finishing an older turn must not touch the newer placeholder.
	b.FinishTurn(first, StatusCancelled)
	snap := b.Snapshot()
	if snap[1].Status != StatusCancelled {
		t.Errorf("older turn status = %q, want cancelled", snap[1].Status)
	}
	if snap[3].Status != StatusStreaming {
		t.Errorf("newer placeholder status = %q, want streaming", snap[3].Status)
	}

	b.FinishTurn(second, StatusComplete)
	if got := b.Snapshot()[3].Status; got != StatusComplete {
		t.Errorf("newer placeholder status = %q, want complete", got)
	}
}

func TestBufferFinishTurnIgnoresUserTurn(t *testing.T) {
	b := NewBuffer()
	id := b.Append(NewUserTurn("q"))
	b.FinishTurn(id, StatusCancelled)
	if got := b.Snapshot()[0].Status; got != StatusComplete {
		t.Errorf("user turn status = %q", got)
	}
}

func TestBufferIDsNotReusedAfterReset(t *testing.T) {
	b := NewBuffer()
	b.Append(NewUserTurn("q"))
	stale := b.Append(NewAssistantPlaceholder())

	b.Reset()
	b.Append(NewUserTurn("q2"))
	fresh := b.Append(NewAssistantPlaceholder())

	// A stale id must be a no-op, never an alias of a post-reset turn.
	if stale == fresh {
		t.Fatalf("id %d reused after reset", stale)
	}
	if b.AppendToTurn(stale, "ghost") {
		t.Fatal("AppendToTurn accepted a stale id after reset")
	}
	b.FinishTurn(stale, StatusCancelled)
	if got := b.Snapshot()[1].Status; got != StatusStreaming {
		t.Errorf("fresh placeholder status = %q after stale finish", got)
	}
}

func TestBufferWire(t *testing.T) {
	b := NewBuffer()
	b.Append(NewUserTurn("q"))
	id := b.Append(NewAssistantPlaceholder())
	b.AppendToTurn(id, "a")

	wire := b.Wire()
	if len(wire) != 2 {
		t.Fatalf("len = %d", len(wire))
	}
	if wire[0] != (api.Turn{Role: api.RoleUser, Content: "q"}) {
		t.Errorf("wire[0] = %+v", wire[0])
	}
	if wire[1] != (api.Turn{Role: api.RoleAssistant, Content: "a"}) {
		t.Errorf("wire[1] = %+v", wire[1])
	}
}

func TestBufferLoadReplaces(t *testing.T) {
	b := NewBuffer()
	b.Append(NewUserTurn("stale"))

	b.Load([]api.Turn{
		{Role: api.RoleUser, Content: "q1"},
		{Role: api.RoleAssistant, Content: "a1"},
	})

	snap := b.Snapshot()
	if len(snap) != 2 || snap[0].Content != "q1" {
		t.Fatalf("snapshot = %+v", snap)
	}
	for _, turn := range snap {
		if turn.Status != StatusComplete {
			t.Errorf("loaded turn status = %q, want complete", turn.Status)
		}
	}
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer()
	b.Append(NewUserTurn("q"))
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("len after reset = %d", b.Len())
	}
}
