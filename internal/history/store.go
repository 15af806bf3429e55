package history

import (
	"context"
	"sync"

	"github.com/cosmosinnovate/openchat-cli/internal/api"
)

// Entry is the sidebar-level summary of one conversation.
type Entry struct {
	ID    string
	Title string
}

// OpState tracks one asynchronous operation's request lifecycle.
type OpState int

const (
	OpIdle OpState = iota
	OpPending
	OpSucceeded
	OpFailed
)

// OpStatus is the observable state of one operation, with its last error.
type OpStatus struct {
	State OpState
	Err   error
}

// Service is the slice of the conversation API the store depends on.
type Service interface {
	ListConversations(ctx context.Context) ([]api.ConversationSummary, error)
	DeleteConversation(ctx context.Context, id string) error
	RenameConversation(ctx context.Context, id, title string) (api.ConversationSummary, error)
}

// Store holds the reconciled conversation list shared process-wide. Its
// three operations are independent: each carries its own request state and
// applies an isolated mutation on success. Fetch replaces the list
// wholesale; remove and rename patch individual entries. No ordering is
// guaranteed between concurrent operations — a fetch landing after a rename
// but carrying pre-rename data will revert the title, which is accepted.
type Store struct {
	svc Service

	mu       sync.Mutex
	entries  []Entry
	fetchOp  OpStatus
	removeOp OpStatus
	renameOp OpStatus
}

func NewStore(svc Service) *Store {
	return &Store{svc: svc}
}

// Fetch retrieves the full summary list and replaces the local list on
// success. On failure the prior list is left intact.
func (s *Store) Fetch(ctx context.Context) error {
	s.setOp(&s.fetchOp, OpPending, nil)

	summaries, err := s.svc.ListConversations(ctx)
	if err != nil {
		s.setOp(&s.fetchOp, OpFailed, err)
		return err
	}

	entries := make([]Entry, 0, len(summaries))
	for _, sum := range summaries {
		entries = append(entries, Entry{ID: sum.ID, Title: sum.Title})
	}

	s.mu.Lock()
	s.entries = entries
	s.fetchOp = OpStatus{State: OpSucceeded}
	s.mu.Unlock()
	return nil
}

// Remove deletes one conversation and filters it out of the local list on
// success. On failure the list is untouched.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.setOp(&s.removeOp, OpPending, nil)

	if err := s.svc.DeleteConversation(ctx, id); err != nil {
		s.setOp(&s.removeOp, OpFailed, err)
		return err
	}

	s.mu.Lock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.removeOp = OpStatus{State: OpSucceeded}
	s.mu.Unlock()
	return nil
}

// Rename updates a conversation title server-side and merges the returned
// record's non-zero fields into the matching local entry. On failure no
// local mutation occurs.
func (s *Store) Rename(ctx context.Context, id, title string) error {
	s.setOp(&s.renameOp, OpPending, nil)

	updated, err := s.svc.RenameConversation(ctx, id, title)
	if err != nil {
		s.setOp(&s.renameOp, OpFailed, err)
		return err
	}

	s.mu.Lock()
	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		if updated.Title != "" {
			s.entries[i].Title = updated.Title
		}
		if updated.ID != "" {
			s.entries[i].ID = updated.ID
		}
		break
	}
	s.renameOp = OpStatus{State: OpSucceeded}
	s.mu.Unlock()
	return nil
}

// Entries returns a snapshot of the current list.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// FetchStatus returns the fetch operation's request state.
func (s *Store) FetchStatus() OpStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchOp
}

// RemoveStatus returns the remove operation's request state.
func (s *Store) RemoveStatus() OpStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeOp
}

// RenameStatus returns the rename operation's request state.
func (s *Store) RenameStatus() OpStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renameOp
}

func (s *Store) setOp(op *OpStatus, state OpState, err error) {
	s.mu.Lock()
	*op = OpStatus{State: state, Err: err}
	s.mu.Unlock()
}
