package session

import (
	"context"
	"sync"
)

// TargetKind tags the two conversation dispatch paths.
type TargetKind int

const (
	// TargetNew means no conversation exists yet; the first successful
	// exchange supplies the server-assigned id.
	TargetNew TargetKind = iota
	// TargetExisting continues a known conversation.
	TargetExisting
)

// Target is the explicit new-vs-existing variant threaded through the
// controller instead of a nullable id inspected at each call site.
type Target struct {
	Kind TargetKind
	ID   string
}

// Existing builds a target for a known conversation id.
func Existing(id string) Target {
	return Target{Kind: TargetExisting, ID: id}
}

// Resolver decides which conversation is active and keeps the device-local
// record in sync. Precedence: an externally supplied id wins and is
// persisted; otherwise the previously persisted id is used; otherwise the
// session starts pending a new conversation.
type Resolver struct {
	store Store

	mu     sync.Mutex
	target Target
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve establishes the active target. explicit is the externally
// supplied id (empty for none), e.g. from a CLI flag.
func (r *Resolver) Resolve(ctx context.Context, explicit string) (Target, error) {
	if explicit != "" {
		if err := r.store.SetActive(ctx, explicit); err != nil {
			return Target{}, err
		}
		return r.setTarget(Existing(explicit)), nil
	}

	persisted, err := r.store.GetActive(ctx)
	if err != nil {
		return Target{}, err
	}
	if persisted != "" {
		return r.setTarget(Existing(persisted)), nil
	}
	return r.setTarget(Target{Kind: TargetNew}), nil
}

// Target returns the currently resolved target.
func (r *Resolver) Target() Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// Adopt records the server-assigned id after the first successful exchange
// of a new conversation and persists it.
func (r *Resolver) Adopt(ctx context.Context, id string) error {
	if err := r.store.SetActive(ctx, id); err != nil {
		return err
	}
	r.setTarget(Existing(id))
	return nil
}

// Clear erases the persisted id and resets to a pending new conversation.
func (r *Resolver) Clear(ctx context.Context) error {
	if err := r.store.ClearActive(ctx); err != nil {
		return err
	}
	r.setTarget(Target{Kind: TargetNew})
	return nil
}

func (r *Resolver) setTarget(t Target) Target {
	r.mu.Lock()
	r.target = t
	r.mu.Unlock()
	return t
}
