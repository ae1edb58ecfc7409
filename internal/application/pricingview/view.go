// Package pricingview holds the admin pricing screen's state: the active
// service tab, the tiers on show, the open edit form, and the optimistic
// overlay that keeps saved edits visible while the store catches up.
package pricingview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domain "aurora/internal/domain/pricing"
	"aurora/internal/domain/result"
	"aurora/internal/domain/service"
)

// User-facing failure messages. Provider errors are logged, never shown.
const (
	MsgLoadFailed   = "Failed to load pricing tiers"
	MsgUpdateFailed = "Failed to update pricing tier"
	MsgDeleteFailed = "Failed to delete pricing tier"
)

var (
	ErrTierNotFound = errors.New("pricing tier is not in the current list")
	ErrNotConfirmed = errors.New("deletion was not confirmed")
	ErrNoDraft      = errors.New("no pricing tier is being edited")
)

// TierStore is the slice of the pricing repository the view drives.
type TierStore interface {
	List(ctx context.Context, st service.Type) result.Result[[]domain.Tier]
	Update(ctx context.Context, id string, patch domain.Patch) result.Result[result.Unit]
	Delete(ctx context.Context, id string) result.Result[result.Unit]
}

type pendingEdit struct {
	patch  domain.Patch
	sentAt time.Time
}

// View is one operator's pricing screen.
type View struct {
	store TierStore
	now   func() time.Time

	mu       sync.Mutex
	tab      service.Type
	tiers    []domain.Tier
	loaded   bool
	editing  *Draft
	message  string
	pending  map[string]pendingEdit
	deleted  map[string]struct{}
	seq      uint64 // last fetch started
	applied  uint64 // last fetch applied
	inflight sync.WaitGroup
}

// New creates a view on the given tab. Nothing is fetched until Load.
func New(store TierStore, tab service.Type) *View {
	if !tab.Valid() {
		tab = service.Default
	}
	return &View{
		store:   store,
		now:     time.Now,
		tab:     tab,
		pending: make(map[string]pendingEdit),
		deleted: make(map[string]struct{}),
	}
}

// Load fetches the active tab's tiers. The open draft is kept. On failure
// the previous list stays on screen and the failure message is set.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	v.seq++
	seq, tab := v.seq, v.tab
	v.mu.Unlock()
	return v.fetch(ctx, seq, tab, false)
}

// fetch applies a list result unless a newer fetch or a tab switch got
// there first. Background fetches fail silently.
func (v *View) fetch(ctx context.Context, seq uint64, tab service.Type, background bool) error {
	res := v.store.List(ctx, tab)

	v.mu.Lock()
	defer v.mu.Unlock()
	if tab != v.tab || seq <= v.applied {
		return nil
	}
	if !res.IsOk() {
		slog.Error("pricing_view_fetch_failed", "service_type", tab, "background", background, "error", res.Error())
		if !background {
			v.message = MsgLoadFailed
		}
		return res.Error()
	}
	v.applied = seq
	v.tiers = v.overlayLocked(res.Data())
	v.loaded = true
	if !background && v.message == MsgLoadFailed {
		v.message = ""
	}
	return nil
}

// overlayLocked reconciles a fetched list with edits and deletions the
// store may not show yet.
// INVARIANT: a merged edit is never replaced by an older stored version
func (v *View) overlayLocked(fetched []domain.Tier) []domain.Tier {
	present := make(map[string]bool, len(fetched))
	out := make([]domain.Tier, 0, len(fetched))
	for _, t := range fetched {
		present[t.ID] = true
		if _, gone := v.deleted[t.ID]; gone {
			continue
		}
		if p, ok := v.pending[t.ID]; ok {
			if t.UpdatedAt.Before(p.sentAt) {
				t = p.patch.Apply(t)
			} else {
				delete(v.pending, t.ID)
			}
		}
		out = append(out, t)
	}
	for id := range v.deleted {
		if !present[id] {
			delete(v.deleted, id)
		}
	}
	for id := range v.pending {
		if !present[id] {
			delete(v.pending, id)
		}
	}
	return out
}

// SelectTab switches service lines and loads the new tab. The edit form closes.
func (v *View) SelectTab(ctx context.Context, st service.Type) error {
	if !st.Valid() {
		return service.ErrInvalidServiceType
	}
	v.mu.Lock()
	if st != v.tab {
		v.tab = st
		v.tiers = nil
		v.loaded = false
	}
	v.editing = nil
	v.seq++
	seq := v.seq
	v.mu.Unlock()
	return v.fetch(ctx, seq, st, false)
}

// Tab returns the active service line.
func (v *View) Tab() service.Type {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tab
}

// Loaded reports whether at least one fetch for the current tab succeeded.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Tiers returns the tiers on show for the active tab.
func (v *View) Tiers() []domain.Tier {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Tier, 0, len(v.tiers))
	for _, t := range v.tiers {
		if t.ServiceType == v.tab {
			out = append(out, t.Clone())
		}
	}
	return out
}

// OpenEdit snapshots a listed tier into a fresh draft.
func (v *View) OpenEdit(id string) (Draft, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, t := range v.tiers {
		if t.ID == id {
			v.editing = newDraft(t)
			return v.editing.clone(), nil
		}
	}
	return Draft{}, ErrTierNotFound
}

// Editing returns a copy of the open draft, if any.
func (v *View) Editing() (Draft, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.editing == nil {
		return Draft{}, false
	}
	return v.editing.clone(), true
}

// EditDraft applies fn to the open draft.
func (v *View) EditDraft(fn func(d *Draft) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.editing == nil {
		return ErrNoDraft
	}
	return fn(v.editing)
}

// CloseEdit discards the open draft.
func (v *View) CloseEdit() {
	v.mu.Lock()
	v.editing = nil
	v.mu.Unlock()
}

// Save writes the open draft as a partial update. On success the editor
// closes, the change is merged into the list at once, and a background
// refetch reconciles with the store. On failure the editor stays open.
// PRE: a draft is open
func (v *View) Save(ctx context.Context) error {
	v.mu.Lock()
	if v.editing == nil {
		v.mu.Unlock()
		return ErrNoDraft
	}
	id := v.editing.TierID
	patch := v.editing.Patch()
	v.mu.Unlock()

	sentAt := v.now().UTC().Truncate(time.Microsecond)
	res := v.store.Update(ctx, id, patch)
	if !res.IsOk() {
		slog.Error("pricing_view_save_failed", "id", id, "error", res.Error())
		v.mu.Lock()
		v.message = MsgUpdateFailed
		v.mu.Unlock()
		return res.Error()
	}

	v.mu.Lock()
	if v.editing != nil && v.editing.TierID == id {
		v.editing = nil
	}
	for i, t := range v.tiers {
		if t.ID == id {
			v.tiers[i] = patch.Apply(t)
		}
	}
	v.pending[id] = pendingEdit{patch: patch, sentAt: sentAt}
	v.message = ""
	v.mu.Unlock()

	v.reconcile(ctx)
	return nil
}

// Delete removes a tier once the operator has confirmed.
// PRE: confirmed is true
func (v *View) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	v.mu.Lock()
	found := false
	for _, t := range v.tiers {
		if t.ID == id {
			found = true
			break
		}
	}
	v.mu.Unlock()
	if !found {
		return ErrTierNotFound
	}

	res := v.store.Delete(ctx, id)
	if !res.IsOk() {
		slog.Error("pricing_view_delete_failed", "id", id, "error", res.Error())
		v.mu.Lock()
		v.message = MsgDeleteFailed
		v.mu.Unlock()
		return res.Error()
	}

	v.mu.Lock()
	kept := v.tiers[:0:0]
	for _, t := range v.tiers {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	v.tiers = kept
	v.deleted[id] = struct{}{}
	delete(v.pending, id)
	if v.editing != nil && v.editing.TierID == id {
		v.editing = nil
	}
	v.message = ""
	v.mu.Unlock()

	v.reconcile(ctx)
	return nil
}

// reconcile refetches the active tab in the background. Failures are
// logged and the merged local state stays as it is.
func (v *View) reconcile(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	v.mu.Lock()
	v.seq++
	seq, tab := v.seq, v.tab
	v.inflight.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.inflight.Done()
		_ = v.fetch(ctx, seq, tab, true)
	}()
}

// Sync waits for background reconciliation to finish.
func (v *View) Sync() {
	v.inflight.Wait()
}

// Message returns the last user-facing failure message, or "".
func (v *View) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// ClearMessage dismisses the failure message.
func (v *View) ClearMessage() {
	v.mu.Lock()
	v.message = ""
	v.mu.Unlock()
}
