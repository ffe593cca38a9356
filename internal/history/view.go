package history

import (
	"sync"

	"github.com/BettaJiayi/pixverse-webui/internal/domain"
)

// PageSize fixes how many records one history page shows.
const PageSize = 5

// Tracker re-opens polling for a job. Implemented by the lifecycle manager.
type Tracker interface {
	Track(id string) error
}

// Copier writes text to the system clipboard, best-effort. A failure tells
// the caller to fall back to a manual-selection prompt.
type Copier interface {
	Copy(text string) error
}

// Confirm asks the user to approve a destructive action.
type Confirm func(prompt string) bool

// Page is one slice of the history projection.
type Page struct {
	Items      []domain.JobRecord
	Number     int
	TotalPages int
	Total      int
	HasPrev    bool
	HasNext    bool
}

// View is a read-only, paginated projection over the store plus the per-row
// user actions. It renders nothing itself.
type View struct {
	mu      sync.Mutex
	store   *Store
	tracker Tracker
	copier  Copier
	page    int
}

// NewView builds a view starting at page 1. Upserts and clears reset the view
// back to the first page.
func NewView(store *Store, tracker Tracker, copier Copier) *View {
	v := &View{store: store, tracker: tracker, copier: copier, page: 1}
	store.Subscribe(func(kind ChangeKind) {
		if kind == ChangeUpsert || kind == ChangeClear {
			v.SetPage(1)
		}
	})
	return v
}

// SetPage requests a page; the value is clamped when the page is built.
func (v *View) SetPage(n int) {
	v.mu.Lock()
	v.page = n
	v.mu.Unlock()
}

// Current builds the page the view points at, sorted newest first and clamped
// into [1, totalPages].
func (v *View) Current() Page {
	all := v.store.All()
	total := len(all)
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	v.mu.Lock()
	page := v.page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	v.page = page
	v.mu.Unlock()

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Items:      all[start:end],
		Number:     page,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// Next advances one page unless already at the end.
func (v *View) Next() Page {
	cur := v.Current()
	if cur.HasNext {
		v.SetPage(cur.Number + 1)
	}
	return v.Current()
}

// Prev goes back one page unless already at the start.
func (v *View) Prev() Page {
	cur := v.Current()
	if cur.HasPrev {
		v.SetPage(cur.Number - 1)
	}
	return v.Current()
}

// Recheck re-opens polling for the given row.
func (v *View) Recheck(id string) error {
	if v.tracker == nil {
		return domain.ErrNotFound
	}
	return v.tracker.Track(id)
}

// CopyID copies a job id to the clipboard. The returned error means the
// caller should prompt the user to copy manually.
func (v *View) CopyID(id string) error {
	if v.copier == nil {
		return domain.ErrNotFound
	}
	return v.copier.Copy(id)
}

// Delete removes one row after confirmation. Reports whether it happened.
func (v *View) Delete(id string, confirm Confirm) bool {
	if confirm != nil && !confirm("delete record #"+id+"?") {
		return false
	}
	v.store.Remove(id)
	return true
}

// ClearAll wipes the history after confirmation. Reports whether it happened.
func (v *View) ClearAll(confirm Confirm) bool {
	if v.store.Len() == 0 {
		return false
	}
	if confirm != nil && !confirm("clear all history records?") {
		return false
	}
	v.store.Clear()
	return true
}

// RowProgress is the simple list estimator: a pure function of the stored
// status code, recomputed on every render. Terminal codes read as done,
// running shows a fixed midpoint, everything else a sliver.
func RowProgress(code domain.StatusCode) int {
	switch {
	case code.Terminal():
		return 100
	case code == domain.StatusRunning:
		return 60
	default:
		return 10
	}
}
