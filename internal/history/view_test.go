package history

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/BettaJiayi/pixverse-webui/internal/domain"
)

type fakeTracker struct {
	tracked []string
	err     error
}

func (f *fakeTracker) Track(id string) error {
	f.tracked = append(f.tracked, id)
	return f.err
}

type fakeCopier struct {
	copied []string
	err    error
}

func (f *fakeCopier) Copy(text string) error {
	if f.err != nil {
		return f.err
	}
	f.copied = append(f.copied, text)
	return nil
}

func fillStore(t *testing.T, store *Store, n int) {
	t.Helper()
	base := time.Now()
	for i := 0; i < n; i++ {
		store.Upsert(domain.JobRecord{
			ID:        fmt.Sprintf("job-%02d", i),
			Prompt:    fmt.Sprintf("prompt %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestPagination(t *testing.T) {
	store, _ := testStore(t)
	view := NewView(store, nil, nil)
	fillStore(t, store, 12)

	p := view.Current()
	if p.TotalPages != 3 || p.Total != 12 {
		t.Fatalf("pages = %d total = %d, want 3/12", p.TotalPages, p.Total)
	}
	if p.Number != 1 || len(p.Items) != PageSize {
		t.Fatalf("page 1 has %d items, want %d", len(p.Items), PageSize)
	}
	// newest record first
	if p.Items[0].ID != "job-11" {
		t.Fatalf("first item = %s, want job-11", p.Items[0].ID)
	}
	if p.HasPrev || !p.HasNext {
		t.Fatalf("page 1 boundaries wrong: prev=%v next=%v", p.HasPrev, p.HasNext)
	}

	view.SetPage(3)
	p = view.Current()
	if len(p.Items) != 2 {
		t.Fatalf("last page has %d items, want 2", len(p.Items))
	}
	if !p.HasPrev || p.HasNext {
		t.Fatalf("last page boundaries wrong: prev=%v next=%v", p.HasPrev, p.HasNext)
	}
}

func TestPageClamping(t *testing.T) {
	store, _ := testStore(t)
	view := NewView(store, nil, nil)
	fillStore(t, store, 12)

	view.SetPage(0)
	if p := view.Current(); p.Number != 1 {
		t.Fatalf("page 0 clamped to %d, want 1", p.Number)
	}
	view.SetPage(99)
	if p := view.Current(); p.Number != 3 {
		t.Fatalf("page 99 clamped to %d, want 3", p.Number)
	}
}

func TestEmptyStoreHasOnePage(t *testing.T) {
	store, _ := testStore(t)
	view := NewView(store, nil, nil)
	p := view.Current()
	if p.Number != 1 || p.TotalPages != 1 || len(p.Items) != 0 {
		t.Fatalf("empty view page = %+v", p)
	}
}

func TestNextPrevRespectBoundaries(t *testing.T) {
	store, _ := testStore(t)
	view := NewView(store, nil, nil)
	fillStore(t, store, 12)

	if p := view.Prev(); p.Number != 1 {
		t.Fatalf("prev from page 1 moved to %d", p.Number)
	}
	if p := view.Next(); p.Number != 2 {
		t.Fatalf("next from page 1 = %d, want 2", p.Number)
	}
	view.SetPage(3)
	if p := view.Next(); p.Number != 3 {
		t.Fatalf("next from last page moved to %d", p.Number)
	}
}

func TestUpsertResetsToFirstPage(t *testing.T) {
	store, _ := testStore(t)
	view := NewView(store, nil, nil)
	fillStore(t, store, 12)

	view.SetPage(3)
	store.Upsert(domain.JobRecord{ID: "job-new", CreatedAt: time.Now().Add(time.Hour)})
	if p := view.Current(); p.Number != 1 {
		t.Fatalf("page after upsert = %d, want 1", p.Number)
	}
	// a removal keeps the current page
	view.SetPage(2)
	store.Remove("job-00")
	if p := view.Current(); p.Number != 2 {
		t.Fatalf("page after remove = %d, want 2", p.Number)
	}
}

func TestRecheckDelegatesToTracker(t *testing.T) {
	store, _ := testStore(t)
	tracker := &fakeTracker{}
	view := NewView(store, tracker, nil)

	if err := view.Recheck("348273"); err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if len(tracker.tracked) != 1 || tracker.tracked[0] != "348273" {
		t.Fatalf("tracked = %v", tracker.tracked)
	}
}

func TestCopyIDReportsFailureForManualFallback(t *testing.T) {
	store, _ := testStore(t)
	copier := &fakeCopier{err: errors.New("no clipboard")}
	view := NewView(store, nil, copier)

	if err := view.CopyID("348273"); err == nil {
		t.Fatalf("expected failure to propagate for manual fallback")
	}

	copier.err = nil
	if err := view.CopyID("348273"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if len(copier.copied) != 1 || copier.copied[0] != "348273" {
		t.Fatalf("copied = %v", copier.copied)
	}
}

func TestDeleteRespectsConfirmation(t *testing.T) {
	store, _ := testStore(t)
	view := NewView(store, nil, nil)
	store.Upsert(domain.JobRecord{ID: "1"})

	if view.Delete("1", func(string) bool { return false }) {
		t.Fatalf("declined delete still reported done")
	}
	if store.Len() != 1 {
		t.Fatalf("declined delete removed the record")
	}

	if !view.Delete("1", func(string) bool { return true }) {
		t.Fatalf("confirmed delete reported not done")
	}
	if store.Len() != 0 {
		t.Fatalf("confirmed delete kept the record")
	}
}

func TestClearAllSkipsEmptyStore(t *testing.T) {
	store, _ := testStore(t)
	view := NewView(store, nil, nil)

	asked := false
	if view.ClearAll(func(string) bool { asked = true; return true }) {
		t.Fatalf("clear on empty store reported done")
	}
	if asked {
		t.Fatalf("empty store should not prompt")
	}

	store.Upsert(domain.JobRecord{ID: "1"})
	if !view.ClearAll(nil) {
		t.Fatalf("clear with nil confirm should proceed")
	}
	if store.Len() != 0 {
		t.Fatalf("store not cleared")
	}
}

func TestRowProgress(t *testing.T) {
	cases := []struct {
		code domain.StatusCode
		want int
	}{
		{domain.StatusCompleted, 100},
		{domain.StatusRejected, 100},
		{domain.StatusFailed, 100},
		{domain.StatusRunning, 60},
		{domain.StatusUnqueried, 10},
	}
	for _, tc := range cases {
		if got := RowProgress(tc.code); got != tc.want {
			t.Fatalf("RowProgress(%v) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
