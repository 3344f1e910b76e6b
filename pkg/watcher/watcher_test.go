package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var fired atomic.Int32

	for i := 0; i < 10; i++ {
		d.Trigger(func() { fired.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("burst fired %d times, want 1", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var fired atomic.Int32

	d.Trigger(func() { fired.Add(1) })
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("cancelled trigger still fired %d times", got)
	}
}

func TestDebouncerFloorsDuration(t *testing.T) {
	if d := NewDebouncer(0); d.Duration() != DefaultDebounceDuration {
		t.Errorf("zero duration = %v, want default", d.Duration())
	}
	if d := NewDebouncer(-time.Second); d.Duration() != DefaultDebounceDuration {
		t.Errorf("negative duration = %v, want default", d.Duration())
	}
}

func TestWatchedFileMatchesWALSiblings(t *testing.T) {
	w, err := New("/data/moonview.db")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"/data/moonview.db",
		"/data/moonview.db-wal",
		"/data/moonview.db-shm",
	} {
		if !w.watchedFile(name) {
			t.Errorf("%s should be watched", name)
		}
	}
	for _, name := range []string{
		"/data/other.db",
		"/data/moonview.db.bak",
		"/data/moonview.db-journal2",
	} {
		if w.watchedFile(name) {
			t.Errorf("%s should not be watched", name)
		}
	}
}

func TestStatCombinedFoldsWAL(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "m.db")
	if err := os.WriteFile(db, []byte("main"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, size, err := statCombined(db)
	if err != nil {
		t.Fatal(err)
	}
	if size != 4 {
		t.Errorf("size without wal = %d, want 4", size)
	}

	if err := os.WriteFile(db+"-wal", []byte("wal-data"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, size, err = statCombined(db)
	if err != nil {
		t.Fatal(err)
	}
	if size != 12 {
		t.Errorf("size with wal = %d, want 12", size)
	}
}

func TestPollingDetectsChange(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "m.db")
	if err := os.WriteFile(db, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 4)
	w, err := New(db,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounce(10*time.Millisecond),
		WithOnChange(func() { changed <- struct{}{} }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("forced polling mode not active")
	}

	// Quiet file: no change notifications.
	select {
	case <-changed:
		t.Fatal("change reported without a write")
	case <-time.After(80 * time.Millisecond):
	}

	if err := os.WriteFile(db, []byte("version-2"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("write never reported")
	}
}

func TestPollingDetectsWALOnlyWrite(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "m.db")
	if err := os.WriteFile(db, []byte("main"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 4)
	w, err := New(db,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounce(10*time.Millisecond),
		WithOnChange(func() { changed <- struct{}{} }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// WAL mode lands writes in the sibling, not the main file.
	if err := os.WriteFile(db+"-wal", []byte("frames"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("wal write never reported")
	}
}

func TestPollingReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "m.db")
	if err := os.WriteFile(db, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	errs := make(chan error, 4)
	w, err := New(db,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithOnError(func(e error) { errs <- e }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(db); err != nil {
		t.Fatal(err)
	}
	select {
	case e := <-errs:
		if e != ErrFileRemoved {
			t.Errorf("error = %v, want ErrFileRemoved", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("removal never reported")
	}
}

func TestStartTwiceFails(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "m.db"), WithForcePoll(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "m.db"), WithForcePoll(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
