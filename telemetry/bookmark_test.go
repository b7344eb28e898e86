package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FirstCapture(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(WindowStats{WindowEndTick: 99, Ticks: 100}); len(got) != 0 {
		t.Fatalf("unexpected bookmarks %v", got)
	}

	got := bd.Check(WindowStats{WindowEndTick: 199, Ticks: 100, Consumed: 2, ConsumedPerTick: 0.02})
	if !hasBookmark(got, BookmarkFirstCapture) {
		t.Fatal("expected first_capture bookmark")
	}
	if got[0].Tick != 199 {
		t.Errorf("Tick = %d, want 199", got[0].Tick)
	}

	// Only once
	got = bd.Check(WindowStats{WindowEndTick: 299, Ticks: 100, Consumed: 2, ConsumedPerTick: 0.02})
	if hasBookmark(got, BookmarkFirstCapture) {
		t.Error("first_capture triggered twice")
	}
}

func TestBookmarkDetector_CaptureSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick:   i*100 + 99,
			Ticks:           100,
			Consumed:        10,
			ConsumedPerTick: 0.1,
		})
	}

	bookmarks := bd.Check(WindowStats{
		WindowEndTick:   599,
		Ticks:           100,
		Consumed:        40,
		ConsumedPerTick: 0.4, // 4x the 0.1 average
	})
	if !hasBookmark(bookmarks, BookmarkCaptureSurge) {
		t.Error("expected capture_surge bookmark")
	}
}

func TestBookmarkDetector_CaptureDrought(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEndTick: i*100 + 99, Ticks: 100, Consumed: 5, ConsumedPerTick: 0.05})
	}

	dry := WindowStats{WindowEndTick: 499, Ticks: 100}
	if !hasBookmark(bd.Check(dry), BookmarkCaptureDrought) {
		t.Fatal("expected capture_drought bookmark")
	}

	// A continuing drought is reported once
	dry.WindowEndTick = 599
	if hasBookmark(bd.Check(dry), BookmarkCaptureDrought) {
		t.Error("capture_drought triggered twice for one drought")
	}
}

func TestBookmarkDetector_ExitSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEndTick: i*100 + 99, Ticks: 100, Exited: 4})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 499, Ticks: 100, Exited: 20})
	if !hasBookmark(bookmarks, BookmarkExitSurge) {
		t.Error("expected exit_surge bookmark")
	}
}

func TestBookmarkDetector_SteadyFeeding(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := -1
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick:   i*100 + 99,
			Ticks:           100,
			Consumed:        10,
			ConsumedPerTick: 0.1,
		})
		if hasBookmark(bookmarks, BookmarkSteadyFeeding) {
			if triggered >= 0 {
				t.Fatalf("steady_feeding triggered again at window %d", i)
			}
			triggered = i
		}
	}
	// Four windows of history, then five steady checks
	if triggered != 8 {
		t.Errorf("steady_feeding at window %d, want 8", triggered)
	}
}

func TestBookmarkDetector_HistoryWraps(t *testing.T) {
	bd := NewBookmarkDetector(5)
	for i := 0; i < 7; i++ {
		bd.Check(WindowStats{WindowEndTick: i})
	}
	history := bd.getHistory()
	if len(history) != 5 {
		t.Fatalf("len(history) = %d, want 5", len(history))
	}
	for i, h := range history {
		if h.WindowEndTick != i+2 {
			t.Errorf("history[%d].WindowEndTick = %d, want %d", i, h.WindowEndTick, i+2)
		}
	}
}
