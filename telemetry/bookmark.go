package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFirstCapture   BookmarkType = "first_capture"
	BookmarkCaptureSurge   BookmarkType = "capture_surge"
	BookmarkCaptureDrought BookmarkType = "capture_drought"
	BookmarkExitSurge      BookmarkType = "exit_surge"
	BookmarkSteadyFeeding  BookmarkType = "steady_feeding"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Tick        int          `json:"tick"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using logger.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable windows in the feeding record.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	captured           bool // a capture has been seen
	inDrought          bool
	steadyWindowsCount int // consecutive windows with steady consumption
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady feeding detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// First capture: the anemone eats for the first time
	if !bd.captured && stats.Consumed > 0 {
		bd.captured = true
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkFirstCapture,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("First %d captures in window ending at tick %d", stats.Consumed, stats.WindowEndTick),
		})
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Capture surge: consumption > 2x rolling average
		if b := bd.checkCaptureSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Capture drought: nothing eaten after regular feeding
		if b := bd.checkCaptureDrought(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Exit surge: exits > 2x rolling average
		if b := bd.checkExitSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Steady feeding: low variance in consumption over 5+ windows
		if b := bd.checkSteadyFeeding(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns recorded windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkCaptureSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.ConsumedPerTick
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.ConsumedPerTick > avg*2.0 && stats.Consumed >= 3 {
		return &Bookmark{
			Type:        BookmarkCaptureSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Capture rate %.3f/tick is %.1fx average (%.3f)", stats.ConsumedPerTick, stats.ConsumedPerTick/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkCaptureDrought(stats WindowStats) *Bookmark {
	if stats.Consumed > 0 {
		bd.inDrought = false
		return nil
	}
	if bd.inDrought {
		return nil
	}

	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	for _, h := range history[len(history)-3:] {
		if h.Consumed == 0 {
			return nil
		}
	}

	bd.inDrought = true
	return &Bookmark{
		Type:        BookmarkCaptureDrought,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("No captures over %d ticks after 3 feeding windows", stats.Ticks),
	}
}

func (bd *BookmarkDetector) checkExitSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Exited
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Exited) > avg*2.0 && stats.Exited >= 5 {
		return &Bookmark{
			Type:        BookmarkExitSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d exits is %.1fx average (%.1f)", stats.Exited, float64(stats.Exited)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSteadyFeeding(stats WindowStats) *Bookmark {
	if stats.Consumed == 0 {
		bd.steadyWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.ConsumedPerTick
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.ConsumedPerTick - mean
		variance += d * d
	}
	variance /= 4

	// CV^2 < 0.04 means CV < 0.2
	if mean > 0 && variance/(mean*mean) < 0.04 {
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteadyFeeding,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Steady feeding at %.3f captures/tick over 5+ windows", mean),
		}
	}
	return nil
}
