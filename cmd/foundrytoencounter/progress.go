package main

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"

	"github.com/rrgeorge/FoundryToEncounter/internal/converter"
)

var stageLabels = map[converter.Stage]string{
	converter.StageDownload:   "Downloading source",
	converter.StageFolders:    "Folders",
	converter.StageJournal:    "Journal entries",
	converter.StagePlaylists:  "Playlists",
	converter.StageTables:     "Roll tables",
	converter.StageMaps:       "Maps",
	converter.StageAssets:     "Assets",
	converter.StageCompendium: "Compendium",
	converter.StagePackage:    "Packaging",
}

// progressUI renders one tracker per conversion stage, each appearing as the
// converter reaches it.
type progressUI struct {
	writer progress.Writer

	mu       sync.Mutex
	trackers map[converter.Stage]*progress.Tracker
}

func newProgressUI(out io.Writer) *progressUI {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetAutoStop(false)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Speed = false
	go pw.Render()
	return &progressUI{
		writer:   pw,
		trackers: make(map[converter.Stage]*progress.Tracker),
	}
}

// report implements converter.ProgressFunc.
func (p *progressUI) report(stage converter.Stage, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tracker, ok := p.trackers[stage]
	if !ok {
		label := stageLabels[stage]
		if label == "" {
			label = string(stage)
		}
		tracker = &progress.Tracker{Message: label, Total: int64(total)}
		p.trackers[stage] = tracker
		p.writer.AppendTracker(tracker)
	}
	tracker.UpdateTotal(int64(total))
	tracker.SetValue(int64(done))
	if total > 0 && done >= total {
		tracker.MarkAsDone()
	}
}

// stop closes any open trackers and waits for the renderer to drain.
func (p *progressUI) stop() {
	p.mu.Lock()
	for _, tracker := range p.trackers {
		if !tracker.IsDone() {
			tracker.MarkAsDone()
		}
	}
	p.mu.Unlock()
	p.writer.Stop()
	for p.writer.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

func interactiveTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
