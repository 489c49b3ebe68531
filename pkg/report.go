package dupedetector

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// StageStats records how one pipeline stage narrowed the candidate set
type StageStats struct {
	Stage     string
	GroupsIn  int
	FilesIn   int
	GroupsOut int
	FilesOut  int
	BytesRead int64
	Duration  time.Duration
}

// Eliminated returns the number of files the stage ruled out
func (s StageStats) Eliminated() int {
	return s.FilesIn - s.FilesOut
}

// Notifier reports pipeline progress. A nil *Notifier is silent.
type Notifier struct {
	w io.Writer
}

// NewNotifier creates a notifier writing to w
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

var bold = color.New(color.Bold)
var green = color.New(color.FgGreen)

// ScanningPath is called before each input path is enumerated
func (n *Notifier) ScanningPath(path string) {
	if n == nil {
		return
	}
	fmt.Fprintf(n.w, "%s scanning path: %s\n", nowStr(), path)
}

// CollectedFiles is called once enumeration is complete
func (n *Notifier) CollectedFiles(count int) {
	if n == nil {
		return
	}
	fmt.Fprintf(n.w, "%s collected %d files\n", nowStr(), count)
}

// RoutedSmallFiles is called after the size policy split
func (n *Notifier) RoutedSmallFiles(smallGroups, smallFiles, largeGroups, largeFiles int) {
	if n == nil {
		return
	}
	fmt.Fprintf(
		n.w,
		"%s %d small files in %d groups skip sampling, %d large files in %d groups will be sampled\n",
		nowStr(),
		smallFiles,
		smallGroups,
		largeFiles,
		largeGroups,
	)
}

// StageFinished is called after every bucketing pass
func (n *Notifier) StageFinished(stats StageStats) {
	if n == nil {
		return
	}
	bold.Fprintf(
		n.w,
		"%s %s: %d files in %d groups -> %d files in %d groups (%s read)\n",
		nowStr(),
		stats.Stage,
		stats.FilesIn,
		stats.GroupsIn,
		stats.FilesOut,
		stats.GroupsOut,
		humanize.Bytes(uint64(stats.BytesRead)),
	)
}

// Finished is called with the confirmed duplicate groups
func (n *Notifier) Finished(groups [][]*FileRecord) {
	if n == nil {
		return
	}
	green.Fprintf(
		n.w,
		"%s found %d duplicate groups (%d files)\n",
		nowStr(),
		len(groups),
		CountItems(groups),
	)
}

func nowStr() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// RenderStats renders per-stage statistics as a table
func RenderStats(stats []StageStats) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	// keep humanize units ("kB") and durations ("3ms") as written
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault

	tbl.AppendHeader(table.Row{"Stage", "Groups in", "Files in", "Groups out", "Files out", "Eliminated", "Read", "Time"})

	var totalRead int64
	var totalTime time.Duration
	for _, s := range stats {
		tbl.AppendRow(table.Row{
			s.Stage,
			s.GroupsIn,
			s.FilesIn,
			s.GroupsOut,
			s.FilesOut,
			s.Eliminated(),
			humanize.Bytes(uint64(s.BytesRead)),
			s.Duration.Round(time.Millisecond),
		})
		totalRead += s.BytesRead
		totalTime += s.Duration
	}

	tbl.AppendFooter(table.Row{"Total", "", "", "", "", "", humanize.Bytes(uint64(totalRead)), totalTime.Round(time.Millisecond)})

	return tbl.Render()
}

// WriteStats writes the statistics table followed by a newline
func WriteStats(w io.Writer, stats []StageStats) error {
	_, err := fmt.Fprintln(w, RenderStats(stats))
	return err
}
