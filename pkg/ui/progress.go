package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker follows a sequential run over a known number of objects
type StatusTracker struct {
	Total     int
	Succeeded int
	Failed    int
	StartTime time.Time
}

// NewStatusTracker creates a tracker for total objects
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

// Done returns how many objects have been handled
func (st *StatusTracker) Done() int {
	return st.Succeeded + st.Failed
}

// GetProgress returns a formatted progress bar
func (st *StatusTracker) GetProgress() string {
	const width = 20
	filled := 0
	if st.Total > 0 {
		filled = st.Done() * width / st.Total
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Done(), st.Total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetRate returns the average number of objects handled per minute
func (st *StatusTracker) GetRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Done()) / elapsed
}

// RecordSuccess counts a saved object and prints its line
func (st *StatusTracker) RecordSuccess(id, folder, image string) {
	st.Succeeded++
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(Output, "%s %s %s → %s\n",
		Dim(st.GetProgress()), Green("[SAVED]"), id, Cyan(folder+"/"+image))
}

// RecordFailure counts a failed object and prints its line
func (st *StatusTracker) RecordFailure(id string, err error) {
	st.Failed++
	fmt.Fprintf(Output, "%s %s %s: %v\n",
		Dim(st.GetProgress()), Red("[FAILED]"), id, err)
}

// PrintSummary prints the totals of the run
func (st *StatusTracker) PrintSummary(interrupted bool) {
	if interrupted {
		PrintWarning("Run interrupted")
	}
	PrintInfo("Saved", fmt.Sprintf("%d", st.Succeeded))
	PrintInfo("Failed", fmt.Sprintf("%d", st.Failed))
	PrintInfo("Elapsed", st.GetElapsedTime().Round(time.Second).String())
}
