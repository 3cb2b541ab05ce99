package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// FrameStats describes the last rendered frame.
type FrameStats struct {
	// Samples per pixel accumulated so far, including this frame.
	SampleCount int

	Tiles   int
	Workers int

	Pixels      int
	PrimaryRays int
	ShadowRays  int
	Hits        int

	// Wall time for the whole frame and the slowest tile in it.
	RenderTime  time.Duration
	SlowestTile time.Duration

	Converged bool
}

// Build a tabular representation of the frame statistics.
func (s FrameStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Samples", "Tiles", "Workers", "Primary rays", "Shadow rays", "Hit %", "Slowest tile", "Render time"})

	hitPercent := float32(0)
	if s.PrimaryRays > 0 {
		hitPercent = 100 * float32(s.Hits) / float32(s.PrimaryRays)
	}
	table.Append([]string{
		fmt.Sprintf("%d", s.SampleCount),
		fmt.Sprintf("%d", s.Tiles),
		fmt.Sprintf("%d", s.Workers),
		fmt.Sprintf("%d", s.PrimaryRays),
		fmt.Sprintf("%d", s.ShadowRays),
		fmt.Sprintf("%02.1f %%", hitPercent),
		s.SlowestTile.String(),
		s.RenderTime.String(),
	})
	table.SetFooter([]string{"", "", "", "", "", "", "Converged", fmt.Sprintf("%t", s.Converged)})

	table.Render()
	return buf.String()
}
