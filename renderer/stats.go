package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

type TracerStat struct {
	// The tracer id.
	Id string

	// The rows rendered by the tracer in the last pass and the percentage
	// of the frame area they represent.
	BlockH       uint32
	FramePercent float32

	// Totals for the frame.
	Tiles      int
	Samples    int64
	CameraRays int64
	ShadowRays int64
	LocalRays  int64
	RenderTime time.Duration
}

type FrameStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Number of rendered passes.
	Passes int

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Build a tabular representation of the frame statistics.
func (fs FrameStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Device", "Block height", "% of frame", "Tiles", "Samples", "Camera rays", "Shadow rays", "Local rays", "Render time"})

	var total TracerStat
	for _, stat := range fs.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%d", stat.Tiles),
			fmt.Sprintf("%d", stat.Samples),
			fmt.Sprintf("%d", stat.CameraRays),
			fmt.Sprintf("%d", stat.ShadowRays),
			fmt.Sprintf("%d", stat.LocalRays),
			stat.RenderTime.String(),
		})
		total.Tiles += stat.Tiles
		total.Samples += stat.Samples
		total.CameraRays += stat.CameraRays
		total.ShadowRays += stat.ShadowRays
		total.LocalRays += stat.LocalRays
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d passes", fs.Passes), "", "TOTAL",
		fmt.Sprintf("%d", total.Tiles),
		fmt.Sprintf("%d", total.Samples),
		fmt.Sprintf("%d", total.CameraRays),
		fmt.Sprintf("%d", total.ShadowRays),
		fmt.Sprintf("%d", total.LocalRays),
		fs.RenderTime.String(),
	})

	table.Render()
	return buf.String()
}
