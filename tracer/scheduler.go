package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of variable height and assign to the pool
	// of tracers using feedback collected from previous frames.
	//
	// This function returns the block height assignment for each tracer
	// in the input list.
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The naive scheduler splits rows by the speed estimate of each tracer.
type naiveScheduler struct{}

// Create a scheduler that only uses tracer speed estimates.
func NaiveScheduler() BlockScheduler {
	return naiveScheduler{}
}

func (naiveScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	assignment := make([]uint32, len(tracers))
	speedSchedule(tracers, frameH, assignment)
	return assignment
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent frames is approximately the same.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split frame into blocks of variable height and assign to the pool
// of tracers using feedback collected from previous frames.
//
// When previous frame information is available the scheduler uses the
// following formula for estimating the workload for tracer w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i-1 / time,i-1)
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	// If this is the first time we try to schedule or the number of tracers
	// has changed we need to reset the block assignments
	if len(sch.blockAssignment) != len(tracers) || !haveFeedback(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
		speedSchedule(tracers, frameH, sch.blockAssignment)
		return sch.blockAssignment
	}

	var total float64
	for _, tr := range tracers {
		stats := tr.Stats()
		total += float64(stats.BlockH) / float64(stats.RenderTime)
	}

	scaler := float64(frameH) / total
	for idx, tr := range tracers {
		stats := tr.Stats()
		sch.blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(float64(stats.BlockH)/float64(stats.RenderTime)*scaler)))
	}
	balance(sch.blockAssignment, frameH)

	return sch.blockAssignment
}

func haveFeedback(tracers []Tracer) bool {
	for _, tr := range tracers {
		stats := tr.Stats()
		if stats.BlockH == 0 || stats.RenderTime <= 0 {
			return false
		}
	}
	return true
}

// Get speed estimate for each tracer and distribute rows accordingly.
func speedSchedule(tracers []Tracer, frameH uint32, assignment []uint32) {
	var total float64
	for _, tr := range tracers {
		total += float64(tr.SpeedEstimate())
	}
	if total <= 0 {
		for idx := range assignment {
			assignment[idx] = 1
		}
		balance(assignment, frameH)
		return
	}

	scaler := float64(frameH) / total
	for idx, tr := range tracers {
		assignment[idx] = uint32(math.Max(1.0, math.Floor(float64(tr.SpeedEstimate())*scaler)))
	}
	balance(assignment, frameH)
}

// In case rows don't add up to the frame height append the missing ones to
// the first tracer. Extra rows (caused by the one row minimum) are taken
// from the largest assignments.
func balance(assignment []uint32, frameH uint32) {
	if len(assignment) == 0 {
		return
	}

	var scheduledRows uint32
	for _, rows := range assignment {
		scheduledRows += rows
	}

	if scheduledRows <= frameH {
		assignment[0] += frameH - scheduledRows
		return
	}

	for extra := scheduledRows - frameH; extra > 0; extra-- {
		largest := 0
		for idx, rows := range assignment {
			if rows > assignment[largest] {
				largest = idx
			}
		}
		if assignment[largest] <= 1 {
			return
		}
		assignment[largest]--
	}
}
