package tracer

import (
	"testing"
	"time"
)

func TestNaiveScheduler(t *testing.T) {
	type spec struct {
		speed1   uint32
		speed2   uint32
		frameH   uint32
		expRows1 uint32
		expRows2 uint32
	}
	specs := []spec{
		spec{1, 2, 10, 4, 6},
		spec{2, 1, 10, 7, 3},
		spec{1, 1000, 10, 1, 9},
	}

	for index, s := range specs {
		tr1 := makeMockTracer("mock-1", s.speed1)
		tr2 := makeMockTracer("mock-2", s.speed2)
		tracers := []Tracer{tr1, tr2}

		sch := NaiveScheduler()
		blockAssignment := sch.Schedule(tracers, s.frameH)

		if blockAssignment[0] != s.expRows1 {
			t.Fatalf("[spec %d] expected tracer 0 to be assigned %d rows; got %d", index, s.expRows1, blockAssignment[0])
		}

		if blockAssignment[1] != s.expRows2 {
			t.Fatalf("[spec %d] expected tracer 1 to be assigned %d rows; got %d", index, s.expRows2, blockAssignment[1])
		}
	}
}

func TestPerfectScheduler(t *testing.T) {
	type spec struct {
		frameH   uint32
		rTime1   time.Duration
		rTime2   time.Duration
		expRows1 uint32
		expRows2 uint32
	}
	specs := []spec{
		// First call always behaves like the naive scheduler
		spec{10, time.Duration(1), time.Duration(5), 5, 5},
		// Second call should use the render times to assign rows
		spec{10, time.Duration(1), time.Duration(5), 9, 1},
		// This time tracer 2 performed much better
		spec{10, time.Duration(5), time.Duration(1), 7, 3},
	}

	// Tracers have same speed
	tr1 := makeMockTracer("mock-1", 1)
	tr2 := makeMockTracer("mock-2", 1)
	tracers := []Tracer{tr1, tr2}

	sch := PerfectScheduler()
	for index, s := range specs {
		tr1.stats.RenderTime = s.rTime1
		tr2.stats.RenderTime = s.rTime2

		blockAssignment := sch.Schedule(tracers, s.frameH)

		if blockAssignment[0] != s.expRows1 {
			t.Fatalf("[spec %d] expected tracer 0 to be assigned %d rows; got %d", index, s.expRows1, blockAssignment[0])
		}

		if blockAssignment[1] != s.expRows2 {
			t.Fatalf("[spec %d] expected tracer 1 to be assigned %d rows; got %d", index, s.expRows2, blockAssignment[1])
		}

		tr1.stats.BlockH = blockAssignment[0]
		tr2.stats.BlockH = blockAssignment[1]
	}
}

func TestSchedulerRowMinimum(t *testing.T) {
	tracers := []Tracer{
		makeMockTracer("mock-1", 1),
		makeMockTracer("mock-2", 1000),
		makeMockTracer("mock-3", 1000),
	}

	blockAssignment := NaiveScheduler().Schedule(tracers, 3)
	for idx, rows := range blockAssignment {
		if rows != 1 {
			t.Fatalf("expected tracer %d to be assigned 1 row; got %d", idx, rows)
		}
	}

	blockAssignment = NaiveScheduler().Schedule(tracers, 4)
	var total uint32
	for _, rows := range blockAssignment {
		total += rows
	}
	if total != 4 {
		t.Fatalf("expected assigned rows to add up to 4; got %d", total)
	}
}

func TestPerfectSchedulerTracerCountChange(t *testing.T) {
	tr1 := makeMockTracer("mock-1", 1)
	tr2 := makeMockTracer("mock-2", 3)
	tr1.stats.BlockH, tr1.stats.RenderTime = 10, time.Second
	tr2.stats.BlockH, tr2.stats.RenderTime = 10, time.Second

	sch := PerfectScheduler()
	sch.Schedule([]Tracer{tr1}, 8)

	blockAssignment := sch.Schedule([]Tracer{tr1, tr2}, 8)
	if blockAssignment[0] != 2 || blockAssignment[1] != 6 {
		t.Fatalf("expected speed based assignment [2 6]; got %v", blockAssignment)
	}
}

type mockTracer struct {
	id    string
	speed uint32
	stats *Stats
}

func makeMockTracer(id string, speed uint32) *mockTracer {
	return &mockTracer{
		id:    id,
		speed: speed,
		stats: &Stats{},
	}
}

func (mt *mockTracer) Id() string {
	return mt.id
}

func (mt *mockTracer) SpeedEstimate() float32 {
	return float32(mt.speed)
}

func (mt *mockTracer) Init(_ *Film) error {
	return nil
}

func (mt *mockTracer) Close() {
}

func (mt *mockTracer) Enqueue(_ TileRequest) {
}

func (mt *mockTracer) Update(_ UpdateType, _ interface{}) {
}

func (mt *mockTracer) Stats() *Stats {
	return mt.stats
}
