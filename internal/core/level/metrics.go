package level

import "time"

// TickMetrics accumulates the cost of Update calls.
type TickMetrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	LastExecutionTime    time.Time
	Collisions           uint64
	LethalHits           uint64
	ClampedTicks         uint64
}

func (m *TickMetrics) record(start time.Time, took time.Duration) {
	m.ExecutionCount++
	m.TotalExecutionTime += took
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if took > m.MaxExecutionTime {
		m.MaxExecutionTime = took
	}
	if m.MinExecutionTime == 0 || took < m.MinExecutionTime {
		m.MinExecutionTime = took
	}
	m.LastExecutionTime = start
}
