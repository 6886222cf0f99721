package build

import (
	"sync"
	"time"
)

// BuildMetrics tracks build outcomes and durations.
type BuildMetrics struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	SpawnFailures    int64
	LastDuration     time.Duration
	AverageDuration  time.Duration
	TotalDuration    time.Duration
	mutex            sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordJob records a finished job. Pending jobs are ignored.
func (bm *BuildMetrics) RecordJob(job *Job) {
	outcome := job.Outcome()
	if outcome == OutcomePending {
		return
	}

	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalBuilds++

	switch outcome {
	case OutcomeSuccess:
		bm.SuccessfulBuilds++
	case OutcomeFailure:
		bm.FailedBuilds++
	case OutcomeSpawnError:
		bm.SpawnFailures++
		return
	}

	// Spawn failures have no meaningful duration.
	duration := job.Duration()
	bm.LastDuration = duration
	bm.TotalDuration += duration
	if ran := bm.SuccessfulBuilds + bm.FailedBuilds; ran > 0 {
		bm.AverageDuration = bm.TotalDuration / time.Duration(ran)
	}
}

// GetSnapshot returns a snapshot of current metrics
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	return BuildMetrics{
		TotalBuilds:      bm.TotalBuilds,
		SuccessfulBuilds: bm.SuccessfulBuilds,
		FailedBuilds:     bm.FailedBuilds,
		SpawnFailures:    bm.SpawnFailures,
		LastDuration:     bm.LastDuration,
		AverageDuration:  bm.AverageDuration,
		TotalDuration:    bm.TotalDuration,
	}
}

// GetSuccessRate returns the success rate as a percentage
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalBuilds == 0 {
		return 0.0
	}

	return float64(bm.SuccessfulBuilds) / float64(bm.TotalBuilds) * 100.0
}
