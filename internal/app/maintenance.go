package app

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"appforge/internal/filestore"
)

const compactTimeout = 2 * time.Minute

// maintenanceJob compacts the store on a cron schedule so long-running
// deployments do not accumulate dead rows from churny edit sessions.
type maintenanceJob struct {
	runner *cron.Cron
}

func startMaintenance(schedule string, compactor filestore.Compactor) (*maintenanceJob, error) {
	runner := cron.New()
	_, err := runner.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), compactTimeout)
		defer cancel()
		started := time.Now()
		if err := compactor.Compact(ctx); err != nil {
			log.Printf("store compaction failed: %v", err)
			return
		}
		log.Printf("store compaction done: duration=%s", time.Since(started).Round(time.Millisecond))
	})
	if err != nil {
		return nil, err
	}
	runner.Start()
	return &maintenanceJob{runner: runner}, nil
}

func (j *maintenanceJob) stop() {
	<-j.runner.Stop().Done()
}
