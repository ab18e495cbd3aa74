package jobs

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"strings"
	"sync"
	"time"
)

var (
	ErrEmptyJobName  = errors.New("job name is empty")
	ErrEmptyCronExpr = errors.New("cron expression is empty")
)

// Scheduler runs named cron jobs in one location. A job that is still running
// when its next tick comes is rescheduled instead of started twice.
type Scheduler struct {
	cron gocron.Scheduler
	stop sync.Once
}

func NewScheduler(location *time.Location) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}
	cron, err := gocron.NewScheduler(
		gocron.WithLocation(location),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(gocron.AfterJobRunsWithPanic(logPanic)),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create cron scheduler")
	}
	return &Scheduler{cron: cron}, nil
}

func logPanic(jobID uuid.UUID, jobName string, recovered any) {
	log.Error().
		Str("job_id", jobID.String()).
		Str("job_name", jobName).
		Interface("panic", recovered).
		Msg("Job panicked")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs. Calls after the first one are no-ops.
func (s *Scheduler) Stop() error {
	var err error
	s.stop.Do(func() {
		err = s.cron.Shutdown()
	})
	return err
}

func (s *Scheduler) AddJob(name, cronExpr string, task func()) (gocron.Job, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}
	job, err := s.cron.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to schedule job %v", name)
	}
	log.Info().Str("job_name", name).Str("cron", cronExpr).Msg("Job scheduled")
	return job, nil
}
