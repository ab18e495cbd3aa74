package jobs

import (
	"context"
	"github.com/rs/zerolog/log"
	"time"
)

// Register schedules the daily jobs of runner on s.
func Register(s *Scheduler, r *Runner, openCron, cleanupCron string) error {
	_, err := s.AddJob(OpenDaysJob, openCron, func() { runAndLog(r, OpenDaysJob) })
	if err != nil {
		return err
	}
	_, err = s.AddJob(CleanupJob, cleanupCron, func() { runAndLog(r, CleanupJob) })
	return err
}

func runAndLog(r *Runner, name string) {
	result, err := r.Run(context.Background(), name, time.Now())
	if err != nil {
		log.Error().Err(err).Str("job_name", name).Msg("Unable to run job")
		return
	}
	LogResult(result)
}

// LogResult writes one line per failed item and a summary line.
func LogResult(result BatchResult) {
	if result.Err != nil {
		log.Error().Err(result.Err).Str("job_name", result.Job).Msg("Job failed to start")
		return
	}
	for _, o := range result.Failed() {
		log.Warn().
			Err(o.Err).
			Str("job_name", result.Job).
			Int64("court_id", o.CourtId).
			Int64("thread_id", o.ThreadId).
			Msg("Job item failed")
	}
	log.Info().
		Str("job_name", result.Job).
		Int("items", len(result.Outcomes)).
		Int("failed", len(result.Failed())).
		Msg("Job finished")
}
