package job

import (
	"context"
	"time"

	"signal-forest/internal/logger"
	"signal-forest/internal/ml/training"

	"go.opentelemetry.io/otel/trace"
)

type Trainer interface {
	RunTraining(ctx context.Context) (*training.RunResult, error)
}

// TrainingJob retrains the signal ensemble once a day at a fixed UTC hour.
type TrainingJob struct {
	tracer     trace.Tracer
	service    Trainer
	trainHour  int
	runOnStart bool
	now        func() time.Time
}

func NewTrainingJob(tracer trace.Tracer, service Trainer, trainHourUTC int, runOnStart bool) *TrainingJob {
	if trainHourUTC < 0 || trainHourUTC > 23 {
		trainHourUTC = 0
	}
	return &TrainingJob{
		tracer:     tracer,
		service:    service,
		trainHour:  trainHourUTC,
		runOnStart: runOnStart,
		now:        time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (j *TrainingJob) Start(ctx context.Context) {
	if j.service == nil {
		logger.Warn().Msg("training job disabled: no service")
		<-ctx.Done()
		return
	}
	logger.Info().Int("hour_utc", j.trainHour).Msg("training job starting")
	if j.runOnStart {
		j.runOnce(ctx)
	}
	for {
		next := nextRunUTC(j.now().UTC(), j.trainHour)
		wait := next.Sub(j.now())
		if wait < time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info().Msg("training job stopped")
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *TrainingJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "training-job.run-once")
	defer span.End()

	res, err := j.service.RunTraining(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("scheduled training failed")
		return
	}
	logger.Info().
		Int64("run_id", res.Run.ID).
		Str("symbol", res.Run.Symbol).
		Int64("duration_ms", res.Run.DurationMS).
		Msg("scheduled training finished")
}

func nextRunUTC(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}
