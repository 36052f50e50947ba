package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// JobScheduler manages the background jobs of the service
type JobScheduler struct {
	scheduler   gocron.Scheduler
	reminderSvc *ReminderService
	sweepSvc    *ExpirySweepService
	logger      *zap.Logger
}

func NewJobScheduler(reminderSvc *ReminderService, sweepSvc *ExpirySweepService, logger *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		reminderSvc: reminderSvc,
		sweepSvc:    sweepSvc,
		logger:      logger,
	}

	if err := js.registerJobs(); err != nil {
		return nil, err
	}

	return js, nil
}

func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	// Renewal reminders - daily
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.reminderSvc.Run, context.Background()),
		gocron.WithName("renewal-reminders"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	// Expiry sweep - hourly
	_, err = js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.sweepSvc.Run, context.Background()),
		gocron.WithName("expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	js.logger.Info("registered background jobs", zap.Int("count", 2))
	return nil
}
