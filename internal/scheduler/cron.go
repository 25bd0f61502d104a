package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/models"
)

// Cron owns the periodic trigger: the daily sweep on a weekly cron, the
// hourly sweep on a daily cron. Singleton mode guarantees invocations for
// one frequency never overlap, which is what makes the sweeper's
// no-dedup design safe.
type Cron struct {
	scheduler *gocron.Scheduler
	sweeper   *Sweeper
	logger    *zap.Logger

	dailyCron  string
	hourlyCron string
}

// NewCron creates the trigger. The cron expressions use standard five-field
// syntax (defaults: "10 6 * * 1" for the daily report, "0 6 * * *" for the
// hourly report).
func NewCron(sweeper *Sweeper, dailyCron, hourlyCron string, logger *zap.Logger) *Cron {
	return &Cron{
		scheduler:  gocron.NewScheduler(time.UTC),
		sweeper:    sweeper,
		logger:     logger.Named("cron"),
		dailyCron:  dailyCron,
		hourlyCron: hourlyCron,
	}
}

// Start registers both sweep jobs and starts the scheduler asynchronously.
func (c *Cron) Start() error {
	_, err := c.scheduler.Cron(c.dailyCron).SingletonMode().Do(func() {
		c.run(models.FrequencyDay)
	})
	if err != nil {
		return err
	}
	_, err = c.scheduler.Cron(c.hourlyCron).SingletonMode().Do(func() {
		c.run(models.FrequencyHour)
	})
	if err != nil {
		return err
	}

	c.scheduler.StartAsync()
	c.logger.Info("scheduler started",
		zap.String("daily_cron", c.dailyCron),
		zap.String("hourly_cron", c.hourlyCron),
	)
	return nil
}

func (c *Cron) run(frequency models.Frequency) {
	c.logger.Info("sweep triggered", zap.String("frequency", string(frequency)))
	c.sweeper.Run(context.Background(), frequency)
}

// Stop stops the scheduler and cancels any future jobs.
func (c *Cron) Stop() {
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
}
