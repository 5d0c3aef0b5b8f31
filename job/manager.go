package job

import (
	"Playshare/logger"

	"github.com/robfig/cron/v3"
)

// Manager owns the cron engine and the scheduled jobs.
type Manager struct {
	engine   *cron.Cron
	schedule string
	cleanup  cron.Job
}

// NewCronManager creates a Manager that runs cleanup on schedule.
// An empty schedule leaves the job unregistered.
func NewCronManager(schedule string, cleanup cron.Job) *Manager {
	return &Manager{
		engine:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedule: schedule,
		cleanup:  cleanup,
	}
}

// RegisterJobs 注册定时任务
func (m *Manager) RegisterJobs() error {
	if m.schedule == "" {
		logger.Info("Orphan cleanup disabled")
		return nil
	}
	if _, err := m.engine.AddJob(m.schedule, m.cleanup); err != nil {
		return err
	}
	logger.Info("Orphan cleanup scheduled", logger.String("schedule", m.schedule))
	return nil
}

// Entries returns the number of registered jobs.
func (m *Manager) Entries() int {
	return len(m.engine.Entries())
}

func (m *Manager) Start() {
	logger.Info("Cron engine started")
	m.engine.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (m *Manager) Stop() {
	<-m.engine.Stop().Done()
	logger.Info("Cron engine stopped")
}
