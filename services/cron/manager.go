package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/services"
	"gorm.io/gorm"
)

// PendingReconciler checks stale pending enrollments against the payment processor
type PendingReconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (*services.ReconcileResult, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron       *cron.Cron
	db         *gorm.DB
	reconciler PendingReconciler
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, reconciler PendingReconciler) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:       c,
		db:         db,
		reconciler: reconciler,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	// Register all jobs
	if err := m.registerJobs(); err != nil {
		return err
	}

	// Start the cron scheduler
	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every 5 minutes: Reconcile pending enrollments whose webhook never arrived
	_, err := m.cron.AddFunc("0 */5 * * * *", func() {
		m.runJob(JobReconcilePending, m.ReconcilePendingEnrollments)
	})
	if err != nil {
		return err
	}

	// 2. Daily at 2 AM: Cleanup old data
	_, err = m.cron.AddFunc("0 0 2 * * *", func() {
		m.runJob(JobCleanupOldData, m.CleanupOldData)
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// runJob records a job run in cron_job_logs around fn
func (m *CronManager) runJob(jobName string, fn func() (string, error)) {
	entry := m.logJobStart(jobName)

	message, err := fn()
	if err != nil {
		m.logJobError(entry, err)
		return
	}
	m.logJobComplete(entry, message)
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	// Log to database
	cronLog := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronJobRunning,
		StartedAt: time.Now(),
	}
	if err := m.db.Create(cronLog).Error; err != nil {
		log.Printf("[CRON] Failed to record start of %s: %v", jobName, err)
	}
	return cronLog
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string) {
	log.Printf("[CRON] Completed job: %s - %s", entry.JobName, message)
	m.finishJob(entry, map[string]interface{}{
		"status":  model.CronJobCompleted,
		"message": message,
	})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	log.Printf("[CRON] Error in job: %s - %v", entry.JobName, err)
	m.finishJob(entry, map[string]interface{}{
		"status":    model.CronJobFailed,
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finishJob(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	now := time.Now()
	updates["completed_at"] = now
	updates["duration"] = now.Sub(entry.StartedAt).Milliseconds()

	// Update database log
	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		log.Printf("[CRON] Failed to record end of %s: %v", entry.JobName, err)
	}
}
