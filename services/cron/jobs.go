package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/coursehub-api/model"
)

// Job names as stored in cron_job_logs
const (
	JobReconcilePending = "reconcile_pending_enrollments"
	JobCleanupOldData   = "cleanup_old_data"
)

const (
	// pendingIdleThreshold leaves fresh checkouts to the webhook
	pendingIdleThreshold = 10 * time.Minute
	reconcileBatchSize   = 200

	paymentEventRetention = 90 * 24 * time.Hour
	cronLogRetention      = 30 * 24 * time.Hour
)

// ReconcilePendingEnrollments asks the processor about pending enrollments
// that have been waiting on a checkout for a while
func (m *CronManager) ReconcilePendingEnrollments() (string, error) {
	if m.reconciler == nil {
		return "reconciler not configured, skipped", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	result, err := m.reconciler.ReconcilePending(ctx, pendingIdleThreshold, reconcileBatchSize)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("checked %d pending enrollments: %d activated, %d released, %d deferred, %d failed",
		result.Checked, result.Activated, result.Released, result.Deferred, result.Failed), nil
}

// CleanupOldData removes old data to keep the database clean
func (m *CronManager) CleanupOldData() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db := m.db.WithContext(ctx)
	totalCleaned := 0

	// 1. Clean up expired JWT tokens from blacklist
	result := db.Where("expires_at < ?", time.Now()).Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean token blacklist: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d expired tokens", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	// 2. Clean up processed payment events (keep only last 90 days)
	cutoffEvents := time.Now().Add(-paymentEventRetention)
	result = db.Where("created_at < ? AND processed_at IS NOT NULL", cutoffEvents).Delete(&model.PaymentEvent{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean payment events: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d old payment events", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	// 3. Clean up old cron job logs (keep only last 30 days)
	cutoffLogs := time.Now().Add(-cronLogRetention)
	result = db.Where("created_at < ?", cutoffLogs).Delete(&model.CronJobLog{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean cron logs: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d old cron logs", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Cleaned %d old records", totalCleaned), nil
}
