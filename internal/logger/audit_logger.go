// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger records who asked the job service for what. It writes a
// dedicated audit trail separate from operational logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogJobSubmitted records a backtest submission.
func (al *AuditLogger) LogJobSubmitted(clientID, jobID, strategyName string, start, end time.Time, seed int64) {
	al.WithFields(logrus.Fields{
		"client_id": clientID,
		"job_id":    jobID,
		"strategy":  strategyName,
		"start":     start.Format("2006-01-02"),
		"end":       end.Format("2006-01-02"),
		"seed":      seed,
	}).Info("Backtest job submitted")
}

// LogJobCancelled records a client-initiated cancellation.
func (al *AuditLogger) LogJobCancelled(clientID, jobID string) {
	al.WithFields(logrus.Fields{
		"client_id": clientID,
		"job_id":    jobID,
	}).Info("Backtest job cancelled")
}

// LogResultAccess records a result retrieval.
func (al *AuditLogger) LogResultAccess(clientID, jobID string, summaryOnly bool) {
	al.WithFields(logrus.Fields{
		"client_id":    clientID,
		"job_id":       jobID,
		"summary_only": summaryOnly,
	}).Info("Backtest result retrieved")
}

// LogAccessDenied records a cross-client access attempt.
func (al *AuditLogger) LogAccessDenied(clientID, jobID string) {
	al.WithFields(logrus.Fields{
		"client_id": clientID,
		"job_id":    jobID,
	}).Warn("Access to foreign job denied")
}
