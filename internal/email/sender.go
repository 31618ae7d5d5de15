// Package email delivers transactional mail for the visits lifecycle.
package email

import (
	"context"
	"time"

	"fieldops_backend/platform/config"
	"fieldops_backend/platform/logger"
)

// VisitClosedData feeds the closure notification template.
type VisitClosedData struct {
	ClientName    string
	VisitTitle    string
	Summary       string
	WorkPerformed string
	StartedAt     *time.Time
	EndedAt       *time.Time
	EvidenceURLs  []string
}

// Sender delivers the lifecycle notifications.
type Sender interface {
	SendVisitClosed(ctx context.Context, toEmail string, data VisitClosedData) error
}

// NewSender picks the transport from configuration: SMTP when email is
// enabled, a logging no-op otherwise.
func NewSender(cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		log.Warn("email disabled; notifications will be logged only")
		return &NoopSender{log: log}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(), cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
	), nil
}

// NoopSender logs instead of delivering. Used in development and when
// no SMTP transport is configured.
type NoopSender struct {
	log *logger.Logger
}

// SendVisitClosed logs the would-be delivery.
func (s *NoopSender) SendVisitClosed(_ context.Context, toEmail string, data VisitClosedData) error {
	s.log.Info("visit closed email skipped (email disabled)", "to", toEmail, "visit", data.VisitTitle)
	return nil
}
