// Package adapters contains thin glue between bounded contexts so that
// modules depend on their own interfaces rather than on each other.
package adapters

import (
	"context"

	"fieldops_backend/internal/email"
	"fieldops_backend/internal/visits/service"
)

// EmailClosureNotifier delivers visit-closure notifications through
// the email sender.
type EmailClosureNotifier struct {
	sender email.Sender
}

// NewEmailClosureNotifier wraps the email sender as a ClosureNotifier.
func NewEmailClosureNotifier(sender email.Sender) *EmailClosureNotifier {
	return &EmailClosureNotifier{sender: sender}
}

var _ service.ClosureNotifier = (*EmailClosureNotifier)(nil)

// NotifyClosure renders and sends the closure email.
func (a *EmailClosureNotifier) NotifyClosure(ctx context.Context, n service.ClosureNotification) error {
	urls := make([]string, 0, len(n.Evidence))
	for _, e := range n.Evidence {
		urls = append(urls, e.URL)
	}
	return a.sender.SendVisitClosed(ctx, n.To, email.VisitClosedData{
		ClientName:    n.ClientName,
		VisitTitle:    n.VisitTitle,
		Summary:       n.Summary,
		WorkPerformed: n.WorkPerformed,
		StartedAt:     n.StartedAt,
		EndedAt:       n.EndedAt,
		EvidenceURLs:  urls,
	})
}
