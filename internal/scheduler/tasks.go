package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskVisitReminder = "visits.reminder"

// VisitReminderPayload identifies the visit a reminder is for.
type VisitReminderPayload struct {
	VisitID string `json:"visitId"`
}

// NewVisitReminderTask builds the asynq task for a visit reminder.
func NewVisitReminderTask(payload VisitReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVisitReminder, data), nil
}

// ParseVisitReminderPayload decodes a visit reminder task.
func ParseVisitReminderPayload(task *asynq.Task) (VisitReminderPayload, error) {
	var payload VisitReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return VisitReminderPayload{}, err
	}
	return payload, nil
}
