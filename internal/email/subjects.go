package email

import "time"

const subjectVisitClosedFmt = "Visita completada: %s"

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}
