package actions

import (
	"time"

	"taskmanager/models"
)

// Summarize counts tasks and groups them by the local day they were
// created on, relative to now.
func Summarize(tasks []models.Task, now time.Time) models.Summary {
	sum := models.Summary{Total: len(tasks), Now: now}

	today := dayOf(now)
	yesterday := today.AddDate(0, 0, -1)

	for _, t := range tasks {
		if t.Completed {
			sum.Completed++
		}

		switch day := dayOf(t.CreatedAt.In(now.Location())); {
		case !day.Before(today):
			sum.Today = append(sum.Today, t)
		case day.Equal(yesterday):
			sum.Yesterday = append(sum.Yesterday, t)
		default:
			sum.Older = append(sum.Older, t)
		}
	}
	sum.Pending = sum.Total - sum.Completed
	return sum
}

// SplitByStatus partitions tasks into pending and completed, keeping order.
func SplitByStatus(tasks []models.Task) (pending, completed []models.Task) {
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	return pending, completed
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
