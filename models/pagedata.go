package models

import "time"

type PageData struct {
	Title      string
	IsLoggedIn bool
	Email      string
	CSRFtoken  string
	Error      string
	Form       map[string]string
	Callback   string
	Tasks      []Task
	Pending    []Task
	Completed  []Task
	Summary    *Summary
}

// Summary backs the dashboard page.
type Summary struct {
	Total     int
	Completed int
	Pending   int
	Today     []Task
	Yesterday []Task
	Older     []Task
	Now       time.Time
}
