package actions

import "taskmanager/models"

// Result is the outcome of a vocal operation. Exactly one of Success and
// Error is set.
type Result struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r Result) OK() bool { return r.Error == "" }

type TaskResult struct {
	Result
	Task *models.Task `json:"task,omitempty"`
}

type TasksResult struct {
	Tasks []models.Task `json:"tasks"`
	Error string        `json:"error,omitempty"`
}

func fail(msg string) Result { return Result{Error: msg} }

func succeed() Result { return Result{Success: true} }
