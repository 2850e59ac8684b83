package models

import "time"

type RunStatus string

const (
	RunningRunStatus   RunStatus = "running"
	CompletedRunStatus RunStatus = "Concluido"
)

// ExecutionRun tracks one end-to-end invocation of the automation.
// The ID is assigned by the run-tracking store on registration.
type ExecutionRun struct {
	ID         int64      `json:"id" db:"id"`
	Unit       string     `json:"unit" db:"unidade"`
	Project    string     `json:"project" db:"projeto"`
	Script     string     `json:"script" db:"script"`
	Stage      string     `json:"stage" db:"etapa"`
	Operator   string     `json:"operator" db:"usuario"`
	Status     RunStatus  `json:"status" db:"status"`
	StartedAt  time.Time  `json:"started_at" db:"dt_inicio"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"dt_fim"`
}
