package models

import "time"

// LogEntry is an append-only run log line. Persisting one is best-effort;
// a failed append must never abort the workflow.
type LogEntry struct {
	RunID     int64     `json:"run_id" db:"id_execucao"`
	Level     string    `json:"level" db:"tipo_log"`
	RecordKey string    `json:"record_key,omitempty" db:"registro_id"`
	Message   string    `json:"message" db:"mensagem"`
	LoggedAt  time.Time `json:"logged_at" db:"dt_log"`
}
