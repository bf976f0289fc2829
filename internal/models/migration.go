package models

// Migration statuses for the one-time legacy import.
const (
	MigrationMigrating = "migrating"
	MigrationFinished  = "finished"
	MigrationFailed    = "failed"
)

// MigrationRecord tracks the legacy import of one account so reruns
// can skip finished targets and retry failed ones.
type MigrationRecord struct {
	UID           string `json:"uid"`
	Target        string `json:"target"`
	SourceVersion string `json:"source_version"`
	Status        string `json:"status"`
	StartedAt     int64  `json:"started_at"`
	FinishedAt    int64  `json:"finished_at,omitempty"`
}
