package storage

import (
	"time"

	"github.com/pkg/errors"
	"github.com/viniausta/repasse-medico/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SourceFilter narrows the candidate rows fetched from the source view.
type SourceFilter struct {
	Cutoff            time.Time // release date on/after this date
	EstablishmentCode string    // optional, restrict to one establishment
	Limit             int       // optional row cap, 0 means unlimited
}

// Store defines the persistence operations for the repasse automation:
// the run-tracking API and the staging table keyed by transfer number.
type Store interface {
	// Run tracking
	BeginRun(run models.ExecutionRun) (int64, error)
	AppendLog(entry models.LogEntry) error
	FinalizeRun(runID int64, status models.RunStatus, notes string) error

	// Staging table
	ListSourceRows(filter SourceFilter) ([]models.TransferRecord, error)
	TransferExists(transferNo string) (bool, error)
	InsertTransfer(rec models.TransferRecord) error
	ListTransfers(status models.TransferStatus) ([]models.TransferRecord, error)
	UpdateTransferStatus(transferNo string, status models.TransferStatus, msg string) error

	Close() error
}
