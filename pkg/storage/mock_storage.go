package storage

import (
	"time"

	"github.com/pkg/errors"
	"github.com/viniausta/repasse-medico/pkg/models"
)

// MockStore implements Store with in-memory storage. The error fields let
// tests inject failures on specific operations.
type MockStore struct {
	Runs      []models.ExecutionRun
	Logs      []models.LogEntry
	Transfers []models.TransferRecord

	SourceRows []models.TransferRecord // rows returned by ListSourceRows

	BeginRunErr    error
	AppendLogErr   error
	FinalizeErr    error
	InsertErrFor   map[string]error // keyed by transfer number
	UpdateErr      error
	ListPendingErr error

	CloseCalls int
	nextRunID  int64
}

func NewMockStore() *MockStore {
	return &MockStore{InsertErrFor: map[string]error{}}
}

func (m *MockStore) BeginRun(run models.ExecutionRun) (int64, error) {
	if m.BeginRunErr != nil {
		return 0, m.BeginRunErr
	}
	m.nextRunID++
	run.ID = m.nextRunID
	run.Status = models.RunningRunStatus
	run.StartedAt = time.Now()
	m.Runs = append(m.Runs, run)
	return run.ID, nil
}

func (m *MockStore) AppendLog(entry models.LogEntry) error {
	if m.AppendLogErr != nil {
		return m.AppendLogErr
	}
	entry.LoggedAt = time.Now()
	m.Logs = append(m.Logs, entry)
	return nil
}

func (m *MockStore) FinalizeRun(runID int64, status models.RunStatus, notes string) error {
	if m.FinalizeErr != nil {
		return m.FinalizeErr
	}
	for i, r := range m.Runs {
		if r.ID == runID {
			now := time.Now()
			m.Runs[i].Status = status
			m.Runs[i].FinishedAt = &now
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockStore) ListSourceRows(filter SourceFilter) ([]models.TransferRecord, error) {
	var rows []models.TransferRecord
	for _, r := range m.SourceRows {
		if r.ReleaseDate != nil && r.ReleaseDate.Before(filter.Cutoff) {
			continue
		}
		if filter.EstablishmentCode != "" && r.EstablishmentCode != filter.EstablishmentCode {
			continue
		}
		rows = append(rows, r)
		if filter.Limit > 0 && len(rows) == filter.Limit {
			break
		}
	}
	return rows, nil
}

func (m *MockStore) TransferExists(transferNo string) (bool, error) {
	for _, r := range m.Transfers {
		if r.TransferNo == transferNo {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStore) InsertTransfer(rec models.TransferRecord) error {
	if err := m.InsertErrFor[rec.TransferNo]; err != nil {
		return err
	}
	for _, r := range m.Transfers {
		if r.TransferNo == rec.TransferNo {
			return errors.Errorf("transfer %s already staged", rec.TransferNo)
		}
	}
	m.Transfers = append(m.Transfers, rec)
	return nil
}

func (m *MockStore) ListTransfers(status models.TransferStatus) ([]models.TransferRecord, error) {
	if m.ListPendingErr != nil && status == models.PendingTransferStatus {
		return nil, m.ListPendingErr
	}
	var out []models.TransferRecord
	for _, r := range m.Transfers {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockStore) UpdateTransferStatus(transferNo string, status models.TransferStatus, msg string) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i, r := range m.Transfers {
		if r.TransferNo == transferNo {
			m.Transfers[i].Status = status
			m.Transfers[i].StatusMsg = msg
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockStore) Close() error {
	m.CloseCalls++
	return nil
}

// Transfer returns the staged row for a transfer number, for assertions.
func (m *MockStore) Transfer(transferNo string) (models.TransferRecord, bool) {
	for _, r := range m.Transfers {
		if r.TransferNo == transferNo {
			return r, true
		}
	}
	return models.TransferRecord{}, false
}
