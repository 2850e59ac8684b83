package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/viniausta/repasse-medico/pkg/models"
	"github.com/viniausta/repasse-medico/pkg/storage"
)

// Run-tracking stored procedures, owned by the hospital DBA.
const (
	procBeginRun    = "ROBO_RPA.PR_CRIAR_CONTROLE_EXECUCAO"
	procAppendLog   = "ROBO_RPA.PR_REGISTRAR_LOG"
	procFinalizeRun = "ROBO_RPA.PR_FINALIZAR_EXECUCAO"
)

// Oracle upper-cases unquoted identifiers; the quoted lower-case aliases
// keep the columns aligned with the struct db tags.
const transferColumns = `NVL(cnpj, '') AS "cnpj",
	NVL(razao_social, '') AS "razao_social",
	seq_terceiro AS "seq_terceiro",
	nr_repasse AS "nr_repasse",
	NVL(nr_titulo, '') AS "nr_titulo",
	dt_lib_titulo AS "dt_lib_titulo",
	NVL(email, '') AS "email",
	dt_ult_envio_email AS "dt_ult_envio_email",
	dt_lib_repasse AS "dt_lib_repasse",
	NVL(cd_estabelecimento, '') AS "cd_estabelecimento"`

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// OracleStore implements storage.Store over the hospital's Oracle schema:
// the TASY source view, the hos_repasse_medico staging table and the
// ROBO_RPA run-tracking package.
type OracleStore struct {
	db DBInterface
}

func NewOracleStore(connStr string) (*OracleStore, error) {
	db, err := sqlx.Open("oracle", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &OracleStore{db: db}, nil
}

func (s *OracleStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil
}

func (s *OracleStore) BeginRun(run models.ExecutionRun) (int64, error) {
	var id int64
	_, err := s.db.Exec(
		fmt.Sprintf("BEGIN %s(:1, :2, :3, :4, :5, :6); END;", procBeginRun),
		run.Unit, run.Project, run.Script, run.Stage, run.Operator,
		go_ora.Out{Dest: &id},
	)
	if err != nil {
		return 0, errors.Wrap(err, "create execution run")
	}
	return id, nil
}

func (s *OracleStore) AppendLog(entry models.LogEntry) error {
	_, err := s.db.Exec(
		fmt.Sprintf("BEGIN %s(:1, :2, :3, :4); END;", procAppendLog),
		entry.RunID, entry.Level, entry.RecordKey, entry.Message,
	)
	return err
}

func (s *OracleStore) FinalizeRun(runID int64, status models.RunStatus, notes string) error {
	_, err := s.db.Exec(
		fmt.Sprintf("BEGIN %s(:1, :2, :3); END;", procFinalizeRun),
		runID, string(status), notes,
	)
	return err
}

func (s *OracleStore) ListSourceRows(filter storage.SourceFilter) ([]models.TransferRecord, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM TASY.RPA_EMAIL_REPASSE_V WHERE dt_lib_titulo >= :1", transferColumns)
	args := []interface{}{filter.Cutoff}
	if filter.EstablishmentCode != "" {
		args = append(args, filter.EstablishmentCode)
		fmt.Fprintf(&sb, " AND cd_estabelecimento = :%d", len(args))
	}
	sb.WriteString(" ORDER BY dt_lib_titulo ASC")
	if filter.Limit > 0 {
		fmt.Fprintf(&sb, " FETCH FIRST %d ROWS ONLY", filter.Limit)
	}

	rows := []models.TransferRecord{}
	if err := s.db.Select(&rows, sb.String(), args...); err != nil {
		return nil, errors.Wrap(err, "list source rows")
	}
	return rows, nil
}

func (s *OracleStore) TransferExists(transferNo string) (bool, error) {
	var count int
	err := s.db.Get(&count, "SELECT COUNT(1) FROM hos_repasse_medico WHERE nr_repasse = :1", transferNo)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *OracleStore) InsertTransfer(rec models.TransferRecord) error {
	_, err := s.db.Exec(`INSERT INTO hos_repasse_medico
		(cnpj, razao_social, seq_terceiro, nr_repasse, nr_titulo, dt_lib_titulo,
		 email, dt_ult_envio_email, dt_lib_repasse, cd_estabelecimento, status)
		VALUES (:1, :2, :3, :4, :5, :6, :7, SYSDATE, :8, :9, :10)`,
		rec.TaxID, rec.CompanyName, rec.ThirdPartySeq, rec.TransferNo, rec.InvoiceNo,
		rec.ReleaseDate, rec.Email, rec.TransferReleaseDate, rec.EstablishmentCode,
		string(rec.Status),
	)
	if err != nil {
		return errors.Wrapf(err, "insert transfer %s", rec.TransferNo)
	}
	return nil
}

func (s *OracleStore) ListTransfers(status models.TransferStatus) ([]models.TransferRecord, error) {
	query := fmt.Sprintf(`SELECT %s,
		status AS "status",
		NVL(mensagem, '') AS "mensagem"
		FROM hos_repasse_medico WHERE status = :1 ORDER BY dt_lib_titulo ASC`, transferColumns)
	rows := []models.TransferRecord{}
	if err := s.db.Select(&rows, query, string(status)); err != nil {
		return nil, errors.Wrap(err, "list transfers")
	}
	return rows, nil
}

func (s *OracleStore) UpdateTransferStatus(transferNo string, status models.TransferStatus, msg string) error {
	res, err := s.db.Exec(
		"UPDATE hos_repasse_medico SET status = :1, mensagem = :2 WHERE nr_repasse = :3",
		string(status), msg, transferNo,
	)
	if err != nil {
		return errors.Wrapf(err, "update transfer %s", transferNo)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
