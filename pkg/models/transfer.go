package models

import (
	"strings"
	"time"
)

type TransferStatus string

const (
	PendingTransferStatus TransferStatus = "P"
	SentTransferStatus    TransferStatus = "E"
	IgnoredTransferStatus TransferStatus = "I"
	// FailedTransferStatus is the literal the staging table historically
	// carries for failed sends. Downstream reports depend on it.
	FailedTransferStatus TransferStatus = "False"
)

// TransferRecord is one staged "repasse" row, keyed by the transfer number.
type TransferRecord struct {
	TaxID               string         `json:"cnpj" db:"cnpj"`
	CompanyName         string         `json:"razao_social" db:"razao_social"`
	ThirdPartySeq       int64          `json:"seq_terceiro" db:"seq_terceiro"`
	TransferNo          string         `json:"nr_repasse" db:"nr_repasse"`
	InvoiceNo           string         `json:"nr_titulo" db:"nr_titulo"`
	ReleaseDate         *time.Time     `json:"dt_lib_titulo" db:"dt_lib_titulo"`
	Email               string         `json:"email" db:"email"`
	LastEmailAt         *time.Time     `json:"dt_ult_envio_email,omitempty" db:"dt_ult_envio_email"`
	TransferReleaseDate *time.Time     `json:"dt_lib_repasse" db:"dt_lib_repasse"`
	EstablishmentCode   string         `json:"cd_estabelecimento,omitempty" db:"cd_estabelecimento"`
	Status              TransferStatus `json:"status" db:"status"`
	StatusMsg           string         `json:"mensagem,omitempty" db:"mensagem"`
}

// MissingFields returns the column names required for the send step that are
// absent on the record. A record with any missing field is never sent.
func (r TransferRecord) MissingFields() []string {
	var missing []string
	if r.ReleaseDate == nil {
		missing = append(missing, "dt_lib_titulo")
	}
	if strings.TrimSpace(r.InvoiceNo) == "" {
		missing = append(missing, "nr_titulo")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if r.TransferReleaseDate == nil {
		missing = append(missing, "dt_lib_repasse")
	}
	return missing
}
