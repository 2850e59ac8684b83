package storage

import (
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/viniausta/repasse-medico/internal/config"
)

func InitStore(cfg *config.Config) (*OracleStore, error) {
	connStr := go_ora.BuildUrl(cfg.DBHost, cfg.DBPort, cfg.DBService, cfg.DBUser, cfg.DBPassword, nil)
	return NewOracleStore(connStr)
}
