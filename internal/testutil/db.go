package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	oracleImage   = "gvenzl/oracle-free:23-slim"
	oracleService = "FREEPDB1"
	appUser       = "rpa"
	appPassword   = "rpa"
)

// TestDB holds the test database connection and container
type TestDB struct {
	DB        *sqlx.DB
	ConnStr   string
	container testcontainers.Container
}

// schema mirrors the hospital objects the store touches: the staging
// table, a stand-in for the source view, and the ROBO_RPA run-tracking
// package backed by two plain tables.
var schema = []string{
	`CREATE TABLE hos_repasse_medico (
		cnpj VARCHAR2(20),
		razao_social VARCHAR2(200),
		seq_terceiro NUMBER,
		nr_repasse VARCHAR2(30) PRIMARY KEY,
		nr_titulo VARCHAR2(30),
		dt_lib_titulo DATE,
		email VARCHAR2(200),
		dt_ult_envio_email DATE,
		dt_lib_repasse DATE,
		cd_estabelecimento VARCHAR2(10),
		status VARCHAR2(10),
		mensagem VARCHAR2(500)
	)`,
	`CREATE TABLE controle_execucao (
		id NUMBER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		unidade VARCHAR2(50),
		projeto VARCHAR2(50),
		script VARCHAR2(100),
		etapa VARCHAR2(50),
		usuario VARCHAR2(50),
		status VARCHAR2(20) DEFAULT 'running',
		dt_inicio DATE DEFAULT SYSDATE,
		dt_fim DATE,
		observacoes VARCHAR2(500)
	)`,
	`CREATE TABLE log_execucao (
		id NUMBER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		id_execucao NUMBER,
		tipo_log VARCHAR2(10),
		registro_id VARCHAR2(30),
		mensagem VARCHAR2(1000),
		dt_log DATE DEFAULT SYSDATE
	)`,
	`CREATE OR REPLACE PACKAGE robo_rpa AS
		PROCEDURE pr_criar_controle_execucao(
			p_unidade IN VARCHAR2, p_projeto IN VARCHAR2, p_script IN VARCHAR2,
			p_etapa IN VARCHAR2, p_usuario IN VARCHAR2, p_id_execucao OUT NUMBER);
		PROCEDURE pr_registrar_log(
			p_id_execucao IN NUMBER, p_tipo_log IN VARCHAR2,
			p_registro_id IN VARCHAR2, p_mensagem IN VARCHAR2);
		PROCEDURE pr_finalizar_execucao(
			p_id_execucao IN NUMBER, p_status IN VARCHAR2, p_observacoes IN VARCHAR2);
	END robo_rpa;`,
	`CREATE OR REPLACE PACKAGE BODY robo_rpa AS
		PROCEDURE pr_criar_controle_execucao(
			p_unidade IN VARCHAR2, p_projeto IN VARCHAR2, p_script IN VARCHAR2,
			p_etapa IN VARCHAR2, p_usuario IN VARCHAR2, p_id_execucao OUT NUMBER) IS
		BEGIN
			INSERT INTO controle_execucao (unidade, projeto, script, etapa, usuario)
			VALUES (p_unidade, p_projeto, p_script, p_etapa, p_usuario)
			RETURNING id INTO p_id_execucao;
			COMMIT;
		END;
		PROCEDURE pr_registrar_log(
			p_id_execucao IN NUMBER, p_tipo_log IN VARCHAR2,
			p_registro_id IN VARCHAR2, p_mensagem IN VARCHAR2) IS
		BEGIN
			INSERT INTO log_execucao (id_execucao, tipo_log, registro_id, mensagem)
			VALUES (p_id_execucao, p_tipo_log, p_registro_id, p_mensagem);
			COMMIT;
		END;
		PROCEDURE pr_finalizar_execucao(
			p_id_execucao IN NUMBER, p_status IN VARCHAR2, p_observacoes IN VARCHAR2) IS
		BEGIN
			UPDATE controle_execucao
			SET status = p_status, observacoes = p_observacoes, dt_fim = SYSDATE
			WHERE id = p_id_execucao;
			COMMIT;
		END;
	END robo_rpa;`,
}

// SetupTestDB starts an Oracle Free container, applies the test schema and
// returns a connected DB.
func SetupTestDB(t *testing.T) *TestDB {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        oracleImage,
		ExposedPorts: []string{"1521/tcp"},
		Env: map[string]string{
			"ORACLE_PASSWORD":   "test",
			"APP_USER":          appUser,
			"APP_USER_PASSWORD": appPassword,
		},
		WaitingFor: wait.ForLog("DATABASE IS READY TO USE!").WithStartupTimeout(5 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Oracle container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "1521")
	if err != nil {
		t.Fatal(err)
	}

	connStr := go_ora.BuildUrl(host, port.Int(), oracleService, appUser, appPassword, nil)
	db, err := sqlx.Open("oracle", connStr)
	if err != nil {
		terminate(t, container)
		t.Fatalf("Failed to connect to test DB: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 9 {
			terminate(t, container)
			t.Fatalf("Failed to ping test DB after retries: %v", err)
		}
		time.Sleep(2 * time.Second)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			terminate(t, container)
			t.Fatalf("Failed to apply test schema: %v", err)
		}
	}

	return &TestDB{DB: db, ConnStr: connStr, container: container}
}

// Teardown cleans up the test database and container
func (td *TestDB) Teardown(t *testing.T) {
	if err := td.DB.Close(); err != nil {
		t.Errorf("Failed to close DB connection: %v", err)
	}
	terminate(t, td.container)
}

func terminate(t *testing.T, container testcontainers.Container) {
	if err := container.Terminate(context.Background()); err != nil {
		t.Fatalf("Failed to terminate container: %v", err)
	}
}
