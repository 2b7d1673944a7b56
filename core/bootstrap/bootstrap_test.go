package bootstrap

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/eventbot/core/config"
	"github.com/m3rciful/eventbot/internal/store"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunMemoryDriverSkipsDatabase(t *testing.T) {
	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: coreconfig.StorageMemory}}
	res, err := Run(Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			t.Fatal("connect must not be called")
			return nil, nil
		},
	})
	require.NoError(t, err)
	require.Nil(t, res.DB)
	require.IsType(t, &store.Memory{}, res.Store)
	require.NoError(t, res.Close())
}

func TestRunPostgresConnectsAndMigrates(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")

	migrated := false
	cfg := &coreconfig.Config{
		Storage:  coreconfig.StorageConfig{Driver: coreconfig.StoragePostgres},
		Database: coreconfig.DatabaseConfig{Host: "db", Name: "events"},
	}
	res, err := Run(Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(got coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			require.Equal(t, "events", got.Name)
			return db, nil
		},
		Migrate: func(coreconfig.DatabaseConfig) error {
			migrated = true
			return nil
		},
	})
	require.NoError(t, err)
	require.True(t, migrated)
	require.Same(t, db, res.DB)
	require.IsType(t, &store.Postgres{}, res.Store)

	mock.ExpectClose()
	require.NoError(t, res.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationFailureClosesDB(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: coreconfig.StoragePostgres}}
	_, err = Run(Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect:    func(coreconfig.DatabaseConfig) (*sqlx.DB, error) { return sqlx.NewDb(raw, "postgres"), nil },
		Migrate:    func(coreconfig.DatabaseConfig) error { return errors.New("dirty database version 1") },
	})
	require.ErrorContains(t, err, "migrate")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunErrors(t *testing.T) {
	_, err := Run(Options{})
	require.Error(t, err)

	_, err = Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errors.New("no sink") },
	})
	require.ErrorContains(t, err, "init logger")

	_, err = Run(Options{
		Config:     &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: "sqlite"}},
		LoggerInit: noLogger,
	})
	require.ErrorContains(t, err, "unsupported storage driver")
}
