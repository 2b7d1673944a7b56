package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/eventbot/core/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(coreconfig.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "bot",
		Password: "p@ss/word",
		Name:     "events",
		SSLMode:  "disable",
	})
	require.Equal(t, "postgres://bot:p%40ss%2Fword@db:5432/events?sslmode=disable", dsn)
}
