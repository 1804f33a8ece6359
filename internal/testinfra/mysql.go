//go:build integration

// Package testinfra starts throwaway infrastructure for integration tests.
package testinfra

import (
	"context"
	"database/sql"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iliyamo/online-movie-api/internal/database"
)

const (
	mysqlImage    = "mysql:8.0"
	mysqlPort     = "3306/tcp"
	mysqlPassword = "test"
	mysqlDatabase = "online_movie"
)

// SkipIfNoDocker skips the test when no Docker daemon is reachable.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// MySQL starts a MySQL 8 container, applies the catalog schema and returns
// an open pool. The container is terminated when the test ends.
func MySQL(t *testing.T) *sql.DB {
	t.Helper()
	SkipIfNoDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mysqlImage,
			ExposedPorts: []string{mysqlPort},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": mysqlPassword,
				"MYSQL_DATABASE":      mysqlDatabase,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(mysqlPort),
				wait.ForLog("ready for connections").WithOccurrence(2),
			).WithStartupTimeout(3 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, mysqlPort)
	require.NoError(t, err)

	var db *sql.DB
	deadline := time.Now().Add(time.Minute)
	for {
		db, err = database.Open(database.Options{
			User: "root", Pass: mysqlPassword, Host: host, Port: port.Port(), Name: mysqlDatabase, MaxOpenConns: 5,
		})
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, fmt.Sprintf("connect to mysql at %s:%s", host, port.Port()))
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Bootstrap(ctx, db))
	return db
}
