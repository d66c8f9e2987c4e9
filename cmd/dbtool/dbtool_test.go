package main

import (
	"bytes"
	"context"
	"field-route-service/internal/adapters/repositories"
	"field-route-service/internal/platform/db"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeedJSON = `{
  "branches": [
    {"branch": "087", "name": "Deogarh", "zonal_head": "Sambalpur Zone", "lat": 21.5383, "lon": 84.7289},
    {"branch": "167", "name": "Gwalior", "zonal_head": "Bhopal Zone", "lat": 26.2183, "lon": 78.1828}
  ],
  "clients": [
    {"client_id": "087-C001", "branch": "087", "name": "Sunita Behera", "lat": 21.5401, "lon": 84.7312}
  ]
}`

func runDBTool(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		seedFile, geocode, mockClients, mockBranch = "", false, 0, ""
		mockRadius, mockSeed = 5, 1
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeSeedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(testSeedJSON), 0o644))
	return path
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "migrate")
	assert.Contains(t, names, "seed")
}

func TestMigrateCmd_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	out, err := runDBTool(t, "migrate", "--db-path", path, "--database-url", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema ready (sqlite)")

	conn, err := db.OpenSQLite(path)
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM branches`).Scan(&n))
	assert.Zero(t, n)
}

func TestSeedCmd_LoadsFileWithMockClients(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	out, err := runDBTool(t, "seed",
		"--db-path", path, "--database-url", "",
		"--file", writeSeedFile(t),
		"--mock-clients", "5", "--branch", "087", "--radius-km", "3", "--seed", "7",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 2 branches and 6 clients.")

	conn, err := db.OpenSQLite(path)
	require.NoError(t, err)
	defer conn.Close()

	dir := repositories.NewSQLBranchDirectory(conn, db.SQLite)
	clients, err := dir.LookupClients(context.Background(), "087")
	require.NoError(t, err)
	assert.Len(t, clients, 6)

	clients, err = dir.LookupClients(context.Background(), "167")
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestSeedCmd_UnknownMockBranch(t *testing.T) {
	_, err := runDBTool(t, "seed",
		"--db-path", filepath.Join(t.TempDir(), "app.db"), "--database-url", "",
		"--file", writeSeedFile(t),
		"--mock-clients", "2", "--branch", "999",
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `branch "999" not found`)
}

func TestSeedCmd_RejectsArgs(t *testing.T) {
	_, err := runDBTool(t, "seed", "extra")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
