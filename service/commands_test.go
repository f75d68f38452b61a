package service

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardboard/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture swaps stdout and stdin for the duration of f.
func capture(t *testing.T, input string, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	oldOut, oldIn := stdout, stdin
	stdout, stdin = &buf, strings.NewReader(input)
	defer func() { stdout, stdin = oldOut, oldIn }()
	f()
	return buf.String()
}

func setupTestDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "badger")
	t.Setenv("BADGER_PATH", filepath.Join(dir, "badger"))
	return filepath.Join(dir, "badger")
}

func TestHandleCommand(t *testing.T) {
	setupTestDB(t)

	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectedExit   int
	}{
		{"no arguments", []string{}, "Usage: cardboard <command>", 1},
		{"help command", []string{"help"}, "Usage: cardboard <command>", 0},
		{"unknown command", []string{"unknown"}, "Unknown command: unknown", 1},
		{"db without subcommand", []string{"db"}, "Usage: cardboard", 1},
		{"unknown db command", []string{"db", "vacuum"}, "Unknown db command: vacuum", 1},
		{"restore without file", []string{"db", "restore"}, "Error: backup file path required for restore", 1},
		{"dangling config flag", []string{"serve", "--config"}, "--config requires a file path", 1},
		{"missing config file", []string{"serve", "--config", "/nonexistent/cardboard.yaml"}, "failed to read config file", 1},
		{"db with missing config file", []string{"db", "init", "--config", "/nonexistent/cardboard.yaml"}, "failed to read config file", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ret int
			output := capture(t, "", func() {
				ret = HandleCommand(tt.args, "test")
			})

			assert.Contains(t, output, tt.expectedOutput)
			assert.Equal(t, tt.expectedExit, ret)
		})
	}
}

func TestDBCommandsRejectMongo(t *testing.T) {
	setupTestDB(t)
	t.Setenv("STORE_DRIVER", "mongo")

	output := capture(t, "", func() {
		assert.Equal(t, 1, HandleCommand([]string{"db", "init"}, "test"))
	})
	assert.Contains(t, output, `store is "mongo"`)
}

func TestInitDb(t *testing.T) {
	dbPath := setupTestDB(t)

	output := capture(t, "", func() { initDb(dbPath) })
	assert.Contains(t, output, "Database initialized successfully")
	assert.DirExists(t, dbPath)

	output = capture(t, "", func() { initDb(dbPath) })
	assert.Contains(t, output, "Database already exists")
}

func TestClean(t *testing.T) {
	dbPath := setupTestDB(t)

	output := capture(t, "", func() { clean(dbPath) })
	assert.Contains(t, output, "Database is already clean")

	capture(t, "", func() { initDb(dbPath) })
	output = capture(t, "n\n", func() { clean(dbPath) })
	assert.Contains(t, output, "Operation cancelled")
	assert.DirExists(t, dbPath)

	output = capture(t, "y\n", func() { clean(dbPath) })
	assert.Contains(t, output, "Database cleaned successfully")
	assert.NoDirExists(t, dbPath)
}

func TestBackupAndRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	backupFile := filepath.Join(t.TempDir(), "cards.bak")

	output := capture(t, "", func() { backup(dbPath, backupFile) })
	assert.Contains(t, output, "No database exists to backup")

	store, err := openStore(dbPath)
	require.NoError(t, err)
	post := &models.Post{Title: "Lapras", Price: "8", Collection: "Fossil", ReleaseDate: "1999", Description: "Surf"}
	require.NoError(t, store.Posts().Create(t.Context(), post))
	require.NoError(t, store.Close())

	output = capture(t, "", func() {
		assert.Equal(t, 0, backup(dbPath, backupFile))
	})
	assert.Contains(t, output, "Database backed up successfully")
	assert.FileExists(t, backupFile)

	output = capture(t, "n\n", func() { restore(dbPath, backupFile) })
	assert.Contains(t, output, "Operation cancelled")

	capture(t, "y\n", func() { clean(dbPath) })
	output = capture(t, "", func() {
		assert.Equal(t, 0, restore(dbPath, backupFile))
	})
	assert.Contains(t, output, "Database restored successfully")

	store, err = openStore(dbPath)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Posts().GetByID(t.Context(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lapras", got.Title)
}

func TestBackupDefaultLocation(t *testing.T) {
	dbPath := setupTestDB(t)
	capture(t, "", func() { initDb(dbPath) })

	output := capture(t, "", func() {
		assert.Equal(t, 0, backup(dbPath, ""))
	})
	assert.Contains(t, output, filepath.Join(filepath.Dir(dbPath), "backups"))
}

func TestRestoreBadInput(t *testing.T) {
	dbPath := setupTestDB(t)

	output := capture(t, "", func() { restore(dbPath, "nonexistent.db") })
	assert.Contains(t, output, "Backup file does not exist")

	empty := filepath.Join(t.TempDir(), "empty.bak")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	output = capture(t, "", func() { restore(dbPath, empty) })
	assert.Contains(t, output, "Backup file is empty")
}

func TestSplitConfigFlag(t *testing.T) {
	path, rest, err := splitConfigFlag([]string{"backup", "--config", "c.yaml", "out.bak"})
	require.NoError(t, err)
	assert.Equal(t, "c.yaml", path)
	assert.Equal(t, []string{"backup", "out.bak"}, rest)

	path, rest, err = splitConfigFlag([]string{"--config=x.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "x.yaml", path)
	assert.Empty(t, rest)
}

func TestConfirm(t *testing.T) {
	var yes bool
	capture(t, "Y\n", func() { yes = confirm("ok?") })
	assert.True(t, yes)

	capture(t, "", func() { yes = confirm("ok?") })
	assert.False(t, yes)
}
