package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cardboard/app/config"
	"cardboard/app/logging"
	"cardboard/app/repositories"
)

// HandleCommand runs the serve and db subcommands and returns an exit code.
func HandleCommand(args []string, version string) int {
	if len(args) < 1 {
		printHelp()
		return 1
	}

	configPath, rest, err := splitConfigFlag(args[1:])
	if err != nil {
		outf("Error: %v\n", err)
		return 1
	}

	switch args[0] {
	case "serve":
		cfg, err := config.Load(configPath)
		if err != nil {
			outf("Error: %v\n", err)
			return 1
		}
		if err := RunAppServer(cfg, version); err != nil {
			outf("Error: %v\n", err)
			return 1
		}
		return 0
	case "db":
		return handleDB(configPath, rest)
	case "help":
		printHelp()
		return 0
	default:
		outf("Unknown command: %s\n\n", args[0])
		printHelp()
		return 1
	}
}

func handleDB(configPath string, args []string) int {
	if len(args) < 1 {
		printHelp()
		return 1
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		outf("Error: %v\n", err)
		return 1
	}
	if cfg.Store != config.StoreBadger {
		outf("Error: db commands manage the embedded badger store, but store is %q\n", cfg.Store)
		return 1
	}
	dbPath := cfg.BadgerPath

	switch args[0] {
	case "init":
		return initDb(dbPath)
	case "clean":
		return clean(dbPath)
	case "backup":
		file := ""
		if len(args) > 1 {
			file = args[1]
		}
		return backup(dbPath, file)
	case "restore":
		if len(args) < 2 {
			outln("Error: backup file path required for restore")
			return 1
		}
		return restore(dbPath, args[1])
	default:
		outf("Unknown db command: %s\n\n", args[0])
		printHelp()
		return 1
	}
}

func printHelp() {
	outln(`Usage: cardboard <command> [options]

Commands:
  serve [--config <file>]              Run the card marketplace web server
  db init [--config <file>]            Initialize a new empty database
  db clean [--config <file>]           Remove the database
  db backup [file] [--config <file>]   Write a backup of the database
  db restore <file> [--config <file>]  Restore the database from a backup
  help                                 Display this help message
  version                              Show version information`)
}

func openStore(dbPath string) (*repositories.Store, error) {
	return repositories.Open(dbPath, logging.Discard())
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// clean removes the database.
func clean(dbPath string) int {
	if !exists(dbPath) {
		outln("Database is already clean (does not exist)")
		return 0
	}
	if !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		outln("Operation cancelled")
		return 0
	}
	if err := os.RemoveAll(dbPath); err != nil {
		outf("Failed to clean database: %v\n", err)
		return 1
	}
	outln("Database cleaned successfully")
	return 0
}

// initDb creates a new empty database.
func initDb(dbPath string) int {
	if exists(dbPath) {
		outln("Database already exists. Use 'db clean' first if you want to reinitialize.")
		return 0
	}
	store, err := openStore(dbPath)
	if err != nil {
		outf("Failed to initialize database: %v\n", err)
		return 1
	}
	defer store.Close()

	outln("Database initialized successfully")
	return 0
}

// backup writes a full backup, by default into a backups directory next to the database.
func backup(dbPath, file string) int {
	if !exists(dbPath) {
		outln("No database exists to backup")
		return 1
	}
	if file == "" {
		file = filepath.Join(filepath.Dir(dbPath), "backups", fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		outf("Failed to create backup directory: %v\n", err)
		return 1
	}

	store, err := openStore(dbPath)
	if err != nil {
		outf("Failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	f, err := os.Create(file)
	if err != nil {
		outf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := store.Backup(f); err != nil {
		outf("Failed to backup database: %v\n", err)
		return 1
	}
	outf("Database backed up successfully to %s\n", file)
	return 0
}

// restore replaces the database with the contents of backupFile.
func restore(dbPath, backupFile string) int {
	fi, err := os.Stat(backupFile)
	if err != nil {
		outf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if fi.Size() == 0 {
		outf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if exists(dbPath) {
		if !confirm("Existing database found. Do you want to replace it?") {
			outln("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(dbPath); err != nil {
			outf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	f, err := os.Open(backupFile)
	if err != nil {
		outf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	store, err := openStore(dbPath)
	if err != nil {
		outf("Failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return store.Restore(f)
	}()
	if err != nil {
		outf("Failed to restore database: %v\n", err)
		return 1
	}

	outln("Database restored successfully")
	return 0
}
