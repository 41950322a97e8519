package modeldef

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sqldef/modeldef/database"
	"github.com/sqldef/modeldef/schema"
)

// EnsureDatabase makes sure the database named by url exists. With reset it
// is dropped first, so the run starts from an empty database.
func EnsureDatabase(ctx context.Context, url string, reset bool, logger database.Logger) error {
	d, config, err := database.ParseURL(url)
	if err != nil {
		return err
	}
	return EnsureDatabaseConfig(ctx, d, config, reset, logger)
}

func EnsureDatabaseConfig(ctx context.Context, d schema.Dialect, config database.Config, reset bool, logger database.Logger) error {
	if d.IsFileBased() {
		return ensureFile(config.DbName, reset)
	}
	if config.DbName == "" {
		return &schema.ConfigurationError{Message: "database name is required to create a database"}
	}

	// Connect to the server's maintenance database, the target may not exist.
	admin := config
	admin.DbName = ""
	if d == schema.DialectPostgres {
		admin.DbName = "postgres"
	}
	db, err := OpenConfig(d, admin)
	if err != nil {
		return err
	}
	defer db.Close()

	conn, err := database.Checkout(ctx, db.DB())
	if err != nil {
		return err
	}
	defer conn.Close()

	return ensureDatabase(ctx, d, conn, config.DbName, reset, logger)
}

func ensureDatabase(ctx context.Context, d schema.Dialect, conn database.Conn, name string, reset bool, logger database.Logger) error {
	gen := schema.NewGenerator(d)
	session := database.NewSession(conn, logger, false, false)

	if reset {
		slog.Debug("Dropping database", "database", name)
		if err := session.Execute(ctx, gen.DropDatabase(name)); err != nil {
			return err
		}
	}

	exists := false
	if d == schema.DialectPostgres {
		rows, err := session.Query(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", name)
		if err != nil {
			return fmt.Errorf("failed to look up database `%s': %w", name, err)
		}
		exists = len(rows) > 0
	}
	if !exists {
		slog.Debug("Creating database", "database", name)
		if err := session.Execute(ctx, gen.CreateDatabase(name)); err != nil {
			return err
		}
	}

	if use, ok := gen.UseDatabase(name); ok {
		return session.RawCommand(ctx, use)
	}
	return nil
}

// ensureFile creates the SQLite file, removing it first with reset.
func ensureFile(name string, reset bool) error {
	if database.IsMemory(name) {
		return nil
	}
	path := database.FilePath(name)
	if reset {
		slog.Debug("Removing database file", "path", path)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove '%s': %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory of '%s': %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}
	return f.Close()
}
