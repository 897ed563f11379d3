package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/bizops-backend/pkg/migrate/migrations"
)

const DefaultDir = "pkg/migrate/migrations"

const dialect = "postgres"

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Source locates a set of goose migrations.
type Source struct {
	FS  fs.FS
	Dir string
}

// DirSource reads migrations from dir on disk.
func DirSource(dir string) Source {
	return Source{FS: os.DirFS(dir), Dir: "."}
}

// EmbeddedSource reads the migrations compiled into the binary.
func EmbeddedSource() Source {
	return Source{FS: migrations.FS, Dir: "."}
}

func (s Source) use(fn func(dir string) error) error {
	if s.FS == nil {
		return fmt.Errorf("migration source is required")
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(s.FS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn(s.Dir)
}

// Run executes a goose command (up, down, status, ...) against db.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	return src.use(func(dir string) error {
		if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// RunEmbedded runs command against the compiled-in migrations. The dev
// auto-migrate path and the postgres integration tests use it.
func RunEmbedded(ctx context.Context, db *sql.DB, command string, args ...string) error {
	return Run(ctx, db, EmbeddedSource(), command, args...)
}

// ToVersion moves the schema up or down until it sits at targetVersion.
func ToVersion(ctx context.Context, db *sql.DB, src Source, targetVersion string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	return src.use(func(dir string) error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		switch {
		case current < target:
			if err := goose.UpToContext(ctx, db, dir, target); err != nil {
				return fmt.Errorf("goose up-to %d: %w", target, err)
			}
		case current > target:
			if err := goose.DownToContext(ctx, db, dir, target); err != nil {
				return fmt.Errorf("goose down-to %d: %w", target, err)
			}
		}
		return nil
	})
}
