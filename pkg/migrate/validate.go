package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/angelmondragon/bizops-backend/pkg/migrate/migrations"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks the migrations in dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if err := ValidateFS(os.DirFS(dir)); err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}
	return nil
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return ValidateFS(migrations.FS)
}

// ValidateFS requires YYYYMMDDHHMMSS_name.sql filenames with unique versions
// and goose Up/Down sections. Every created table must carry tenant_id or
// reference a parent table that does.
func ValidateFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		if err := validateSQL(name, string(b)); err != nil {
			return err
		}
	}

	if len(seen) == 0 {
		return fmt.Errorf("no migrations found")
	}
	return nil
}

func validateSQL(name, txt string) error {
	if !strings.Contains(txt, "-- +goose Up") {
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	}
	if !strings.Contains(txt, "-- +goose Down") {
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	}
	for _, stmt := range strings.Split(upSection(txt), ";") {
		if !strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			continue
		}
		if !strings.Contains(stmt, "tenant_id") && !strings.Contains(stmt, "REFERENCES") {
			return fmt.Errorf("migration %q creates a table without tenant_id", name)
		}
	}
	return nil
}

func upSection(txt string) string {
	up := txt
	if idx := strings.Index(up, "-- +goose Up"); idx >= 0 {
		up = up[idx:]
	}
	if idx := strings.Index(up, "-- +goose Down"); idx >= 0 {
		up = up[:idx]
	}
	return up
}
