// Package migrations holds the Supabase schema the service depends on.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed sql/*.sql
var files embed.FS

// Migration is one embedded SQL file.
type Migration struct {
	Name string
	SQL  string
}

// List returns the embedded migrations in apply order.
func List() ([]Migration, error) {
	names, err := fs.Glob(files, "sql/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		out = append(out, Migration{Name: name[len("sql/"):], SQL: string(data)})
	}
	return out, nil
}

// Apply executes every migration in order. Each file is idempotent, so
// re-running Apply against an up-to-date database is safe.
func Apply(ctx context.Context, db *sql.DB) error {
	migrations, err := List()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply %s: %w", m.Name, err)
		}
	}
	return nil
}
