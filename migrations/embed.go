// Package migrations embeds the bridge's SQL migration files and registers
// them with the database package on import.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
