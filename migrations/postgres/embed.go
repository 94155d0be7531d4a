// Package migrations embebe las migraciones SQL (formato goose) de Postgres.
package migrations

import "embed"

// FS contiene las migraciones; los archivos viven en la raíz del FS.
//
//go:embed *.sql
var FS embed.FS

// Dir es el directorio dentro de FS que se pasa a goose.
const Dir = "."
