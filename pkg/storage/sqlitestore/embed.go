package sqlitestore

import "embed"

// MigrationFS embeds the schema migrations into the compiled binary, the
// same go:embed + goose provider pairing as the teacher-adjacent
// claude-ops db package.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
