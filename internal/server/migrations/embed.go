// Package migrations embeds the goose migration files, one subtree per SQL
// dialect. The schemas are semantically equivalent: same columns, same
// uniqueness constraints, engine-appropriate types.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var Embedded embed.FS
