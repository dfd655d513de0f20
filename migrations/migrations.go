package migrations

import (
	"github.com/aquanode/aqua-engine/core/migrator"
)

// Migrations is the list of storage migrations applied at node start.
// Names are prefixed with a YYYYMMDD-HHMMSS timestamp so the completion
// markers sort in application order.
var Migrations = []migrator.Migration{
	{
		Name:     "20260815-090000-template-alias-rewrite",
		Function: TemplateAliasRewriteMigration,
	},
}
