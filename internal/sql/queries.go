package sql

import (
	"embed"
)

// Migrations holds the schema migrations, applied in filename order.
// allowed_amounts is deliberately absent: the load pipeline owns that table
// and recreates it from each extract's column set.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/register_load_run.sql
var RegisterLoadRun string

//go:embed queries/lookup_load_run.sql
var LookupLoadRun string

//go:embed queries/update_load_run_status.sql
var UpdateLoadRunStatus string

//go:embed queries/reset_load_run.sql
var ResetLoadRun string

//go:embed queries/finish_load_run.sql
var FinishLoadRun string

//go:embed queries/insert_lookup_log.sql
var InsertLookupLog string

//go:embed queries/list_lookup_log.sql
var ListLookupLog string

//go:embed queries/match_modifier_tier.sql
var MatchModifierTier string

//go:embed queries/match_base_tier.sql
var MatchBaseTier string
