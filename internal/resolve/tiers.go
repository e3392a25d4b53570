package resolve

import (
	"github.com/txfh/feesched/internal/model"
	embedsql "github.com/txfh/feesched/internal/sql"
)

// tier is one ordered step of the match policy: a stricter-to-looser match
// condition with its audit label. The chain is evaluated in order and
// short-circuits on the first hit, so adding a looser tier (for example a
// geographic fallback) is an append, not a restructuring.
type tier struct {
	name    string
	applies func(Request) bool
	sql     string
	args    func(Request) []any
	label   func(Request) string
}

func defaultTiers() []tier {
	return []tier{
		{
			name:    "modifier-specific",
			applies: func(req Request) bool { return req.Modifier != nil },
			sql:     embedsql.MatchModifierTier,
			args: func(req Request) []any {
				return []any{req.GeoZip, req.Code, *req.Modifier}
			},
			label: func(Request) string { return model.MatchModifierSpecific },
		},
		{
			name:    "base-rate",
			applies: func(Request) bool { return true },
			sql:     embedsql.MatchBaseTier,
			args: func(req Request) []any {
				return []any{req.GeoZip, req.Code}
			},
			label: func(req Request) string {
				if req.Modifier == nil {
					return model.MatchBaseNoModifier
				}
				return model.MatchBaseFallback
			},
		},
	}
}
