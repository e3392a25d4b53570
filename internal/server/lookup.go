package server

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/txfh/feesched/internal/metrics"
	"github.com/txfh/feesched/internal/model"
	"github.com/txfh/feesched/internal/resolve"
)

// Looker resolves one lookup request. Satisfied by *resolve.Resolver.
type Looker interface {
	Lookup(ctx context.Context, req resolve.Request) (*model.Match, error)
}

// LookupHandler handles fee-schedule lookups via JSON API.
type LookupHandler struct {
	resolver Looker
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(resolver Looker) *LookupHandler {
	return &LookupHandler{resolver: resolver}
}

// Lookup answers GET /lookup?geozip=&code=&modifier=.
func (h *LookupHandler) Lookup(c fiber.Ctx) error {
	geozipRaw := strings.TrimSpace(c.Query("geozip"))
	if geozipRaw == "" {
		return jsonError(c, fiber.StatusBadRequest, "geozip is required")
	}
	geozip, err := strconv.ParseInt(geozipRaw, 10, 64)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "geozip must be an integer")
	}

	req := resolve.Request{
		GeoZip: geozip,
		Code:   c.Query("code"),
	}
	if m := c.Query("modifier"); m != "" {
		req.Modifier = &m
	}

	match, err := h.resolver.Lookup(c.Context(), req)
	if err != nil {
		var ve *resolve.ValidationError
		if errors.As(err, &ve) {
			return jsonError(c, fiber.StatusBadRequest, ve.Error())
		}
		var de *resolve.DataUnavailableError
		if errors.As(err, &de) {
			return jsonError(c, fiber.StatusServiceUnavailable, "allowed amounts table unavailable; run a load")
		}
		return jsonError(c, fiber.StatusInternalServerError, "lookup failed")
	}

	metrics.RecordLookup(match.MatchType, match.Found)

	if !match.Found {
		return jsonError(c, fiber.StatusNotFound, model.MatchNone)
	}

	body := make(map[string]any, len(match.Fields)+1)
	for k, v := range match.Fields {
		body[k] = v
	}
	body["match_type"] = match.MatchType
	return jsonSuccess(c, body)
}

// Health answers the liveness probe.
func Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
