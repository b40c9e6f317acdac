package handlers

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthHandler reports service liveness and basic host stats.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	Load1         float64 `json:"load1"`
	MemUsedPct    float64 `json:"memUsedPercent"`
}

// Get handles liveness checks. It fails when the database is unreachable;
// missing host stats are logged but do not fail the check.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check: database unreachable")
		respondError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}

	resp := healthResponse{Status: "ok"}

	if uptime, err := host.Uptime(); err == nil {
		resp.UptimeSeconds = uptime
	} else {
		log.Warn().Err(err).Msg("Health check: could not read host uptime")
	}
	if avg, err := load.Avg(); err == nil {
		resp.Load1 = avg.Load1
	} else {
		log.Warn().Err(err).Msg("Health check: could not read load average")
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemUsedPct = vm.UsedPercent
	} else {
		log.Warn().Err(err).Msg("Health check: could not read memory stats")
	}

	respondJSON(w, http.StatusOK, resp)
}
