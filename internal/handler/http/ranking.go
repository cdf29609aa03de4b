package http

import (
	"log/slog"
	"net/http"

	"github.com/oakrobotics/scoutbase/internal/service"
	"github.com/oakrobotics/scoutbase/pkg/httputil"
)

// RankingHandler serves the AI team rankings.
type RankingHandler struct {
	rankings *service.RankingService
	logger   *slog.Logger
}

func NewRankingHandler(rankings *service.RankingService, logger *slog.Logger) *RankingHandler {
	return &RankingHandler{rankings: rankings, logger: logger}
}

// List handles GET /rankings.
func (h *RankingHandler) List(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.rankings.Rankings(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rankings)
}
