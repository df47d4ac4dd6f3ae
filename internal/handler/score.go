package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kidslearn/api/internal/auth"
	"github.com/kidslearn/api/internal/model"
	"github.com/kidslearn/api/internal/service"
)

// ScoreHandler manages the leaderboard endpoints.
type ScoreHandler struct {
	scores *service.ScoreService
	logger *slog.Logger
}

// NewScoreHandler creates a ScoreHandler.
func NewScoreHandler(scores *service.ScoreService, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{
		scores: scores,
		logger: logger,
	}
}

type submitScoreRequest struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type listScoresResponse struct {
	Scores []model.Score `json:"scores"`
}

// HandleSubmit records one quiz score.
//
// HTTP: POST /api/scores
// Body: {"name": "Mia", "score": 75}
//
// Runs behind OptionalAuth: a signed-in grown-up's submissions carry their
// user ID, anonymous ones don't.
func (h *ScoreHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid score JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be JSON with name and score fields",
		})
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	record, err := h.scores.Save(r.Context(), req.Name, req.Score, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// HandleListTop returns the leaderboard.
//
// HTTP: GET /api/scores?limit=10
func (h *ScoreHandler) HandleListTop(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "limit must be a number",
			})
			return
		}
		limit = parsed
	}

	scores, err := h.scores.ListTop(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listScoresResponse{Scores: scores})
}
