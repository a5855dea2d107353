package handler

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/model"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/pkg/logger"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/service"
)

// ScoreHandler serves the quiz scoreboard. Scores are append-only; every
// finished play becomes its own leaderboard row.
type ScoreHandler struct {
	store service.ScoreStore
}

func NewScoreHandler(store service.ScoreStore) *ScoreHandler {
	return &ScoreHandler{store: store}
}

type saveScoreRequest struct {
	Name           string  `json:"name"`
	Score          float64 `json:"score"`
	Total          float64 `json:"total"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Save records one quiz result. Points reward accuracy and quiz length and
// penalize elapsed time, floored at zero.
func (h *ScoreHandler) Save(c *gin.Context) {
	var req saveScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Total <= 0 || req.Score < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid score data"})
		return
	}

	ratio := req.Score / req.Total
	points := int(math.Round(ratio*1000 + req.Total*100 - req.ElapsedSeconds*2))
	if points < 0 {
		points = 0
	}
	avgScore := math.Round(ratio*5*10) / 10

	score := &model.Score{
		Name:     req.Name,
		Points:   points,
		AvgScore: avgScore,
	}
	if err := h.store.SaveScore(c.Request.Context(), score); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save score: " + err.Error()})
		return
	}

	logger.Info(c.Request.Context(), "score saved",
		"name", req.Name,
		"points", points,
	)

	c.JSON(http.StatusOK, gin.H{
		"message":   "Score saved successfully",
		"points":    points,
		"avg_score": avgScore,
	})
}

// List returns the leaderboard ordered by points descending
func (h *ScoreHandler) List(c *gin.Context) {
	scores, err := h.store.ListScores(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list scores: " + err.Error()})
		return
	}
	if scores == nil {
		scores = []*model.Score{}
	}

	c.JSON(http.StatusOK, scores)
}
