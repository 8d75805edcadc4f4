package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plantcare/internal/care"
)

// handleCreateTask adds a one-off task for a plant.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req care.TaskInput
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.care.CreateTask(c.Request.Context(), owner(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleCompleteTask marks a task done.
func (s *Server) handleCompleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.care.CompleteTask(c.Request.Context(), owner(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleTaskCounts returns the overdue, today and open counters.
func (s *Server) handleTaskCounts(c *gin.Context) {
	counts, err := s.care.Counts(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, counts)
}

// handleToday returns the today view.
func (s *Server) handleToday(c *gin.Context) {
	view, err := s.care.Today(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// handleGenerate materializes tasks for the scheduling horizon.
func (s *Server) handleGenerate(c *gin.Context) {
	res, err := s.care.GenerateTasks(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, res)
}

// handleDigest returns the weekly digest buckets.
func (s *Server) handleDigest(c *gin.Context) {
	buckets, err := s.care.Digest(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"buckets": buckets})
}

// handleAnalytics returns the dashboard series.
func (s *Server) handleAnalytics(c *gin.Context) {
	a, err := s.care.Analytics(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, a)
}
