package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plantcare/internal/care"
)

// handleListPlants returns the owner's plants with optional filters.
func (s *Server) handleListPlants(c *gin.Context) {
	q := care.ListQuery{
		Q:               c.Query("q"),
		Light:           c.Query("light"),
		Water:           c.Query("water"),
		OverdueOnly:     flag(c.Query("overdue")),
		SortDueSoon:     c.Query("sort") == "dueSoon",
		IncludeArchived: flag(c.Query("archived")),
	}
	plants, err := s.care.ListPlants(c.Request.Context(), owner(c), q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"plants": plants})
}

// handleCreatePlant validates and stores a new plant.
func (s *Server) handleCreatePlant(c *gin.Context) {
	var req care.PlantInput
	if !bindJSON(c, &req) {
		return
	}
	plant, err := s.care.CreatePlant(c.Request.Context(), owner(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"plant": plant})
}

// handleGetPlant returns the plant detail view.
func (s *Server) handleGetPlant(c *gin.Context) {
	detail, err := s.care.PlantDetail(c.Request.Context(), owner(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}

// handleUpdatePlant applies a partial update.
func (s *Server) handleUpdatePlant(c *gin.Context) {
	var req care.PlantInput
	if !bindJSON(c, &req) {
		return
	}
	plant, err := s.care.UpdatePlant(c.Request.Context(), owner(c), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"plant": plant})
}

// handleDeletePlant removes a plant with its tasks and history.
func (s *Server) handleDeletePlant(c *gin.Context) {
	if err := s.care.DeletePlant(c.Request.Context(), owner(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleCare records a care action of the given type.
func (s *Server) handleCare(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req care.CareDetails
		if !bindJSON(c, &req) {
			return
		}
		plant, err := s.care.RecordCare(c.Request.Context(), owner(c), c.Param("id"), action, req)
		if err != nil {
			s.respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"plant": plant})
	}
}

// handleSeed loads the built-in catalog for the owner.
func (s *Server) handleSeed(c *gin.Context) {
	res, err := s.care.Seed(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, res)
}

// handleFixImages swaps missing or hotlinked images for placeholders.
func (s *Server) handleFixImages(c *gin.Context) {
	n, err := s.care.FixImages(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"updated": n})
}

func flag(v string) bool {
	return v == "1" || v == "true"
}
