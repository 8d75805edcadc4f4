package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"plantcare/internal/care"
	"plantcare/internal/models"
)

func (s *Server) handleListRooms(c *gin.Context) {
	rooms, err := s.care.ListRooms(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"rooms": rooms})
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req care.RoomInput
	if !bindJSON(c, &req) {
		return
	}
	room, err := s.care.CreateRoom(c.Request.Context(), owner(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"room": room})
}

func (s *Server) handleDeleteRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.care.DeleteRoom(c.Request.Context(), owner(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleGetSettings(c *gin.Context) {
	st, err := s.care.Settings(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"settings": st})
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var req care.SettingsInput
	if !bindJSON(c, &req) {
		return
	}
	st, err := s.care.UpdateSettings(c.Request.Context(), owner(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"settings": st})
}

// handleWeather returns current conditions for explicit coordinates or the
// owner's saved location.
func (s *Server) handleWeather(c *gin.Context) {
	q := care.WeatherQuery{Unit: c.Query("unit")}
	var verr *models.ValidationError
	for _, p := range []struct {
		name string
		dst  **float64
	}{{"lat", &q.Lat}, {"lon", &q.Lon}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if verr == nil {
				verr = &models.ValidationError{Fields: map[string]string{}}
			}
			verr.Fields[p.name] = "must be a number"
			continue
		}
		*p.dst = &v
	}
	if verr != nil {
		s.respondError(c, verr)
		return
	}

	cur, err := s.care.Weather(c.Request.Context(), owner(c), q)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			s.logger.Warn("weather lookup failed", "owner", owner(c), "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "weather unavailable"})
			return
		}
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"weather": cur})
}
