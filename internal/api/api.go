// Package api exposes read-only queries over the persisted entities and
// the administrative re-population trigger.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	skysync "github.com/skywatch-io/skysync"
	"github.com/skywatch-io/skysync/internal/feed"
)

// Handler serves the HTTP API over the service.
type Handler struct {
	Service *skysync.Service
	Logger  *slog.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(service *skysync.Service, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{Service: service, Logger: logger.With("component", "api")}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)

	sats := r.Group("/api/satellites")
	{
		sats.GET("", h.GetSatellites)
		sats.GET("/norad/:id", h.GetSatelliteByNoradID)
		sats.GET("/search/:name", h.SearchSatellites)
		sats.GET("/starlink", h.groupByPrefix("STARLINK"))
		sats.GET("/oneweb", h.groupByPrefix("ONEWEB"))
		sats.GET("/iridium", h.groupByPrefix("IRIDIUM"))
		sats.GET("/history", h.GetHistoricalSatellites)
		sats.POST("/populate", h.PopulateSatellites)
	}

	quakes := r.Group("/api/earthquakes")
	{
		quakes.GET("", h.GetEarthquakes)
		quakes.GET("/recent", h.GetRecentEarthquakes)
	}

	return r
}

func (h *Handler) Health(c *gin.Context) {
	sats, quakes, err := h.Service.Store().Counts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"satellites":  sats,
		"earthquakes": quakes,
	})
}

func (h *Handler) GetSatellites(c *gin.Context) {
	sats, err := h.Service.Store().Satellites(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sats)
}

func (h *Handler) GetSatelliteByNoradID(c *gin.Context) {
	noradID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "norad id must be an integer"})
		return
	}

	sat, err := h.Service.Store().SatelliteByNoradID(c.Request.Context(), noradID)
	if errors.Is(err, skysync.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "satellite not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sat)
}

func (h *Handler) SearchSatellites(c *gin.Context) {
	sats, err := h.Service.Store().SatellitesByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sats)
}

func (h *Handler) groupByPrefix(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sats, err := h.Service.Store().SatellitesByNamePrefix(c.Request.Context(), prefix)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sats)
	}
}

func (h *Handler) GetHistoricalSatellites(c *gin.Context) {
	sats, err := h.Service.Store().SatellitesByNoradIDs(c.Request.Context(), feed.DefaultCatalogIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sats)
}

// PopulateSatellites triggers a full catalog re-population. The pass
// runs in the background; the request returns immediately.
func (h *Handler) PopulateSatellites(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := h.Service.PopulateSatellites(ctx, feed.QueryAllActive()); err != nil {
			h.Logger.Error("populate failed", "error", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "populating"})
}

func (h *Handler) GetEarthquakes(c *gin.Context) {
	quakes, err := h.Service.Store().Earthquakes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quakes)
}

func (h *Handler) GetRecentEarthquakes(c *gin.Context) {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
		hours = parsed
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	quakes, err := h.Service.Store().EarthquakesSince(c.Request.Context(), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quakes)
}
