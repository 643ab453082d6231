// Package httpapi serves the course reports over HTTP.
package httpapi

import (
	"net/http"

	"github.com/alexanderramin/waypoint/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with every route registered.
//
//	POST /api/v1/generate-:report            completion-report | last-page-accessed-report
//	GET  /api/v1/courses/:course_id/outline  course tree
//	GET  /healthz
//	GET  /metrics
func NewRouter(reports service.ReportService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	// Legacy course keys contain slashes and arrive percent-encoded.
	router.UseRawPath = true

	h := NewHandlers(reports)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/generate-:report", h.HandleGenerateReport)
		v1.GET("/courses/:course_id/outline", h.HandleOutline)
	}

	return router
}
