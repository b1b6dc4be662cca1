// Package api provides the REST API server for tracker2live
package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/tracker2live/pkg/converter"
	"github.com/james-see/tracker2live/pkg/tracker"
)

// @title Tracker2Live API
// @version 1.0
// @description API for converting tracker modules (MOD/XM) to Ableton Live projects
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	r := gin.Default()

	r.Use(corsMiddleware())

	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.POST("/inspect", handleInspect)
		v1.POST("/convert", handleConvert)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "tracker2live",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the tracker formats the converter accepts
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats": []string{string(tracker.FormatMOD), string(tracker.FormatXM)},
		"output":  "Ableton Live project (.als)",
	})
}

// handleInspect godoc
// @Summary Inspect a module file
// @Description Upload a MOD/XM file and receive its decoded metadata
// @Tags inspect
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Module file to inspect"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/inspect [post]
func handleInspect(c *gin.Context) {
	data, _, ok := readUpload(c)
	if !ok {
		return
	}

	module, err := tracker.Decode(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	samples := make([]gin.H, 0, len(module.Samples))
	for _, s := range module.Samples {
		samples = append(samples, gin.H{
			"instrument": s.Instrument,
			"slot":       s.Slot,
			"name":       s.Name,
			"frames":     s.Frames,
			"volume":     s.Volume,
			"loop":       s.Loop.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"format":   module.Format,
		"title":    module.Info.Title,
		"channels": module.Info.Channels,
		"patterns": len(module.Patterns),
		"order":    len(module.Info.Order),
		"speed":    module.Info.Speed,
		"bpm":      module.Info.BPM,
		"real_bpm": module.RealBPM(),
		"samples":  samples,
	})
}

// handleConvert godoc
// @Summary Convert a module file
// @Description Upload a MOD/XM file, convert it server-side and receive a conversion summary
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Module file to convert"
// @Param pan_automation query bool false "Draw pan automation from 8xx commands"
// @Param envelope query bool false "Map FT2 volume envelopes onto device ADSR"
// @Param sample_offset query bool false "Automate sample start from 9xx commands"
// @Param merge_tracks query bool false "One merged track per instrument"
// @Success 200 {object} converter.Result
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/convert [post]
func handleConvert(c *gin.Context) {
	data, filename, ok := readUpload(c)
	if !ok {
		return
	}

	workDir, err := os.MkdirTemp("", "tracker2live-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	source := filepath.Join(workDir, filepath.Base(filename))
	if err := os.WriteFile(source, data, 0o644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	opts := converter.Options{
		PanAutomation: c.Query("pan_automation") == "true",
		Envelope:      c.Query("envelope") == "true",
		SampleOffset:  c.Query("sample_offset") == "true",
		MergeTracks:   c.Query("merge_tracks") == "true",
	}

	result, err := converter.Convert(source, opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func readUpload(c *gin.Context) ([]byte, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return nil, "", false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", false
	}
	return data, fileHeader.Filename, true
}
