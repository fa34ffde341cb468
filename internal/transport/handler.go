// Package transport exposes boundary scanning over HTTP.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/config"
	"github.com/ironsheep/pixel-ruler/internal/logger"
	"github.com/ironsheep/pixel-ruler/internal/overlay"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// errBadRequest marks malformed form input.
var errBadRequest = errors.New("bad request")

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ScanResponse is the body of a successful /v1/scan call.
type ScanResponse struct {
	Result    boundary.Result `json:"result"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Label     string          `json:"label"`
	Mode      boundary.Mode   `json:"mode"`
	Metric    boundary.Metric `json:"metric"`
	Threshold float64         `json:"threshold"`
}

type ThresholdRequest struct {
	Current *float64 `json:"current"`
	Delta   *float64 `json:"delta" binding:"required"`
}

type ThresholdResponse struct {
	Previous  float64 `json:"previous"`
	Threshold float64 `json:"threshold"`
}

// NewHandler builds the HTTP API.
func NewHandler(cfg *config.Config, version string) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxUploadBytes),
	)

	r.GET("/health", healthCheck(version))

	v1 := r.Group("/v1")
	v1.POST("/scan", scanImage(cfg))
	v1.POST("/render", renderImage(cfg))
	v1.POST("/threshold", adjustThreshold(cfg))

	return r
}

func scanImage(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		img, q, ok := bindScan(c, cfg)
		if !ok {
			return
		}
		res, err := boundary.Scan(img, q)
		if err != nil {
			respondError(c, statusFor(err), "scan failed", err)
			return
		}

		m := boundary.Measure(res, q.Mode)
		logger.WithFields(logrus.Fields{
			"origin": res.Origin,
			"label":  m.Label(),
		}).Debug("Scan completed")

		c.JSON(http.StatusOK, ScanResponse{
			Result:    res,
			Width:     m.Width,
			Height:    m.Height,
			Label:     m.Label(),
			Mode:      q.Mode,
			Metric:    q.Metric,
			Threshold: q.Threshold,
		})
	}
}

func renderImage(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		img, q, ok := bindScan(c, cfg)
		if !ok {
			return
		}
		res, err := boundary.Scan(img, q)
		if err != nil {
			respondError(c, statusFor(err), "scan failed", err)
			return
		}

		opts := overlay.DefaultOptions()
		opts.HideLabel = c.PostForm("hide_label") == "true"
		canvas := overlay.Render(img, res, q.Mode, opts)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
			respondError(c, http.StatusInternalServerError, "failed to encode overlay", err)
			return
		}

		m := boundary.Measure(res, q.Mode)
		c.Header("X-Ruler-Width", strconv.Itoa(m.Width))
		c.Header("X-Ruler-Height", strconv.Itoa(m.Height))
		c.Header("X-Ruler-Limits", fmt.Sprintf("%d,%d,%d,%d", res.Top, res.Bottom, res.Left, res.Right))
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	}
}

func adjustThreshold(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ThresholdRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		current := cfg.Threshold
		if req.Current != nil {
			current = *req.Current
		}
		c.JSON(http.StatusOK, ThresholdResponse{
			Previous:  current,
			Threshold: boundary.AdjustThreshold(current, *req.Delta),
		})
	}
}

// bindScan decodes the uploaded image and the scan form fields. On failure
// it has already written the error response.
func bindScan(c *gin.Context, cfg *config.Config) (*raster.Image, boundary.Query, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
	defer cancel()

	var q boundary.Query
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "upload too large", err)
		} else {
			respondError(c, http.StatusBadRequest, "missing image upload", err)
		}
		return nil, q, false
	}

	q, err = parseQuery(c, cfg)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid scan parameters", err)
		return nil, q, false
	}
	if err := ctx.Err(); err != nil {
		respondError(c, statusFor(err), "request timed out", err)
		return nil, q, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unreadable image upload", err)
		return nil, q, false
	}
	defer f.Close()

	// Decoding is not interruptible; the deadline is checked on both sides.
	img, err := raster.DecodeLimit(f, cfg.MaxImagePixels)
	if err != nil {
		respondError(c, statusFor(err), "failed to decode image", err)
		return nil, q, false
	}
	if err := ctx.Err(); err != nil {
		respondError(c, statusFor(err), "request timed out", err)
		return nil, q, false
	}
	return img, q, true
}

func parseQuery(c *gin.Context, cfg *config.Config) (boundary.Query, error) {
	q := boundary.Query{
		Threshold: cfg.Threshold,
		Mode:      cfg.Mode,
		Metric:    cfg.Metric,
	}

	x, err := strconv.Atoi(c.PostForm("x"))
	if err != nil {
		return q, fmt.Errorf("%w: x must be an integer", errBadRequest)
	}
	y, err := strconv.Atoi(c.PostForm("y"))
	if err != nil {
		return q, fmt.Errorf("%w: y must be an integer", errBadRequest)
	}
	q.Origin = boundary.Point{X: x, Y: y}

	if v := c.PostForm("threshold"); v != "" {
		if q.Threshold, err = strconv.ParseFloat(v, 64); err != nil {
			return q, fmt.Errorf("%w: threshold must be a number", errBadRequest)
		}
	}
	if v := c.PostForm("mode"); v != "" {
		if q.Mode, err = boundary.ParseMode(v); err != nil {
			return q, err
		}
	}
	if v := c.PostForm("metric"); v != "" {
		if q.Metric, err = boundary.ParseMetric(v); err != nil {
			return q, err
		}
	}
	return q, nil
}

func healthCheck(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "available",
			"version": version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Info("Request handled")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, raster.ErrOutOfBounds), errors.Is(err, boundary.ErrInvalidThreshold), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, raster.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Warn("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
