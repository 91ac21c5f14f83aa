package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"surge/internal/job"
	"surge/internal/logging"
	"surge/internal/sink"
)

type PrefixRequest struct {
	Prefix string `json:"prefix"`
}

type ListResponse struct {
	Items []sink.Item `json:"items"`
}

type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Sink   string `json:"sink"`
	Uptime string `json:"uptime"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.POST("/upload-adaptive", s.handleUpload)
	r.POST("/list", s.handleList)
	r.POST("/delete-all", s.handleDeleteAll)
	r.GET("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	var req job.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	res, err := s.runner.Run(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleList(c *gin.Context) {
	var req PrefixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	items, err := s.sink.List(c.Request.Context(), req.Prefix)
	if err != nil {
		s.fail(c, err)
		return
	}
	if items == nil {
		items = []sink.Item{}
	}
	c.JSON(http.StatusOK, ListResponse{Items: items})
}

func (s *Server) handleDeleteAll(c *gin.Context) {
	var req PrefixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	n, err := s.sink.DeletePrefix(c.Request.Context(), req.Prefix)
	if err != nil {
		s.fail(c, err)
		return
	}
	logging.Info("Deleted %d objects under %q", n, req.Prefix)
	c.JSON(http.StatusOK, DeleteResponse{Deleted: n})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Sink:   s.sink.Name(),
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

// fail maps precondition errors to 400 and everything else to 500.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, job.ErrInvalidRequest), errors.Is(err, sink.ErrEmptyPrefix):
		status = http.StatusBadRequest
	default:
		logging.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
