package main

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkuptcov/bloomstore"
)

// initRequest fields are optional. A missing seed is taken from the clock,
// an explicit 0 is kept.
type initRequest struct {
	Capacity  uint64  `json:"capacity"`
	ErrorRate float64 `json:"error_rate"`
	Seed      *int64  `json:"seed"`
}

// addRequest.Element is a pointer so an empty element can be told apart from a missing one.
type addRequest struct {
	Element *string `json:"element" binding:"required"`
}

type server struct {
	filters *bloom.Filters
	log     logrus.FieldLogger
}

func newRouter(filters *bloom.Filters, log logrus.FieldLogger) *gin.Engine {
	s := &server{filters: filters, log: log}
	r := gin.New()
	// match routes on the escaped path so an element segment may hold an encoded '/'
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), s.logRequests)

	r.PUT("/filters/:key", s.init)
	r.GET("/filters/:key", s.info)
	r.DELETE("/filters/:key", s.delete)
	r.POST("/filters/:key/elements", s.add)
	r.GET("/filters/:key/elements", s.existsQuery)
	r.GET("/filters/:key/elements/:element", s.exists)
	r.POST("/filters/:key/merge/:src", s.merge)
	return r
}

func (s *server) init(c *gin.Context) {
	var req initRequest
	// the body is optional, every parameter has a default
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h, err := s.filters.Init(c.Request.Context(), c.Param("key"), bloom.Params{
		Capacity:  req.Capacity,
		ErrorRate: req.ErrorRate,
		Seed:      req.Seed,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "OK",
		"seed":       h.Seed,
		"capacity":   h.Capacity,
		"error_rate": h.ErrorRate,
	})
}

func (s *server) add(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.filters.AddString(c.Request.Context(), c.Param("key"), *req.Element); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *server) exists(c *gin.Context) {
	s.reportExists(c, c.Param("element"))
}

// existsQuery takes the element from ?element=, which may be empty.
func (s *server) existsQuery(c *gin.Context) {
	element, present := c.GetQuery("element")
	if !present {
		c.JSON(http.StatusBadRequest, gin.H{"error": "element query parameter is required"})
		return
	}
	s.reportExists(c, element)
}

func (s *server) reportExists(c *gin.Context, element string) {
	exists, err := s.filters.ExistsString(c.Request.Context(), c.Param("key"), element)
	if err != nil {
		s.fail(c, err)
		return
	}
	res := 0
	if exists {
		res = 1
	}
	c.JSON(http.StatusOK, gin.H{"exists": res})
}

func (s *server) merge(c *gin.Context) {
	if err := s.filters.Merge(c.Request.Context(), c.Param("key"), c.Param("src")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *server) info(c *gin.Context) {
	info, err := s.filters.Info(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *server) delete(c *gin.Context) {
	if err := s.filters.Delete(c.Request.Context(), c.Param("key")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *server) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, bloom.ErrInvalidArgument), errors.Is(err, bloom.ErrProbeTableExhausted):
		return http.StatusBadRequest
	case errors.Is(err, bloom.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bloom.ErrWrongType), errors.Is(err, bloom.ErrIncompatibleParameters):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.WithFields(logrus.Fields{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start),
	}).Debug("request served")
}
