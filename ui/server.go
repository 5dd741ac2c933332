// Package ui serves the HSE dashboard page and its JSON endpoints with gin.
package ui

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"hsedash/adapters/api"
	"hsedash/internal"
	"hsedash/internal/filter"
	"hsedash/internal/report"
	"hsedash/ui/middleware"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Server is the dashboard web server.
type Server struct {
	router    *gin.Engine
	service   api.Service
	templates *template.Template
	logger    *internal.Logger
}

// NewServer creates a server over service. mode is a gin mode
// (release, debug or test); empty keeps gin's current mode.
func NewServer(service api.Service, mode string, logger *internal.Logger) (*Server, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if mode != "" {
		gin.SetMode(mode)
	}
	templates, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.New(),
		service:   service,
		templates: templates,
		logger:    logger,
	}
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLog(logger))
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/health", s.handleHealth)

	apiGroup := s.router.Group("/api")
	{
		apiGroup.GET("/dashboard", s.handleDashboard)
		apiGroup.GET("/options", s.handleOptions)
		apiGroup.GET("/findings", s.handleFindings)
		apiGroup.GET("/objects", s.handleObjects)
		apiGroup.POST("/reload", s.handleReload)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("[Server] HSE dashboard on http://%s", addr)
	return s.router.Run(addr)
}

type pageData struct {
	From, To, Category, Location, Unit string
	Choices                            filter.Choices
	Summary                            template.HTML
}

func (s *Server) handleIndex(c *gin.Context) {
	q := c.Request.URL.Query()
	sel, err := api.ParseSelection(q)
	if err != nil {
		s.abort(c, err)
		return
	}
	d, err := s.service.Dashboard(c.Request.Context(), sel)
	if err != nil {
		s.abort(c, err)
		return
	}

	// Without data there are no choices to offer; the summary explains why.
	choices, err := s.service.Options(c.Request.Context())
	if err != nil {
		choices = filter.Choices{}
	}

	data := pageData{
		From:     q.Get("from"),
		To:       q.Get("to"),
		Category: q.Get("category"),
		Location: q.Get("location"),
		Unit:     q.Get("unit"),
		Choices:  choices,
		Summary:  template.HTML(report.HTML(d)),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.Error("[Server] template error: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": api.Body(err)})
		return
	}
	status := http.StatusOK
	if d.SourceEmpty {
		status = http.StatusServiceUnavailable
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDashboard(c *gin.Context) {
	sel, err := api.ParseSelection(c.Request.URL.Query())
	if err != nil {
		s.abort(c, err)
		return
	}
	d, err := s.service.Dashboard(c.Request.Context(), sel)
	if err != nil {
		s.abort(c, err)
		return
	}
	if d.SourceEmpty {
		s.abort(c, api.EmptySourceError(d))
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleOptions(c *gin.Context) {
	choices, err := s.service.Options(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, choices)
}

func (s *Server) handleFindings(c *gin.Context) {
	sel, err := api.ParseSelection(c.Request.URL.Query())
	if err != nil {
		s.abort(c, err)
		return
	}
	rows, err := s.service.Findings(c.Request.Context(), sel)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "findings": rows})
}

func (s *Server) handleObjects(c *gin.Context) {
	q := c.Request.URL.Query()
	sel, err := api.ParseSelection(q)
	if err != nil {
		s.abort(c, err)
		return
	}
	limit, err := api.ParseLimit(q, "limit")
	if err != nil {
		s.abort(c, err)
		return
	}
	view, err := s.service.Objects(c.Request.Context(), sel, c.Query("parent"), limit)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleReload(c *gin.Context) {
	views, err := s.service.Reload(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id":  views.SnapshotID,
		"findings":     len(views.Master),
		"object_rows":  len(views.Exploded),
		"source_empty": views.SourceEmpty,
		"diagnostics":  views.Diagnostics,
	})
}

func (s *Server) abort(c *gin.Context, err error) {
	status := api.StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("[Server] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": api.Body(err)})
}
