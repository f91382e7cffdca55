package api

import (
	"net/http"

	"datalens/app"
	"datalens/internal"

	"github.com/gin-gonic/gin"
)

// Server is the thin HTTP surface over the analysis core. Transport is a
// boundary concern: every handler translates between HTTP and the app
// service, nothing more.
type Server struct {
	router  *gin.Engine
	service *app.AnalysisService
	logger  *internal.Logger
	maxBody int64
}

// NewServer wires the routes.
func NewServer(service *app.AnalysisService, maxBody int64, ginMode string, logger *internal.Logger) *Server {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}

	s := &Server{
		router:  gin.Default(),
		service: service,
		logger:  logger.Named("api"),
		maxBody: maxBody,
	}

	api := s.router.Group("/api")
	{
		api.POST("/datasets", s.handleUpload)
		api.GET("/datasets", s.handleListDatasets)
		api.GET("/datasets/:id", s.handleGetDataset)
		api.DELETE("/datasets/:id", s.handleDeleteDataset)
		api.POST("/datasets/:id/analyze", s.handleAnalyze)
		api.GET("/datasets/:id/report", s.handleReport)
	}
	return s
}

// Handler exposes the router for mounting.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on the given address.
func (s *Server) Run(addr string) error {
	s.logger.Info("listening on %s", addr)
	return s.router.Run(addr)
}
