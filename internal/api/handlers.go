package api

import (
	goerrors "errors"
	"net/http"
	"time"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/dataset"
	"datalens/internal/errors"
	"datalens/internal/executor"
	"datalens/internal/report"
	"datalens/ports"

	"github.com/gin-gonic/gin"
)

// statusFor maps error taxonomy codes to HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeParseError, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeInsufficientData, errors.CodeAnalysisError:
		return http.StatusUnprocessableEntity
	case errors.CodeCancelled:
		return 499 // client closed request
	case errors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"code":    errors.GetCode(err),
		"message": err.Error(),
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	// Bound the read itself, not the client-reported size: multipart
	// parsing consumes the body before any size header can be checked.
	if s.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if goerrors.As(err, &tooLarge) {
			respondError(c, errors.InvalidInput("file exceeds the upload limit"))
			return
		}
		respondError(c, errors.InvalidInput("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	ds, err := s.service.IngestFile(c.Request.Context(), header.Filename, file, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, datasetSummary(ds))
}

func (s *Server) handleListDatasets(c *gin.Context) {
	all := s.service.Datasets()
	out := make([]gin.H, 0, len(all))
	for _, ds := range all {
		out = append(out, datasetSummary(ds))
	}
	c.JSON(http.StatusOK, gin.H{"datasets": out})
}

func (s *Server) handleGetDataset(c *gin.Context) {
	ds, err := s.service.Dataset(core.DatasetID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset": datasetSummary(ds),
		"fields":  ds.Fields(),
	})
}

func (s *Server) handleDeleteDataset(c *gin.Context) {
	if err := s.service.Remove(c.Request.Context(), core.DatasetID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// analyzeRequest is the transport shape of one analysis call.
type analyzeRequest struct {
	Operation       string            `json:"operation" binding:"required"`
	Params          map[string]string `json:"params"`
	UseCache        *bool             `json:"use_cache"`
	CacheDurationMS int64             `json:"cache_duration_ms"`
	Background      bool              `json:"background"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput("invalid analyze request body"))
		return
	}

	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	q := ports.Query{
		Operation: req.Operation,
		Params:    req.Params,
		Options: ports.QueryOptions{
			UseCache:        useCache,
			CacheDuration:   time.Duration(req.CacheDurationMS) * time.Millisecond,
			ForceBackground: req.Background,
		},
	}

	resp, err := s.service.Execute(c.Request.Context(), core.DatasetID(c.Param("id")), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": resp.Data,
		"metadata": gin.H{
			"execution_time_ms": resp.Metadata.ExecutionTime.Milliseconds(),
			"row_count":         resp.Metadata.RowCount,
			"cached":            resp.Metadata.Cached,
			"background":        resp.Metadata.Background,
		},
	})
}

// handleReport runs the standard battery over every numeric field and
// renders it as HTML.
func (s *Server) handleReport(c *gin.Context) {
	ds, err := s.service.Dataset(core.DatasetID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}

	var results []*analysis.Result
	for _, f := range ds.Fields() {
		if f.Type != dataset.TypeNumber {
			continue
		}
		resp, err := s.service.Execute(c.Request.Context(), ds.ID(), ports.Query{
			Operation: executor.OpDescriptive,
			Params:    map[string]string{"field": f.Name},
			Options:   ports.QueryOptions{UseCache: true},
		})
		if err != nil {
			continue
		}
		results = append(results, resp.Data)
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(ds, results))
}

func datasetSummary(ds *dataset.Dataset) gin.H {
	return gin.H{
		"id":          ds.ID().String(),
		"name":        ds.Name(),
		"row_count":   ds.RowCount(),
		"field_count": ds.FieldCount(),
		"fingerprint": ds.Fingerprint().String(),
		"created_at":  ds.CreatedAt(),
		"fields":      ds.FieldNames(),
	}
}
