package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/rag"
	"github.com/aqua777/ragpipe/schema"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1/rag")
	api.POST("/pipelines", s.createPipeline)
	api.GET("/pipelines", s.listPipelines)
	api.GET("/pipelines/:id", s.getPipeline)
	api.DELETE("/pipelines/:id", s.deletePipeline)
	api.POST("/pipelines/:id/documents", s.uploadDocument)
	api.GET("/pipelines/:id/documents", s.listDocuments)
	api.DELETE("/pipelines/:id/documents/:doc_id", s.deleteDocument)
	api.POST("/pipelines/:id/query", s.queryPipeline)
	api.GET("/pipelines/:id/stats", s.getStatistics)
	api.GET("/config/options", s.getConfigOptions)
}

func (s *Server) createPipeline(c *gin.Context) {
	var req createPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, apperr.Wrap(apperr.KindValidation, err, "invalid request body"))
		return
	}

	p, err := s.engine.CreatePipeline(c.Request.Context(), req.Name, req.Description, req.config())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) listPipelines(c *gin.Context) {
	pipelines, err := s.engine.ListPipelines(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	if pipelines == nil {
		pipelines = []schema.Pipeline{}
	}
	c.JSON(http.StatusOK, pipelines)
}

func (s *Server) getPipeline(c *gin.Context) {
	p, err := s.engine.GetPipeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deletePipeline(c *gin.Context) {
	if err := s.engine.DeletePipeline(c.Request.Context(), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.renderError(c, apperr.Wrap(apperr.KindValidation, err, "missing file field"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.renderError(c, apperr.Wrap(apperr.KindValidation, err, "open uploaded file"))
		return
	}
	defer f.Close()

	// Read one byte past the limit; the engine rejects the oversize.
	data, err := io.ReadAll(io.LimitReader(f, rag.MaxUploadBytes+1))
	if err != nil {
		s.renderError(c, apperr.Wrap(apperr.KindInternal, err, "read uploaded file"))
		return
	}

	resp, err := s.engine.UploadDocument(c.Request.Context(), c.Param("id"), fh.Filename, data)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listDocuments(c *gin.Context) {
	docs, err := s.engine.ListDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	if docs == nil {
		docs = []schema.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) deleteDocument(c *gin.Context) {
	if err := s.engine.DeleteDocument(c.Request.Context(), c.Param("id"), c.Param("doc_id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) queryPipeline(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, apperr.Wrap(apperr.KindValidation, err, "invalid request body"))
		return
	}

	resp, err := s.engine.Query(c.Request.Context(), c.Param("id"), req.toQuery())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getStatistics(c *gin.Context) {
	stats, err := s.engine.GetStatistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getConfigOptions(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.ConfigOptions())
}
