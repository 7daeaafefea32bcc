// Package server exposes the transformation engine to the visual editor over
// HTTP. The handlers only decode requests, call the engine, and encode
// responses; all semantics live in internal/ddl and internal/openapi.
package server

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/erdlab/erdgen/internal/ddl"
	"github.com/erdlab/erdgen/internal/model"
	"github.com/erdlab/erdgen/internal/openapi"
	"github.com/erdlab/erdgen/internal/typemap"
	"github.com/erdlab/erdgen/internal/xerr"
)

// maxDocumentSize bounds uploaded OpenAPI documents and model snapshots.
const maxDocumentSize = 4 << 20

// GenerateRequest is the POST /api/generate body.
type GenerateRequest struct {
	ProjectName string       `json:"projectName"`
	Model       *model.Model `json:"model" binding:"required"`
}

// errorResponse renders an engine error as a diagnostic payload. Coded errors
// keep their structured context as a separate field instead of flattening it
// into the message.
func errorResponse(c *gin.Context, status int, err error) {
	var xe *xerr.Error
	if errors.As(err, &xe) {
		payload := gin.H{"code": xe.GetCode(), "message": xe.GetMessage()}
		if ctx := xe.GetContext(); len(ctx) > 0 {
			payload["context"] = ctx
		}
		c.JSON(status, gin.H{"error": payload})
		return
	}
	c.JSON(status, gin.H{"error": gin.H{
		"code":    xerr.GetErrorCode(err),
		"message": err.Error(),
	}})
}

// NewRouter builds the editor-facing API router.
func NewRouter(version string) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	api := router.Group("/api")
	{
		api.POST("/generate", handleGenerate)
		api.POST("/import", handleImport)
		api.GET("/types", handleTypes)
	}
	return router
}

// NewServer wraps the router in an http.Server with sane timeouts. The caller
// owns ListenAndServe and graceful shutdown.
func NewServer(addr, version string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(version),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// handleGenerate runs the DDL generator on a posted model snapshot.
func handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest,
			xerr.Wrap(xerr.ErrModelInvalid, err, "request body must carry a model snapshot"))
		return
	}
	if err := req.Model.Validate(); err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, err)
		return
	}

	res, err := ddl.Generate(req.Model, ddl.Options{
		Project: req.ProjectName,
		Now:     time.Now(),
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleImport runs the OpenAPI importer on the raw request body. The
// optional ?filename query parameter labels diagnostics.
func handleImport(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		filename = "request-body"
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize+1))
	if err != nil {
		errorResponse(c, http.StatusBadRequest,
			xerr.Wrap(xerr.ErrUnparsableDocument, err, "failed to read document body").WithPath(filename))
		return
	}
	if len(data) > maxDocumentSize {
		errorResponse(c, http.StatusRequestEntityTooLarge,
			xerr.Newf(xerr.ErrUnparsableDocument, "document exceeds %d bytes", maxDocumentSize).WithPath(filename))
		return
	}

	res := openapi.Import(data, filename)
	if len(res.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleTypes serves the shared vocabulary consumed by editor dropdowns and
// code-generation tooling: field types with their SQL and OpenAPI mappings,
// rule kinds, relation kinds, and FK actions.
func handleTypes(c *gin.Context) {
	types := make([]gin.H, 0, len(typemap.All()))
	for _, d := range typemap.All() {
		t := gin.H{"type": d.Type, "sql": d.SQL, "openapiType": d.OpenAPI.Type}
		if d.OpenAPI.Format != "" {
			t["openapiFormat"] = d.OpenAPI.Format
		}
		types = append(types, t)
	}

	actions := make([]string, 0, len(model.ValidFKActions))
	for a := range model.ValidFKActions {
		if a != "" {
			actions = append(actions, a)
		}
	}
	sort.Strings(actions)

	c.JSON(http.StatusOK, gin.H{
		"fieldTypes":    types,
		"ruleKinds":     model.RuleKinds(),
		"relationKinds": model.RelationKinds(),
		"fkActions":     actions,
	})
}
