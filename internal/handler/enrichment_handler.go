package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/anyulbade/lei-cost-enricher/internal/dataset"
	"github.com/anyulbade/lei-cost-enricher/internal/dto"
	"github.com/anyulbade/lei-cost-enricher/internal/middleware"
	"github.com/anyulbade/lei-cost-enricher/internal/model"
	"github.com/anyulbade/lei-cost-enricher/internal/service"
)

type EnrichmentHandler struct {
	svc            *service.RunService
	maxUploadBytes int64
}

func NewEnrichmentHandler(svc *service.RunService, maxUploadBytes int64) *EnrichmentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &EnrichmentHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Create enriches a CSV sent as the raw body or as multipart field "file".
func (h *EnrichmentHandler) Create(c *gin.Context) {
	var q dto.EnrichmentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	body, err := h.openUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "upload failed: " + err.Error(),
		})
		return
	}
	defer body.Close()

	tbl, err := dataset.Read(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorListResponse{Error: "upload too large"})
			return
		}
		if errors.Is(err, dataset.ErrMissingColumn) || errors.Is(err, dataset.ErrInvalidNumber) {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "invalid CSV: " + err.Error(),
		})
		return
	}

	run := h.svc.Execute(c.Request.Context(), model.SourceAPI, tbl.Rows)
	c.Header(middleware.RunIDHeader, run.ID.String())

	if q.Format == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := tbl.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.NewRunResponse(run, tbl.Rows))
}

func (h *EnrichmentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "invalid run id",
		})
		return
	}

	p := dto.ParsePagination(c)
	run, rows, err := h.svc.Get(c.Request.Context(), id, p.PageSize, p.Offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	p = p.Within(run.Summary.Rows)
	resp := dto.NewRunResponse(run, rows)
	pagination := dto.NewPagination(p.Page, p.PageSize, run.Summary.Rows)
	resp.Pagination = &pagination
	c.JSON(http.StatusOK, resp)
}

func (h *EnrichmentHandler) openUpload(c *gin.Context) (io.ReadCloser, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if c.ContentType() != "multipart/form-data" {
		return c.Request.Body, nil
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	return fh.Open()
}
