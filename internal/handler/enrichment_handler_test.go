package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyulbade/lei-cost-enricher/internal/dto"
	"github.com/anyulbade/lei-cost-enricher/internal/middleware"
	"github.com/anyulbade/lei-cost-enricher/internal/model"
	"github.com/anyulbade/lei-cost-enricher/internal/registry"
	"github.com/anyulbade/lei-cost-enricher/internal/service"
)

const inputCSV = "lei,notional,rate\nNL1,1000,0.5\nMISSING,5,1\n"

type memoryStore struct {
	runs map[uuid.UUID]*model.Run
	rows map[uuid.UUID][]*model.Row
}

func (m *memoryStore) SaveRun(_ context.Context, run *model.Run, rows []*model.Row) error {
	m.runs[run.ID] = run
	m.rows[run.ID] = rows
	return nil
}

func (m *memoryStore) FindRun(_ context.Context, id uuid.UUID) (*model.Run, error) {
	if run, ok := m.runs[id]; ok {
		return run, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryStore) FindRows(_ context.Context, id uuid.UUID, limit, offset int) ([]*model.Row, error) {
	rows := m.rows[id]
	if offset >= len(rows) {
		return nil, nil
	}
	return rows[offset:min(offset+limit, len(rows))], nil
}

func setupEnrichmentRouter(t *testing.T, store service.RunStore) *gin.Engine {
	t.Helper()

	gleif := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter[lei]") != "NL1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"data":[{"attributes":{"lei":"NL1","bic":["ABCDEF12"],"entity":{"legalName":{"name":"Dutch B.V."},"legalAddress":{"country":"NL"}}}}]}`)
	}))
	t.Cleanup(gleif.Close)

	client := registry.NewClient(gleif.URL, time.Second, zerolog.Nop())
	svc := service.NewRunService(client, store, 1, zerolog.Nop())
	h := NewEnrichmentHandler(svc, 1<<20)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	api := router.Group("/api/v1")
	api.POST("/enrichments", h.Create)
	api.GET("/runs/:id", h.Get)
	return router
}

func TestEnrichmentHandler_Create(t *testing.T) {
	router := setupEnrichmentRouter(t, nil)

	t.Run("happy: JSON response", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/enrichments", strings.NewReader(inputCSV))
		req.Header.Set("Content-Type", "text/csv")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RunIDHeader))

		var resp dto.RunResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.SourceAPI, resp.Source)
		assert.Equal(t, 2, resp.Summary.Rows)
		assert.Equal(t, 1, resp.Summary.Enriched)
		assert.Equal(t, 1, resp.Summary.LookupFailed)
		require.Len(t, resp.Rows, 2)

		assert.Equal(t, "Dutch B.V.", *resp.Rows[0].LegalName)
		assert.Equal(t, "ABCDEF12", *resp.Rows[0].BIC)
		assert.InDelta(t, 1000.0, *resp.Rows[0].TransactionCosts, 1e-9)
		assert.Equal(t, "computed", resp.Rows[0].CostStatus)

		assert.Nil(t, resp.Rows[1].LegalName)
		assert.Nil(t, resp.Rows[1].TransactionCosts)
		assert.False(t, resp.Rows[1].Enriched)
	})

	t.Run("happy: CSV response", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/enrichments?format=csv", strings.NewReader(inputCSV))
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Equal(t,
			"lei,notional,rate,legal_name,bic,transaction_costs\nNL1,1000,0.5,Dutch B.V.,ABCDEF12,1000\nMISSING,5,1,,,\n",
			w.Body.String())
	})

	t.Run("happy: multipart upload", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "input.csv")
		require.NoError(t, err)
		_, _ = part.Write([]byte(inputCSV))
		require.NoError(t, mw.Close())

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/enrichments", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.RunResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Summary.Enriched)
	})

	t.Run("bad: missing required column", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/enrichments", strings.NewReader("lei,notional\nNL1,1000\n"))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "rate")
	})

	t.Run("bad: empty body", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/enrichments", strings.NewReader(""))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad: unknown format", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/enrichments?format=xml", strings.NewReader(inputCSV))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEnrichmentHandler_Get(t *testing.T) {
	t.Run("persistence disabled", func(t *testing.T) {
		router := setupEnrichmentRouter(t, nil)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/runs/"+uuid.NewString(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	store := &memoryStore{runs: map[uuid.UUID]*model.Run{}, rows: map[uuid.UUID][]*model.Row{}}
	router := setupEnrichmentRouter(t, store)

	t.Run("bad: invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/runs/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad: unknown run", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/runs/"+uuid.NewString(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("happy: persisted run is paginated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/enrichments", strings.NewReader(inputCSV))
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		runID := w.Header().Get(middleware.RunIDHeader)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/api/v1/runs/"+runID+"?page=2&page_size=1", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.RunResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, runID, resp.ID)
		require.Len(t, resp.Rows, 1)
		assert.Equal(t, "MISSING", resp.Rows[0].LEI)
		require.NotNil(t, resp.Pagination)
		assert.Equal(t, 2, resp.Pagination.TotalPages)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/api/v1/runs/"+runID, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		resp = dto.RunResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Pagination)
		assert.Equal(t, 2, resp.Pagination.PageSize)
		assert.Equal(t, 1, resp.Pagination.TotalPages)
	})
}
