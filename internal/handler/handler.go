package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/meridianops/dealflow-metrics-service/docs"
	"github.com/meridianops/dealflow-metrics-service/internal/dto"
	"github.com/meridianops/dealflow-metrics-service/internal/service"
)

type Handler struct {
	metricsService   service.MetricsServicer
	mappingService   service.MappingServicer
	ingestionService service.IngestionServicer
	router           *gin.Engine
	log              *zap.Logger
}

func NewHandler(metrics service.MetricsServicer, mappings service.MappingServicer, ingestion service.IngestionServicer, log *zap.Logger) *Handler {
	h := &Handler{
		metricsService:   metrics,
		mappingService:   mappings,
		ingestionService: ingestion,
		router:           gin.Default(),
		log:              log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)

	h.router.GET("/metrics", h.listMetrics)
	h.router.GET("/metrics/:canonicalStage", h.getMetric)

	h.router.GET("/mappings", h.listMappings)
	h.router.PUT("/mappings", h.upsertMapping)
	h.router.DELETE("/mappings/:canonicalStage", h.deleteMapping)

	h.router.GET("/definitions", h.listDefinitions)
	h.router.PUT("/definitions", h.upsertDefinition)
	h.router.DELETE("/definitions/:id", h.deleteDefinition)

	h.router.POST("/ingestion/runs", h.runIngestion)

	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// respondError maps service errors onto the uniform error envelope.
func (h *Handler) respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Message,
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: "not_found",
		})
	default:
		h.log.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: "unexpected error",
		})
	}
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// listMetrics handles GET /metrics
// @Summary Dashboard metrics
// @Description Every active metric definition with its computed flow metric and status
// @Tags metrics
// @Produce json
// @Success 200 {object} dto.ListMetricsResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /metrics [get]
func (h *Handler) listMetrics(c *gin.Context) {
	response, err := h.metricsService.ListMetrics(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// getMetric handles GET /metrics/:canonicalStage
// @Summary Flow metric for one canonical stage
// @Description Computes the windowed flow metric and threshold classification for a canonical stage
// @Tags metrics
// @Produce json
// @Param canonicalStage path string true "Canonical stage name"
// @Param since_days query int false "Window: last N days"
// @Param from query int false "Window start (unix seconds)"
// @Param to query int false "Window end (unix seconds)"
// @Success 200 {object} dto.MetricResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /metrics/{canonicalStage} [get]
func (h *Handler) getMetric(c *gin.Context) {
	var req dto.GetMetricRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	metric, err := h.metricsService.GetMetric(c.Request.Context(), c.Param("canonicalStage"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, metric)
}

// listMappings handles GET /mappings
// @Summary List stage mappings
// @Tags mappings
// @Produce json
// @Success 200 {array} dto.MappingData
// @Failure 500 {object} dto.ErrorResponse
// @Router /mappings [get]
func (h *Handler) listMappings(c *gin.Context) {
	mappings, err := h.mappingService.ListMappings(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mappings)
}

// upsertMapping handles PUT /mappings
// @Summary Create or replace a stage mapping
// @Tags mappings
// @Accept json
// @Produce json
// @Param mapping body dto.UpsertMappingRequest true "Stage mapping"
// @Success 200 {object} dto.MappingData
// @Failure 400 {object} dto.ErrorResponse
// @Router /mappings [put]
func (h *Handler) upsertMapping(c *gin.Context) {
	var req dto.UpsertMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	mapping, err := h.mappingService.UpsertMapping(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapping)
}

// deleteMapping handles DELETE /mappings/:canonicalStage
// @Summary Delete a stage mapping
// @Tags mappings
// @Produce json
// @Param canonicalStage path string true "Canonical stage name"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /mappings/{canonicalStage} [delete]
func (h *Handler) deleteMapping(c *gin.Context) {
	if err := h.mappingService.DeleteMapping(c.Request.Context(), c.Param("canonicalStage")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// listDefinitions handles GET /definitions
// @Summary List metric definitions
// @Tags definitions
// @Produce json
// @Success 200 {array} dto.DefinitionData
// @Failure 500 {object} dto.ErrorResponse
// @Router /definitions [get]
func (h *Handler) listDefinitions(c *gin.Context) {
	defs, err := h.mappingService.ListDefinitions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, defs)
}

// upsertDefinition handles PUT /definitions
// @Summary Create or update a metric definition
// @Tags definitions
// @Accept json
// @Produce json
// @Param definition body dto.UpsertDefinitionRequest true "Metric definition"
// @Success 200 {object} dto.DefinitionData
// @Failure 400 {object} dto.ErrorResponse
// @Router /definitions [put]
func (h *Handler) upsertDefinition(c *gin.Context) {
	var req dto.UpsertDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	def, err := h.mappingService.UpsertDefinition(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, def)
}

// deleteDefinition handles DELETE /definitions/:id
// @Summary Deactivate and remove a metric definition
// @Description The linked stage mapping is retained for historical reconstruction
// @Tags definitions
// @Produce json
// @Param id path string true "Definition ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /definitions/{id} [delete]
func (h *Handler) deleteDefinition(c *gin.Context) {
	if err := h.mappingService.DeleteDefinition(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// runIngestion handles POST /ingestion/runs
// @Summary Run ingestion for a set of entity IDs
// @Description Synchronously fetches, normalizes and persists stage histories; per-entity failures are reported in the summary
// @Tags ingestion
// @Accept json
// @Produce json
// @Param run body dto.RunIngestionRequest true "Entity IDs"
// @Success 200 {object} dto.RunIngestionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /ingestion/runs [post]
func (h *Handler) runIngestion(c *gin.Context) {
	var req dto.RunIngestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	report, err := h.ingestionService.RunIngestion(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
