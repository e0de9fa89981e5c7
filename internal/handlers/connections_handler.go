package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	domain "github.com/htm-project/neural-api/internal/domain/connections"
	"github.com/htm-project/neural-api/internal/domain/htm"
	"github.com/htm-project/neural-api/internal/infrastructure/validation"
	"github.com/htm-project/neural-api/internal/ports"
)

// ConnectionsHandlerImpl implements ports.ConnectionsHandler: it binds and
// validates the DTOs below, drives ports.ConnectionsService, and wraps
// every result in an htm.OperationResponse envelope.
type ConnectionsHandlerImpl struct {
	service   ports.ConnectionsService
	validator *validation.Validator
}

// NewConnectionsHandler creates a new connections handler.
func NewConnectionsHandler(service ports.ConnectionsService, validator *validation.Validator) ports.ConnectionsHandler {
	return &ConnectionsHandlerImpl{service: service, validator: validator}
}

func requestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

// logPriority flags high-priority operations (mutations and activity
// computations) so they stand out in the request log ahead of the
// normal-priority traffic around them.
func logPriority(reqID, op string, req htm.OperationRequest) {
	if req.IsHighPriority() {
		log.Printf("request %s: high priority %s", reqID, op)
	}
}

// writeError maps err to an htm.APIError, writes the envelope at the
// error's HTTP status, and returns.
func writeError(c *gin.Context, reqID string, err error) {
	apiErr := toAPIError(err)
	c.JSON(apiErr.GetHTTPStatusCode(), htm.NewErrorEnvelope(reqID, apiErr))
}

// toAPIError classifies a connections-domain error into the ambient
// htm.APIError shape the HTTP surface reports.
func toAPIError(err error) *htm.APIError {
	switch e := err.(type) {
	case *domain.PreconditionError:
		return htm.NewValidationError(e.Error(), map[string]interface{}{"precondition_type": string(e.Type)})
	case *domain.SnapshotError:
		if e.Type == domain.SnapshotErrorMalformed {
			return htm.NewValidationError(e.Error(), map[string]interface{}{"snapshot_error_type": string(e.Type)})
		}
		return htm.NewProcessingError(e.Error(), true)
	default:
		return htm.NewInternalError(err.Error())
	}
}

func writeValidationErrors(c *gin.Context, reqID string, errs validation.ValidationErrors) {
	apiErr := htm.NewValidationError(errs.Error(), nil)
	c.JSON(apiErr.GetHTTPStatusCode(), htm.NewErrorEnvelope(reqID, apiErr))
}

// --- createSegment -----------------------------------------------------

type createSegmentRequest struct {
	htm.OperationRequest
	Cell int `json:"cell" validate:"min=0"`
}

type createSegmentResponse struct {
	htm.OperationResponse
	SegmentID string `json:"segment_id"`
}

func (h *ConnectionsHandlerImpl) CreateSegment(c *gin.Context) {
	reqID := requestID(c)

	var req createSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionCellOutOfRange, "malformed request body: "+err.Error()))
		return
	}
	if errs := h.validator.Validate(req); errs != nil {
		writeValidationErrors(c, reqID, errs)
		return
	}
	logPriority(reqID, "create segment", req.OperationRequest)

	segment, err := h.service.CreateSegment(c.Request.Context(), domain.CellID(req.Cell))
	if err != nil {
		writeError(c, reqID, err)
		return
	}

	c.JSON(http.StatusCreated, createSegmentResponse{
		OperationResponse: htm.NewSuccessEnvelope(reqID),
		SegmentID:         segment.String(),
	})
}

// --- destroySegment ------------------------------------------------------

func (h *ConnectionsHandlerImpl) DestroySegment(c *gin.Context) {
	reqID := requestID(c)

	segment, err := domain.ParseSegmentID(c.Param("id"))
	if err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionUnknownHandle, err.Error()))
		return
	}

	if err := h.service.DestroySegment(c.Request.Context(), segment); err != nil {
		writeError(c, reqID, err)
		return
	}

	c.JSON(http.StatusOK, htm.NewSuccessEnvelope(reqID))
}

// --- segmentsForCell -----------------------------------------------------

type segmentsForCellResponse struct {
	htm.OperationResponse
	Cell     int      `json:"cell"`
	Segments []string `json:"segments"`
}

func (h *ConnectionsHandlerImpl) SegmentsForCell(c *gin.Context) {
	reqID := requestID(c)

	cell, err := strconv.Atoi(c.Param("cell"))
	if err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionCellOutOfRange, "cell path parameter must be an integer"))
		return
	}

	segments, err := h.service.SegmentsForCell(c.Request.Context(), domain.CellID(cell))
	if err != nil {
		writeError(c, reqID, err)
		return
	}

	ids := make([]string, len(segments))
	for i, s := range segments {
		ids[i] = s.String()
	}

	c.JSON(http.StatusOK, segmentsForCellResponse{
		OperationResponse: htm.NewSuccessEnvelope(reqID),
		Cell:              cell,
		Segments:          ids,
	})
}

// --- createSynapse -------------------------------------------------------

type createSynapseRequest struct {
	htm.OperationRequest
	PresynapticCell int     `json:"presynaptic_cell" validate:"min=0"`
	Permanence      float32 `json:"permanence" validate:"min=0,max=1"`
}

type createSynapseResponse struct {
	htm.OperationResponse
	SynapseID string `json:"synapse_id"`
}

func (h *ConnectionsHandlerImpl) CreateSynapse(c *gin.Context) {
	reqID := requestID(c)

	segment, err := domain.ParseSegmentID(c.Param("id"))
	if err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionUnknownHandle, err.Error()))
		return
	}

	var req createSynapseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionCellOutOfRange, "malformed request body: "+err.Error()))
		return
	}
	if errs := h.validator.Validate(req); errs != nil {
		writeValidationErrors(c, reqID, errs)
		return
	}
	logPriority(reqID, "create synapse", req.OperationRequest)

	synapse, err := h.service.CreateSynapse(c.Request.Context(), segment, domain.CellID(req.PresynapticCell), req.Permanence)
	if err != nil {
		writeError(c, reqID, err)
		return
	}

	c.JSON(http.StatusCreated, createSynapseResponse{
		OperationResponse: htm.NewSuccessEnvelope(reqID),
		SynapseID:         synapse.String(),
	})
}

// --- destroySynapse ------------------------------------------------------

func (h *ConnectionsHandlerImpl) DestroySynapse(c *gin.Context) {
	reqID := requestID(c)

	synapse, err := domain.ParseSynapseID(c.Param("id"))
	if err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionUnknownHandle, err.Error()))
		return
	}

	if err := h.service.DestroySynapse(c.Request.Context(), synapse); err != nil {
		writeError(c, reqID, err)
		return
	}

	c.JSON(http.StatusOK, htm.NewSuccessEnvelope(reqID))
}

// --- updateSynapsePermanence ---------------------------------------------

type updateSynapsePermanenceRequest struct {
	Permanence float32 `json:"permanence" validate:"min=0,max=1"`
}

func (h *ConnectionsHandlerImpl) UpdateSynapsePermanence(c *gin.Context) {
	reqID := requestID(c)

	synapse, err := domain.ParseSynapseID(c.Param("id"))
	if err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionUnknownHandle, err.Error()))
		return
	}

	var req updateSynapsePermanenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionCellOutOfRange, "malformed request body: "+err.Error()))
		return
	}

	if err := h.service.UpdateSynapsePermanence(c.Request.Context(), synapse, req.Permanence); err != nil {
		writeError(c, reqID, err)
		return
	}

	c.JSON(http.StatusOK, htm.NewSuccessEnvelope(reqID))
}

// --- adaptSegment ----------------------------------------------------------

type adaptSegmentRequest struct {
	htm.OperationRequest
	Input     []int   `json:"input" validate:"required,non_empty_set"`
	Increment float32 `json:"increment" validate:"min=0,max=1"`
	Decrement float32 `json:"decrement" validate:"min=0,max=1"`
}

func (h *ConnectionsHandlerImpl) AdaptSegment(c *gin.Context) {
	reqID := requestID(c)

	segment, err := domain.ParseSegmentID(c.Param("id"))
	if err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionUnknownHandle, err.Error()))
		return
	}

	var req adaptSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionCellOutOfRange, "malformed request body: "+err.Error()))
		return
	}
	if errs := h.validator.Validate(req); errs != nil {
		writeValidationErrors(c, reqID, errs)
		return
	}
	logPriority(reqID, "adapt segment", req.OperationRequest)

	input := make(map[domain.CellID]struct{}, len(req.Input))
	for _, cell := range req.Input {
		input[domain.CellID(cell)] = struct{}{}
	}

	if err := h.service.AdaptSegment(c.Request.Context(), segment, input, req.Increment, req.Decrement); err != nil {
		writeError(c, reqID, err)
		return
	}

	c.JSON(http.StatusOK, htm.NewSuccessEnvelope(reqID))
}

// --- computeActivity -------------------------------------------------------

type computeActivityRequest struct {
	htm.OperationRequest
	Input     []int   `json:"input" validate:"required,non_empty_set"`
	Threshold float32 `json:"threshold" validate:"min=0,max=1"`
}

type computeActivityResponse struct {
	htm.OperationResponse
	Connected []int32 `json:"connected"`
	Potential []int32 `json:"potential"`
}

func (h *ConnectionsHandlerImpl) ComputeActivity(c *gin.Context) {
	reqID := requestID(c)

	var req computeActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, reqID, domain.NewPreconditionError(domain.PreconditionCellOutOfRange, "malformed request body: "+err.Error()))
		return
	}
	if errs := h.validator.Validate(req); errs != nil {
		writeValidationErrors(c, reqID, errs)
		return
	}
	logPriority(reqID, "compute activity", req.OperationRequest)

	input := make(map[domain.CellID]struct{}, len(req.Input))
	for _, cell := range req.Input {
		input[domain.CellID(cell)] = struct{}{}
	}

	connected, potential, err := h.service.ComputeActivity(c.Request.Context(), input, req.Threshold)
	if err != nil {
		writeError(c, reqID, err)
		return
	}

	c.JSON(http.StatusOK, computeActivityResponse{
		OperationResponse: htm.NewSuccessEnvelope(reqID),
		Connected:         connected,
		Potential:         potential,
	})
}

// --- snapshot --------------------------------------------------------------

// SaveSnapshot streams the store's current state as msgpack bytes.
func (h *ConnectionsHandlerImpl) SaveSnapshot(c *gin.Context) {
	reqID := requestID(c)

	c.Header("Content-Type", "application/octet-stream")
	c.Header("X-Request-ID", reqID)
	if err := h.service.Save(c.Request.Context(), c.Writer); err != nil {
		writeError(c, reqID, err)
		return
	}
	c.Status(http.StatusOK)
}

// LoadSnapshot replaces the store's state with the msgpack bytes in the
// request body. Per spec.md §7, a failed load leaves the store unchanged.
func (h *ConnectionsHandlerImpl) LoadSnapshot(c *gin.Context) {
	reqID := requestID(c)

	if err := h.service.Load(c.Request.Context(), c.Request.Body); err != nil {
		writeError(c, reqID, err)
		return
	}

	c.JSON(http.StatusOK, htm.NewSuccessEnvelope(reqID))
}
