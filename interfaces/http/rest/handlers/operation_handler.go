package handlers

import (
	"net/http"

	"cognitivediary/application/ports"
	"cognitivediary/interfaces/http/rest/middleware"
	"cognitivediary/pkg/api"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OperationHandler handles operation status endpoints
type OperationHandler struct {
	operations ports.OperationStore
	logger     *zap.Logger
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(operations ports.OperationStore, logger *zap.Logger) *OperationHandler {
	return &OperationHandler{
		operations: operations,
		logger:     logger,
	}
}

// GetOperationStatus handles GET /operations/{operationID}
func (h *OperationHandler) GetOperationStatus(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operationID")
	if operationID == "" {
		respondError(w, h.logger, pkgerrors.NewValidation("operation ID is required"))
		return
	}

	result, err := h.operations.Get(r.Context(), operationID)
	if err != nil {
		h.logger.Debug("Failed to get operation status",
			zap.String("operationID", operationID),
			zap.Error(err))
		respondError(w, h.logger, err)
		return
	}
	// Another user's operation is reported as missing.
	if !middleware.Owns(r, result.Username) {
		respondError(w, h.logger, pkgerrors.NewNotFound("operation not found"))
		return
	}

	api.Success(w, http.StatusOK, result)
}
