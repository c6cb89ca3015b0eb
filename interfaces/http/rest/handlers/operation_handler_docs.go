package handlers

// This file contains OpenAPI/Swagger documentation for OperationHandler endpoints

// GetOperationStatus retrieves the status of an enrichment
// @Summary Get operation status
// @Description Retrieves the status of an ask or chained query started by a command
// @Tags operations
// @Produce json
// @Param operationID path string true "Operation ID"
// @Success 200 {object} ports.OperationResult "Operation status"
// @Failure 404 {object} api.ErrorResponse "Operation not found"
// @Security BearerAuth
// @Router /api/v1/operations/{operationID} [get]
