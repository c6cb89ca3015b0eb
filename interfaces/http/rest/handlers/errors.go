// Package handlers implements the REST endpoints: the storage and model
// backend used by remote editors, and the session API of the editor host.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cognitivediary/pkg/api"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies. A diary of thousands of long notes
// stays well below it.
const maxBodyBytes = 16 << 20

// StatusFor maps an application error to its HTTP status
func StatusFor(err error) int {
	switch pkgerrors.TypeOf(err) {
	case pkgerrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case pkgerrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case pkgerrors.ErrorTypeConflict, pkgerrors.ErrorTypeSaveConflict, pkgerrors.ErrorTypeCancelled:
		return http.StatusConflict
	case pkgerrors.ErrorTypeLockedEntity:
		return http.StatusLocked
	case pkgerrors.ErrorTypeEmptyChain:
		return http.StatusUnprocessableEntity
	case pkgerrors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case pkgerrors.ErrorTypeNetworkFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its kind. Internal details are logged, not
// returned.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)
	kind := string(pkgerrors.TypeOf(err))
	if kind == "" {
		kind = string(pkgerrors.ErrorTypeInternal)
	}

	message := err.Error()
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		if len(appErr.NodeIDs) > 0 {
			message = fmt.Sprintf("%s [%s]", message, strings.Join(appErr.NodeIDs, ","))
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("kind", kind), zap.Error(err))
		if status == http.StatusInternalServerError {
			message = "Internal server error"
		}
	}
	api.ErrorWithKind(w, status, kind, message)
}

// decodeJSON reads a JSON body into dst and validates it
func decodeJSON(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return pkgerrors.NewValidation("request body is required")
		}
		return pkgerrors.NewValidation(fmt.Sprintf("invalid request body: %v", err))
	}
	if err := validate.Struct(dst); err != nil {
		return pkgerrors.NewValidation(describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
