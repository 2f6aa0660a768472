package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/types"
)

var now = func() time.Time { return time.Now().UTC() }

func WriteSuccess(w http.ResponseWriter, message string, data any) {
	WriteSuccessStatus(w, http.StatusOK, message, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, types.SuccessEnvelope{
		Status:    types.StatusSuccess,
		Message:   message,
		Data:      data,
		Timestamp: now(),
	})
}

// WritePage writes a list payload together with its pagination block.
func WritePage(w http.ResponseWriter, message string, data any, page types.Pagination) {
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{
		Status:     types.StatusSuccess,
		Message:    message,
		Data:       data,
		Timestamp:  now(),
		Pagination: &page,
	})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	payload := types.ErrorEnvelope{
		Status:    types.StatusError,
		Message:   typed.PublicMessage(),
		Code:      string(typed.Code()),
		Timestamp: now(),
	}
	if details := typed.Details(); meta.DetailsAllowed && details != nil {
		if fields, ok := details.([]pkgerrors.FieldError); ok {
			payload.Errors = fields
		} else {
			payload.Details = details
		}
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.LogFields(err))
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.error")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"status":"error","code":"INTERNAL_ERROR","message":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
