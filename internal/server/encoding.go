package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	goahttp "goa.design/goa/v3/http"
	goamiddleware "goa.design/goa/v3/middleware"
	goa "goa.design/goa/v3/pkg"

	"activation/internal/services"
	apperrors "activation/pkg/errors"
)

const (
	errNameTooManyRequests = "too_many_requests"
	msgInternal            = "An unexpected error occurred. Please try again later."
)

// request carries the raw HTTP request through the endpoint middleware
// chain; auth middleware fills in caller.
type request struct {
	r      *http.Request
	vars   map[string]string
	caller *services.Caller
}

func (req *request) param(name string) string {
	return req.vars[name]
}

func (req *request) query(name string) string {
	return strings.TrimSpace(req.r.URL.Query().Get(name))
}

// decode reads the JSON body into v using the goa request decoder.
func (req *request) decode(v any) error {
	if err := goahttp.RequestDecoder(req.r).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewBadRequestError("Request body is required")
		}
		return services.NewBadRequestError("Invalid request body")
	}
	return nil
}

func encodeResponse(ctx context.Context, w http.ResponseWriter, status int, res any) {
	if res == nil {
		w.WriteHeader(status)
		return
	}
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if err := enc.Encode(res); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

var statusByName = map[string]int{
	string(apperrors.ErrCodeBadRequest):         http.StatusBadRequest,
	string(apperrors.ErrCodeUnauthorized):       http.StatusUnauthorized,
	string(apperrors.ErrCodeForbidden):          http.StatusForbidden,
	string(apperrors.ErrCodeNotFound):           http.StatusNotFound,
	string(apperrors.ErrCodeConflict):           http.StatusConflict,
	string(apperrors.ErrCodePreconditionFailed): http.StatusPreconditionFailed,
	string(apperrors.ErrCodeInternalError):      http.StatusInternalServerError,
	errNameTooManyRequests:                      http.StatusTooManyRequests,
}

// toServiceError converts any endpoint error into the goa error shape. Only
// the AppError message reaches the client; causes are logged.
func toServiceError(ctx context.Context, err error) (*goa.ServiceError, int) {
	var serr *goa.ServiceError
	if !errors.As(err, &serr) {
		appErr, ok := apperrors.As(err)
		if !ok {
			appErr = apperrors.Wrap(apperrors.ErrCodeInternalError, msgInternal, err)
		}
		fault := appErr.Code == apperrors.ErrCodeInternalError
		serr = goa.NewServiceError(errors.New(appErr.Message), string(appErr.Code), false, false, fault)
		if fault {
			log.Printf("[ERROR] %v", err)
		}
	}
	if id := requestID(ctx); id != "" {
		serr.ID = id
	}

	status, ok := statusByName[serr.Name]
	if !ok {
		status = http.StatusBadRequest
		if serr.Fault {
			status = http.StatusInternalServerError
		}
	}
	return serr, status
}

func encodeError(ctx context.Context, w http.ResponseWriter, err error) {
	serr, status := toServiceError(ctx, err)
	body := &goahttp.ErrorResponse{
		Name:      serr.Name,
		ID:        serr.ID,
		Message:   serr.Message,
		Timeout:   serr.Timeout,
		Temporary: serr.Temporary,
		Fault:     serr.Fault,
	}

	enc := goahttp.ResponseEncoder(ctx, w)
	w.Header().Set("goa-error", serr.Name)
	w.WriteHeader(status)
	if encErr := enc.Encode(body); encErr != nil {
		log.Printf("[ERROR] encode error response: %v", encErr)
	}
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(goamiddleware.RequestIDKey).(string)
	return id
}
