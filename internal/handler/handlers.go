package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chetan-code/concentraction/internal/apperrors"
	"github.com/chetan-code/concentraction/internal/auth"
	"github.com/chetan-code/concentraction/internal/models"
	"github.com/chetan-code/concentraction/internal/resolver"
)

// maxBodyBytes bounds an operation's argument document.
const maxBodyBytes = 1 << 20

var errMalformedArgs = errors.New("malformed arguments")

type opFunc func(ctx context.Context, body []byte) (models.Response, error)

// bind decodes the JSON arguments for op. An empty body is the zero argument set.
func bind[A any](op resolver.Operation[A]) opFunc {
	return func(ctx context.Context, body []byte) (models.Response, error) {
		var args A
		if len(body) > 0 {
			if err := json.Unmarshal(body, &args); err != nil {
				return models.Response{}, fmt.Errorf("%w: %v", errMalformedArgs, err)
			}
		}
		return op(ctx, args)
	}
}

// OperationHandler dispatches POST /api/{operation} to the resolver set.
type OperationHandler struct {
	ops map[string]opFunc
}

func NewOperationHandler(set *resolver.Set) *OperationHandler {
	return &OperationHandler{ops: map[string]opFunc{
		"addUser":       bind(set.AddUser),
		"login":         bind(set.Login),
		"getUser":       bind(set.GetUser),
		"getTasks":      bind(set.GetTasks),
		"getObjectives": bind(set.GetObjectives),
		"addTask":       bind(set.AddTask),
		"updateTask":    bind(set.UpdateTask),
		"deleteTask":    bind(set.DeleteTask),
		"updateUser":    bind(set.UpdateUser),
	}}
}

func (h *OperationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "operation")
	op, ok := h.ops[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown operation "+name, apperrors.CodeNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", apperrors.CodeValidationFailure)
		return
	}

	resp, err := op(r.Context(), body)
	if err != nil {
		if errors.Is(err, errMalformedArgs) {
			writeError(w, http.StatusBadRequest, "Malformed arguments", apperrors.CodeValidationFailure)
			return
		}
		code := apperrors.CodeOf(err)
		slog.Error("resolver_failed",
			"operation", name,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		writeError(w, apperrors.HTTPStatus(code), "Internal server error", code)
		return
	}

	// the envelope carries the operation status; transport succeeded
	writeJSON(w, http.StatusOK, resp)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter wires the operation endpoint behind the auth middleware.
func NewRouter(gate *auth.Gate, set *resolver.Set) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggerMW)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler)
	r.With(AuthMiddleware(gate)).Method(http.MethodPost, "/api/{operation}", NewOperationHandler(set))
	return r
}

// LoggerMW logs the completion of every request.
func LoggerMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		//logging completion of a request
		slog.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"ip", r.RemoteAddr,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			//imp : how long does it take a req to complete
			"duration", time.Since(start).String(),
		)
	})
}

type errorBody struct {
	Errors []errorEntry `json:"errors"`
}

type errorEntry struct {
	Message    string            `json:"message"`
	Extensions map[string]string `json:"extensions"`
}

func writeError(w http.ResponseWriter, status int, message string, code apperrors.Code) {
	writeJSON(w, status, errorBody{Errors: []errorEntry{{
		Message:    message,
		Extensions: map[string]string{"code": string(code)},
	}}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}
