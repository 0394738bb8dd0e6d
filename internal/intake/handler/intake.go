package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"attorneyvisit/internal/intake/service"
	"attorneyvisit/internal/intake/validator"
	"attorneyvisit/internal/refine"
	apperrors "attorneyvisit/pkg/errors"
	httputil "attorneyvisit/pkg/http"
	"attorneyvisit/pkg/logger"
)

type RefineResponse struct {
	RefinedText string `json:"refinedText"`
}

type IntakeHandler struct {
	service service.IntakeService
	log     *logger.Logger
}

func NewIntakeHandler(service service.IntakeService, log *logger.Logger) *IntakeHandler {
	return &IntakeHandler{
		service: service,
		log:     log,
	}
}

func (h *IntakeHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/submit", h.Submit)
	router.GET("/api/pic-lookup", h.Lookup)
	router.POST("/api/refine", h.Refine)
}

func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "Submit", readBodyError(err))
		return
	}

	result, err := h.service.Submit(r.Context(), body)
	if err != nil {
		h.writeError(w, "Submit", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Submit", "operation", "WriteSuccess", "error", err)
	}
}

func (h *IntakeHandler) Lookup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	subject, err := h.service.Lookup(r.Context(), validator.LookupQuery{
		NYSID:       query.Get("nysid"),
		BookAndCase: query.Get("bookAndCase"),
	})
	if err != nil {
		h.writeError(w, "Lookup", err)
		return
	}

	if err := httputil.WriteSuccess(w, subject); err != nil {
		h.log.Error("failed to write success response", "handler", "Lookup", "operation", "WriteSuccess", "error", err)
	}
}

func (h *IntakeHandler) Refine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req refine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Refine", readBodyError(err))
		return
	}

	refined, err := h.service.Refine(r.Context(), req)
	if err != nil {
		h.writeError(w, "Refine", err)
		return
	}

	if err := httputil.WriteSuccess(w, RefineResponse{RefinedText: refined}); err != nil {
		h.log.Error("failed to write success response", "handler", "Refine", "operation", "WriteSuccess", "error", err)
	}
}

func (h *IntakeHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func readBodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.New(apperrors.CodeBadRequest, "Request body too large.", http.StatusRequestEntityTooLarge)
	}
	return apperrors.InvalidInput("Invalid request body")
}
