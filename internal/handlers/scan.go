package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fruitscan/apiserver/internal/services"
	"github.com/fruitscan/apiserver/internal/store"
	"github.com/fruitscan/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ScanHandler serves the authenticated user's scan-history routes.
type ScanHandler struct {
	scanService *services.ScanService
}

func NewScanHandler(scanService *services.ScanService) *ScanHandler {
	return &ScanHandler{scanService: scanService}
}

// ScanRouter registers scan-history routes. The caller applies auth middleware.
func ScanRouter(r chi.Router, scanService *services.ScanService) {
	handler := NewScanHandler(scanService)

	r.Post("/", handler.AddRecord)
	r.Get("/", handler.ListRecords)
	r.Delete("/{scanID}", handler.DeleteRecord)
	r.Delete("/", handler.DeleteAllRecords)
}

// AddRecord stores a scan image and its metadata.
func (h *ScanHandler) AddRecord(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	fruitName := strings.TrimSpace(r.FormValue("fruitName"))
	scanResult := strings.TrimSpace(r.FormValue("scanResult"))
	if fruitName == "" || scanResult == "" {
		writeError(w, http.StatusBadRequest, "fruitName and scanResult are required")
		return
	}

	data, filename, contentType, err := formFile(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.scanService.AddRecord(r.Context(), claims.UserID, fruitName, scanResult, data, filename, contentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AddScanResponse{ScanID: record.ID, Data: record})
}

// ListRecords returns the scan history, optionally filtered by the
// fruitName and scanResult query parameters.
func (h *ScanHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fruitName := strings.TrimSpace(r.URL.Query().Get("fruitName"))
	scanResult := strings.TrimSpace(r.URL.Query().Get("scanResult"))

	records, err := h.scanService.ListRecords(r.Context(), claims.UserID, fruitName, scanResult)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no scan history found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ScanHistoryResponse{ScanHistory: records})
}

// DeleteRecord removes one scan record and its image.
func (h *ScanHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	scanID := chi.URLParam(r, "scanID")
	if strings.TrimSpace(scanID) == "" {
		writeError(w, http.StatusBadRequest, "invalid scan id")
		return
	}

	if err := h.scanService.DeleteRecord(r.Context(), claims.UserID, scanID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "scan record deleted"})
}

// DeleteAllRecords removes the user's entire scan history.
func (h *ScanHandler) DeleteAllRecords(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.scanService.DeleteAllRecords(r.Context(), claims.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "scan history deleted"})
}

type AddScanResponse struct {
	ScanID string           `json:"scanID"`
	Data   types.ScanRecord `json:"data"`
}

type ScanHistoryResponse struct {
	ScanHistory []types.ScanRecord `json:"scanHistory"`
}
