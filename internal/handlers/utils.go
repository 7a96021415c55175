package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

type contextKey string

const contextClaimsKey contextKey = "claims"

const (
	maxMultipartMemory = 10 << 20
	maxUploadBytes     = 10 << 20
)

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func claimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(contextClaimsKey).(*Claims)
	if !ok || claims == nil || claims.UserID == "" {
		return nil, errors.New("missing identity claims")
	}
	return claims, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// formFile opens the single uploaded file under the given form field and
// returns its contents, name, and content type.
func formFile(r *http.Request, field string) ([]byte, string, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", "", fmt.Errorf("%s file is required", field)
	}
	defer file.Close()

	data, err := readFileLimited(file, maxUploadBytes)
	if err != nil {
		return nil, "", "", err
	}
	return data, header.Filename, header.Header.Get("Content-Type"), nil
}

func readFileLimited(file multipart.File, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, errors.New("failed to read uploaded file")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file is too large")
	}
	return data, nil
}
