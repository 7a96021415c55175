package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fruitscan/apiserver/internal/services"
	"github.com/fruitscan/apiserver/internal/store"
	"github.com/fruitscan/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// UserHandler serves the authenticated user's profile routes.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers profile routes. The caller applies auth middleware.
func UserRouter(r chi.Router, userService *services.UserService) {
	handler := NewUserHandler(userService)

	r.Get("/", handler.GetProfile)
	r.Put("/", handler.UpdateProfile)
	r.Post("/profile-picture", handler.UploadProfilePicture)
	r.Delete("/profile-picture", handler.DeleteProfilePicture)
}

// GetProfile returns the profile of the authenticated user.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{Data: user})
}

// UpdateProfile applies a partial update and echoes the changed fields.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changed, err := h.userService.UpdateProfile(r.Context(), claims.UserID, services.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, UpdateProfileResponse{Data: changed})
}

// UploadProfilePicture stores a new profile picture and returns its URL.
func (h *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	data, filename, contentType, err := formFile(r, "profilePicture")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.userService.SetProfilePicture(r.Context(), claims.UserID, data, filename, contentType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ProfilePictureResponse{ProfilePictureURL: url})
}

// DeleteProfilePicture removes the current profile picture.
func (h *UserHandler) DeleteProfilePicture(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.userService.DeleteProfilePicture(r.Context(), claims.UserID); err != nil {
		switch {
		case errors.Is(err, services.ErrNoProfilePicture):
			writeError(w, http.StatusBadRequest, "no profile picture set")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "profile picture deleted"})
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type ProfileResponse struct {
	Data types.User `json:"data"`
}

type UpdateProfileResponse struct {
	Data map[string]any `json:"data"`
}

type ProfilePictureResponse struct {
	ProfilePictureURL string `json:"profilePictureURL"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
