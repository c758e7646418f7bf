package api

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/service"
)

type registerRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      *string `json:"phone"`
	University string  `json:"university"`
}

// HandleRegister creates a user or refreshes the one with the same email.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		University: req.University,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "user not found", "Failed to create user")
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

type loginRequest struct {
	Email string `json:"email"`
}

// HandleLogin returns the user registered under the email.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email)
	if errors.Is(err, model.ErrNotFound) {
		h.writeError(w, http.StatusUnauthorized, "user does not exist")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err, "user does not exist", "Failed to login")
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}
