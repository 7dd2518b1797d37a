package handlers

import (
	"net/http"

	"github.com/hongminglow/expense-api/internal/auth"
	"github.com/hongminglow/expense-api/internal/http/respond"
	"github.com/hongminglow/expense-api/internal/models/dto"
)

// AuthHandler owns the signup and login endpoints.
type AuthHandler struct {
	service *auth.Service
	debug   bool
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service *auth.Service, debug bool) *AuthHandler {
	return &AuthHandler{service: service, debug: debug}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", handle(h.debug, h.handleSignup))
	mux.HandleFunc("POST /api/auth/login", handle(h.debug, h.handleLogin))
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) error {
	var req dto.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	resp, err := h.service.Signup(r.Context(), req)
	if err != nil {
		return err
	}
	respond.JSON(w, r, http.StatusCreated, resp)
	return nil
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		return err
	}
	respond.JSON(w, r, http.StatusOK, resp)
	return nil
}
