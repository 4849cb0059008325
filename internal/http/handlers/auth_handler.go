package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/felixfuego/AppPark-sub000/internal/authn"
	"github.com/felixfuego/AppPark-sub000/internal/domain"
	mw "github.com/felixfuego/AppPark-sub000/internal/http/middleware"
	"github.com/felixfuego/AppPark-sub000/internal/http/response"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

type AuthHandler struct {
	svc       authn.Service
	limiter   *mw.RateLimiter
	jwtSecret string
}

func NewAuthHandler(svc authn.Service, limiter *mw.RateLimiter, jwtSecret string) *AuthHandler {
	return &AuthHandler{svc: svc, limiter: limiter, jwtSecret: jwtSecret}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(h.limiter.Middleware).Post("/login", h.login)
	r.With(mw.RequireJWT(h.jwtSecret, domain.RoleAdmin)).Post("/register", h.register)
	return r
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, "email and password are required")
		return
	}

	res, err := h.svc.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, authn.ErrInvalidCredentials):
			response.Unauthorized(w, "invalid credentials")
		case errors.Is(err, domain.ErrLockedOut):
			response.FromDomainError(w, err)
		default:
			logger.ErrorContext(r.Context(), "Login failed", "error", err)
			response.InternalError(w, "login failed")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	acc, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, acc)
}
