package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
	mw "github.com/felixfuego/AppPark-sub000/internal/http/middleware"
	"github.com/felixfuego/AppPark-sub000/internal/http/response"
	"github.com/felixfuego/AppPark-sub000/internal/qr"
	"github.com/felixfuego/AppPark-sub000/internal/service"
)

type VisitHandler struct {
	svc         service.VisitService
	jwtSecret   string
	qrImageSize int
}

func NewVisitHandler(svc service.VisitService, jwtSecret string, qrImageSize int) *VisitHandler {
	return &VisitHandler{svc: svc, jwtSecret: jwtSecret, qrImageSize: qrImageSize}
}

func (h *VisitHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Anyone authenticated may list and fetch; the service scopes results.
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret))
		r.Get("/", h.list)
		r.Get("/{code}", h.getByCode)
		r.Get("/{code}/qr", h.encodedQR)
		r.Get("/{code}/qr.png", h.qrImage)
	})

	// Creation is for operators and admins.
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret, domain.RoleAdmin, domain.RoleOperador))
		r.Post("/", h.create)
		r.Post("/mass", h.createMass)
		r.Delete("/{id}", h.cancel)
	})

	// Gate operations are for guards and admins.
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret, domain.RoleAdmin, domain.RoleGuardia))
		r.Post("/{code}/checkin", h.checkIn)
		r.Post("/{code}/checkout", h.checkOut)
	})

	return r
}

func (h *VisitHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := mw.Actor(r)

	var req domain.VisitCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if req.CompanyID == 0 || req.GateID == 0 || req.VisitorID == 0 || req.ScheduledDate.IsZero() {
		response.BadRequest(w, "company_id, gate_id, visitor_id and scheduled_date are required")
		return
	}

	v, err := h.svc.Create(r.Context(), &req, actor.ID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, v)
}

func (h *VisitHandler) createMass(w http.ResponseWriter, r *http.Request) {
	actor, _ := mw.Actor(r)

	var req domain.MassVisitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if req.CompanyID == 0 || req.GateID == 0 || len(req.VisitorIDs) == 0 || req.ScheduledDate.IsZero() {
		response.BadRequest(w, "company_id, gate_id, visitor_ids and scheduled_date are required")
		return
	}

	mass, err := h.svc.CreateMass(r.Context(), &req, actor.ID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, mass)
}

func (h *VisitHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := mw.Actor(r)

	var status *domain.VisitStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, ok := domain.ParseVisitStatus(s)
		if !ok {
			response.BadRequest(w, "unknown status")
			return
		}
		status = &parsed
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	visits, err := h.svc.List(r.Context(), actor, status, limit, offset)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) getByCode(w http.ResponseWriter, r *http.Request) {
	actor, _ := mw.Actor(r)

	v, err := h.svc.GetByCode(r.Context(), chi.URLParam(r, "code"), actor)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, v)
}

type gateReq struct {
	QR     string `json:"qr,omitempty"`
	GateID int64  `json:"gate_id,omitempty"`
}

func (h *VisitHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	actor, _ := mw.Actor(r)

	var req gateReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid json")
			return
		}
	}

	v, err := h.svc.CheckIn(r.Context(), service.GateInput{
		VisitCode: chi.URLParam(r, "code"),
		EncodedQR: req.QR,
		GuardID:   actor.ID,
		GateID:    req.GateID,
	})
	if err != nil {
		response.FromDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, v)
}

func (h *VisitHandler) checkOut(w http.ResponseWriter, r *http.Request) {
	actor, _ := mw.Actor(r)

	var req gateReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid json")
			return
		}
	}

	v, err := h.svc.CheckOut(r.Context(), service.GateInput{
		VisitCode: chi.URLParam(r, "code"),
		GuardID:   actor.ID,
		GateID:    req.GateID,
	})
	if err != nil {
		response.FromDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, v)
}

func (h *VisitHandler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := mw.Actor(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid id")
		return
	}

	ok, err := h.svc.Cancel(r.Context(), id, actor)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]bool{"cancelled": ok})
}

func (h *VisitHandler) encodedQR(w http.ResponseWriter, r *http.Request) {
	actor, _ := mw.Actor(r)

	encoded, err := h.svc.EncodedQR(r.Context(), chi.URLParam(r, "code"), actor)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"qr": encoded})
}

func (h *VisitHandler) qrImage(w http.ResponseWriter, r *http.Request) {
	actor, _ := mw.Actor(r)

	encoded, err := h.svc.EncodedQR(r.Context(), chi.URLParam(r, "code"), actor)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}
	png, err := qr.RenderPNG(encoded, h.qrImageSize)
	if err != nil {
		response.InternalError(w, "failed to render qr image")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
