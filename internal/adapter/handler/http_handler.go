package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/core/receipt"
)

type HTTPHandler struct {
	Services
	presenter *receipt.Presenter
	logger    log.FieldLogger
	timeout   time.Duration
	checks    map[string]func(context.Context) error
}

type CheckoutResult struct {
	Ticket  TicketDTO       `json:"ticket"`
	Receipt receipt.Receipt `json:"receipt"`
}

func NewHTTPHandler(services Services, presenter *receipt.Presenter, logger log.FieldLogger, timeout time.Duration) *HTTPHandler {
	return &HTTPHandler{
		Services:  services,
		presenter: presenter,
		logger:    logger,
		timeout:   timeout,
		checks:    make(map[string]func(context.Context) error),
	}
}

// AddHealthCheck registers a dependency check reported by /health.
func (h *HTTPHandler) AddHealthCheck(name string, check func(context.Context) error) {
	h.checks[name] = check
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	if h.timeout > 0 {
		r.Use(middleware.Timeout(h.timeout))
	}

	r.Get("/health", h.HealthCheck)

	cashiers := h.requireRole(domain.RoleAdmin, domain.RoleCashier)
	stockKeepers := h.requireRole(domain.RoleAdmin, domain.RoleInventoryManager)
	admins := h.requireRole(domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/catalog", h.Catalog)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.With(stockKeepers).Post("/", h.CreateProduct)
			r.With(stockKeepers).Get("/{id}", h.GetProduct)
			r.With(stockKeepers).Put("/{id}", h.UpdateProduct)
			r.With(stockKeepers).Delete("/{id}", h.DeleteProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(cashiers)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Put("/items/{product_id}", h.SetCartQuantity)
				r.Delete("/items/{product_id}", h.RemoveCartItem)
				r.Post("/items/{product_id}/decrement", h.DecrementCartItem)
			})
			r.Post("/checkout", h.Checkout)

			r.Route("/tickets", func(r chi.Router) {
				r.Get("/", h.ListTickets)
				r.Get("/{id}", h.GetTicket)
				r.Get("/{id}/receipt", h.TicketReceipt)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(admins)
			r.Get("/", h.ListUsers)
			r.Put("/{id}/role", h.UpdateUserRole)
			r.Delete("/{id}", h.DeleteUser)
		})
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			status[name] = err.Error()
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	writeJSON(w, code, status)
}

// Catalog

func (h *HTTPHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.Inventory.AvailableProducts(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toProductDTOs(products))
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Inventory.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toProductDTOs(products))
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Inventory.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toProductDTO(*p))
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.Inventory.CreateProduct(r.Context(), req.toDomain(""))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, toProductDTO(*p))
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.Inventory.UpdateProduct(r.Context(), req.toDomain(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toProductDTO(*p))
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Inventory.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "product deleted"})
}

// Cart

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.Get(r.Context(), caller(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toCartDTO(c))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "missing required fields"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c, err := h.Carts.AddItem(r.Context(), caller(r).ID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toCartDTO(c))
}

func (h *HTTPHandler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.Carts.SetQuantity(r.Context(), caller(r).ID, chi.URLParam(r, "product_id"), req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toCartDTO(c))
}

func (h *HTTPHandler) DecrementCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.DecrementItem(r.Context(), caller(r).ID, chi.URLParam(r, "product_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toCartDTO(c))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.RemoveItem(r.Context(), caller(r).ID, chi.URLParam(r, "product_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toCartDTO(c))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Carts.Clear(r.Context(), caller(r).ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "sale cancelled"})
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RequestID == "" {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "missing required fields"})
		return
	}

	ticket, err := h.Carts.Checkout(r.Context(), caller(r).ID, req.RequestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success:  true,
		Message:  "sale completed",
		TicketID: ticket.ID,
		Data: CheckoutResult{
			Ticket:  toTicketDTO(*ticket),
			Receipt: h.presenter.Present(*ticket),
		},
	})
}

// Tickets

func (h *HTTPHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.History.SearchTickets(r.Context(), caller(r), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]TicketDTO, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketDTO(t))
	}
	writeOK(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.History.GetTicket(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toTicketDTO(*t))
}

// TicketReceipt renders the printable receipt as plain text.
func (h *HTTPHandler) TicketReceipt(w http.ResponseWriter, r *http.Request) {
	t, err := h.History.GetTicket(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := h.presenter.Render(w, *t); err != nil {
		h.logger.WithError(err).WithField("ticket_id", t.ID).Error("failed to render receipt")
	}
}

// Users

func (h *HTTPHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Users.ListProfiles(r.Context(), caller(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]ProfileDTO, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileDTO(p))
	}
	writeOK(w, http.StatusOK, out)
}

func (h *HTTPHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.Users.UpdateRole(r.Context(), caller(r), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, toProfileDTO(*p))
}

func (h *HTTPHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.DeleteProfile(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "profile deleted"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := errorResponse(err)

	entry := h.logger.WithError(err).WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"path":       r.URL.Path,
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	writeJSON(w, status, resp)
}

// caller is set by authenticate for every /api/v1 route.
func caller(r *http.Request) domain.Profile {
	p, _ := ProfileFromContext(r.Context())
	if p == nil {
		return domain.Profile{}
	}
	return *p
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "invalid request body"
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			msg = "malformed JSON"
		}
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: msg})
		return false
	}
	return true
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Message: "ok", Data: data})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
