package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hongminglow/expense-api/internal/apperr"
	"github.com/hongminglow/expense-api/internal/auth"
	"github.com/hongminglow/expense-api/internal/expenses"
	"github.com/hongminglow/expense-api/internal/http/respond"
	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/models/dto"
)

// ExpenseHandler serves /api/expenses. Every route resolves the caller first.
type ExpenseHandler struct {
	service *expenses.Service
	guard   *auth.Guard
	debug   bool
}

// NewExpenseHandler constructs the handler.
func NewExpenseHandler(service *expenses.Service, guard *auth.Guard, debug bool) *ExpenseHandler {
	return &ExpenseHandler{service: service, guard: guard, debug: debug}
}

// Register attaches expense routes to the mux.
func (h *ExpenseHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/expenses", h.protected(h.handleCreate))
	mux.HandleFunc("GET /api/expenses", h.protected(h.handleList))
	mux.HandleFunc("GET /api/expenses/{id}", h.protected(h.handleGet))
	mux.HandleFunc("PUT /api/expenses/{id}", h.protected(h.handleUpdate))
	mux.HandleFunc("DELETE /api/expenses/{id}", h.protected(h.handleDelete))
}

type protectedFunc func(w http.ResponseWriter, r *http.Request, caller models.Identity) error

func (h *ExpenseHandler) protected(fn protectedFunc) http.HandlerFunc {
	return handle(h.debug, func(w http.ResponseWriter, r *http.Request) error {
		caller, err := h.guard.Resolve(r)
		if err != nil {
			return err
		}
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", caller.ID.String())
		})
		return fn(w, r.WithContext(auth.WithIdentity(r.Context(), caller)), caller)
	})
}

func (h *ExpenseHandler) handleCreate(w http.ResponseWriter, r *http.Request, caller models.Identity) error {
	var req dto.ExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	expense, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		return err
	}
	respond.JSON(w, r, http.StatusCreated, expense)
	return nil
}

func (h *ExpenseHandler) handleList(w http.ResponseWriter, r *http.Request, caller models.Identity) error {
	q := r.URL.Query()
	list, err := h.service.List(r.Context(), caller, expenses.ListParams{
		Category:  q.Get("category"),
		TimeTerm:  q.Get("timeTerm"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Page:      atoiOrZero(q.Get("page")),
		Limit:     atoiOrZero(q.Get("limit")),
	})
	if err != nil {
		return err
	}
	respond.JSON(w, r, http.StatusOK, list)
	return nil
}

func (h *ExpenseHandler) handleGet(w http.ResponseWriter, r *http.Request, caller models.Identity) error {
	id, err := expenseID(r)
	if err != nil {
		return err
	}
	expense, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		return err
	}
	respond.JSON(w, r, http.StatusOK, expense)
	return nil
}

func (h *ExpenseHandler) handleUpdate(w http.ResponseWriter, r *http.Request, caller models.Identity) error {
	id, err := expenseID(r)
	if err != nil {
		return err
	}
	var req dto.ExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	expense, err := h.service.Update(r.Context(), caller, id, req)
	if err != nil {
		return err
	}
	respond.JSON(w, r, http.StatusOK, expense)
	return nil
}

func (h *ExpenseHandler) handleDelete(w http.ResponseWriter, r *http.Request, caller models.Identity) error {
	id, err := expenseID(r)
	if err != nil {
		return err
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		return err
	}
	respond.NoContent(w)
	return nil
}

// expenseID treats a malformed id like an unknown one.
func expenseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Expense not found")
	}
	return id, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
