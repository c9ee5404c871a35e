package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"flowstate/internal/model"
	"flowstate/internal/service"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color_code"`
}

type sessionRequest struct {
	DurationMinutes int     `json:"duration_minutes"`
	Status          string  `json:"status"`
	Note            *string `json:"note"`
	CategoryID      *uint   `json:"category_id"`
}

type sessionPatchRequest struct {
	DurationMinutes model.Optional[int]    `json:"duration_minutes"`
	Status          model.Optional[string] `json:"status"`
	Note            model.Optional[string] `json:"note"`
	CategoryID      model.Optional[uint]   `json:"category_id"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	user, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeMappedError(r.Context(), w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// token accepts either a JSON body or an OAuth2 password-grant form.
func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeValidationError(w, err)
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	token, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	category, err := h.ledger.CreateCategory(r.Context(), ownerFromContext(r.Context()), req.Name, req.Color)
	if err != nil {
		writeMappedError(r.Context(), w, "create_category", err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	categories, err := h.ledger.ListCategories(r.Context(), ownerFromContext(r.Context()), offset, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "list_categories", err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "category_id"))
	if err != nil || id == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	category, err := h.ledger.UpdateCategory(r.Context(), ownerFromContext(r.Context()), *id, req.Name, req.Color)
	if err != nil {
		writeMappedError(r.Context(), w, "update_category", err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "category_id"))
	if err != nil || id == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	deleted, err := h.ledger.DeleteCategory(r.Context(), ownerFromContext(r.Context()), *id)
	if err != nil {
		writeMappedError(r.Context(), w, "delete_category", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "category not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	session, err := h.ledger.CreateSession(r.Context(), ownerFromContext(r.Context()), service.SessionInput{
		DurationMinutes: req.DurationMinutes,
		Status:          req.Status,
		Note:            req.Note,
		CategoryID:      req.CategoryID,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "create_session", err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	categoryID, err := parseID(r.URL.Query().Get("category_id"))
	if err != nil {
		writeValidationError(w, err)
		return
	}
	sessions, err := h.ledger.ListSessions(r.Context(), ownerFromContext(r.Context()), categoryID, offset, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "list_sessions", err)
		return
	}
	if sessions == nil {
		sessions = []model.FocusSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handler) updateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionPatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	session, err := h.ledger.UpdateSession(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "session_id"), service.SessionPatch{
		DurationMinutes: req.DurationMinutes,
		Status:          req.Status,
		Note:            req.Note,
		CategoryID:      req.CategoryID,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "update_session", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseID(r.URL.Query().Get("category_id"))
	if err != nil {
		writeValidationError(w, err)
		return
	}
	dashboard, err := h.dashboard.Build(r.Context(), ownerFromContext(r.Context()), categoryID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// pagination reads skip and limit; clamping happens in the store.
func pagination(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	offset, err := parseIntDefault(q.Get("skip"), 0)
	if err != nil {
		return 0, 0, errors.New("skip: " + err.Error())
	}
	limit, err := parseIntDefault(q.Get("limit"), 0)
	if err != nil {
		return 0, 0, errors.New("limit: " + err.Error())
	}
	return offset, limit, nil
}
