package quotehttp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/quote"
	"github.com/quotedesk/quotedesk/internal/shared"
)

const maxPageSize = 100

// PDFRenderer turns a quote into a printable document. Read-only consumer:
// it only ever sees engine-derived totals.
type PDFRenderer interface {
	Render(q quote.Quote) ([]byte, error)
}

// Handler wires the JSON API for quotes.
type Handler struct {
	logger   *slog.Logger
	service  *quote.Service
	pdf      PDFRenderer
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *quote.Service, pdf PDFRenderer) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		pdf:      pdf,
		validate: validator.New(),
	}
}

// MountRoutes registers quote routes on the provided (authenticated) router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Get("/{id}/pdf", h.renderPDF)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	req := quote.ListQuotesRequest{Page: 1, PerPage: 20}
	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			req.Page = page
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if perPage, err := strconv.Atoi(v); err == nil && perPage > 0 && perPage <= maxPageSize {
			req.PerPage = perPage
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := quote.Status(v)
		if !status.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fmt.Sprintf("unknown status %q", v))
			return
		}
		req.Status = &status
	}
	if actor.Admin {
		if v := r.URL.Query().Get("owner_id"); v != "" {
			ownerID, err := uuid.Parse(v)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "owner_id must be a UUID")
				return
			}
			req.OwnerID = ownerID
		}
	}

	quotes, total, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if quotes == nil {
		quotes = []quote.Quote{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotes":     quotes,
		"pagination": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req quote.CreateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondErr(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), actor.ID, user.Snapshot(), req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	q, ok := h.loadQuote(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "quote id must be a UUID")
		return
	}

	var req quote.UpdateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondErr(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), id, actor, req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) renderPDF(w http.ResponseWriter, r *http.Request) {
	q, ok := h.loadQuote(w, r)
	if !ok {
		return
	}

	data, err := h.pdf.Render(*q)
	if err != nil {
		h.logger.Error("render quote pdf", slog.String("quote_id", q.ID.String()), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "quote-"+q.QuoteNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) loadQuote(w http.ResponseWriter, r *http.Request) (*quote.Quote, bool) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "quote id must be a UUID")
		return nil, false
	}
	q, err := h.service.Get(r.Context(), id, actor)
	if err != nil {
		h.respondErr(w, r, err)
		return nil, false
	}
	return q, true
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *quote.ValidationError
	var transitionErr *quote.ForbiddenTransitionError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationErr.Error())
	case errors.As(err, &fieldErrs):
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(details, "; "))
	case errors.As(err, &transitionErr):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", transitionErr.Error())
	case errors.Is(err, quote.ErrForbidden):
		httpx.RespondError(w, httpx.ErrForbidden)
	case errors.Is(err, quote.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, quote.ErrDuplicateNumber):
		httpx.RespondError(w, httpx.ErrDuplicate)
	case errors.Is(err, quote.ErrStorageUnavailable), errors.Is(err, quote.ErrAllocationExhausted):
		httpx.Problem(w, http.StatusServiceUnavailable, "Storage Unavailable", "try again shortly")
	default:
		h.logger.Error("quote request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
