package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GroceryboT/internal/models"
	"github.com/Kerhoff/GroceryboT/internal/repository"
	"github.com/Kerhoff/GroceryboT/internal/service"
	"github.com/Kerhoff/GroceryboT/pkg/logger"
)

const (
	sessionCookie = "grocery_session"
	flashCookie   = "grocery_flash"

	// maxImportBytes bounds POST /api/import bodies.
	maxImportBytes = 1 << 20
	// maxBodyBytes bounds every other JSON request body.
	maxBodyBytes = 64 << 10
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"money": service.FormatAmount,
	"qty":   service.FormatQuantity,
	"inc":   func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/index.html"))

// Server provides the HTTP API and serves the web UI.
type Server struct {
	svc    *service.Service
	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Items
	s.mux.HandleFunc("GET /api/items", s.handleGetItems)
	s.mux.HandleFunc("POST /api/items", s.handleAddItem)
	s.mux.HandleFunc("DELETE /api/items", s.handleClearItems)
	s.mux.HandleFunc("PUT /api/items/{id}/price", s.handleSetPrice)
	s.mux.HandleFunc("PUT /api/items/{id}/quantity", s.handleSetQuantity)
	s.mux.HandleFunc("PUT /api/items/{id}/purchased", s.handleSetPurchased)
	s.mux.HandleFunc("DELETE /api/items/{id}", s.handleRemoveItem)
	s.mux.HandleFunc("GET /api/totals", s.handleGetTotals)

	// API – Session
	s.mux.HandleFunc("DELETE /api/session", s.handleDropSession)

	// API – Snapshots
	s.mux.HandleFunc("GET /api/export", s.handleExport)
	s.mux.HandleFunc("POST /api/import", s.handleImport)

	// Web UI
	s.mux.HandleFunc("GET /", s.handleIndex)
	s.mux.HandleFunc("POST /items", s.handleFormAdd)
	s.mux.HandleFunc("POST /items/{id}/update", s.handleFormUpdate)
	s.mux.HandleFunc("POST /items/{id}/remove", s.handleFormRemove)
	s.mux.HandleFunc("POST /clear", s.handleFormClear)
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// cookieID returns the session id carried by the request, or "" when the
// cookie is missing or malformed.
func cookieID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	parsed, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return parsed.String()
}

// existingSession returns the caller's session if one is live. Reads and
// id-addressed calls use it so that stray requests do not open sessions.
func (s *Server) existingSession(r *http.Request) (*service.Session, bool) {
	id := cookieID(r)
	if id == "" {
		return nil, false
	}
	return s.svc.Lookup(WebSessionKey(id))
}

// currentView renders the caller's list, or an empty one when there is no
// session yet.
func (s *Server) currentView(r *http.Request) service.View {
	if sess, ok := s.existingSession(r); ok {
		return sess.View()
	}
	return service.View{Items: []models.Item{}}
}

// session resolves the caller's session from its cookie, creating it and
// issuing a new cookie when none (or a malformed one) was sent. Only calls
// that add data use it.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *service.Session {
	id := cookieID(r)
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s.svc.Session(WebSessionKey(id))
}

// WebSessionKey is the session key used for a browser cookie value.
func WebSessionKey(cookieValue string) string {
	return "web:" + cookieValue
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps a rejected list operation onto an HTTP status.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.WithError(err).Error("list operation failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a bounded request body into dst. On failure it writes
// the error response and returns false; the caller should return
// immediately.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		s.respondError(w, http.StatusBadRequest, "request body is empty")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body is too large")
			return false
		}
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

// pathID extracts the {id} path value.
func pathID(r *http.Request) models.ItemID {
	return models.ItemID(r.PathValue("id"))
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

type addItemRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type addItemResponse struct {
	ID models.ItemID `json:"id"`
}

type amountRequest struct {
	Value *float64 `json:"value"`
}

type purchasedRequest struct {
	Purchased *bool `json:"purchased"`
}

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.currentView(r))
}

func (s *Server) handleGetTotals(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.currentView(r).Totals)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	sess := s.session(w, r)
	id, _, err := sess.Add(req.Name, models.Unit(strings.ToLower(strings.TrimSpace(req.Unit))))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	logger.WithSession(s.logger, sess.Key()).
		WithField("item_id", id).
		Info("Item added to grocery list")

	s.respondJSON(w, http.StatusCreated, addItemResponse{ID: id})
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	s.handleSetAmount(w, r, "price", (*service.Session).SetPrice)
}

func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	s.handleSetAmount(w, r, "quantity", (*service.Session).SetQuantity)
}

func (s *Server) handleSetAmount(w http.ResponseWriter, r *http.Request, field string,
	set func(*service.Session, models.ItemID, float64) (service.View, error)) {
	var req amountRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Value == nil {
		s.respondError(w, http.StatusBadRequest, "value is required")
		return
	}

	sess, ok := s.existingSession(r)
	if !ok {
		s.respondStoreError(w, repository.NotFound(pathID(r)))
		return
	}
	view, err := set(sess, pathID(r), *req.Value)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleSetPurchased(w http.ResponseWriter, r *http.Request) {
	var req purchasedRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Purchased == nil {
		s.respondError(w, http.StatusBadRequest, "purchased is required")
		return
	}

	sess, ok := s.existingSession(r)
	if !ok {
		s.respondStoreError(w, repository.NotFound(pathID(r)))
		return
	}
	view, err := sess.SetPurchased(pathID(r), *req.Purchased)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existingSession(r)
	if !ok {
		s.respondStoreError(w, repository.NotFound(pathID(r)))
		return
	}
	if _, err := sess.Remove(pathID(r)); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleClearItems(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.existingSession(r); ok {
		sess.Clear()
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// handleDropSession forgets the caller's list and expires its cookie.
func (s *Server) handleDropSession(w http.ResponseWriter, r *http.Request) {
	if id := cookieID(r); id != "" {
		s.svc.Drop(WebSessionKey(id))
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var (
		data []byte
		err  error
	)
	if sess, ok := s.existingSession(r); ok {
		data, err = sess.Export()
	} else {
		data, err = repository.EncodeSnapshot(nil)
	}
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="grocery-list.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.WithError(err).Warn("failed to write export")
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "snapshot is too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read snapshot: %v", err))
		return
	}

	view, err := s.session(w, r).Import(body)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

// ---------------------------------------------------------------------------
// Web UI
// ---------------------------------------------------------------------------

type indexData struct {
	View  service.View
	Units []models.Unit
	Flash string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Only serve the index page for the root path; return 404 for unknown
	// paths so the API is not accidentally shadowed.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := indexData{
		View:  s.currentView(r),
		Units: models.Units(),
		Flash: s.popFlash(w, r),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.WithError(err).Error("failed to execute index template")
	}
}

// redirectHome finishes a form post; the browser re-renders the whole view.
func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request, flash string) {
	if flash != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Value:    url.QueryEscape(flash),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

func (s *Server) handleFormAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectHome(w, r, "⚠️ Could not read the form.")
		return
	}

	unit, err := models.ParseUnit(r.PostFormValue("unit"))
	if err != nil {
		s.redirectHome(w, r, "⚠️ Please choose a valid unit.")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if _, _, err := s.session(w, r).Add(name, unit); err != nil {
		if errors.Is(err, repository.ErrValidation) {
			s.redirectHome(w, r, "⚠️ Please enter a valid item name.")
			return
		}
		s.logger.WithError(err).Error("failed to add item")
		s.redirectHome(w, r, "❌ Could not add the item.")
		return
	}

	s.redirectHome(w, r, fmt.Sprintf("✅ Added: %s (%s)", name, unit))
}

// handleFormUpdate applies one row's price, quantity and purchased fields.
// All values are checked before any is written so a bad field leaves the
// row untouched.
func (s *Server) handleFormUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectHome(w, r, "⚠️ Could not read the form.")
		return
	}

	price, err := parseAmount("price", r.PostFormValue("price"))
	if err != nil {
		s.redirectHome(w, r, "⚠️ "+err.Error())
		return
	}
	quantity, err := parseAmount("quantity", r.PostFormValue("quantity"))
	if err != nil {
		s.redirectHome(w, r, "⚠️ "+err.Error())
		return
	}
	purchased := r.PostFormValue("purchased") != ""

	sess, ok := s.existingSession(r)
	if !ok {
		s.redirectHome(w, r, "")
		return
	}
	id := pathID(r)
	_, err = sess.Do("update", func(store repository.ListStore) error {
		if err := store.SetPrice(id, price); err != nil {
			return err
		}
		if err := store.SetQuantity(id, quantity); err != nil {
			return err
		}
		return store.SetPurchased(id, purchased)
	})
	switch {
	case err == nil, errors.Is(err, repository.ErrNotFound):
		// A stale row is ignored; the redirect re-syncs the view.
		s.redirectHome(w, r, "")
	case errors.Is(err, repository.ErrValidation):
		s.redirectHome(w, r, "⚠️ "+err.Error())
	default:
		s.logger.WithError(err).Error("failed to update item")
		s.redirectHome(w, r, "❌ Could not update the item.")
	}
}

func parseAmount(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, repository.Invalid(field, "must be a number")
	}
	if err := repository.ValidateAmount(field, v); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Server) handleFormRemove(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.existingSession(r); ok {
		if _, err := sess.Remove(pathID(r)); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.WithError(err).Error("failed to remove item")
		}
	}
	s.redirectHome(w, r, "")
}

func (s *Server) handleFormClear(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.existingSession(r); ok {
		sess.Clear()
	}
	s.redirectHome(w, r, "")
}
