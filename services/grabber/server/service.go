// Package server is the web presentation of the grab-and-quote
// workflow: a JSON API whose session lives in a cookie, so the
// browser UI can drive login, discovery, grabbing and quoting without
// holding credentials itself.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"haigrab/lib/scrapers/haihuishou"
	"haigrab/services/grabber"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
)

const sessionName = "haigrab"

type Options struct {
	Vendor haihuishou.ClientOptions
	// secret for the session cookie store
	SessionSecret string
	// optional audit store
	Database *sql.DB
}

type Service struct {
	vendor   haihuishou.ClientOptions
	store    *sessions.CookieStore
	database *sql.DB
}

func New(opts Options) *Service {
	if opts.SessionSecret == "" {
		opts.SessionSecret = "haigrab-dev-secret"
	}
	store := sessions.NewCookieStore([]byte(opts.SessionSecret))
	// the server speaks plain-HTTP h2c on localhost; the library's
	// Secure+SameSite=None default would make browsers drop the cookie
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		Secure:   false,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Service{
		vendor:   opts.Vendor,
		store:    store,
		database: opts.Database,
	}
}

func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/user-info", s.handleUserInfo)
	r.Get("/api/categories", s.handleCategories)
	r.Get("/api/brands", s.handleBrands)
	r.Post("/api/order-list", s.handleOrderList)
	r.Post("/api/grab-order", s.handleGrabOrder)
	r.Post("/api/quote", s.handleQuote)
	r.Post("/api/update-quote", s.handleUpdateQuote)
	r.Get("/api/history", s.handleHistory)

	return r
}

// workflowFor builds a per-request workflow service from the cookie
// session. There is deliberately no ambient shared session: a request
// token header or body userId overrides the cookie.
func (s *Service) workflowFor(r *http.Request, bodyUserId string) (grabber.Service, *sessions.Session) {
	sess, _ := s.store.Get(r, sessionName)
	token, _ := sess.Values["token"].(string)
	userId, _ := sess.Values["userId"].(string)

	if t := r.Header.Get("token"); t != "" {
		token = t
	}
	if bodyUserId != "" {
		userId = bodyUserId
	}

	client := haihuishou.NewClient(s.vendor)
	client.SetSession(token, userId)
	return grabber.NewService(client, s.database), sess
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func (s *Service) ok(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
}

func (s *Service) fail(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// failErr renders a workflow failure. A missing session is the
// caller's problem (401); everything else stays a 200 with
// success=false so the UI renders the vendor's message verbatim.
func (s *Service) failErr(w http.ResponseWriter, err error) {
	if errors.Is(err, haihuishou.ErrNotAuthenticated) {
		s.fail(w, http.StatusUnauthorized, err.Error())
		return
	}
	s.fail(w, http.StatusOK, err.Error())
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// idValue tolerates the id being sent as a JSON number or a string.
type idValue int64

func (v *idValue) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		*v = 0
		return nil
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return err
	}
	*v = idValue(parsed)
	return nil
}

// priceValue tolerates the amount being sent as a JSON number or a
// string, preserving the literal digits either way.
type priceValue string

func (v *priceValue) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "null" {
		raw = ""
	}
	*v = priceValue(raw)
	return nil
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoginName string `json:"loginName"`
		LoginPwd  string `json:"loginPwd"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.LoginName = strings.TrimSpace(req.LoginName)
	if req.LoginName == "" || req.LoginPwd == "" {
		s.fail(w, http.StatusBadRequest, "请填写手机号和密码")
		return
	}

	workflow, sess := s.workflowFor(r, "")
	info, err := workflow.Login(r.Context(), req.LoginName, req.LoginPwd)
	if err != nil {
		s.fail(w, http.StatusOK, err.Error())
		return
	}

	sess.Values["token"] = info.Token
	sess.Values["userId"] = info.UserID
	if err := sess.Save(r, w); err != nil {
		slog.Error("failed to save session", "err", err)
	}
	s.ok(w, info.Raw)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, "token")
	delete(sess.Values, "userId")
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		slog.Error("failed to save session", "err", err)
	}
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	workflow, _ := s.workflowFor(r, "")
	s.writeJSON(w, http.StatusOK, workflow.Status())
}

func (s *Service) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	workflow, _ := s.workflowFor(r, "")
	if !workflow.Status().LoggedIn {
		s.fail(w, http.StatusUnauthorized, "未登录")
		return
	}
	info, err := workflow.UserInfo(r.Context())
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, info)
}

func (s *Service) handleCategories(w http.ResponseWriter, r *http.Request) {
	workflow, _ := s.workflowFor(r, "")
	data, err := workflow.Catalogs(r.Context())
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, data)
}

func (s *Service) handleBrands(w http.ResponseWriter, r *http.Request) {
	catId, err := strconv.ParseInt(r.URL.Query().Get("catId"), 10, 64)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "缺少 catId")
		return
	}
	workflow, _ := s.workflowFor(r, "")
	brands, err := workflow.Brands(r.Context(), catId)
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, brands)
}

type orderListRequest struct {
	UserId              string                      `json:"userId"`
	CategoryBrands      []haihuishou.CategoryBrands `json:"categoryBrands"`
	OrderState          string                      `json:"orderState"`
	MinPrice            string                      `json:"minPrice"`
	MaxPrice            string                      `json:"maxPrice"`
	SubOrderSourceNames any                         `json:"subOrderSourceNames"`
	PageIndex           int                         `json:"pageIndex"`
	PageSize            int                         `json:"pageSize"`
}

// sourceNames accepts either a list of names or one comma-separated
// string, which is what the filter form submits.
func sourceNames(v any) []string {
	switch names := v.(type) {
	case string:
		var out []string
		for _, name := range strings.Split(names, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
		return out
	case []any:
		var out []string
		for _, el := range names {
			if name, ok := el.(string); ok && strings.TrimSpace(name) != "" {
				out = append(out, strings.TrimSpace(name))
			}
		}
		return out
	}
	return nil
}

func (s *Service) handleOrderList(w http.ResponseWriter, r *http.Request) {
	var req orderListRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	workflow, _ := s.workflowFor(r, req.UserId)
	cond := haihuishou.GrabCondition{
		CategoryBrands:          req.CategoryBrands,
		OrderState:              strings.TrimSpace(req.OrderState),
		MinPrice:                strings.TrimSpace(req.MinPrice),
		MaxPrice:                strings.TrimSpace(req.MaxPrice),
		SourceManufacturerNames: sourceNames(req.SubOrderSourceNames),
		PageSize:                req.PageSize,
	}
	page, err := workflow.ListOrders(r.Context(), cond, req.PageIndex)
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, page)
}

func (s *Service) handleGrabOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserId   string  `json:"userId"`
		RecordId idValue `json:"recordId"`
		OrderId  idValue `json:"orderId"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RecordId == 0 || req.OrderId == 0 {
		s.fail(w, http.StatusBadRequest, "缺少 recordId 或 orderId")
		return
	}

	workflow, _ := s.workflowFor(r, req.UserId)
	outcome, err := workflow.Grab(r.Context(), int64(req.RecordId), int64(req.OrderId))
	if err != nil {
		s.failErr(w, err)
		return
	}
	if !outcome.Won() {
		// contention is rendered as an ordinary negative result
		s.fail(w, http.StatusOK, outcome.Message)
		return
	}
	s.ok(w, outcome.Data)
}

func (s *Service) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserId      string     `json:"userId"`
		RecordId    idValue    `json:"recordId"`
		OrderId     idValue    `json:"orderId"`
		ActualPrice priceValue `json:"actualPrice"`
		QuoteResult int        `json:"quoteResult"`
		Remark      string     `json:"remark"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RecordId == 0 || req.OrderId == 0 || req.ActualPrice == "" {
		s.fail(w, http.StatusBadRequest, "缺少 recordId / orderId / actualPrice（报价金额必填）")
		return
	}

	workflow, _ := s.workflowFor(r, req.UserId)
	data, err := workflow.Quote(r.Context(), grabber.QuoteRequest{
		RecordId:    int64(req.RecordId),
		OrderId:     int64(req.OrderId),
		ActualPrice: string(req.ActualPrice),
		QuoteResult: req.QuoteResult,
		Remark:      strings.TrimSpace(req.Remark),
	})
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, data)
}

func (s *Service) handleUpdateQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserId      string     `json:"userId"`
		RecordId    idValue    `json:"recordId"`
		OrderId     idValue    `json:"orderId"`
		ActualPrice priceValue `json:"actualPrice"`
		Remark      string     `json:"remark"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RecordId == 0 || req.OrderId == 0 || req.ActualPrice == "" {
		s.fail(w, http.StatusBadRequest, "缺少 recordId / orderId / actualPrice（报价金额必填）")
		return
	}

	workflow, _ := s.workflowFor(r, req.UserId)
	data, err := workflow.UpdateQuote(
		r.Context(),
		int64(req.RecordId),
		int64(req.OrderId),
		string(req.ActualPrice),
		strings.TrimSpace(req.Remark),
	)
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, data)
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	workflow, _ := s.workflowFor(r, "")
	history, err := workflow.History(r.Context(), limit)
	if err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, history)
}
