// Package grabber drives the grab-and-quote workflow against the
// Haihuishou marketplace: log in, discover biddable orders, reserve
// one, then submit or revise a quotation for it. Reservation state is
// authoritative on the remote side only; nothing is cached or retried
// here.
package grabber

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"haigrab/lib/scrapers/haihuishou"
	"haigrab/services/grabber/db"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/grabber")

type Service struct {
	client *haihuishou.Client
	qry    *db.Queries
}

// NewService wraps a vendor client. `database` may be nil, in which
// case no audit history is recorded.
func NewService(client *haihuishou.Client, database *sql.DB) Service {
	s := Service{client: client}
	if database != nil {
		s.qry = db.New(database)
	}
	return s
}

func (s Service) Client() *haihuishou.Client {
	return s.client
}

// SessionStatus is the session view the presentation layer renders.
type SessionStatus struct {
	LoggedIn bool   `json:"loggedIn"`
	UserID   string `json:"userId,omitempty"`
	Token    string `json:"token,omitempty"`
}

func (s Service) Status() SessionStatus {
	token := s.client.Token()
	userId := s.client.UserID()
	if token == "" || userId == "" {
		return SessionStatus{}
	}
	return SessionStatus{LoggedIn: true, UserID: userId, Token: token}
}

// RestoreSession installs a previously issued token and userId, e.g.
// from a web session cookie.
func (s Service) RestoreSession(token, userId string) {
	s.client.SetSession(token, userId)
}

func (s Service) Login(ctx context.Context, loginName, loginPwd string) (haihuishou.LoginInfo, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	info, err := s.client.Login(ctx, loginName, loginPwd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return haihuishou.LoginInfo{}, err
	}
	slog.InfoContext(ctx, "logged in", "user_id", info.UserID)
	return info, nil
}

func (s Service) UserInfo(ctx context.Context) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "UserInfo")
	defer span.End()

	info, err := s.client.QueryUserInfo(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return info, nil
}

// CatalogData bundles the two unauthenticated lookups the filter form
// needs at once.
type CatalogData struct {
	ManufacturerList []map[string]any `json:"manufacturerList"`
	CatList          []map[string]any `json:"catList"`
}

func (s Service) Catalogs(ctx context.Context) (CatalogData, error) {
	ctx, span := tracer.Start(ctx, "Catalogs")
	defer span.End()

	manufacturers, err := s.client.Manufacturers(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CatalogData{}, err
	}
	categories, err := s.client.Categories(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CatalogData{}, err
	}
	return CatalogData{
		ManufacturerList: manufacturers,
		CatList:          categories,
	}, nil
}

func (s Service) Brands(ctx context.Context, catId int64) ([]map[string]any, error) {
	ctx, span := tracer.Start(ctx, "Brands")
	defer span.End()
	span.SetAttributes(attribute.Int64("cat_id", catId))

	brands, err := s.client.BrandsByCategory(ctx, catId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return brands, nil
}

func (s Service) ListOrders(ctx context.Context, cond haihuishou.GrabCondition, pageIndex int) (haihuishou.OrderPage, error) {
	ctx, span := tracer.Start(ctx, "ListOrders")
	defer span.End()
	span.SetAttributes(attribute.Int("page_index", pageIndex))

	page, err := s.client.OrderList(ctx, cond, pageIndex)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return haihuishou.OrderPage{}, err
	}
	slog.DebugContext(ctx, "order list fetched", "items", len(page.Items), "total", page.TotalCount)
	return page, nil
}

type GrabStatus string

const (
	// GrabWon: this agent now exclusively may quote the order
	GrabWon GrabStatus = "won"
	// GrabLost: another agent reserved the order first
	GrabLost GrabStatus = "lost"
)

// GrabOutcome separates the two legitimate grab results from actual
// errors: losing the race is an outcome, not a failure of the system.
type GrabOutcome struct {
	Status  GrabStatus     `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func (o GrabOutcome) Won() bool {
	return o.Status == GrabWon
}

// Grab reserves an order. Not idempotent: a repeat grab is a fresh
// attempt with whatever outcome the vendor returns.
func (s Service) Grab(ctx context.Context, recordId, orderId int64) (GrabOutcome, error) {
	ctx, span := tracer.Start(ctx, "Grab")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("record_id", recordId),
		attribute.Int64("order_id", orderId),
	)

	res, err := s.client.GrabOrder(ctx, recordId, orderId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GrabOutcome{}, err
	}

	var outcome GrabOutcome
	switch res.SubCode {
	case haihuishou.GrabSubCodeTaken:
		message := res.SubMessage
		if message == "" {
			message = "抢单失败"
		}
		outcome = GrabOutcome{Status: GrabLost, Message: message, Data: res.Data}
		slog.InfoContext(ctx, "grab lost", "record_id", recordId, "order_id", orderId, "message", message)
	case haihuishou.GrabSubCodeWon:
		outcome = GrabOutcome{Status: GrabWon, Message: res.SubMessage, Data: res.Data}
		slog.InfoContext(ctx, "grab won", "record_id", recordId, "order_id", orderId)
	default:
		// an unknown sub-code is not assumed to be a win; surface it
		// so the operator decides whether the grab actually happened
		slog.WarnContext(ctx, "grab returned unrecognized subCode",
			"sub_code", res.SubCode, "record_id", recordId, "order_id", orderId)
		err := fmt.Errorf("grab returned unrecognized subCode %d: %s", res.SubCode, res.SubMessage)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GrabOutcome{}, err
	}

	s.auditGrab(ctx, recordId, orderId, outcome)
	return outcome, nil
}

// QuoteRequest is an operator-priced offer for a grabbed order.
type QuoteRequest struct {
	RecordId    int64
	OrderId     int64
	ActualPrice string
	// defaults to 1 (priced)
	QuoteResult int
	Remark      string
}

// Quote submits a quotation. The price must parse as a positive
// decimal, but the operator's literal string is what goes on the wire.
func (s Service) Quote(ctx context.Context, req QuoteRequest) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "Quote")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("record_id", req.RecordId),
		attribute.Int64("order_id", req.OrderId),
	)

	if err := validatePrice(req.ActualPrice); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := s.client.SubmitQuotation(ctx, haihuishou.Quotation{
		RecordId:    req.RecordId,
		OrderId:     req.OrderId,
		ActualPrice: req.ActualPrice,
		QuoteResult: req.QuoteResult,
		Remark:      req.Remark,
	})
	s.auditQuote(ctx, "submit", req.RecordId, req.OrderId, req.ActualPrice, req.Remark, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	slog.InfoContext(ctx, "quotation submitted",
		"record_id", req.RecordId, "order_id", req.OrderId, "price", req.ActualPrice)
	return data, nil
}

// UpdateQuote revises an already-submitted quotation, the only
// sanctioned correction path.
func (s Service) UpdateQuote(ctx context.Context, recordId, orderId int64, actualPrice, remark string) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "UpdateQuote")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("record_id", recordId),
		attribute.Int64("order_id", orderId),
	)

	if err := validatePrice(actualPrice); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := s.client.UpdateQuotation(ctx, recordId, orderId, actualPrice, remark)
	s.auditQuote(ctx, "update", recordId, orderId, actualPrice, remark, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	slog.InfoContext(ctx, "quotation updated",
		"record_id", recordId, "order_id", orderId, "price", actualPrice)
	return data, nil
}

func validatePrice(price string) error {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", price, err)
	}
	if !d.IsPositive() {
		return fmt.Errorf("invalid price %q: must be positive", price)
	}
	return nil
}

// History is the recorded trail of grab attempts and quotations.
type History struct {
	GrabAttempts []db.GrabAttempt `json:"grabAttempts"`
	Quotations   []db.Quotation   `json:"quotations"`
}

func (s Service) History(ctx context.Context, limit int64) (History, error) {
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()

	if s.qry == nil {
		return History{}, nil
	}
	if limit <= 0 {
		limit = 100
	}

	attempts, err := s.qry.ListGrabAttempts(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return History{}, err
	}
	quotations, err := s.qry.ListQuotations(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return History{}, err
	}
	return History{GrabAttempts: attempts, Quotations: quotations}, nil
}

// audit failures are logged, never allowed to fail the operation that
// already happened on the remote side

func (s Service) auditGrab(ctx context.Context, recordId, orderId int64, outcome GrabOutcome) {
	if s.qry == nil {
		return
	}
	err := s.qry.CreateGrabAttempt(ctx, db.CreateGrabAttemptParams{
		RecordID:  recordId,
		OrderID:   orderId,
		UserID:    s.client.UserID(),
		Outcome:   string(outcome.Status),
		Message:   outcome.Message,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to record grab attempt", "err", err)
	}
}

func (s Service) auditQuote(ctx context.Context, action string, recordId, orderId int64, price, remark string, opErr error) {
	if s.qry == nil {
		return
	}
	message := ""
	if opErr != nil {
		message = opErr.Error()
	}
	err := s.qry.CreateQuotation(ctx, db.CreateQuotationParams{
		RecordID:    recordId,
		OrderID:     orderId,
		UserID:      s.client.UserID(),
		ActualPrice: price,
		Remark:      remark,
		Action:      action,
		Accepted:    opErr == nil,
		Message:     message,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to record quotation", "err", err)
	}
}
