package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

const createGrabAttempt = `
INSERT INTO grab_attempts (record_id, order_id, user_id, outcome, message, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateGrabAttemptParams struct {
	RecordID  int64
	OrderID   int64
	UserID    string
	Outcome   string
	Message   string
	CreatedAt int64
}

func (q *Queries) CreateGrabAttempt(ctx context.Context, arg CreateGrabAttemptParams) error {
	_, err := q.db.ExecContext(ctx, createGrabAttempt,
		arg.RecordID,
		arg.OrderID,
		arg.UserID,
		arg.Outcome,
		arg.Message,
		arg.CreatedAt,
	)
	return err
}

const createQuotation = `
INSERT INTO quotations (record_id, order_id, user_id, actual_price, remark, action, accepted, message, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateQuotationParams struct {
	RecordID    int64
	OrderID     int64
	UserID      string
	ActualPrice string
	Remark      string
	Action      string
	Accepted    bool
	Message     string
	CreatedAt   int64
}

func (q *Queries) CreateQuotation(ctx context.Context, arg CreateQuotationParams) error {
	_, err := q.db.ExecContext(ctx, createQuotation,
		arg.RecordID,
		arg.OrderID,
		arg.UserID,
		arg.ActualPrice,
		arg.Remark,
		arg.Action,
		arg.Accepted,
		arg.Message,
		arg.CreatedAt,
	)
	return err
}

const listGrabAttempts = `
SELECT id, record_id, order_id, user_id, outcome, message, created_at
FROM grab_attempts
ORDER BY created_at DESC, id DESC
LIMIT ?
`

type GrabAttempt struct {
	ID        int64  `json:"id"`
	RecordID  int64  `json:"recordId"`
	OrderID   int64  `json:"orderId"`
	UserID    string `json:"userId"`
	Outcome   string `json:"outcome"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"createdAt"`
}

func (q *Queries) ListGrabAttempts(ctx context.Context, limit int64) ([]GrabAttempt, error) {
	rows, err := q.db.QueryContext(ctx, listGrabAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GrabAttempt
	for rows.Next() {
		var a GrabAttempt
		err := rows.Scan(
			&a.ID,
			&a.RecordID,
			&a.OrderID,
			&a.UserID,
			&a.Outcome,
			&a.Message,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const listQuotations = `
SELECT id, record_id, order_id, user_id, actual_price, remark, action, accepted, message, created_at
FROM quotations
ORDER BY created_at DESC, id DESC
LIMIT ?
`

type Quotation struct {
	ID          int64  `json:"id"`
	RecordID    int64  `json:"recordId"`
	OrderID     int64  `json:"orderId"`
	UserID      string `json:"userId"`
	ActualPrice string `json:"actualPrice"`
	Remark      string `json:"remark"`
	Action      string `json:"action"`
	Accepted    bool   `json:"accepted"`
	Message     string `json:"message"`
	CreatedAt   int64  `json:"createdAt"`
}

func (q *Queries) ListQuotations(ctx context.Context, limit int64) ([]Quotation, error) {
	rows, err := q.db.QueryContext(ctx, listQuotations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Quotation
	for rows.Next() {
		var quote Quotation
		err := rows.Scan(
			&quote.ID,
			&quote.RecordID,
			&quote.OrderID,
			&quote.UserID,
			&quote.ActualPrice,
			&quote.Remark,
			&quote.Action,
			&quote.Accepted,
			&quote.Message,
			&quote.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, quote)
	}
	return items, rows.Err()
}
