package haihuishou

import "context"

// Grab sub-codes. Winning the grab gives this client exclusive right
// to quote the order; losing it means another agent reserved the
// order first, which is an expected runtime outcome and not an error.
const (
	GrabSubCodeWon   = 100
	GrabSubCodeTaken = 200
)

// GrabResult is the parsed outcome payload of a grab call.
type GrabResult struct {
	SubCode    int
	SubMessage string
	Data       map[string]any
}

// GrabOrder reserves an order. Both recordId and orderId are required
// together; neither alone identifies the order. Interpretation of the
// sub-code is left to the caller.
func (c *Client) GrabOrder(ctx context.Context, recordId, orderId int64) (GrabResult, error) {
	if err := c.requireSession(); err != nil {
		return GrabResult{}, err
	}

	payload := map[string]any{
		"recordId": recordId,
		"orderId":  orderId,
		"userId":   c.userId,
	}

	endpoint := c.baseHsd + "/api/orderoper/hsdgraborder"
	body, err := c.post(ctx, endpoint, payload, true)
	if err != nil {
		return GrabResult{}, err
	}
	if err := checkEnvelope(endpoint, body); err != nil {
		return GrabResult{}, err
	}

	data := jsonObject(body, "data")
	subCode, _ := jsonInt(data, "subCode")
	return GrabResult{
		SubCode:    subCode,
		SubMessage: jsonString(data, "subMessage"),
		Data:       data,
	}, nil
}

// Quotation is a priced offer against an order this client has
// already grabbed. The reservation precondition is enforced by the
// remote side, not tracked locally.
type Quotation struct {
	RecordId    int64
	OrderId     int64
	ActualPrice string
	// 1 = priced; defaulted when zero
	QuoteResult int
	Remark      string
}

// SubmitQuotation submits a quotation for a grabbed order. The price
// travels as the operator's literal string, never as a JSON number,
// to avoid locale and precision ambiguity.
func (c *Client) SubmitQuotation(ctx context.Context, q Quotation) (map[string]any, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	quoteResult := q.QuoteResult
	if quoteResult == 0 {
		quoteResult = 1
	}
	payload := map[string]any{
		"recordId":    q.RecordId,
		"orderId":     q.OrderId,
		"quoteResult": quoteResult,
		"actualPrice": q.ActualPrice,
		"remark":      q.Remark,
		"userId":      c.userId,
	}

	endpoint := c.baseHsd + "/api/orderoper/hsdquotation"
	body, err := c.post(ctx, endpoint, payload, true)
	if err != nil {
		return nil, err
	}

	obj, _ := body.(map[string]any)
	code, hasCode := jsonInt(obj, "code")
	if !hasCode || code != 1 {
		message := jsonString(obj, "message")
		if message == "" {
			message = jsonString(jsonObject(body, "data"), "subMessage")
		}
		return nil, &QuotationRejectedError{Message: message}
	}
	return jsonObject(body, "data"), nil
}

// UpdateQuotation revises an already-submitted quotation. Success
// requires BOTH the outer envelope's code and the embedded
// subCode=100; outer success alone is insufficient.
func (c *Client) UpdateQuotation(ctx context.Context, recordId, orderId int64, actualPrice, remark string) (map[string]any, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"actualPrice": actualPrice,
		"remark":      remark,
		"orderId":     orderId,
		"recordId":    recordId,
		"userId":      c.userId,
	}

	endpoint := c.baseHsd + "/api/orderoper/hsdupdatequotation"
	body, err := c.post(ctx, endpoint, payload, true)
	if err != nil {
		return nil, err
	}

	obj, _ := body.(map[string]any)
	data := jsonObject(body, "data")
	code, hasCode := jsonInt(obj, "code")
	subCode, _ := jsonInt(data, "subCode")
	if !hasCode || code != 1 || subCode != GrabSubCodeWon {
		// prefer the inner subMessage, it is the more specific one
		message := jsonString(data, "subMessage")
		if message == "" {
			message = jsonString(obj, "message")
		}
		return nil, &QuotationUpdateRejectedError{SubCode: subCode, Message: message}
	}
	return data, nil
}
