package haihuishou

import "context"

// OrderStateOpen marks orders that have not been taken yet, the only
// state in which an order is discoverable for grabbing.
const OrderStateOpen = "10"

// CategoryBrands pairs one category id with the brand ids to match
// under it, in the wire shape the list endpoint expects.
type CategoryBrands struct {
	CategoryId string   `json:"key"`
	BrandIds   []string `json:"value"`
}

// GrabCondition is the operator-defined order filter.
type GrabCondition struct {
	CategoryBrands []CategoryBrands
	// defaults to OrderStateOpen
	OrderState string
	// price bounds; an empty string omits the field from the request
	// entirely rather than sending null or ""
	MinPrice string
	MaxPrice string
	// manufacturer names for the subOrderSourceNames filter
	SourceManufacturerNames []string
	// defaults to 20
	PageSize int
}

func (cond GrabCondition) payload(pageIndex int, userId string) map[string]any {
	orderState := cond.OrderState
	if orderState == "" {
		orderState = OrderStateOpen
	}
	pageSize := cond.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	categoryBrands := cond.CategoryBrands
	if categoryBrands == nil {
		categoryBrands = []CategoryBrands{}
	}
	sourceNames := cond.SourceManufacturerNames
	if sourceNames == nil {
		sourceNames = []string{}
	}

	payload := map[string]any{
		"pageIndex":           pageIndex,
		"pageSize":            pageSize,
		"orderState":          orderState,
		"categoryBrands":      categoryBrands,
		"subOrderSourceNames": sourceNames,
		"userId":              userId,
	}
	if cond.MinPrice != "" {
		payload["minPrice"] = cond.MinPrice
	}
	if cond.MaxPrice != "" {
		payload["maxPrice"] = cond.MaxPrice
	}
	return payload
}

// OrderList queries the grab-order list and normalizes whichever
// envelope variant the vendor answers with. Requires a session.
func (c *Client) OrderList(ctx context.Context, cond GrabCondition, pageIndex int) (OrderPage, error) {
	if err := c.requireSession(); err != nil {
		return OrderPage{}, err
	}
	if pageIndex <= 0 {
		pageIndex = 1
	}

	endpoint := c.baseHsd + "/api/orderquery/gethsdorderlist"
	body, err := c.post(ctx, endpoint, cond.payload(pageIndex, c.userId), true)
	if err != nil {
		return OrderPage{}, err
	}
	if err := checkEnvelope(endpoint, body); err != nil {
		return OrderPage{}, err
	}
	return NormalizeOrderPage(body), nil
}

// GrabOrderQuery hits the mini-program grab-order query endpoint on
// the wap host. The body is forwarded as-is and the response returned
// unparsed beyond the generic envelope check.
func (c *Client) GrabOrderQuery(ctx context.Context, body map[string]any) (any, error) {
	if c.token == "" {
		return nil, ErrNotAuthenticated
	}
	if body == nil {
		body = map[string]any{}
	}

	endpoint := c.baseWap + "/api/miniProgram/hd/order/grabOrderQuery"
	res, err := c.post(ctx, endpoint, body, true)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(endpoint, res); err != nil {
		return nil, err
	}
	return res, nil
}
