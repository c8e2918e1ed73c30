package haihuishou

import "context"

// Catalog lookups are unauthenticated reference data: manufacturers,
// product categories and the brands under a category. Each query is
// safe to call fresh; nothing here is cached. The vendor dictionaries
// are passed through untouched, and list ordering carries no meaning
// beyond display order.

// requireSuccessCode enforces the stricter catalog convention: the
// success code must be present and equal to 1.
func requireSuccessCode(endpoint string, body any) (map[string]any, error) {
	obj, _ := body.(map[string]any)
	code, hasCode := jsonInt(obj, "code")
	if !hasCode || code != 1 {
		return nil, &RemoteRejection{
			Endpoint: endpoint,
			Code:     code,
			Message:  jsonString(obj, "message"),
		}
	}
	return obj, nil
}

func (c *Client) catalogList(ctx context.Context, path string, payload map[string]any, listKey string) ([]map[string]any, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	endpoint := c.baseHsd + path
	body, err := c.post(ctx, endpoint, payload, false)
	if err != nil {
		return nil, err
	}
	obj, err := requireSuccessCode(endpoint, body)
	if err != nil {
		return nil, err
	}
	arr, _ := jsonObject(obj, "data")[listKey].([]any)
	return itemMaps(arr), nil
}

// Manufacturers lists the order source manufacturers (华为, OPPO, 小米,
// 荣耀, ...) used as the subOrderSourceNames filter.
func (c *Client) Manufacturers(ctx context.Context) ([]map[string]any, error) {
	return c.catalogList(ctx, "/api/syscategory/getmanufacturerdata", nil, "manufacturerList")
}

// Categories lists the electronics categories (phone, tablet, laptop).
func (c *Client) Categories(ctx context.Context) ([]map[string]any, error) {
	return c.catalogList(ctx, "/api/syscategory/getsyscategory", nil, "catList")
}

// BrandsByCategory lists the brands under one category id.
func (c *Client) BrandsByCategory(ctx context.Context, catId int64) ([]map[string]any, error) {
	payload := map[string]any{"catId": catId}
	return c.catalogList(ctx, "/api/syscategory/getsysbrand", payload, "brandList")
}
