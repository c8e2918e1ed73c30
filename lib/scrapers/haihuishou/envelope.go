package haihuishou

import "strconv"

// OrderPage is the canonical shape every order-list envelope variant
// is normalized into.
type OrderPage struct {
	Items      []map[string]any `json:"items"`
	TotalCount int              `json:"totalCount"`
}

// The vendor nests the order array under a different key depending on
// endpoint and version. These are checked in order, first against the
// "data" object and then against the top level.
var orderListKeys = []string{"list", "orderList", "results", "records", "rows", "items"}

// NormalizeOrderPage resolves a parsed order-list response body into
// OrderPage, whichever envelope variant the vendor chose. The total
// count defaults to the item count when the vendor provides none.
func NormalizeOrderPage(v any) OrderPage {
	if arr, ok := v.([]any); ok {
		items := itemMaps(arr)
		return OrderPage{Items: items, TotalCount: len(items)}
	}

	top, ok := v.(map[string]any)
	if !ok {
		return OrderPage{Items: []map[string]any{}}
	}
	data, _ := top["data"].(map[string]any)

	items := findOrderList(data)
	if items == nil {
		items = findOrderList(top)
	}
	if items == nil {
		if arr, ok := top["data"].([]any); ok {
			items = itemMaps(arr)
		}
	}
	if items == nil {
		items = []map[string]any{}
	}

	total, ok := findTotal(data)
	if !ok {
		total, ok = findTotal(top)
	}
	if !ok {
		total = len(items)
	}

	return OrderPage{Items: items, TotalCount: total}
}

func findOrderList(obj map[string]any) []map[string]any {
	if obj == nil {
		return nil
	}
	if result, ok := obj["result"].(map[string]any); ok {
		if arr, ok := result["orderList"].([]any); ok {
			return itemMaps(arr)
		}
	}
	for _, key := range orderListKeys {
		if arr, ok := obj[key].([]any); ok {
			return itemMaps(arr)
		}
	}
	return nil
}

func findTotal(obj map[string]any) (int, bool) {
	if obj == nil {
		return 0, false
	}
	// pageCount holds the full list size on the paths that send it
	for _, key := range []string{"pageCount", "totalCount", "total"} {
		if n, ok := jsonInt(obj, key); ok {
			return n, true
		}
	}
	return 0, false
}

func itemMaps(arr []any) []map[string]any {
	items := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}

// jsonInt reads an integer field that the vendor may encode as a JSON
// number or as a numeric string.
func jsonInt(obj map[string]any, key string) (int, bool) {
	switch n := obj[key].(type) {
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func jsonString(obj map[string]any, key string) string {
	switch s := obj[key].(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func jsonObject(v any, key string) map[string]any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	inner, _ := obj[key].(map[string]any)
	return inner
}
