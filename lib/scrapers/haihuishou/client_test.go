package haihuishou

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *atomic.Int64) {
	calls := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientOptions{
		HsdBaseUrl:  srv.URL,
		MainBaseUrl: srv.URL,
		WapBaseUrl:  srv.URL,
	})
	return client, calls
}

func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	})
}

func TestLogin(t *testing.T) {
	var gotPayload map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login/checklogin", r.URL.Path)
		require.Empty(t, r.Header.Get("token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		io.WriteString(w, `{"code":1,"success":true,"message":"","data":{"token":"tok-1","userId":"u-9","realName":"报价师"}}`)
	}))

	info, err := client.Login(context.Background(), "13800000000", "123456")
	require.NoError(t, err)
	require.Equal(t, "tok-1", info.Token)
	require.Equal(t, "u-9", info.UserID)
	require.Equal(t, "报价师", info.Raw["realName"])

	// session stored for subsequent calls
	require.Equal(t, "tok-1", client.Token())
	require.Equal(t, "u-9", client.UserID())

	// plaintext hashed before transmission
	require.Equal(t, HashPassword("123456"), gotPayload["loginPwd"])
	require.Equal(t, "13800000000", gotPayload["loginName"])
	require.Equal(t, loginClient, gotPayload["client"])
}

func TestLoginRejected(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(200, `{"code":0,"success":false,"message":"密码错误"}`))

	_, err := client.Login(context.Background(), "13800000000", "wrong")
	var rejection *RemoteRejection
	require.ErrorAs(t, err, &rejection)
	require.Equal(t, "密码错误", rejection.Message)
	require.Empty(t, client.Token())
}

func TestOrderListRequiresSessionBeforeNetwork(t *testing.T) {
	client, calls := newTestClient(t, jsonHandler(200, `{"code":1}`))

	_, err := client.OrderList(context.Background(), GrabCondition{}, 1)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.EqualValues(t, 0, calls.Load(), "no network call may happen before the local auth check")

	client.SetSession("tok", "")
	_, err = client.OrderList(context.Background(), GrabCondition{}, 1)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.EqualValues(t, 0, calls.Load())
}

func TestOrderListPayload(t *testing.T) {
	var rawBody []byte
	var gotToken string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orderquery/gethsdorderlist", r.URL.Path)
		gotToken = r.Header.Get("token")
		rawBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"code":1,"data":{"list":[],"totalCount":0}}`)
	}))
	client.SetSession("tok-1", "u-9")

	cond := GrabCondition{
		CategoryBrands: []CategoryBrands{{CategoryId: "100001", BrandIds: []string{"100067", "100611"}}},
		MaxPrice:       "5000",
		PageSize:       50,
	}
	_, err := client.OrderList(context.Background(), cond, 2)
	require.NoError(t, err)
	require.Equal(t, "tok-1", gotToken)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rawBody, &payload))
	require.Equal(t, "u-9", payload["userId"])
	require.Equal(t, float64(2), payload["pageIndex"])
	require.Equal(t, float64(50), payload["pageSize"])
	require.Equal(t, OrderStateOpen, payload["orderState"])
	require.Equal(t,
		[]any{map[string]any{"key": "100001", "value": []any{"100067", "100611"}}},
		payload["categoryBrands"])
	require.Equal(t, "5000", payload["maxPrice"])
	// an unset bound is omitted entirely, not sent as null or ""
	_, hasMin := payload["minPrice"]
	require.False(t, hasMin)
}

func TestOrderListNonJsonBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>please sign in</html>")
	}))
	client.SetSession("expired", "u-9")

	_, err := client.OrderList(context.Background(), GrabCondition{}, 1)
	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
}

func TestTransportError(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(502, "bad gateway"))
	client.SetSession("tok", "u-9")

	_, err := client.OrderList(context.Background(), GrabCondition{}, 1)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, 502, transportErr.StatusCode)
}

func TestGrabOrder(t *testing.T) {
	var rawBody []byte
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orderoper/hsdgraborder", r.URL.Path)
		rawBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"code":1,"data":{"subCode":100,"subMessage":"抢单成功"}}`)
	}))
	client.SetSession("tok", "u-9")

	res, err := client.GrabOrder(context.Background(), 123, 456)
	require.NoError(t, err)
	require.Equal(t, GrabSubCodeWon, res.SubCode)
	require.Equal(t, "抢单成功", res.SubMessage)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rawBody, &payload))
	require.Equal(t, float64(123), payload["recordId"])
	require.Equal(t, float64(456), payload["orderId"])
	require.Equal(t, "u-9", payload["userId"])
}

func TestGrabOrderContention(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(200, `{"code":1,"data":{"subCode":200,"subMessage":"已被抢"}}`))
	client.SetSession("tok", "u-9")

	// losing the grab is a payload outcome, not an error
	res, err := client.GrabOrder(context.Background(), 123, 456)
	require.NoError(t, err)
	require.Equal(t, GrabSubCodeTaken, res.SubCode)
	require.Equal(t, "已被抢", res.SubMessage)
}

func TestSubmitQuotationPriceIsLiteralString(t *testing.T) {
	var rawBody []byte
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orderoper/hsdquotation", r.URL.Path)
		rawBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"code":1,"data":{"quoteId":"q-1"}}`)
	}))
	client.SetSession("tok", "u-9")

	data, err := client.SubmitQuotation(context.Background(), Quotation{
		RecordId:    123,
		OrderId:     456,
		ActualPrice: "199.00",
		Remark:      "成色良好",
	})
	require.NoError(t, err)
	require.Equal(t, "q-1", data["quoteId"])

	// the wire carries "199.00" as a string, never the number 199
	require.Contains(t, string(rawBody), `"actualPrice":"199.00"`)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rawBody, &payload))
	require.Equal(t, float64(1), payload["quoteResult"])
	require.Equal(t, "成色良好", payload["remark"])
}

func TestSubmitQuotationRejected(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(200, `{"code":0,"data":{"subMessage":"报价超出范围"}}`))
	client.SetSession("tok", "u-9")

	_, err := client.SubmitQuotation(context.Background(), Quotation{RecordId: 1, OrderId: 2, ActualPrice: "1.00"})
	var rejected *QuotationRejectedError
	require.ErrorAs(t, err, &rejected)
	// no top-level message, so the nested subMessage is surfaced
	require.Equal(t, "报价超出范围", rejected.Message)
}

func TestUpdateQuotation(t *testing.T) {
	var rawBody []byte
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orderoper/hsdupdatequotation", r.URL.Path)
		rawBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"code":1,"data":{"subCode":100,"subMessage":"修改成功"}}`)
	}))
	client.SetSession("tok", "u-9")

	data, err := client.UpdateQuotation(context.Background(), 123, 456, "188.00", "改价")
	require.NoError(t, err)
	require.Equal(t, "修改成功", data["subMessage"])
	require.Contains(t, string(rawBody), `"actualPrice":"188.00"`)
}

func TestUpdateQuotationInnerFailure(t *testing.T) {
	// outer success alone is insufficient: the embedded subCode must
	// also be 100
	client, _ := newTestClient(t, jsonHandler(200, `{"code":1,"message":"ok","data":{"subCode":200,"subMessage":"订单状态已变化"}}`))
	client.SetSession("tok", "u-9")

	_, err := client.UpdateQuotation(context.Background(), 123, 456, "188.00", "")
	var rejected *QuotationUpdateRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, 200, rejected.SubCode)
	require.Equal(t, "订单状态已变化", rejected.Message)
}

func TestCatalog(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/syscategory/getmanufacturerdata":
			io.WriteString(w, `{"code":1,"data":{"manufacturerList":[{"name":"华为"},{"name":"小米"}]}}`)
		case "/api/syscategory/getsyscategory":
			io.WriteString(w, `{"code":1,"data":{"catList":[{"catId":100001,"catName":"手机"}]}}`)
		case "/api/syscategory/getsysbrand":
			body, _ := io.ReadAll(r.Body)
			require.Contains(t, string(body), `"catId":100001`)
			io.WriteString(w, `{"code":1,"data":{"brandList":[{"brandId":100067,"brandName":"苹果"}]}}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	manufacturers, err := client.Manufacturers(context.Background())
	require.NoError(t, err)
	require.Len(t, manufacturers, 2)

	categories, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, "手机", categories[0]["catName"])

	brands, err := client.BrandsByCategory(context.Background(), 100001)
	require.NoError(t, err)
	require.Equal(t, "苹果", brands[0]["brandName"])
}

func TestCatalogMissingSuccessCode(t *testing.T) {
	// a success code that is simply absent is treated as a rejection,
	// not assumed to be success
	client, _ := newTestClient(t, jsonHandler(200, `{"data":{"catList":[]}}`))

	_, err := client.Categories(context.Background())
	var rejection *RemoteRejection
	require.ErrorAs(t, err, &rejection)
}

func TestSessionRestore(t *testing.T) {
	client := NewClient(ClientOptions{})
	client.SetSession("tok-7", "u-7")
	require.Equal(t, "tok-7", client.Token())
	require.Equal(t, "u-7", client.UserID())

	// restoring a token alone keeps the previous userId
	client.SetSession("tok-8", "")
	require.Equal(t, "tok-8", client.Token())
	require.Equal(t, "u-7", client.UserID())
}

func TestGrabOrderQuery(t *testing.T) {
	client, calls := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/grabOrderQuery"))
		require.Equal(t, "tok", r.Header.Get("token"))
		io.WriteString(w, `{"code":1,"data":{"count":3}}`)
	}))

	_, err := client.GrabOrderQuery(context.Background(), nil)
	require.True(t, errors.Is(err, ErrNotAuthenticated))
	require.EqualValues(t, 0, calls.Load())

	client.SetSession("tok", "u-9")
	res, err := client.GrabOrderQuery(context.Background(), map[string]any{"orderState": OrderStateOpen})
	require.NoError(t, err)
	require.EqualValues(t, 3, jsonObject(res, "data")["count"])
}
