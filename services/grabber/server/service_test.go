package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"haigrab/lib/scrapers/haihuishou"
	"haigrab/lib/telemetry"
	"haigrab/services/grabber/db"

	"github.com/stretchr/testify/require"
)

type vendorState struct {
	grabBody     string
	lastRawQuote []byte
}

func setup(t *testing.T) (*http.Client, string, *vendorState) {
	cleanup := telemetry.SetupForTesting(t, "test:services/grabber/server")
	t.Cleanup(cleanup)

	state := &vendorState{
		grabBody: `{"code":1,"data":{"subCode":100,"subMessage":"抢单成功"}}`,
	}
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login/checklogin":
			io.WriteString(w, `{"code":1,"success":true,"data":{"token":"tok-1","userId":"u-9"}}`)
		case "/api/orderquery/gethsdorderlist":
			io.WriteString(w, `{"code":1,"data":{"list":[{"recordId":123,"orderId":456}],"totalCount":1}}`)
		case "/api/orderoper/hsdgraborder":
			io.WriteString(w, state.grabBody)
		case "/api/orderoper/hsdquotation":
			state.lastRawQuote, _ = io.ReadAll(r.Body)
			io.WriteString(w, `{"code":1,"data":{"quoteId":"q-1"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(vendor.Close)

	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	svc := New(Options{
		Vendor: haihuishou.ClientOptions{
			HsdBaseUrl:  vendor.URL,
			MainBaseUrl: vendor.URL,
			WapBaseUrl:  vendor.URL,
		},
		SessionSecret: "test-secret",
		Database:      database,
	})
	web := httptest.NewServer(svc.Router())
	t.Cleanup(web.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}, web.URL, state
}

func postJSON(t *testing.T, client *http.Client, url string, body string) (*http.Response, map[string]any) {
	res, err := client.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer res.Body.Close()

	var parsed map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&parsed))
	return res, parsed
}

func getJSON(t *testing.T, client *http.Client, url string) (*http.Response, map[string]any) {
	res, err := client.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()

	var parsed map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&parsed))
	return res, parsed
}

func login(t *testing.T, client *http.Client, base string) {
	res, body := postJSON(t, client, base+"/api/login", `{"loginName":"13800000000","loginPwd":"123456"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, true, body["success"])
}

func TestLoginSessionCookie(t *testing.T) {
	client, base, _ := setup(t)

	// anonymous
	_, status := getJSON(t, client, base+"/api/status")
	require.Equal(t, false, status["loggedIn"])

	login(t, client, base)

	_, status = getJSON(t, client, base+"/api/status")
	require.Equal(t, true, status["loggedIn"])
	require.Equal(t, "u-9", status["userId"])
	require.Equal(t, "tok-1", status["token"])

	res, body := postJSON(t, client, base+"/api/logout", `{}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, true, body["success"])

	_, status = getJSON(t, client, base+"/api/status")
	require.Equal(t, false, status["loggedIn"])
}

func TestSessionCookieUsableOverPlainHttp(t *testing.T) {
	_, base, _ := setup(t)

	// no cookie jar: inspect the raw Set-Cookie attributes
	res, err := http.Post(base+"/api/login", "application/json",
		bytes.NewBufferString(`{"loginName":"13800000000","loginPwd":"123456"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var sessionCookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "haigrab" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "login must issue the session cookie")
	// an http:// client drops Secure cookies, and SameSite=None
	// without Secure is rejected outright
	require.False(t, sessionCookie.Secure)
	require.NotEqual(t, http.SameSiteNoneMode, sessionCookie.SameSite)
	require.True(t, sessionCookie.HttpOnly)
}

func TestLoginValidation(t *testing.T) {
	client, base, _ := setup(t)

	res, body := postJSON(t, client, base+"/api/login", `{"loginName":"","loginPwd":""}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, false, body["success"])
}

func TestOrderListRequiresLogin(t *testing.T) {
	client, base, _ := setup(t)

	res, body := postJSON(t, client, base+"/api/order-list", `{"pageIndex":1}`)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, false, body["success"])
}

func TestOrderList(t *testing.T) {
	client, base, _ := setup(t)
	login(t, client, base)

	res, body := postJSON(t, client, base+"/api/order-list",
		`{"categoryBrands":[{"key":"100001","value":["100067"]}],"subOrderSourceNames":"华为, 小米","pageIndex":1}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	require.Equal(t, float64(1), data["totalCount"])
	require.Len(t, data["items"], 1)
}

func TestGrabOrderOutcomes(t *testing.T) {
	client, base, state := setup(t)
	login(t, client, base)

	res, body := postJSON(t, client, base+"/api/grab-order", `{"recordId":"123","orderId":456}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, true, body["success"])

	// contention renders as an ordinary negative result, still 200
	state.grabBody = `{"code":1,"data":{"subCode":200,"subMessage":"已被抢"}}`
	res, body = postJSON(t, client, base+"/api/grab-order", `{"recordId":123,"orderId":456}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, false, body["success"])
	require.Equal(t, "已被抢", body["message"])

	res, body = postJSON(t, client, base+"/api/grab-order", `{"recordId":null,"orderId":456}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, false, body["success"])
}

func TestQuoteForwardsLiteralPrice(t *testing.T) {
	client, base, state := setup(t)
	login(t, client, base)

	// the UI may send the amount as a JSON number; the vendor must
	// still receive a string
	res, body := postJSON(t, client, base+"/api/quote",
		`{"recordId":123,"orderId":456,"actualPrice":199.5,"remark":"成色良好"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, true, body["success"])
	require.Contains(t, string(state.lastRawQuote), `"actualPrice":"199.5"`)

	res, body = postJSON(t, client, base+"/api/quote", `{"recordId":123,"orderId":456}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, false, body["success"])
}

func TestBrandsValidation(t *testing.T) {
	client, base, _ := setup(t)

	res, body := getJSON(t, client, base+"/api/brands")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, false, body["success"])
}

func TestHistoryEndpoint(t *testing.T) {
	client, base, _ := setup(t)
	login(t, client, base)

	_, _ = postJSON(t, client, base+"/api/grab-order", `{"recordId":123,"orderId":456}`)

	res, body := getJSON(t, client, base+"/api/history?limit=10")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	require.Len(t, data["grabAttempts"], 1)
}
