package haihuishou

import "context"

const (
	loginClient = "001001002"
	loginType   = 1
)

// LoginInfo is the session material issued by a successful login,
// plus the raw vendor fields for display.
type LoginInfo struct {
	Token  string
	UserID string
	Raw    map[string]any
}

// Login obtains a token and user info. The password may be plaintext
// (hashed before transmission) or an already-hashed digest.
func (c *Client) Login(ctx context.Context, loginName, loginPwd string) (LoginInfo, error) {
	payload := map[string]any{
		"client":     loginClient,
		"deviceName": "",
		"loginName":  loginName,
		"loginPwd":   HashPassword(loginPwd),
		"loginType":  loginType,
	}

	endpoint := c.baseHsd + "/api/login/checklogin"
	body, err := c.post(ctx, endpoint, payload, false)
	if err != nil {
		return LoginInfo{}, err
	}
	if err := checkEnvelope(endpoint, body); err != nil {
		return LoginInfo{}, err
	}

	obj, _ := body.(map[string]any)
	code, hasCode := jsonInt(obj, "code")
	success, _ := obj["success"].(bool)
	if !hasCode || code != 1 || !success {
		return LoginInfo{}, &RemoteRejection{
			Endpoint: endpoint,
			Code:     code,
			Message:  jsonString(obj, "message"),
		}
	}

	info, _ := obj["data"].(map[string]any)
	login := LoginInfo{
		Token:  jsonString(info, "token"),
		UserID: jsonString(info, "userId"),
		Raw:    info,
	}
	c.token = login.Token
	c.userId = login.UserID
	return login, nil
}

// QueryUserInfo fetches the signed-in operator's profile (name, phone,
// balance). Requires the token header and the body userId.
func (c *Client) QueryUserInfo(ctx context.Context) (map[string]any, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	endpoint := c.baseHsd + "/api/user/queryuserinfo"
	body, err := c.post(ctx, endpoint, map[string]any{"userId": c.userId}, true)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(endpoint, body); err != nil {
		return nil, err
	}
	return jsonObject(body, "data"), nil
}
