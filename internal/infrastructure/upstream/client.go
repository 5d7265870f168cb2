// Package upstream wraps the third-party merchant-admin API behind the
// ports.UpstreamClient interface. All knowledge of its endpoints, headers,
// and inconsistent response shapes lives here.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/storewatch/storewatch/internal/api/metrics"
	"github.com/storewatch/storewatch/internal/core/ports"
)

const (
	loginPath    = "/adminapi/yudian"
	productsPath = "/adminapi/product/product"
	restockPath  = "/adminapi/product/batchsend"
	salesPath    = "/adminapi/home/header"

	// The upstream's acceptance shape is inconsistent across versions: a
	// restock may be confirmed by status, by code, or only by this message.
	restockSuccessMessage = "执行成功"
	loginSuccessMessage   = "success"

	soldOutListingType = "4"
	catalogPageLimit   = "15"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.5845.97 Safari/537.36"
)

// Config carries the upstream connection settings.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	LoginKey       string
}

// Client implements ports.UpstreamClient over HTTP. Every request is bounded
// by the configured timeout.
type Client struct {
	http     *http.Client
	baseURL  string
	loginKey string
	log      zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  cfg.BaseURL,
		loginKey: cfg.LoginKey,
		log:      log,
	}
}

// ── Login ─────────────────────────────────────────────────────────────────────

type loginRequest struct {
	Account             string `json:"account"`
	Password            string `json:"pwd"`
	Key                 string `json:"key"`
	CaptchaType         string `json:"captchaType"`
	CaptchaVerification string `json:"captchaVerification"`
	SMSCode             string `json:"smscode"`
	SMSToken            string `json:"smstoken"`
	XYPhone             string `json:"xyphone"`
	XYPassword          string `json:"xypwd"`
	Status              int    `json:"status"`
	PCStatus            int    `json:"pcstatus"`
}

type loginUserInfo struct {
	RealName string `json:"real_name"`
}

type loginData struct {
	Token    string         `json:"token"`
	RealName string         `json:"real_name"`
	UserInfo *loginUserInfo `json:"user_info"`
}

type loginEnvelope struct {
	Msg      string         `json:"msg"`
	RealName string         `json:"real_name"`
	UserInfo *loginUserInfo `json:"user_info"`
	Data     *loginData     `json:"data"`
}

func (c *Client) Login(ctx context.Context, login, password string) (ports.LoginResult, error) {
	body := loginRequest{
		Account:     login,
		Password:    password,
		Key:         c.loginKey,
		CaptchaType: "blockPuzzle",
	}

	var env loginEnvelope
	if err := c.do(ctx, http.MethodPost, loginPath, nil, "", body, &env, "login"); err != nil {
		return ports.LoginResult{}, err
	}

	res := ports.LoginResult{
		Success:     env.Msg == loginSuccessMessage,
		Message:     env.Msg,
		DisplayName: displayName(env),
	}
	if env.Data != nil {
		res.Token = env.Data.Token
	}
	return res, nil
}

// displayName walks the four locations the upstream has been observed to put
// the operator's name in, in historical order.
func displayName(env loginEnvelope) string {
	switch {
	case env.RealName != "":
		return env.RealName
	case env.Data != nil && env.Data.RealName != "":
		return env.Data.RealName
	case env.UserInfo != nil && env.UserInfo.RealName != "":
		return env.UserInfo.RealName
	case env.Data != nil && env.Data.UserInfo != nil:
		return env.Data.UserInfo.RealName
	}
	return ""
}

// ── Sellout check ─────────────────────────────────────────────────────────────

type productListEnvelope struct {
	Data struct {
		List []struct {
			GoodsID any `json:"goods_id"`
		} `json:"list"`
	} `json:"data"`
}

func (c *Client) FirstSoldOut(ctx context.Context, token string) (string, error) {
	query := url.Values{
		"page":       {"1"},
		"limit":      {catalogPageLimit},
		"cate_id":    {""},
		"type":       {soldOutListingType},
		"store_name": {""},
		"name":       {""},
	}

	var env productListEnvelope
	if err := c.do(ctx, http.MethodGet, productsPath, query, token, nil, &env, "products"); err != nil {
		return "", err
	}
	if len(env.Data.List) == 0 {
		return "", nil
	}
	return idString(env.Data.List[0].GoodsID), nil
}

// ── Restock ───────────────────────────────────────────────────────────────────

type restockRequest struct {
	GoodsID  string   `json:"goodsId"`
	UID      string   `json:"uid"`
	IDs      []string `json:"ids"`
	BatchKey int      `json:"batch_key"`
}

type restockEnvelope struct {
	Status int    `json:"status"`
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
}

func (c *Client) SubmitRestock(ctx context.Context, token, goodsID string) (ports.RestockResult, error) {
	body := restockRequest{
		IDs:      []string{goodsID},
		BatchKey: 1,
	}

	var env restockEnvelope
	if err := c.do(ctx, http.MethodPost, restockPath, nil, token, body, &env, "restock"); err != nil {
		return ports.RestockResult{}, err
	}

	// All three acceptance signals must be checked; any one confirms.
	accepted := env.Status == 200 || env.Code == 200 || env.Msg == restockSuccessMessage
	return ports.RestockResult{Accepted: accepted, Message: env.Msg}, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

type salesEnvelope struct {
	Data struct {
		Info struct {
			Info []struct {
				Today any `json:"today"`
			} `json:"info"`
		} `json:"info"`
	} `json:"data"`
}

// FetchSales reads today's order count and amount from the two fixed
// positional slots of the header payload. A missing or short list is a
// non-success result with zero values, not an error.
func (c *Client) FetchSales(ctx context.Context, token string) (ports.SalesResult, error) {
	var env salesEnvelope
	if err := c.do(ctx, http.MethodGet, salesPath, nil, token, nil, &env, "sales"); err != nil {
		return ports.SalesResult{}, err
	}

	figures := env.Data.Info.Info
	if len(figures) < 2 {
		return ports.SalesResult{}, nil
	}

	return ports.SalesResult{
		Success:     true,
		TodayOrders: asInt(figures[0].Today),
		TodayAmount: asFloat(figures[1].Today),
	}, nil
}

// ── Transport ─────────────────────────────────────────────────────────────────

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out any, endpoint string) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("upstream %s: encode request: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("upstream %s: build request: %w", endpoint, err)
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}
	if token != "" {
		// The upstream expects this misspelled header plus session cookies.
		req.Header.Set("Authori-zation", "Bearer "+token)
		req.Header.Set("Cookie", sessionCookie(token, c.log))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("upstream %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upstream %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upstream %s: decode response: %w", endpoint, err)
	}
	return nil
}

func sessionCookie(token string, log zerolog.Logger) string {
	uid := userIDFromToken(token, log)
	return fmt.Sprintf("uuid=%s; token=%s; expires_time=%d", uid, token, time.Now().Unix())
}

// ── Loose value coercion ──────────────────────────────────────────────────────
// The upstream emits numbers sometimes as JSON numbers, sometimes as strings.

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	}
	return ""
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}
