// Package push delivers aggregated sales summaries through the pushplus HTTP
// gateway.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storewatch/storewatch/internal/core/domain"
)

const defaultTimeout = 15 * time.Second

// Config carries the static pushplus delivery settings.
type Config struct {
	Endpoint string
	Token    string
	Topic    string
	Template string
}

// Notifier implements ports.Notifier against pushplus.
type Notifier struct {
	http *http.Client
	cfg  Config
	log  zerolog.Logger
}

func NewNotifier(cfg Config, log zerolog.Logger) *Notifier {
	return &Notifier{
		http: &http.Client{Timeout: defaultTimeout},
		cfg:  cfg,
		log:  log,
	}
}

type pushplusReply struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// PushSummary renders the summary as HTML and submits it. Any reply code
// other than 200 is a delivery failure.
func (n *Notifier) PushSummary(ctx context.Context, s domain.SalesSummary) error {
	query := url.Values{
		"token":    {n.cfg.Token},
		"title":    {title(s)},
		"content":  {renderHTML(s)},
		"template": {n.cfg.Template},
		"topic":    {n.cfg.Topic},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.cfg.Endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("push: build request: %w", err)
	}

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	defer resp.Body.Close()

	var reply pushplusReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("push: decode reply: %w", err)
	}
	if reply.Code != 200 {
		return fmt.Errorf("push: gateway rejected delivery: code=%d msg=%q", reply.Code, reply.Msg)
	}

	n.log.Info().Int("accounts", len(s.Rows)).Msg("sales summary delivered")
	return nil
}

func title(s domain.SalesSummary) string {
	return fmt.Sprintf("📊 今日销售数据 - 总计%d笔/¥%.2f", s.TotalOrders, s.TotalAmount)
}

// renderHTML builds the same operator-facing layout the dashboard push has
// always used: grand totals first, then a block per account.
func renderHTML(s domain.SalesSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h2>📊 今日销售数据汇总</h2>\n")
	fmt.Fprintf(&b, "<p><strong>统计时间：</strong>%s</p>\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))
	b.WriteString(`<div style="background-color: #f0f8ff; padding: 10px; border-radius: 5px; margin: 10px 0;">` + "\n")
	b.WriteString("<h3>📈 总计</h3>\n")
	fmt.Fprintf(&b, "<p><strong>总订单数：</strong><span style=\"color: #ff6b35; font-size: 18px;\">%d</span> 笔</p>\n", s.TotalOrders)
	fmt.Fprintf(&b, "<p><strong>总销售额：</strong><span style=\"color: #ff6b35; font-size: 18px;\">¥%.2f</span></p>\n", s.TotalAmount)
	b.WriteString("</div>\n<h3>📋 各账号详情</h3>\n")

	for i, row := range s.Rows {
		name := row.DisplayName
		if name == "" {
			name = "未知"
		}
		b.WriteString(`<div style="border: 1px solid #ddd; padding: 10px; margin: 5px 0; border-radius: 5px;">` + "\n")
		fmt.Fprintf(&b, "<h4>%d. %s (%s)</h4>\n", i+1, name, row.Account)
		fmt.Fprintf(&b, "<p><strong>订单数：</strong><span style=\"color: #4caf50;\">%d</span> 笔</p>\n", row.TodayOrders)
		fmt.Fprintf(&b, "<p><strong>销售额：</strong><span style=\"color: #4caf50;\">¥%.2f</span></p>\n", row.TodayAmount)
		fmt.Fprintf(&b, "<p><strong>更新时间：</strong>%s</p>\n", row.UpdatedAt.Format("2006-01-02 15:04:05"))
		b.WriteString("</div>\n")
	}

	b.WriteString("<hr>\n")
	fmt.Fprintf(&b, "<p style=\"color: #666; font-size: 12px;\">本消息由多账号监控系统自动发送<br>系统运行正常，共监控 %d 个账号</p>\n", len(s.Rows))
	return b.String()
}
