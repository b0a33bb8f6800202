package logger

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zapcore"
)

const (
	defaultTelegramAPI = "https://api.telegram.org"
	telegramQueueSize  = 64
)

// TelegramNotifier пересылает записи лога в чат Telegram. Отправка идёт в
// отдельной горутине; при переполненной очереди алерт отбрасывается.
type TelegramNotifier struct {
	client   *fasthttp.Client
	baseURL  string
	token    string
	chatID   string
	minLevel zapcore.Level
	timeout  time.Duration

	queue     chan string
	done      chan struct{}
	closeOnce sync.Once
}

// NewTelegramNotifier returns nil when token or chat id is empty. The lowest
// level from levels is the alert threshold, ERROR when none parse.
func NewTelegramNotifier(token, chatID string, levels []string) *TelegramNotifier {
	if token == "" || chatID == "" {
		return nil
	}
	minLevel := zapcore.FatalLevel + 1
	for _, l := range levels {
		if strings.EqualFold(l, "critical") {
			l = "dpanic"
		}
		if lvl, err := zapcore.ParseLevel(strings.ToLower(l)); err == nil && lvl < minLevel {
			minLevel = lvl
		}
	}
	if minLevel > zapcore.FatalLevel {
		minLevel = zapcore.ErrorLevel
	}
	n := &TelegramNotifier{
		client:   &fasthttp.Client{Name: "airdrop_farmer"},
		baseURL:  defaultTelegramAPI,
		token:    token,
		chatID:   chatID,
		minLevel: minLevel,
		timeout:  10 * time.Second,
		queue:    make(chan string, telegramQueueSize),
		done:     make(chan struct{}),
	}
	go n.loop()
	return n
}

func (n *TelegramNotifier) loop() {
	defer close(n.done)
	for text := range n.queue {
		_ = n.Send(text)
	}
}

func (n *TelegramNotifier) enqueue(text string) {
	select {
	case n.queue <- text:
	default:
	}
}

// Close stops accepting alerts and waits until the queued ones are sent.
func (n *TelegramNotifier) Close() {
	if n == nil {
		return
	}
	n.closeOnce.Do(func() { close(n.queue) })
	<-n.done
}

// WithBaseURL points the notifier at another Bot API host.
func (n *TelegramNotifier) WithBaseURL(baseURL string) *TelegramNotifier {
	n.baseURL = strings.TrimRight(baseURL, "/")
	return n
}

// Send posts text to the configured chat.
func (n *TelegramNotifier) Send(text string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	q := url.Values{}
	q.Set("chat_id", n.chatID)
	q.Set("text", text)
	req.SetRequestURI(fmt.Sprintf("%s/bot%s/sendMessage?%s", n.baseURL, n.token, q.Encode()))
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := n.client.DoTimeout(req, resp, n.timeout); err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}

// Core returns a zapcore.Core that queues entries at or above the alert
// level, fields included. Tee it with the main core.
func (n *TelegramNotifier) Core() zapcore.Core {
	return &telegramCore{notifier: n}
}

type telegramCore struct {
	notifier *TelegramNotifier
	fields   []zapcore.Field
}

func (c *telegramCore) Enabled(level zapcore.Level) bool { return level >= c.notifier.minLevel }

func (c *telegramCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &telegramCore{notifier: c.notifier, fields: merged}
}

func (c *telegramCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *telegramCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	c.notifier.enqueue(formatAlert(entry, append(append([]zapcore.Field{}, c.fields...), fields...)))
	return nil
}

func (c *telegramCore) Sync() error { return nil }

// formatAlert: "время | LEVEL | сообщение | k=v ...", поля по алфавиту.
func formatAlert(entry zapcore.Entry, fields []zapcore.Field) string {
	var b strings.Builder
	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	b.WriteString(" | ")
	b.WriteString(entry.Level.CapitalString())
	b.WriteString(" | ")
	b.WriteString(entry.Message)
	if len(fields) == 0 {
		return b.String()
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString(" |")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, enc.Fields[k])
	}
	return b.String()
}
