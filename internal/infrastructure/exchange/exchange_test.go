package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"airdrop_farmer/internal/domain/entity"
	networkdefinition "airdrop_farmer/internal/infrastructure/network/definition"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "s3cr3t"

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

// apiRecorder counts requests per path and remembers bodies.
type apiRecorder struct {
	mu     sync.Mutex
	counts map[string]int
	bodies map[string][]string
}

func newRecorder() *apiRecorder {
	return &apiRecorder{counts: map[string]int{}, bodies: map[string][]string{}}
}

func (r *apiRecorder) hit(path, body string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[path]++
	r.bodies[path] = append(r.bodies[path], body)
	return r.counts[path]
}

func (r *apiRecorder) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[path]
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
	return nil
}

func testOptions(url string, sl *sleepRecorder, attempts int) []Option {
	return []Option{
		WithBaseURL(url),
		WithPolling(10*time.Second, attempts),
		WithSleeper(sl.sleep),
		WithClock(func() time.Time { return fixedNow }),
		WithRequestTimeout(5 * time.Second),
	}
}

func validRequest(chain string) entity.WithdrawRequest {
	return entity.WithdrawRequest{
		Address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Token:   "ETH",
		Amount:  decimal.RequireFromString("0.0123"),
		Chain:   chain,
	}
}

// --- OKX ---

func okxSignature(ts, method, uri, body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(ts + method + uri + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newOKXServer(t *testing.T, rec *apiRecorder, handle func(path string, n int, body string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body := string(raw)
		ts := r.Header.Get("OK-ACCESS-TIMESTAMP")
		if ts != "2024-01-02T03:04:05.006Z" ||
			r.Header.Get("OK-ACCESS-KEY") != "key" ||
			r.Header.Get("OK-ACCESS-PASSPHRASE") != "phrase" ||
			r.Header.Get("OK-ACCESS-SIGN") != okxSignature(ts, r.Method, r.URL.RequestURI(), body) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"code":"50113","msg":"Invalid Sign"}`)
			return
		}
		n := rec.hit(r.URL.Path, body)
		_, _ = io.WriteString(w, handle(r.URL.Path, n, body))
	}))
}

func newTestOKX(t *testing.T, url string, sl *sleepRecorder, attempts int) *OKX {
	t.Helper()
	okx, err := NewOKX(Credentials{APIKey: "key", SecretKey: testSecret, Passphrase: "phrase"}, "", zap.NewNop(), testOptions(url, sl, attempts)...)
	require.NoError(t, err)
	return okx
}

func okxWithdrawHandler(states ...string) func(string, int, string) string {
	return func(path string, n int, _ string) string {
		switch path {
		case "/api/v5/asset/withdrawal":
			return `{"code":"0","msg":"","data":[{"wdId":"777"}]}`
		case "/api/v5/asset/withdrawal-history":
			state := states[len(states)-1]
			if n <= len(states) {
				state = states[n-1]
			}
			return `{"code":"0","msg":"","data":[{"wdId":"777","state":"` + state + `"}]}`
		}
		return `{"code":"1","msg":"unexpected"}`
	}
}

func TestOKXWithdraw_SuccessOnThirdPoll(t *testing.T) {
	rec := newRecorder()
	srv := newOKXServer(t, rec, okxWithdrawHandler("0", "1", "2"))
	defer srv.Close()
	sl := &sleepRecorder{}
	okx := newTestOKX(t, srv.URL, sl, 30)

	require.NoError(t, okx.Withdraw(context.Background(), validRequest("Base")))

	assert.Equal(t, 1, rec.count("/api/v5/asset/withdrawal"))
	assert.Equal(t, 3, rec.count("/api/v5/asset/withdrawal-history"))
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, sl.sleeps)

	body := rec.bodies["/api/v5/asset/withdrawal"][0]
	assert.Contains(t, body, `"chain":"ETH-Base"`)
	assert.Contains(t, body, `"amt":"0.0123"`)
	assert.Contains(t, body, `"dest":"4"`)
}

func TestOKXWithdraw_FailedStates(t *testing.T) {
	for _, state := range []string{"-1", "-2"} {
		t.Run(state, func(t *testing.T) {
			rec := newRecorder()
			srv := newOKXServer(t, rec, okxWithdrawHandler("0", state))
			defer srv.Close()
			okx := newTestOKX(t, srv.URL, &sleepRecorder{}, 30)

			err := okx.Withdraw(context.Background(), validRequest("Base"))
			assert.ErrorIs(t, err, entity.ErrWithdrawalFailed)
			assert.Equal(t, 2, rec.count("/api/v5/asset/withdrawal-history"))
		})
	}
}

func TestOKXWithdraw_Timeout(t *testing.T) {
	rec := newRecorder()
	srv := newOKXServer(t, rec, okxWithdrawHandler("1"))
	defer srv.Close()
	sl := &sleepRecorder{}
	okx := newTestOKX(t, srv.URL, sl, 4)

	err := okx.Withdraw(context.Background(), validRequest("Base"))
	assert.ErrorIs(t, err, entity.ErrWithdrawalTimeout)
	assert.Equal(t, 4, rec.count("/api/v5/asset/withdrawal-history"))
	assert.Len(t, sl.sleeps, 3)
}

func TestOKXWithdraw_InvalidRequest(t *testing.T) {
	rec := newRecorder()
	srv := newOKXServer(t, rec, okxWithdrawHandler("2"))
	defer srv.Close()
	okx := newTestOKX(t, srv.URL, &sleepRecorder{}, 30)

	req := validRequest("Base")
	req.Address = ""
	err := okx.Withdraw(context.Background(), req)
	assert.ErrorIs(t, err, entity.ErrInvalidWithdrawRequest)
	assert.Zero(t, rec.count("/api/v5/asset/withdrawal"))
}

func TestOKXWithdraw_APIError(t *testing.T) {
	rec := newRecorder()
	srv := newOKXServer(t, rec, func(string, int, string) string {
		return `{"code":"58350","msg":"Insufficient balance","data":[]}`
	})
	defer srv.Close()
	okx := newTestOKX(t, srv.URL, &sleepRecorder{}, 30)

	err := okx.Withdraw(context.Background(), validRequest("Base"))
	assert.ErrorContains(t, err, "Insufficient balance")
	assert.Zero(t, rec.count("/api/v5/asset/withdrawal-history"))
}

func TestOKXCheckChain_Memoized(t *testing.T) {
	rec := newRecorder()
	srv := newOKXServer(t, rec, func(string, int, string) string {
		return `{"code":"0","msg":"","data":[
			{"ccy":"ETH","chain":"ETH-Base"},
			{"ccy":"ETH","chain":"ETH-Arbitrum One"},
			{"ccy":"USDT","chain":"USDT-Arbitrum One"},
			{"ccy":"BTC","chain":""}
		]}`
	})
	defer srv.Close()
	okx := newTestOKX(t, srv.URL, &sleepRecorder{}, 30)

	ok, err := okx.CheckChain(context.Background(), networkdefinition.Base)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = okx.CheckChain(context.Background(), networkdefinition.ArbitrumOne)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = okx.CheckChain(context.Background(), networkdefinition.Linea)
	require.NoError(t, err)
	assert.False(t, ok)

	chains, err := okx.ListChains(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Base", "Arbitrum One"}, chains)
	assert.Equal(t, 1, rec.count("/api/v5/asset/currencies"))

	ok, err = okx.CheckChain(context.Background(), entity.Chain{Name: "nowhere"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOKXCheckChain_ErrorNotMemoized(t *testing.T) {
	rec := newRecorder()
	srv := newOKXServer(t, rec, func(_ string, n int, _ string) string {
		if n == 1 {
			return `{"code":"50001","msg":"Service temporarily unavailable"}`
		}
		return `{"code":"0","data":[{"chain":"ETH-Base"}]}`
	})
	defer srv.Close()
	okx := newTestOKX(t, srv.URL, &sleepRecorder{}, 30)

	_, err := okx.CheckChain(context.Background(), networkdefinition.Base)
	assert.Error(t, err)
	ok, err := okx.CheckChain(context.Background(), networkdefinition.Base)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, rec.count("/api/v5/asset/currencies"))
}

func TestOKXTransferSubToMain(t *testing.T) {
	rec := newRecorder()
	srv := newOKXServer(t, rec, func(path string, _ int, _ string) string {
		switch path {
		case "/api/v5/users/subaccount/list":
			return `{"code":"0","data":[{"subAcct":"farm1"}]}`
		case "/api/v5/account/subaccount/balances":
			return `{"code":"0","data":[{"details":[{"ccy":"USDT","availBal":"5.5"},{"ccy":"OKB","availBal":"0"}]}]}`
		case "/api/v5/asset/subaccount/balances":
			return `{"code":"0","data":[{"ccy":"ETH","availBal":"0.1"}]}`
		case "/api/v5/asset/transfer":
			return `{"code":"0","data":[{"transId":"1"}]}`
		}
		return `{"code":"1","msg":"unexpected"}`
	})
	defer srv.Close()
	okx := newTestOKX(t, srv.URL, &sleepRecorder{}, 30)

	require.NoError(t, okx.TransferSubToMain(context.Background()))
	transfers := rec.bodies["/api/v5/asset/transfer"]
	require.Len(t, transfers, 2)
	assert.Contains(t, transfers[0], `"ccy":"USDT"`)
	assert.Contains(t, transfers[0], `"from":"18"`)
	assert.Contains(t, transfers[0], `"subAcct":"farm1"`)
	assert.Contains(t, transfers[1], `"ccy":"ETH"`)
	assert.Contains(t, transfers[1], `"from":"6"`)
	assert.Contains(t, transfers[1], `"type":"2"`)
}

func TestOKXTransferTradingToFunding(t *testing.T) {
	rec := newRecorder()
	srv := newOKXServer(t, rec, func(path string, _ int, _ string) string {
		if path == "/api/v5/account/balance" {
			return `{"code":"0","data":[{"details":[{"ccy":"USDC","availBal":"12"},{"ccy":"ETH","availBal":"0"}]}]}`
		}
		return `{"code":"0","data":[]}`
	})
	defer srv.Close()
	okx := newTestOKX(t, srv.URL, &sleepRecorder{}, 30)

	require.NoError(t, okx.TransferTradingToFunding(context.Background()))
	transfers := rec.bodies["/api/v5/asset/transfer"]
	require.Len(t, transfers, 1)
	assert.Contains(t, transfers[0], `"type":"0"`)
	assert.Contains(t, transfers[0], `"to":"6"`)
}

// --- Binance ---

func newBinanceServer(t *testing.T, rec *apiRecorder, handle func(path string, n int, query string) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.RawQuery
		if strings.HasPrefix(r.URL.Path, "/sapi/") {
			payload, sig, ok := strings.Cut(query, "&signature=")
			mac := hmac.New(sha256.New, []byte(testSecret))
			mac.Write([]byte(payload))
			if !ok || sig != hex.EncodeToString(mac.Sum(nil)) || r.Header.Get("X-MBX-APIKEY") != "key" ||
				!strings.Contains(payload, "timestamp=1704164645006") {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"code":-1022,"msg":"Signature for this request is not valid."}`)
				return
			}
		}
		n := rec.hit(r.URL.Path, query)
		status, body := handle(r.URL.Path, n, query)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}

func newTestBinance(t *testing.T, url string, sl *sleepRecorder, attempts int, secret string) *Binance {
	t.Helper()
	b, err := NewBinance(Credentials{APIKey: "key", SecretKey: secret}, "", zap.NewNop(), testOptions(url, sl, attempts)...)
	require.NoError(t, err)
	return b
}

func binanceWithdrawHandler(statuses ...string) func(string, int, string) (int, string) {
	return func(path string, n int, _ string) (int, string) {
		switch path {
		case "/sapi/v1/capital/withdraw/apply":
			return http.StatusOK, `{"id":"b-42"}`
		case "/sapi/v1/capital/withdraw/history":
			status := statuses[len(statuses)-1]
			if n <= len(statuses) {
				status = statuses[n-1]
			}
			return http.StatusOK, `[{"id":"other","status":6},{"id":"b-42","status":` + status + `}]`
		}
		return http.StatusNotFound, `{}`
	}
}

func TestBinanceWithdraw_SuccessOnThirdPoll(t *testing.T) {
	rec := newRecorder()
	srv := newBinanceServer(t, rec, binanceWithdrawHandler("4", "2", "6"))
	defer srv.Close()
	sl := &sleepRecorder{}
	b := newTestBinance(t, srv.URL, sl, 30, testSecret)

	require.NoError(t, b.Withdraw(context.Background(), validRequest("BASE")))
	assert.Equal(t, 3, rec.count("/sapi/v1/capital/withdraw/history"))
	assert.Len(t, sl.sleeps, 2)

	apply := rec.bodies["/sapi/v1/capital/withdraw/apply"][0]
	assert.Contains(t, apply, "coin=ETH")
	assert.Contains(t, apply, "network=BASE")
	assert.Contains(t, apply, "amount=0.0123")
}

func TestBinanceWithdraw_Rejected(t *testing.T) {
	rec := newRecorder()
	srv := newBinanceServer(t, rec, binanceWithdrawHandler("4", "3"))
	defer srv.Close()
	b := newTestBinance(t, srv.URL, &sleepRecorder{}, 30, testSecret)

	err := b.Withdraw(context.Background(), validRequest("BASE"))
	assert.ErrorIs(t, err, entity.ErrWithdrawalFailed)
}

func TestBinanceWithdraw_Timeout(t *testing.T) {
	rec := newRecorder()
	srv := newBinanceServer(t, rec, binanceWithdrawHandler("4"))
	defer srv.Close()
	b := newTestBinance(t, srv.URL, &sleepRecorder{}, 3, testSecret)

	err := b.Withdraw(context.Background(), validRequest("BASE"))
	assert.ErrorIs(t, err, entity.ErrWithdrawalTimeout)
	assert.Equal(t, 3, rec.count("/sapi/v1/capital/withdraw/history"))
}

func TestBinance_BadSignature(t *testing.T) {
	rec := newRecorder()
	srv := newBinanceServer(t, rec, binanceWithdrawHandler("6"))
	defer srv.Close()
	b := newTestBinance(t, srv.URL, &sleepRecorder{}, 30, "wrong")

	err := b.Withdraw(context.Background(), validRequest("BASE"))
	assert.ErrorContains(t, err, "-1022")
	assert.Zero(t, rec.count("/sapi/v1/capital/withdraw/apply"))
}

func TestBinanceCheckChain(t *testing.T) {
	rec := newRecorder()
	srv := newBinanceServer(t, rec, func(string, int, string) (int, string) {
		return http.StatusOK, `[
			{"coin":"ETH","networkList":[{"network":"ETH"},{"network":"BASE"},{"network":"ARBITRUM"}]},
			{"coin":"USDT","networkList":[{"network":"ETH"},{"network":"BSC"}]}
		]`
	})
	defer srv.Close()
	b := newTestBinance(t, srv.URL, &sleepRecorder{}, 30, testSecret)

	ok, err := b.CheckChain(context.Background(), networkdefinition.ArbitrumOne)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = b.CheckChain(context.Background(), networkdefinition.Scroll)
	require.NoError(t, err)
	assert.False(t, ok)

	chains, err := b.ListChains(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH", "BASE", "ARBITRUM", "BSC"}, chains)
	assert.Equal(t, 1, rec.count("/sapi/v1/capital/config/getall"))
}

func TestBinanceTickerPrice(t *testing.T) {
	rec := newRecorder()
	srv := newBinanceServer(t, rec, func(_ string, _ int, query string) (int, string) {
		if query != "symbol=ETHUSDT" {
			return http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`
		}
		return http.StatusOK, `{"symbol":"ETHUSDT","weightedAvgPrice":"3456.78000000"}`
	})
	defer srv.Close()
	b := newTestBinance(t, srv.URL, &sleepRecorder{}, 30, testSecret)

	price, err := b.TickerPrice(context.Background(), "eth")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("3456.78")))

	_, err = b.TickerPrice(context.Background(), "nope")
	assert.ErrorContains(t, err, "Invalid symbol")
}

// --- helpers ---

func TestNewWithdrawRequest(t *testing.T) {
	acc, err := entity.NewAccount(5, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "", "", "", "")
	require.NoError(t, err)

	req, err := NewWithdrawRequest(entity.ExchangeOKX, acc, "ETH", decimal.RequireFromString("0.5"), networkdefinition.ArbitrumOne, "")
	require.NoError(t, err)
	assert.Equal(t, acc.Address().Hex(), req.Address)
	assert.Equal(t, "Arbitrum One", req.Chain)

	req, err = NewWithdrawRequest(entity.ExchangeBinance, acc, "ETH", decimal.RequireFromString("0.5"), networkdefinition.ArbitrumOne, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", req.Address)
	assert.Equal(t, "ARBITRUM", req.Chain)

	_, err = NewWithdrawRequest(entity.ExchangeOKX, acc, "ETH", decimal.Zero, networkdefinition.ArbitrumOne, "")
	assert.ErrorIs(t, err, entity.ErrInvalidWithdrawRequest)

	_, err = NewWithdrawRequest(entity.ExchangeOKX, acc, "ETH", decimal.NewFromInt(1), entity.Chain{Name: "nowhere"}, "")
	assert.ErrorIs(t, err, entity.ErrInvalidWithdrawRequest)
}

func TestNewExchange_Proxy(t *testing.T) {
	_, err := NewOKX(Credentials{}, "bad-proxy", zap.NewNop())
	assert.ErrorIs(t, err, entity.ErrInvalidProxy)

	b, err := NewBinance(Credentials{}, "127.0.0.1:3128:user:pass", zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, b.client.Dial)
	assert.Equal(t, entity.ExchangeBinance, b.Name())
}
