package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"airdrop_farmer/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const binanceBaseURL = "https://api.binance.com"

// Статусы вывода Binance (sapi/v1/capital/withdraw/history).
const (
	binanceWithdrawCancelled = 1
	binanceWithdrawRejected  = 3
	binanceWithdrawFailure   = 5
	binanceWithdrawCompleted = 6
)

// Binance withdraws from the spot wallet and serves public ticker prices.
type Binance struct {
	*restClient
	creds Credentials
}

func NewBinance(creds Credentials, proxy string, logger *zap.Logger, opts ...Option) (*Binance, error) {
	rc, err := newRestClient(entity.ExchangeBinance, binanceBaseURL, proxy, logger, opts...)
	if err != nil {
		return nil, err
	}
	return &Binance{restClient: rc, creds: creds}, nil
}

type binanceError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// signedQuery appends timestamp and the hex HMAC-SHA256 signature of the
// resulting query string.
func (b *Binance) signedQuery(params [][2]string) string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	for _, p := range params {
		args.Add(p[0], p[1])
	}
	args.Add("timestamp", strconv.FormatInt(b.now().UnixMilli(), 10))
	payload := string(args.QueryString())

	mac := hmac.New(sha256.New, []byte(b.creds.SecretKey))
	mac.Write([]byte(payload))
	return payload + "&signature=" + hex.EncodeToString(mac.Sum(nil))
}

func (b *Binance) request(ctx context.Context, method, path, query string, signed bool, out any) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	uri := b.baseURL + path
	if query != "" {
		uri += "?" + query
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	if signed {
		req.Header.Set("X-MBX-APIKEY", b.creds.APIKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	if err := b.do(ctx, req, resp); err != nil {
		return err
	}

	raw := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		var apiErr binanceError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Msg != "" {
			return fmt.Errorf("binance %s %s failed with status %d: code %d: %s", method, path, resp.StatusCode(), apiErr.Code, apiErr.Msg)
		}
		return fmt.Errorf("binance %s %s failed with status %d: %s", method, path, resp.StatusCode(), raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode binance response %s: %w", path, err)
	}
	return nil
}

func (b *Binance) ListChains(ctx context.Context) ([]string, error) {
	return b.cachedChains(ctx, b.loadChains)
}

func (b *Binance) loadChains(ctx context.Context) ([]string, error) {
	var coins []struct {
		NetworkList []struct {
			Network string `json:"network"`
		} `json:"networkList"`
	}
	if err := b.request(ctx, fasthttp.MethodGet, "/sapi/v1/capital/config/getall", b.signedQuery(nil), true, &coins); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var chains []string
	for _, coin := range coins {
		for _, n := range coin.NetworkList {
			if n.Network == "" {
				continue
			}
			if _, dup := seen[n.Network]; dup {
				continue
			}
			seen[n.Network] = struct{}{}
			chains = append(chains, n.Network)
		}
	}
	return chains, nil
}

func (b *Binance) CheckChain(ctx context.Context, chain entity.Chain) (bool, error) {
	return b.checkChain(ctx, chain, b.loadChains)
}

// Withdraw applies for a withdrawal and waits for status 6 (completed).
func (b *Binance) Withdraw(ctx context.Context, req entity.WithdrawRequest) error {
	return b.withdraw(ctx, req, func(ctx context.Context) (string, error) {
		query := b.signedQuery([][2]string{
			{"coin", req.Token},
			{"amount", req.Amount.String()},
			{"network", req.Chain},
			{"address", req.Address},
		})
		var res struct {
			ID string `json:"id"`
		}
		if err := b.request(ctx, fasthttp.MethodPost, "/sapi/v1/capital/withdraw/apply", query, true, &res); err != nil {
			return "", err
		}
		if res.ID == "" {
			return "", fmt.Errorf("binance withdrawal returned no id")
		}
		return res.ID, nil
	}, b.waitWithdrawalStatus)
}

func (b *Binance) waitWithdrawalStatus(ctx context.Context, id string) error {
	return b.waitWithdrawal(ctx, id, func(ctx context.Context) (withdrawalState, string, error) {
		var history []struct {
			ID     string `json:"id"`
			Status int    `json:"status"`
		}
		query := b.signedQuery([][2]string{{"idList", id}})
		if err := b.request(ctx, fasthttp.MethodGet, "/sapi/v1/capital/withdraw/history", query, true, &history); err != nil {
			return withdrawalPending, "", err
		}
		for _, w := range history {
			if w.ID != id {
				continue
			}
			status := strconv.Itoa(w.Status)
			switch w.Status {
			case binanceWithdrawCompleted:
				return withdrawalSucceeded, status, nil
			case binanceWithdrawCancelled, binanceWithdrawRejected, binanceWithdrawFailure:
				return withdrawalFailed, status, nil
			}
			return withdrawalPending, status, nil
		}
		return withdrawalPending, "unknown", nil
	})
}

// TickerPrice returns the 24h weighted average price of <SYMBOL>USDT.
func (b *Binance) TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var ticker struct {
		WeightedAvgPrice decimal.Decimal `json:"weightedAvgPrice"`
	}
	query := "symbol=" + strings.ToUpper(symbol) + "USDT"
	if err := b.request(ctx, fasthttp.MethodGet, "/api/v3/ticker/24hr", query, false, &ticker); err != nil {
		return decimal.Zero, err
	}
	return ticker.WeightedAvgPrice, nil
}
