package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"airdrop_farmer/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const okxBaseURL = "https://www.okx.com"

// Типы счетов OKX для переводов.
const (
	okxAccountFunding = "6"
	okxAccountTrading = "18"

	okxTransferWithinAccount = "0"
	okxTransferSubToMain     = "2"
)

// Credentials are the API keys of one exchange account. Binance ignores
// Passphrase.
type Credentials struct {
	APIKey     string
	SecretKey  string
	Passphrase string
}

// OKX withdraws from the main OKX account and moves balances between
// sub-accounts and the funding account.
type OKX struct {
	*restClient
	creds Credentials
}

func NewOKX(creds Credentials, proxy string, logger *zap.Logger, opts ...Option) (*OKX, error) {
	rc, err := newRestClient(entity.ExchangeOKX, okxBaseURL, proxy, logger, opts...)
	if err != nil {
		return nil, err
	}
	return &OKX{restClient: rc, creds: creds}, nil
}

type okxEnvelope struct {
	Code string              `json:"code"`
	Msg  string              `json:"msg"`
	Data jsoniter.RawMessage `json:"data"`
}

// AssetBalance is one currency balance reported by OKX.
type AssetBalance struct {
	Currency  string          `json:"ccy"`
	Available decimal.Decimal `json:"availBal"`
}

// sign: base64(HMAC-SHA256(timestamp + METHOD + path + body)).
func (o *OKX) sign(timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(o.creds.SecretKey))
	mac.Write([]byte(timestamp + strings.ToUpper(method) + path))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// request sends a signed call and decodes envelope.data into out.
func (o *OKX) request(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to encode okx request: %w", err)
		}
	}
	timestamp := o.now().UTC().Format("2006-01-02T15:04:05.000Z")

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(o.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set("OK-ACCESS-KEY", o.creds.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", o.sign(timestamp, method, path, body))
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", o.creds.Passphrase)
	req.Header.Set("x-simulated-trading", "0")
	if body != nil {
		req.SetBody(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	if err := o.do(ctx, req, resp); err != nil {
		return err
	}

	raw := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("okx %s %s failed with status %d: %s", method, path, resp.StatusCode(), raw)
	}
	var env okxEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode okx response %s: %w", path, err)
	}
	if env.Code != "0" {
		return fmt.Errorf("okx %s returned code %s: %s", path, env.Code, env.Msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode okx data %s: %w", path, err)
		}
	}
	return nil
}

// ListChains returns the network part of every "<CCY>-<Network>" entry of
// /asset/currencies.
func (o *OKX) ListChains(ctx context.Context) ([]string, error) {
	return o.cachedChains(ctx, o.loadChains)
}

func (o *OKX) loadChains(ctx context.Context) ([]string, error) {
	var currencies []struct {
		Chain string `json:"chain"`
	}
	if err := o.request(ctx, fasthttp.MethodGet, "/api/v5/asset/currencies", nil, &currencies); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	chains := make([]string, 0, len(currencies))
	for _, c := range currencies {
		_, network, ok := strings.Cut(c.Chain, "-")
		if !ok || network == "" {
			continue
		}
		if _, dup := seen[network]; dup {
			continue
		}
		seen[network] = struct{}{}
		chains = append(chains, network)
	}
	return chains, nil
}

func (o *OKX) CheckChain(ctx context.Context, chain entity.Chain) (bool, error) {
	return o.checkChain(ctx, chain, o.loadChains)
}

// Withdraw submits an on-chain withdrawal (dest 4) and waits for state 2.
func (o *OKX) Withdraw(ctx context.Context, req entity.WithdrawRequest) error {
	return o.withdraw(ctx, req, func(ctx context.Context) (string, error) {
		body := map[string]string{
			"ccy":    req.Token,
			"amt":    req.Amount.String(),
			"dest":   "4",
			"toAddr": req.Address,
			"chain":  req.Token + "-" + req.Chain,
		}
		var data []struct {
			WithdrawID string `json:"wdId"`
		}
		if err := o.request(ctx, fasthttp.MethodPost, "/api/v5/asset/withdrawal", body, &data); err != nil {
			return "", err
		}
		if len(data) == 0 || data[0].WithdrawID == "" {
			return "", fmt.Errorf("okx withdrawal returned no id")
		}
		return data[0].WithdrawID, nil
	}, o.waitWithdrawalState)
}

func (o *OKX) waitWithdrawalState(ctx context.Context, id string) error {
	path := "/api/v5/asset/withdrawal-history?wdId=" + url.QueryEscape(id)
	return o.waitWithdrawal(ctx, id, func(ctx context.Context) (withdrawalState, string, error) {
		var data []struct {
			State string `json:"state"`
		}
		if err := o.request(ctx, fasthttp.MethodGet, path, nil, &data); err != nil {
			return withdrawalPending, "", err
		}
		if len(data) == 0 {
			return withdrawalPending, "unknown", nil
		}
		switch data[0].State {
		case "2":
			return withdrawalSucceeded, "2 (success)", nil
		case "-1":
			return withdrawalFailed, "-1 (failed)", nil
		case "-2":
			return withdrawalFailed, "-2 (rejected)", nil
		}
		return withdrawalPending, data[0].State, nil
	})
}

// SubAccounts lists sub-account names.
func (o *OKX) SubAccounts(ctx context.Context) ([]string, error) {
	var data []struct {
		Name string `json:"subAcct"`
	}
	if err := o.request(ctx, fasthttp.MethodGet, "/api/v5/users/subaccount/list", nil, &data); err != nil {
		return nil, fmt.Errorf("failed to list okx sub-accounts: %w", err)
	}
	names := make([]string, 0, len(data))
	for _, d := range data {
		if d.Name != "" {
			names = append(names, d.Name)
		}
	}
	return names, nil
}

func (o *OKX) SubAccountTradingBalances(ctx context.Context, sub string) ([]AssetBalance, error) {
	var data []struct {
		Details []AssetBalance `json:"details"`
	}
	path := "/api/v5/account/subaccount/balances?subAcct=" + url.QueryEscape(sub)
	if err := o.request(ctx, fasthttp.MethodGet, path, nil, &data); err != nil {
		return nil, fmt.Errorf("failed to get trading balance of sub-account %s: %w", sub, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data[0].Details, nil
}

func (o *OKX) SubAccountFundingBalances(ctx context.Context, sub string) ([]AssetBalance, error) {
	var data []AssetBalance
	path := "/api/v5/asset/subaccount/balances?subAcct=" + url.QueryEscape(sub)
	if err := o.request(ctx, fasthttp.MethodGet, path, nil, &data); err != nil {
		return nil, fmt.Errorf("failed to get funding balance of sub-account %s: %w", sub, err)
	}
	return data, nil
}

// FundingBalances returns the main account funding balances.
func (o *OKX) FundingBalances(ctx context.Context) ([]AssetBalance, error) {
	var data []AssetBalance
	if err := o.request(ctx, fasthttp.MethodGet, "/api/v5/asset/balances", nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// TradingBalances returns the main account trading balances.
func (o *OKX) TradingBalances(ctx context.Context) ([]AssetBalance, error) {
	var data []struct {
		Details []AssetBalance `json:"details"`
	}
	if err := o.request(ctx, fasthttp.MethodGet, "/api/v5/account/balance", nil, &data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data[0].Details, nil
}

func (o *OKX) transfer(ctx context.Context, body map[string]string) error {
	return o.request(ctx, fasthttp.MethodPost, "/api/v5/asset/transfer", body, nil)
}

// TransferSubToMain moves every positive available balance of every
// sub-account (trading first, then funding) to the main funding account.
func (o *OKX) TransferSubToMain(ctx context.Context) error {
	subs, err := o.SubAccounts(ctx)
	if err != nil {
		return err
	}
	sources := []struct {
		account string
		fetch   func(context.Context, string) ([]AssetBalance, error)
	}{
		{okxAccountTrading, o.SubAccountTradingBalances},
		{okxAccountFunding, o.SubAccountFundingBalances},
	}
	for _, src := range sources {
		for _, sub := range subs {
			balances, err := src.fetch(ctx, sub)
			if err != nil {
				return err
			}
			for _, b := range balances {
				if !b.Available.IsPositive() {
					continue
				}
				if err := o.transfer(ctx, map[string]string{
					"type":    okxTransferSubToMain,
					"ccy":     b.Currency,
					"amt":     b.Available.String(),
					"from":    src.account,
					"to":      okxAccountFunding,
					"subAcct": sub,
				}); err != nil {
					return fmt.Errorf("failed to transfer %s from %s: %w", b.Currency, sub, err)
				}
				o.logger.Info("Перевели с субаккаунта на основной счёт",
					zap.String("sub", sub), zap.String("ccy", b.Currency), zap.String("amount", b.Available.String()))
			}
		}
	}
	return nil
}

// TransferTradingToFunding moves every positive trading balance to funding.
func (o *OKX) TransferTradingToFunding(ctx context.Context) error {
	balances, err := o.TradingBalances(ctx)
	if err != nil {
		return err
	}
	for _, b := range balances {
		if !b.Available.IsPositive() {
			continue
		}
		if err := o.transfer(ctx, map[string]string{
			"type": okxTransferWithinAccount,
			"ccy":  b.Currency,
			"amt":  b.Available.String(),
			"from": okxAccountTrading,
			"to":   okxAccountFunding,
		}); err != nil {
			return fmt.Errorf("failed to transfer %s to funding: %w", b.Currency, err)
		}
		o.logger.Info("Перевели с Trading на Funding", zap.String("ccy", b.Currency), zap.String("amount", b.Available.String()))
	}
	return nil
}
