package client

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"airdrop_farmer/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Backend is the subset of eth_* JSON-RPC the on-chain client uses.
// *ethclient.Client satisfies everything except BatchCallContext.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
	Close()
}

type rpcBackend struct {
	*ethclient.Client
	raw *rpc.Client
}

func (b *rpcBackend) BatchCallContext(ctx context.Context, batch []rpc.BatchElem) error {
	return b.raw.BatchCallContext(ctx, batch)
}

// DialOptions configure the HTTP transport of one RPC connection.
type DialOptions struct {
	Proxy          *entity.Proxy
	UserAgent      string
	RequestTimeout time.Duration
}

// DialBackend connects to rpcURL, optionally through an HTTP forward proxy
// and with a fixed User-Agent header.
func DialBackend(ctx context.Context, rpcURL string, opts DialOptions) (Backend, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != nil {
		transport.Proxy = http.ProxyURL(opts.Proxy.URL())
	}
	httpClient := &http.Client{Transport: transport, Timeout: opts.RequestTimeout}

	clientOpts := []rpc.ClientOption{rpc.WithHTTPClient(httpClient)}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, rpc.WithHeader("User-Agent", opts.UserAgent))
	}

	raw, err := rpc.DialOptions(ctx, rpcURL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", entity.ErrRPCFailure, rpcURL, err)
	}
	return &rpcBackend{Client: ethclient.NewClient(raw), raw: raw}, nil
}
