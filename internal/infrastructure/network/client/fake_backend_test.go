package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

type tokenMeta struct {
	symbol   string
	decimals uint8
}

// fakeBackend is an in-memory chain good enough for the client's RPC usage.
type fakeBackend struct {
	mu sync.Mutex

	native     map[common.Address]*big.Int
	balances   map[common.Address]map[common.Address]*big.Int // token -> holder
	allowances map[common.Address]map[common.Address]*big.Int // token -> spender
	meta       map[common.Address]tokenMeta

	gasPrices    []*big.Int // consumed front to back, the last one sticks
	history      *ethereum.FeeHistory
	historyCalls int
	estimate     uint64
	l1Fee        *big.Int
	nonce        uint64

	sent          []*types.Transaction
	receiptStatus uint64
	receiptMisses int
	sendErr       error
	calls         map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		native:        map[common.Address]*big.Int{},
		balances:      map[common.Address]map[common.Address]*big.Int{},
		allowances:    map[common.Address]map[common.Address]*big.Int{},
		meta:          map[common.Address]tokenMeta{},
		gasPrices:     []*big.Int{big.NewInt(100_000_000_000)},
		history:       &ethereum.FeeHistory{BaseFee: []*big.Int{big.NewInt(0), big.NewInt(0)}},
		estimate:      21000,
		l1Fee:         big.NewInt(0),
		receiptStatus: types.ReceiptStatusSuccessful,
		calls:         map[string]int{},
	}
}

func (f *fakeBackend) setTokenBalance(token, holder common.Address, v *big.Int) {
	if f.balances[token] == nil {
		f.balances[token] = map[common.Address]*big.Int{}
	}
	f.balances[token][holder] = v
}

func (f *fakeBackend) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeBackend) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["balance"]++
	if v, ok := f.native[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["call"]++
	return f.callLocked(msg)
}

func (f *fakeBackend) callLocked(msg ethereum.CallMsg) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("bad call")
	}
	if *msg.To == gasPriceOracleAddress {
		return parsedGasOracleABI.Methods["getL1Fee"].Outputs.Pack(f.l1Fee)
	}
	method, err := parsedERC20ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	token := *msg.To
	switch method.Name {
	case "balanceOf":
		v := f.balances[token][args[0].(common.Address)]
		if v == nil {
			v = new(big.Int)
		}
		return method.Outputs.Pack(v)
	case "allowance":
		v := f.allowances[token][args[1].(common.Address)]
		if v == nil {
			v = new(big.Int)
		}
		return method.Outputs.Pack(v)
	case "decimals":
		m, ok := f.meta[token]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return method.Outputs.Pack(m.decimals)
	case "symbol":
		return method.Outputs.Pack(f.meta[token].symbol)
	}
	return nil, fmt.Errorf("unexpected call %s", method.Name)
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["estimate"]++
	return f.estimate, nil
}

func (f *fakeBackend) FeeHistory(context.Context, uint64, *big.Int, []float64) (*ethereum.FeeHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	return f.history, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["gasPrice"]++
	p := f.gasPrices[0]
	if len(f.gasPrices) > 1 {
		f.gasPrices = f.gasPrices[1:]
	}
	return new(big.Int).Set(p), nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *fakeBackend) NonceAt(context.Context, common.Address, *big.Int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.nonce++
	approve := parsedERC20ABI.Methods["approve"]
	if data := tx.Data(); len(data) >= 4 && bytes.Equal(data[:4], approve.ID) {
		args, err := approve.Inputs.Unpack(data[4:])
		if err != nil {
			return err
		}
		token := *tx.To()
		if f.allowances[token] == nil {
			f.allowances[token] = map[common.Address]*big.Int{}
		}
		f.allowances[token][args[0].(common.Address)] = args[1].(*big.Int)
	}
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiptMisses > 0 {
		f.receiptMisses--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: f.receiptStatus, TxHash: hash}, nil
}

func (f *fakeBackend) BatchCallContext(_ context.Context, batch []rpc.BatchElem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["batch"]++
	for i := range batch {
		elem := &batch[i]
		switch elem.Method {
		case "eth_getBalance":
			holder := elem.Args[0].(common.Address)
			v := f.native[holder]
			if v == nil {
				v = new(big.Int)
			}
			*elem.Result.(*hexutil.Big) = hexutil.Big(*v)
		case "eth_call":
			args := elem.Args[0].(map[string]interface{})
			to := args["to"].(common.Address)
			out, err := f.callLocked(ethereum.CallMsg{To: &to, Data: args["data"].(hexutil.Bytes)})
			if err != nil {
				elem.Error = err
				continue
			}
			*elem.Result.(*hexutil.Bytes) = out
		default:
			elem.Error = fmt.Errorf("unsupported %s", elem.Method)
		}
	}
	return nil
}

func (f *fakeBackend) Close() {}
