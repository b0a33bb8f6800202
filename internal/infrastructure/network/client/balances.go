package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"airdrop_farmer/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

func (c *OnchainClient) nativeToken() entity.Token {
	return entity.NativeToken(c.chain)
}

func (c *OnchainClient) owner(address *common.Address) common.Address {
	if address != nil && *address != (common.Address{}) {
		return *address
	}
	return c.account.Address()
}

// GetBalance returns the balance of token (nil = native) held by address
// (nil = the account wallet), scaled to the token decimals.
func (c *OnchainClient) GetBalance(ctx context.Context, token *entity.Token, address *common.Address) (entity.Amount, error) {
	holder := c.owner(address)
	if token == nil || token.IsNative() {
		wei, err := c.nativeBalance(ctx, holder)
		if err != nil {
			return entity.Amount{}, err
		}
		return entity.AmountFromWei(wei, entity.NativeDecimals), nil
	}

	out, err := c.callERC20(ctx, token.Address, "balanceOf", holder)
	if err != nil {
		return entity.Amount{}, err
	}
	wei, ok := out[0].(*big.Int)
	if !ok {
		return entity.Amount{}, fmt.Errorf("balanceOf %s returned %T", token.Symbol, out[0])
	}
	return entity.AmountFromWei(wei, token.Decimals), nil
}

func (c *OnchainClient) nativeBalance(ctx context.Context, holder common.Address) (*big.Int, error) {
	var wei *big.Int
	err := c.call(ctx, "eth_getBalance", func(ctx context.Context) error {
		var err error
		wei, err = c.backend.BalanceAt(ctx, holder, nil)
		return err
	})
	return wei, err
}

// callERC20 packs method, runs eth_call against contract and unpacks the outputs.
func (c *OnchainClient) callERC20(ctx context.Context, contract common.Address, method string, args ...any) ([]any, error) {
	data, err := parsedERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	var raw []byte
	err = c.call(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		raw, err = c.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	out, err := parsedERC20ABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s from %s: %w", method, contract.Hex(), err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s on %s returned no data", method, contract.Hex())
	}
	return out, nil
}

// TokenParams resolves a token by contract address: the native pseudo-address
// maps to the chain coin, known tokens come from the registry, anything else
// is read from the chain (symbol, decimals) and registered.
func (c *OnchainClient) TokenParams(ctx context.Context, address string) (entity.Token, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return entity.Token{}, fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
	}
	addr := common.HexToAddress(address)
	if entity.IsNativeAddress(addr) {
		return c.nativeToken(), nil
	}
	if c.tokens != nil {
		if t, err := c.tokens.ByChainAndAddress(c.chain, addr.Hex()); err == nil {
			return t, nil
		}
	}

	decOut, err := c.callERC20(ctx, addr, "decimals")
	if err != nil {
		return entity.Token{}, err
	}
	decimals, ok := decOut[0].(uint8)
	if !ok {
		return entity.Token{}, fmt.Errorf("decimals of %s returned %T", addr.Hex(), decOut[0])
	}
	symOut, err := c.callERC20(ctx, addr, "symbol")
	if err != nil {
		return entity.Token{}, err
	}
	symbol, _ := symOut[0].(string)

	// decimals 0 is legitimate here, so no NewToken defaults
	token := entity.Token{
		Symbol:   symbol,
		Address:  addr,
		Chain:    c.chain,
		Decimals: decimals,
		Type:     entity.TokenTypeERC20,
	}
	if c.tokens != nil {
		token = c.tokens.Register(token)
	}
	c.logger.Debug("Token discovered on chain", zap.String("symbol", token.Symbol), zap.String("address", addr.Hex()), zap.Uint8("decimals", decimals))
	return token, nil
}

// GetBalances fetches native and token balances of address in one JSON-RPC
// batch. Per-token failures are reported in BalanceResult.Error.
func (c *OnchainClient) GetBalances(ctx context.Context, tokens []entity.Token, address common.Address) ([]entity.BalanceResult, error) {
	if len(tokens) == 0 {
		return []entity.BalanceResult{}, nil
	}
	holder := c.owner(&address)

	batch := make([]rpc.BatchElem, len(tokens))
	results := make([]entity.BalanceResult, len(tokens))
	for i, tok := range tokens {
		results[i] = entity.BalanceResult{Token: tok, Balance: tok.Zero()}
		if tok.IsNative() {
			batch[i] = rpc.BatchElem{
				Method: "eth_getBalance",
				Args:   []interface{}{holder, "latest"},
				Result: new(hexutil.Big),
			}
			continue
		}
		data, err := parsedERC20ABI.Pack("balanceOf", holder)
		if err != nil {
			return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
		}
		batch[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{map[string]interface{}{
				"to":   tok.Address,
				"data": hexutil.Bytes(data),
			}, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	if err := c.call(ctx, "batch", func(ctx context.Context) error {
		return c.backend.BatchCallContext(ctx, batch)
	}); err != nil {
		return results, err
	}

	for i, elem := range batch {
		tok := tokens[i]
		if elem.Error != nil {
			results[i].Error = fmt.Errorf("failed to fetch %s (%s): %w", tok.Symbol, tok.Address.Hex(), elem.Error)
			continue
		}
		switch res := elem.Result.(type) {
		case *hexutil.Big:
			results[i].Balance = entity.AmountFromWei(res.ToInt(), tok.Decimals)
		case *hexutil.Bytes:
			if len(*res) == 0 {
				continue
			}
			out, err := parsedERC20ABI.Unpack("balanceOf", *res)
			if err != nil || len(out) == 0 {
				results[i].Error = fmt.Errorf("failed to unpack balanceOf for %s: %v, raw %s", tok.Symbol, err, hexutil.Encode(*res))
				continue
			}
			wei, ok := out[0].(*big.Int)
			if !ok {
				results[i].Error = fmt.Errorf("balanceOf for %s returned %T", tok.Symbol, out[0])
				continue
			}
			results[i].Balance = entity.AmountFromWei(wei, tok.Decimals)
		}
	}
	return results, nil
}
