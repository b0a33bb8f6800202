package client

import (
	"context"
	"fmt"
	"math/big"

	"airdrop_farmer/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
)

// ReadContract calls a view method of contract using its ABI file.
func (c *OnchainClient) ReadContract(ctx context.Context, contract *entity.Contract, method string, args ...any) ([]any, error) {
	parsed, err := contract.ABI()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s.%s: %w", contract.ABIName, method, err)
	}
	to := contract.Address
	var raw []byte
	err = c.call(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		raw, err = c.backend.CallContract(ctx, ethereum.CallMsg{From: c.account.Address(), To: &to, Data: data}, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s.%s: %w", contract.ABIName, method, err)
	}
	return out, nil
}

// ExecuteContract builds, estimates, signs and sends a call to contract.
func (c *OnchainClient) ExecuteContract(ctx context.Context, contract *entity.Contract, value *big.Int, method string, args ...any) (string, error) {
	parsed, err := contract.ABI()
	if err != nil {
		return "", err
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s.%s: %w", contract.ABIName, method, err)
	}
	to := contract.Address
	draft, err := c.BuildTransaction(ctx, value, &to)
	if err != nil {
		return "", err
	}
	draft.Data = data
	if draft.Gas, err = c.EstimateGasLimit(ctx, draft); err != nil {
		return "", err
	}
	hash, err := c.SignAndSend(ctx, draft)
	return hash.Hex(), err
}
