package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// SignAndSend signs draft with the account key, submits it and blocks until
// the receipt is mined. A reverted receipt is an error.
func (c *OnchainClient) SignAndSend(ctx context.Context, draft entity.TxDraft) (common.Hash, error) {
	key, err := c.account.Key()
	if err != nil {
		return common.Hash{}, err
	}
	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(c.chain.ChainID))
	tx, err := types.SignTx(draft.Transaction(), signer, key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.call(ctx, "eth_sendRawTransaction", func(ctx context.Context) error {
		return c.backend.SendTransaction(ctx, tx)
	}); err != nil {
		metrics.TransactionsSent.WithLabelValues(c.chain.Name, "rejected").Inc()
		return common.Hash{}, err
	}
	c.logger.Debug("Transaction submitted", zap.String("hash", tx.Hash().Hex()), zap.Uint64("nonce", tx.Nonce()))

	receipt, err := c.waitReceipt(ctx, tx.Hash())
	if err != nil {
		metrics.TransactionsSent.WithLabelValues(c.chain.Name, "unconfirmed").Inc()
		return tx.Hash(), err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		metrics.TransactionsSent.WithLabelValues(c.chain.Name, "reverted").Inc()
		return tx.Hash(), fmt.Errorf("%w: %s on %s", entity.ErrTransactionReverted, tx.Hash().Hex(), c.chain.Name)
	}
	metrics.TransactionsSent.WithLabelValues(c.chain.Name, "success").Inc()
	return tx.Hash(), nil
}

func (c *OnchainClient) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()
	for {
		var receipt *types.Receipt
		err := c.call(ctx, "eth_getTransactionReceipt", func(ctx context.Context) error {
			var err error
			receipt, err = c.backend.TransactionReceipt(ctx, hash)
			return err
		})
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			c.logger.Debug("Receipt query failed, retrying", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: no receipt for %s: %w", entity.ErrTransactionTimeout, hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// validateNativeTransfer keeps a padded fee reserve on the wallet. When the
// requested value does not fit, it sends the balance minus the reserve;
// when nothing is left it fails with ErrInsufficientFunds.
func (c *OnchainClient) validateNativeTransfer(ctx context.Context, draft *entity.TxDraft) error {
	value := draft.Value
	if value == nil {
		value = new(big.Int)
	}
	l1Fee, err := c.L1DataFee(ctx, *draft)
	if err != nil {
		return err
	}

	// фиксированная пробная транзакция самому себе
	self := c.account.Address()
	guessGas, err := c.estimateGas(ctx, ethereum.CallMsg{From: self, To: &self, Value: big.NewInt(1)})
	if err != nil {
		return err
	}

	spend := new(big.Int).Mul(new(big.Int).SetUint64(guessGas), draft.Price())
	spend.Add(spend, l1Fee.Wei())
	reserve := c.multiply(spend, 1.1, 1.2)

	balance, err := c.nativeBalance(ctx, self)
	if err != nil {
		return err
	}

	left := new(big.Int).Sub(balance, reserve)
	left.Sub(left, value)
	if left.Sign() > 0 {
		return nil
	}

	c.logger.Warn("Недостаточно средств для отправки, отправляем весь доступный баланс",
		zap.String("balance", entity.AmountFromWei(balance, entity.NativeDecimals).String()),
		zap.String("requested", entity.AmountFromWei(value, entity.NativeDecimals).String()),
		zap.String("to", addrString(draft.To)))

	clamped := new(big.Int).Sub(balance, c.multiply(reserve, 1.1, 1.2))
	if clamped.Sign() <= 0 {
		return fmt.Errorf("%w: %s balance %s does not cover fee reserve %s",
			entity.ErrInsufficientFunds, c.chain.NativeToken,
			entity.AmountFromWei(balance, entity.NativeDecimals), entity.AmountFromWei(reserve, entity.NativeDecimals))
	}
	draft.Value = clamped
	return nil
}

func addrString(a *common.Address) string {
	if a == nil {
		return ""
	}
	return a.Hex()
}

// SendToken transfers amount (nil = entire balance) of token (nil = native
// coin) to the given address and returns the mined transaction hash.
func (c *OnchainClient) SendToken(ctx context.Context, to common.Address, amount *entity.Amount, token *entity.Token) (common.Hash, error) {
	tok := c.nativeToken()
	if token != nil {
		tok = *token
	}

	var send entity.Amount
	if amount == nil {
		bal, err := c.GetBalance(ctx, &tok, nil)
		if err != nil {
			return common.Hash{}, err
		}
		send = bal
	} else {
		send = *amount
	}

	var draft entity.TxDraft
	if tok.IsNative() {
		var err error
		draft, err = c.BuildTransaction(ctx, send.Wei(), &to)
		if err != nil {
			return common.Hash{}, err
		}
		if err := c.validateNativeTransfer(ctx, &draft); err != nil {
			return common.Hash{}, err
		}
		send = entity.AmountFromWei(draft.Value, entity.NativeDecimals)
	} else {
		var err error
		send, err = c.clampTokenAmount(ctx, tok, send)
		if err != nil {
			return common.Hash{}, err
		}
		data, err := parsedERC20ABI.Pack("transfer", to, send.Wei())
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to pack transfer: %w", err)
		}
		contract := tok.Address
		draft, err = c.BuildTransaction(ctx, nil, &contract)
		if err != nil {
			return common.Hash{}, err
		}
		draft.Data = data
	}

	gas, err := c.EstimateGasLimit(ctx, draft)
	if err != nil {
		return common.Hash{}, err
	}
	draft.Gas = gas

	hash, err := c.SignAndSend(ctx, draft)
	if err != nil {
		return hash, err
	}
	symbol := tok.Symbol
	if tok.IsNative() {
		symbol = c.chain.NativeToken
	}
	c.logger.Info("Транзакция отправлена",
		zap.String("amount", send.String()), zap.String("token", symbol),
		zap.String("to", to.Hex()), zap.String("hash", hash.Hex()))
	return hash, nil
}

// clampTokenAmount caps amount at the wallet token balance and requires a
// positive native balance for gas.
func (c *OnchainClient) clampTokenAmount(ctx context.Context, tok entity.Token, amount entity.Amount) (entity.Amount, error) {
	if amount.Decimals() != tok.Decimals {
		amount = entity.NewAmount(amount.Decimal(), tok.Decimals)
	}
	balance, err := c.GetBalance(ctx, &tok, nil)
	if err != nil {
		return entity.Amount{}, err
	}
	if less, _ := balance.Lt(amount); less {
		amount = balance
	}
	if !amount.IsPositive() {
		return entity.Amount{}, fmt.Errorf("%w: %s balance is %s", entity.ErrInsufficientFunds, tok.Symbol, balance.StringFixed(2))
	}

	native, err := c.GetBalance(ctx, nil, nil)
	if err != nil {
		return entity.Amount{}, err
	}
	if !native.IsPositive() {
		return entity.Amount{}, fmt.Errorf("%w: no %s for gas", entity.ErrInsufficientFunds, c.chain.NativeToken)
	}
	return amount, nil
}

// Allowance returns how much spender may move from the account wallet.
func (c *OnchainClient) Allowance(ctx context.Context, token entity.Token, spender common.Address) (entity.Amount, error) {
	out, err := c.callERC20(ctx, token.Address, "allowance", c.account.Address(), spender)
	if err != nil {
		return entity.Amount{}, err
	}
	wei, ok := out[0].(*big.Int)
	if !ok {
		return entity.Amount{}, fmt.Errorf("allowance returned %T", out[0])
	}
	return entity.AmountFromWei(wei, token.Decimals), nil
}

// Approve sets the allowance of spender to exactly amount unless the current
// allowance already covers it. Native coins need no approval.
func (c *OnchainClient) Approve(ctx context.Context, token *entity.Token, amount entity.Amount, spender common.Address) error {
	if token == nil || token.IsNative() {
		return nil
	}
	current, err := c.Allowance(ctx, *token, spender)
	if err != nil {
		return err
	}
	if current.Wei().Cmp(amount.Wei()) >= 0 {
		return nil
	}

	data, err := parsedERC20ABI.Pack("approve", spender, amount.Wei())
	if err != nil {
		return fmt.Errorf("failed to pack approve: %w", err)
	}
	contract := token.Address
	draft, err := c.BuildTransaction(ctx, nil, &contract)
	if err != nil {
		return err
	}
	draft.Data = data
	if draft.Gas, err = c.EstimateGasLimit(ctx, draft); err != nil {
		return err
	}
	hash, err := c.SignAndSend(ctx, draft)
	if err != nil {
		return err
	}
	c.logger.Info("Approve отправлен",
		zap.String("amount", amount.String()), zap.String("token", token.Symbol),
		zap.String("spender", spender.Hex()), zap.String("hash", hash.Hex()))
	return nil
}
