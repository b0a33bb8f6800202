package client

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/pkg/metrics"
	"airdrop_farmer/internal/pkg/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	feeHistoryBlocks     = 20
	feeRewardPercentile  = 40
	gasPriceWaitMinDelay = 20.0
	gasPriceWaitMaxDelay = 30.0
)

// GasPrice returns eth_gasPrice in wei.
func (c *OnchainClient) GasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := c.call(ctx, "eth_gasPrice", func(ctx context.Context) error {
		var err error
		price, err = c.backend.SuggestGasPrice(ctx)
		return err
	})
	return price, err
}

// GasPriceGwei returns eth_gasPrice in gwei.
func (c *OnchainClient) GasPriceGwei(ctx context.Context) (decimal.Decimal, error) {
	price, err := c.GasPrice(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	gwei := utils.WeiToGwei(price)
	metrics.GasPriceGwei.WithLabelValues(c.chain.Name).Set(gwei.InexactFloat64())
	return gwei, nil
}

// WaitForAcceptableGasPrice polls the gas price every 20-30s until it is at
// most limitGwei. There is no attempt cap; only ctx ends the wait early.
func (c *OnchainClient) WaitForAcceptableGasPrice(ctx context.Context, limitGwei decimal.Decimal) error {
	waited := false
	for {
		gwei, err := c.GasPriceGwei(ctx)
		if err != nil {
			return err
		}
		if gwei.LessThanOrEqual(limitGwei) {
			if waited {
				c.logger.Info("Цена газа снизилась, продолжаем", zap.String("gwei", gwei.StringFixed(2)))
			}
			return nil
		}
		waited = true
		c.logger.Warn("Цена газа высокая, ожидаем снижения",
			zap.String("gwei", gwei.StringFixed(2)), zap.String("limit", limitGwei.String()))
		if err := c.sleep(ctx, utils.UniformDuration(c.rnd, gasPriceWaitMinDelay, gasPriceWaitMaxDelay)); err != nil {
			return err
		}
	}
}

func (c *OnchainClient) feeHistory(ctx context.Context) (*ethereum.FeeHistory, error) {
	var h *ethereum.FeeHistory
	err := c.call(ctx, "eth_feeHistory", func(ctx context.Context) error {
		var err error
		h, err = c.backend.FeeHistory(ctx, feeHistoryBlocks, nil, []float64{feeRewardPercentile})
		return err
	})
	return h, err
}

// IsEIP1559 reports whether the chain charges a base fee. The answer is probed
// once per chain id and shared by all clients.
func (c *OnchainClient) IsEIP1559(ctx context.Context) (bool, error) {
	dynamic, _, err := c.resolveFeeModel(ctx)
	return dynamic, err
}

// resolveFeeModel also returns the history sampled by the probe when this call
// ran it, so the fee computation does not fetch it twice.
func (c *OnchainClient) resolveFeeModel(ctx context.Context) (bool, *ethereum.FeeHistory, error) {
	var sampled *ethereum.FeeHistory
	dynamic, err := c.feeModels.Resolve(ctx, c.chain.ChainID, func(ctx context.Context) (bool, error) {
		h, err := c.feeHistory(ctx)
		if err != nil {
			return false, err
		}
		sampled = h
		for _, base := range h.BaseFee {
			if base != nil && base.Sign() > 0 {
				return true, nil
			}
		}
		return false, nil
	})
	return dynamic, sampled, err
}

// ComputeFeeParameters returns legacy gas price or EIP-1559 caps for the next
// transaction, padded with randomized multipliers.
func (c *OnchainClient) ComputeFeeParameters(ctx context.Context) (entity.FeeParams, error) {
	dynamic, history, err := c.resolveFeeModel(ctx)
	if err != nil {
		return entity.FeeParams{}, err
	}

	if !dynamic {
		price, err := c.GasPrice(ctx)
		if err != nil {
			return entity.FeeParams{}, err
		}
		return entity.FeeParams{
			Type:     types.LegacyTxType,
			GasPrice: utils.MulFloat(price, utils.Uniform(c.rnd, 1.02, 1.05)),
		}, nil
	}

	if history == nil {
		if history, err = c.feeHistory(ctx); err != nil {
			return entity.FeeParams{}, err
		}
	}

	baseFee := new(big.Int)
	if n := len(history.BaseFee); n > 0 && history.BaseFee[n-1] != nil {
		baseFee = history.BaseFee[n-1]
	}

	tip := c.multiply(medianReward(history.Reward), 1.03, 1.1)
	maxFee := c.multiply(new(big.Int).Add(baseFee, tip), 1.03, 1.1)
	if maxFee.Cmp(tip) < 0 {
		maxFee = new(big.Int).Set(tip)
	}
	return entity.FeeParams{
		Type:                 types.DynamicFeeTxType,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
	}, nil
}

// medianReward returns the upper median of the non-zero first-percentile
// rewards, 0 when every block paid no tip.
func medianReward(rewards [][]*big.Int) *big.Int {
	var fees []*big.Int
	for _, r := range rewards {
		if len(r) > 0 && r[0] != nil && r[0].Sign() != 0 {
			fees = append(fees, r[0])
		}
	}
	if len(fees) == 0 {
		return new(big.Int)
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].Cmp(fees[j]) < 0 })
	return new(big.Int).Set(fees[len(fees)/2])
}

// EstimateGasLimit asks the node for the gas of draft and pads it by 2-5%.
func (c *OnchainClient) EstimateGasLimit(ctx context.Context, draft entity.TxDraft) (uint64, error) {
	gas, err := c.estimateGas(ctx, draft.CallMsg())
	if err != nil {
		return 0, err
	}
	return uint64(float64(gas) * utils.Uniform(c.rnd, 1.02, 1.05)), nil
}

func (c *OnchainClient) estimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := c.call(ctx, "eth_estimateGas", func(ctx context.Context) error {
		var err error
		gas, err = c.backend.EstimateGas(ctx, msg)
		return err
	})
	return gas, err
}

// L1DataFee returns the rollup data surcharge for draft. Only OP Mainnet is
// priced through the GasPriceOracle; every other chain returns zero.
func (c *OnchainClient) L1DataFee(ctx context.Context, draft entity.TxDraft) (entity.Amount, error) {
	if !c.chain.Is("op") {
		return entity.ZeroAmount(entity.NativeDecimals), nil
	}
	data := draft.Data
	if data == nil {
		data = []byte{}
	}
	input, err := parsedGasOracleABI.Pack("getL1Fee", data)
	if err != nil {
		return entity.Amount{}, fmt.Errorf("failed to pack getL1Fee: %w", err)
	}

	oracle := gasPriceOracleAddress
	var raw []byte
	err = c.call(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		raw, err = c.backend.CallContract(ctx, ethereum.CallMsg{To: &oracle, Data: input}, nil)
		return err
	})
	if err != nil {
		return entity.Amount{}, err
	}
	out, err := parsedGasOracleABI.Unpack("getL1Fee", raw)
	if err != nil || len(out) == 0 {
		return entity.Amount{}, fmt.Errorf("failed to unpack getL1Fee: %v", err)
	}
	fee, ok := out[0].(*big.Int)
	if !ok {
		return entity.Amount{}, fmt.Errorf("getL1Fee returned %T", out[0])
	}
	return entity.AmountFromWei(fee, entity.NativeDecimals), nil
}

// BuildTransaction assembles fee parameters, sender, fresh nonce and chain id.
func (c *OnchainClient) BuildTransaction(ctx context.Context, value *big.Int, to *common.Address) (entity.TxDraft, error) {
	fees, err := c.ComputeFeeParameters(ctx)
	if err != nil {
		return entity.TxDraft{}, err
	}
	from := c.account.Address()

	var nonce uint64
	err = c.call(ctx, "eth_getTransactionCount", func(ctx context.Context) error {
		var err error
		nonce, err = c.backend.PendingNonceAt(ctx, from)
		return err
	})
	if err != nil {
		return entity.TxDraft{}, err
	}

	draft := entity.TxDraft{
		FeeParams: fees,
		From:      from,
		Nonce:     nonce,
		ChainID:   c.chain.ChainID,
		To:        to,
	}
	if value != nil && value.Sign() > 0 {
		draft.Value = new(big.Int).Set(value)
	}
	return draft, nil
}
