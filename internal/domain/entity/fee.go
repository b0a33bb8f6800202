package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FeeParams holds either a legacy gas price or EIP-1559 fee caps.
type FeeParams struct {
	Type                 uint8 // types.LegacyTxType или types.DynamicFeeTxType
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

func (f FeeParams) IsDynamic() bool { return f.Type == types.DynamicFeeTxType }

// Price is the per-gas price used for spend estimates: max fee for
// dynamic transactions, gas price otherwise.
func (f FeeParams) Price() *big.Int {
	if f.IsDynamic() && f.MaxFeePerGas != nil {
		return f.MaxFeePerGas
	}
	if f.GasPrice != nil {
		return f.GasPrice
	}
	return new(big.Int)
}

// TxDraft is an unsigned transaction being assembled.
type TxDraft struct {
	FeeParams
	From    common.Address
	To      *common.Address
	Nonce   uint64
	ChainID uint64
	Value   *big.Int
	Data    []byte
	Gas     uint64
}

// CallMsg converts the draft for eth_estimateGas / eth_call.
func (d TxDraft) CallMsg() ethereum.CallMsg {
	msg := ethereum.CallMsg{
		From:  d.From,
		To:    d.To,
		Value: d.Value,
		Data:  d.Data,
	}
	if d.IsDynamic() {
		msg.GasFeeCap = d.MaxFeePerGas
		msg.GasTipCap = d.MaxPriorityFeePerGas
	} else {
		msg.GasPrice = d.GasPrice
	}
	return msg
}

// Transaction builds the unsigned go-ethereum transaction.
func (d TxDraft) Transaction() *types.Transaction {
	value := d.Value
	if value == nil {
		value = new(big.Int)
	}
	if d.IsDynamic() {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   new(big.Int).SetUint64(d.ChainID),
			Nonce:     d.Nonce,
			GasTipCap: d.MaxPriorityFeePerGas,
			GasFeeCap: d.MaxFeePerGas,
			Gas:       d.Gas,
			To:        d.To,
			Value:     value,
			Data:      d.Data,
		})
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    d.Nonce,
		GasPrice: d.GasPrice,
		Gas:      d.Gas,
		To:       d.To,
		Value:    value,
		Data:     d.Data,
	})
}
