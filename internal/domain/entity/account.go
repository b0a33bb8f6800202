package entity

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account: профиль фермы: номер профиля, кошелёк, учётные данные и прокси.
// Адрес после вычисления не меняется.
type Account struct {
	ProfileNumber int
	Password      string
	PrivateKey    string
	Seed          string
	Proxy         string

	address common.Address
}

// NewAccount validates the address or derives it from the private key.
func NewAccount(profileNumber int, address, password, privateKey, seed, proxy string) (*Account, error) {
	acc := &Account{
		ProfileNumber: profileNumber,
		Password:      password,
		PrivateKey:    strings.TrimSpace(privateKey),
		Seed:          seed,
		Proxy:         strings.TrimSpace(proxy),
	}

	address = strings.TrimSpace(address)
	switch {
	case address != "":
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("profile %d: %w: %q", profileNumber, ErrInvalidAddress, address)
		}
		acc.address = common.HexToAddress(address)
	case acc.PrivateKey != "":
		key, err := acc.Key()
		if err != nil {
			return nil, fmt.Errorf("profile %d: %w", profileNumber, err)
		}
		acc.address = crypto.PubkeyToAddress(key.PublicKey)
	}
	return acc, nil
}

// Address returns the checksummed wallet address (zero when unknown).
func (a *Account) Address() common.Address { return a.address }

func (a *Account) HasAddress() bool { return a.address != (common.Address{}) }

// Key parses the hex private key (with or without 0x).
func (a *Account) Key() (*ecdsa.PrivateKey, error) {
	if a.PrivateKey == "" {
		return nil, ErrNoPrivateKey
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(a.PrivateKey, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

// ParsedProxy returns the account proxy, nil when none is configured.
func (a *Account) ParsedProxy() (*Proxy, error) {
	return ParseProxy(a.Proxy)
}

func (a *Account) String() string {
	return fmt.Sprintf("%d (%s)", a.ProfileNumber, a.address.Hex())
}
