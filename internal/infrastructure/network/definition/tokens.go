package networkdefinition

import (
	"fmt"
	"strings"
	"sync"

	"airdrop_farmer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

type tokenDef struct {
	symbol    string
	address   string
	chain     entity.Chain
	decimals  uint8
	tokenType entity.TokenType
}

// Каталог токенов по сетям.
var knownTokens = []tokenDef{ //nolint:gochecknoglobals
	{"USDT", "0xdac17f958d2ee523a2206206994597c13d831ec7", Ethereum, 6, entity.TokenTypeStable},
	{"USDC", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Ethereum, 6, entity.TokenTypeStable},
	{"USDT", "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2", Base, 6, entity.TokenTypeStable},
	{"USDC", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Base, 6, entity.TokenTypeStable},
	{"ARB", "0x912CE59144191C1204E64559FE8253a0e49E6548", ArbitrumOne, 18, entity.TokenTypeERC20},
	{"USDT", "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", ArbitrumOne, 6, entity.TokenTypeStable},
	{"USDC", "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", ArbitrumOne, 6, entity.TokenTypeStable},
	{"OP", "0x4200000000000000000000000000000000000042", OP, 18, entity.TokenTypeERC20},
	{"USDT", "0x94b008aa00579c1307b0ef2c499ad98a8ce58e58", OP, 6, entity.TokenTypeStable},
	{"USDC", "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85", OP, 6, entity.TokenTypeStable},
	{"USDT", "0xA219439258ca9da29E9Cc4cE5596924745e12B93", Linea, 6, entity.TokenTypeStable},
	{"USDC", "0x176211869cA2b568f2A7D4EE941E073a821EE1ff", Linea, 6, entity.TokenTypeStable},
	{"SCR", "0xd29687c813D741E2F938F4aC377128810E217b1b", Scroll, 18, entity.TokenTypeERC20},
	{"USDT", "0xf55BEC9cafDbE8730f096Aa55dad6D22d44099Df", Scroll, 6, entity.TokenTypeStable},
	{"USDC", "0x06eFdBFf2a14a7c8E15944D1F4A48F9F95F663A4", Scroll, 6, entity.TokenTypeStable},
	{"ENJOY", "0xa6B280B42CB0b7c4a4F789eC6cCC3a7609A1Bc39", Zora, 6, entity.TokenTypeERC20},
	{"Imagine", "0x078540eECC8b6d89949c9C7d5e8E91eAb64f6696", Zora, 6, entity.TokenTypeERC20},
	{"ZK", "0x5A7d6b2F92C77FAD6CCaBd7EE0624E64907Eaf3E", ZkSync, 18, entity.TokenTypeERC20},
	{"USDT", "0x493257fD37EDB34451f62EDf8D2a0C418852bA4C", ZkSync, 6, entity.TokenTypeStable},
	{"USDC", "0x1d17CBcF0D6D143135aE902365D2E5e2A16538D4", ZkSync, 6, entity.TokenTypeStable},
	{"USDT", "0xc2132d05d31c914a87c6611c10748aeb04b58e8f", Polygon, 6, entity.TokenTypeStable},
	{"USDC", "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Polygon, 6, entity.TokenTypeStable},
	{"USDT", "0x55d398326f99059ff775485246999027b3197955", BSC, 18, entity.TokenTypeStable},
	{"USDC", "0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d", BSC, 18, entity.TokenTypeStable},
	{"USDT", "0x3A337a6adA9d885b6Ad95ec48F9b75f197b5AE35", Soneium, 6, entity.TokenTypeStable},
	{"USDC.e", "0xbA9986D2381edf1DA03B0B9c1f8b00dc4AacC369", Soneium, 6, entity.TokenTypeStable},
	{"ARCAS", "0x570f09AC53b96929e3868f71864E36Ff6b1B67D7", Soneium, 18, entity.TokenTypeERC20},
	{"SONE", "0xf24e57b1cb00d98C31F04f86328e22E8fcA457fb", Soneium, 18, entity.TokenTypeERC20},
	{"ASTR", "0x2CAE934a1e84F693fbb78CA5ED3B0A6893259441", Soneium, 18, entity.TokenTypeERC20},
}

// TokenRegistry indexes tokens by address and by (symbol, chain). Tokens
// discovered at runtime are added with Register.
type TokenRegistry struct {
	mu     sync.RWMutex
	tokens []entity.Token
	byKey  map[tokenKey]int
	// первый зарегистрированный токен по адресу, для поиска без сети
	byAddress map[common.Address]int
	native    entity.Token
}

// OP Stack сети используют одни и те же адреса предеплоев, поэтому ключ
// включает chain id.
type tokenKey struct {
	chainID uint64
	address common.Address
}

func keyOf(token entity.Token) tokenKey {
	return tokenKey{chainID: token.Chain.ChainID, address: token.Address}
}

// NewTokenRegistry seeds the registry with the built-in catalogue. Chains are
// resolved through chains so RPC overrides propagate into tokens.
func NewTokenRegistry(chains *ChainRegistry) *TokenRegistry {
	r := &TokenRegistry{
		tokens:    make([]entity.Token, 0, len(knownTokens)),
		byKey:     make(map[tokenKey]int, len(knownTokens)),
		byAddress: make(map[common.Address]int, len(knownTokens)),
		native:    entity.NativeToken(Ethereum.WithDefaults()),
	}
	r.native.Symbol = "NATIVE"
	for _, def := range knownTokens {
		chain := def.chain.WithDefaults()
		if chains != nil {
			if c, err := chains.Get(def.chain.Name); err == nil {
				chain = c
			}
		}
		r.Register(entity.Token{
			Symbol:   def.symbol,
			Address:  common.HexToAddress(def.address),
			Chain:    chain,
			Decimals: def.decimals,
			Type:     def.tokenType,
		})
	}
	return r
}

// Native returns the native pseudo-token entry.
func (r *TokenRegistry) Native() entity.Token { return r.native }

// Register adds a token. Registering the same (chain, address) twice keeps
// the first entry.
func (r *TokenRegistry) Register(token entity.Token) entity.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := keyOf(token)
	if i, ok := r.byKey[key]; ok {
		return r.tokens[i]
	}
	r.byKey[key] = len(r.tokens)
	if _, ok := r.byAddress[token.Address]; !ok {
		r.byAddress[token.Address] = len(r.tokens)
	}
	r.tokens = append(r.tokens, token)
	return token
}

// ByAddress looks a token up by address in any case. When the address is
// registered on several chains the first registration wins; use
// ByChainAndAddress when the chain is known.
func (r *TokenRegistry) ByAddress(address string) (entity.Token, error) {
	if !common.IsHexAddress(address) {
		return entity.Token{}, fmt.Errorf("%w: %q is not an address", entity.ErrTokenNotFound, address)
	}
	addr := common.HexToAddress(address)
	if addr == r.native.Address {
		return r.native, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.byAddress[addr]; ok {
		return r.tokens[i], nil
	}
	return entity.Token{}, fmt.Errorf("%w: address %s", entity.ErrTokenNotFound, addr.Hex())
}

// ByChainAndAddress looks a token up by address on one chain.
func (r *TokenRegistry) ByChainAndAddress(chain entity.Chain, address string) (entity.Token, error) {
	if !common.IsHexAddress(address) {
		return entity.Token{}, fmt.Errorf("%w: %q is not an address", entity.ErrTokenNotFound, address)
	}
	addr := common.HexToAddress(address)
	if addr == r.native.Address {
		return entity.NativeToken(chain), nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.byKey[tokenKey{chainID: chain.ChainID, address: addr}]; ok {
		return r.tokens[i], nil
	}
	return entity.Token{}, fmt.Errorf("%w: address %s on %s", entity.ErrTokenNotFound, addr.Hex(), chain.Name)
}

// ByChain returns the chain's tokens in registration order, native excluded.
func (r *TokenRegistry) ByChain(chain entity.Chain) []entity.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Token
	for _, t := range r.tokens {
		if t.IsNative() || !t.Chain.Equal(chain) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BySymbolAndChain resolves a symbol on a chain, ignoring case.
func (r *TokenRegistry) BySymbolAndChain(symbol string, chain entity.Chain) (entity.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tokens {
		if t.Chain.Equal(chain) && strings.EqualFold(t.Symbol, symbol) {
			return t, nil
		}
	}
	return entity.Token{}, fmt.Errorf("%w: %s on %s", entity.ErrTokenNotFound, symbol, chain.Name)
}

// All returns every non-native token.
func (r *TokenRegistry) All() []entity.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Token, len(r.tokens))
	copy(out, r.tokens)
	return out
}
