package networkdefinition

import (
	"fmt"
	"strings"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
)

// Каталог сетей. Порядок объявления сохраняется в List().
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.Chain{
		Name:        "ethereum",
		RPC:         "https://1rpc.io/eth",
		ChainID:     1,
		DisplayName: "Ethereum Mainnet",
		NativeToken: "ETH",
		OkxName:     "ERC20",
		BinanceName: "ETH",
	}
	Linea = entity.Chain{
		Name:        "linea",
		RPC:         "https://1rpc.io/linea",
		ChainID:     59144,
		DisplayName: "Linea",
		NativeToken: "ETH",
		OkxName:     "Linea",
		BinanceName: "LINEA",
	}
	ArbitrumOne = entity.Chain{
		Name:        "arbitrum_one",
		RPC:         "https://1rpc.io/arb",
		ChainID:     42161,
		DisplayName: "Arbitrum One",
		NativeToken: "ETH",
		OkxName:     "Arbitrum One",
		BinanceName: "ARBITRUM",
	}
	BSC = entity.Chain{
		Name:        "bsc",
		RPC:         "https://1rpc.io/bnb",
		ChainID:     56,
		DisplayName: "Binance Smart Chain",
		NativeToken: "BNB",
		OkxName:     "BSC",
		BinanceName: "BSC",
	}
	OP = entity.Chain{
		Name:        "op",
		RPC:         "https://1rpc.io/op",
		ChainID:     10,
		DisplayName: "Optimism Mainnet",
		NativeToken: "ETH",
		OkxName:     "Optimism",
		BinanceName: "OPTIMISM",
	}
	Polygon = entity.Chain{
		Name:        "polygon",
		RPC:         "https://1rpc.io/matic",
		ChainID:     137,
		DisplayName: "Polygon",
		NativeToken: "POL",
		OkxName:     "Polygon",
		BinanceName: "MATIC",
	}
	ZkSync = entity.Chain{
		Name:        "zksync",
		RPC:         "https://1rpc.io/zksync2-era",
		ChainID:     324,
		DisplayName: "zkSync",
		NativeToken: "ETH",
		OkxName:     "zkSync Era",
		BinanceName: "ZKSYNCERA",
	}
	Base = entity.Chain{
		Name:        "base",
		RPC:         "https://1rpc.io/base",
		ChainID:     8453,
		DisplayName: "Base",
		NativeToken: "ETH",
		OkxName:     "Base",
		BinanceName: "BASE",
	}
	Scroll = entity.Chain{
		Name:        "scroll",
		RPC:         "https://1rpc.io/scroll",
		ChainID:     534352,
		DisplayName: "Scroll",
		NativeToken: "ETH",
		OkxName:     "Scroll",
		BinanceName: "SCROLL",
	}
	Gravity = entity.Chain{
		Name:        "gravity",
		RPC:         "https://rpc.ankr.com/gravity",
		ChainID:     1625,
		DisplayName: "Gravity",
		NativeToken: "G",
	}
	Soneium = entity.Chain{
		Name:        "soneium",
		RPC:         "https://soneium.drpc.org",
		ChainID:     1868,
		DisplayName: "Soneium",
	}
	Unichain = entity.Chain{
		Name:        "unichain",
		RPC:         "https://unichain-rpc.publicnode.com",
		ChainID:     130,
		DisplayName: "Unichain",
		NativeToken: "ETH",
	}
	Zora = entity.Chain{
		Name:        "zora",
		RPC:         "https://rpc.zora.energy",
		ChainID:     7777777,
		DisplayName: "Zora",
		NativeToken: "ETH",
	}
	MonadTestnet = entity.Chain{
		Name:        "monad_testnet",
		RPC:         "https://testnet-rpc.monad.xyz",
		ChainID:     143,
		DisplayName: "MONAD TESTNET",
		NativeToken: "MON",
	}
	SepoliaTestnet = entity.Chain{
		Name:        "sepolia_testnet",
		RPC:         "https://1rpc.io/sepolia",
		ChainID:     11155111,
		DisplayName: "Sepolia",
		NativeToken: "ETH",
	}
)

var allKnownChains = []entity.Chain{ //nolint:gochecknoglobals
	Ethereum, Linea, ArbitrumOne, BSC, OP, Polygon, ZkSync, Base, Scroll,
	Gravity, Soneium, Unichain, Zora, MonadTestnet, SepoliaTestnet,
}

// Короткие имена сетей, которые встречаются в конфигах.
var chainAliases = map[string]string{ //nolint:gochecknoglobals
	"eth":      "ethereum",
	"mainnet":  "ethereum",
	"arb":      "arbitrum_one",
	"arbitrum": "arbitrum_one",
	"optimism": "op",
	"bnb":      "bsc",
	"matic":    "polygon",
	"era":      "zksync",
	"sepolia":  "sepolia_testnet",
	"monad":    "monad_testnet",
}

// ChainRegistry is the explicit name -> chain catalogue.
type ChainRegistry struct {
	logger port.Logger
	chains []entity.Chain
	byName map[string]int
}

// NewChainRegistry builds the registry from the built-in catalogue plus
// overrides (same name replaces the entry, new names are appended).
func NewChainRegistry(log port.Logger, overrides ...entity.Chain) *ChainRegistry {
	r := &ChainRegistry{
		logger: log,
		chains: make([]entity.Chain, 0, len(allKnownChains)+len(overrides)),
		byName: make(map[string]int, len(allKnownChains)+len(overrides)),
	}
	for _, c := range allKnownChains {
		r.add(c)
	}
	for _, c := range overrides {
		if c.Name == "" {
			continue
		}
		if _, exists := r.byName[strings.ToLower(c.Name)]; exists && r.logger != nil {
			r.logger.Debug("Chain definition overridden from config", "chain", c.Name)
		}
		if c.Multiplier != 0 && c.Multiplier < 1 && r.logger != nil {
			r.logger.Warn("Chain multiplier below 1, using 1", "chain", c.Name, "multiplier", c.Multiplier)
		}
		r.add(c)
	}
	return r
}

func (r *ChainRegistry) add(c entity.Chain) {
	c = c.WithDefaults()
	key := strings.ToLower(c.Name)
	if i, ok := r.byName[key]; ok {
		r.chains[i] = c
		return
	}
	r.byName[key] = len(r.chains)
	r.chains = append(r.chains, c)
}

// Get returns the chain by case-insensitive name or alias.
func (r *ChainRegistry) Get(name string) (entity.Chain, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if i, ok := r.byName[key]; ok {
		return r.chains[i], nil
	}
	if canonical, ok := chainAliases[key]; ok {
		if i, ok := r.byName[canonical]; ok {
			return r.chains[i], nil
		}
	}
	return entity.Chain{}, fmt.Errorf("%w: %q, add it to the chain catalogue", entity.ErrChainNotFound, name)
}

// ByChainID returns the chain with the given numeric id.
func (r *ChainRegistry) ByChainID(chainID uint64) (entity.Chain, error) {
	for _, c := range r.chains {
		if c.HasID(chainID) {
			return c, nil
		}
	}
	return entity.Chain{}, fmt.Errorf("%w: chain id %d", entity.ErrChainNotFound, chainID)
}

// List returns chains in declaration order.
func (r *ChainRegistry) List() []entity.Chain {
	out := make([]entity.Chain, len(r.chains))
	copy(out, r.chains)
	return out
}
