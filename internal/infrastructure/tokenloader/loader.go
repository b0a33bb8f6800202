package tokenloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
)

// tokenFileEntry is one token in <tokens dir>/<chain>.json.
type tokenFileEntry struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Type     string `json:"type"`
}

// TokenFileLoader adds tokens from JSON files to the catalogue. The file
// name (without .json) is the chain name or alias.
type TokenFileLoader struct {
	tokenDirPath string
	logger       port.Logger
}

func NewTokenLoader(tokenDirPath string, logger port.Logger) *TokenFileLoader {
	return &TokenFileLoader{tokenDirPath: tokenDirPath, logger: logger}
}

// LoadInto registers every valid token of every known chain file and returns
// how many were added. A missing directory is not an error.
func (l *TokenFileLoader) LoadInto(tokens port.TokenRegistry, chains port.ChainRegistry) (int, error) {
	files, err := os.ReadDir(l.tokenDirPath)
	if os.IsNotExist(err) {
		l.logger.Debug("Token directory not found, only built-in tokens are used", "path", l.tokenDirPath)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read token directory %s: %w", l.tokenDirPath, err)
	}

	loaded := 0
	for _, file := range files {
		if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".json") {
			continue
		}
		chainName := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		chain, err := chains.Get(chainName)
		if err != nil {
			l.logger.Warn("Token file for unknown chain, skipping", "file", file.Name())
			continue
		}

		path := filepath.Join(l.tokenDirPath, file.Name())
		entries, err := utils.LoadJSON[[]tokenFileEntry](path)
		if err != nil {
			l.logger.Warn("Failed to read token file, skipping", "path", path, "error", err)
			continue
		}

		count := 0
		for _, e := range entries {
			if e.Symbol == "" || !common.IsHexAddress(e.Address) {
				l.logger.Warn("Invalid token entry, skipping", "file", file.Name(), "symbol", e.Symbol, "address", e.Address)
				continue
			}
			tokens.Register(entity.NewToken(e.Symbol, e.Address, chain, e.Decimals, entity.TokenType(strings.ToLower(e.Type))))
			count++
		}
		loaded += count
		l.logger.Info("Tokens loaded from file", "chain", chain.Name, "count", count)
	}
	return loaded, nil
}
