package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// TxCounter reads the account nonce on every catalogue chain.
type TxCounter struct {
	chains port.ChainRegistry
	ledger port.Ledger // nil = только лог
	limit  int
	logger port.Logger
}

func NewTxCounter(chains port.ChainRegistry, ledger port.Ledger, limit int, log port.Logger) *TxCounter {
	if limit <= 0 {
		limit = 1
	}
	if log == nil {
		log = logger.NewSlogAdapter("activity", "tx_counter")
	}
	return &TxCounter{chains: chains, ledger: ledger, limit: limit, logger: log}
}

func (t *TxCounter) Name() string { return "tx_counter" }

// TxColumn is the ledger column of the nonce on chain.
func TxColumn(chain entity.Chain) string {
	return "TX " + strings.ToUpper(chain.Name)
}

// Count returns chain name → nonce. Chains that failed are logged and absent
// from the result.
func (t *TxCounter) Count(ctx context.Context, s *Session) map[string]uint64 {
	var (
		mu     sync.Mutex
		counts = make(map[string]uint64)
		g      errgroup.Group
	)
	g.SetLimit(t.limit)

	address := s.Account.Address()
	for _, chain := range t.chains.List() {
		g.Go(func() error {
			client, err := s.Client(ctx, chain)
			if err != nil {
				t.logger.Warn("Не удалось подключиться к сети", "profile", s.Account.ProfileNumber, "chain", chain.Name, "error", err)
				return nil
			}
			nonce, err := client.Nonce(ctx, address)
			if err != nil {
				t.logger.Warn("Не удалось получить nonce", "profile", s.Account.ProfileNumber, "chain", chain.Name, "error", err)
				return nil
			}
			mu.Lock()
			counts[chain.Name] = nonce
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return counts
}

// Run implements Activity.
func (t *TxCounter) Run(ctx context.Context, s *Session) error {
	counts := t.Count(ctx, s)
	if err := ctx.Err(); err != nil {
		return err
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var total uint64
	for _, name := range names {
		total += counts[name]
		t.logger.Info("Транзакций в сети", "profile", s.Account.ProfileNumber, "chain", name, "count", counts[name])
		if t.ledger == nil {
			continue
		}
		chain, err := t.chains.Get(name)
		if err != nil {
			return err
		}
		if err := t.ledger.SetCell(s.Account.ProfileNumber, TxColumn(chain), counts[name]); err != nil {
			return err
		}
	}
	t.logger.Info("Всего транзакций", "profile", s.Account.ProfileNumber, "total", total, "chains", len(names))
	return nil
}
