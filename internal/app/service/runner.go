package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"airdrop_farmer/internal/app/port"
	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/infrastructure/configloader"
	"airdrop_farmer/internal/pkg/metrics"
	"airdrop_farmer/internal/pkg/utils"
)

// Итоги обработки профиля.
const (
	OutcomeSuccess = "success"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// Activity is the per-account work executed by AccountRunner.
type Activity interface {
	Name() string
	Run(ctx context.Context, s *Session) error
}

// Session holds per-account resources for one activity run. Clients are
// dialed on first use and closed when the session ends.
type Session struct {
	Account *entity.Account
	// Index is the account position in the selection before shuffling.
	Index int

	provider port.OnchainClientProvider

	mu      sync.Mutex
	clients map[string]port.OnchainClient
}

// NewSession is used by the runner and by tests that drive an activity directly.
func NewSession(account *entity.Account, index int, provider port.OnchainClientProvider) *Session {
	return &Session{
		Account:  account,
		Index:    index,
		provider: provider,
		clients:  make(map[string]port.OnchainClient),
	}
}

// Client returns the account client for chain, dialing it once per session.
func (s *Session) Client(ctx context.Context, chain entity.Chain) (port.OnchainClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[chain.Name]; ok {
		return c, nil
	}
	c, err := s.provider.Client(ctx, s.Account, chain)
	if err != nil {
		return nil, err
	}
	s.clients[chain.Name] = c
	return c, nil
}

// Close releases every client opened by the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, c := range s.clients {
		c.Close()
		delete(s.clients, name)
	}
}

// RunnerConfig controls cycles and pauses.
type RunnerConfig struct {
	Cycles               int
	Shuffle              bool
	PauseBetweenProfiles [2]float64
	PauseBetweenCycles   [2]float64
	AccountTimeout       time.Duration
}

// RunnerConfigFrom reads the runner settings from config.
func RunnerConfigFrom(cfg *configloader.Config) RunnerConfig {
	return RunnerConfig{
		Cycles:               cfg.Settings.Cycles,
		Shuffle:              cfg.Settings.Shuffle,
		PauseBetweenProfiles: cfg.Settings.PauseBetweenProfiles,
		PauseBetweenCycles:   cfg.Settings.PauseBetweenCycles,
		AccountTimeout:       time.Duration(cfg.Settings.AccountTimeoutSecs) * time.Second,
	}
}

// Summary counts account outcomes over all cycles.
type Summary struct {
	Success int
	Timeout int
	Failed  int
}

func (s Summary) Total() int { return s.Success + s.Timeout + s.Failed }

type RunnerOption func(*AccountRunner)

func WithRunnerRandom(r utils.Random) RunnerOption {
	return func(a *AccountRunner) { a.rnd = r }
}

func WithRunnerSleeper(sleep func(ctx context.Context, d time.Duration) error) RunnerOption {
	return func(a *AccountRunner) { a.sleep = sleep }
}

// WithShuffler replaces the per-cycle shuffle.
func WithShuffler(shuffle func(n int, swap func(i, j int))) RunnerOption {
	return func(a *AccountRunner) { a.shuffle = shuffle }
}

// AccountRunner runs an activity for every account, sequentially, for the
// configured number of cycles. A failed account never stops the run;
// context cancellation does.
type AccountRunner struct {
	cfg      RunnerConfig
	provider port.OnchainClientProvider
	logger   port.Logger
	rnd      utils.Random
	sleep    func(ctx context.Context, d time.Duration) error
	shuffle  func(n int, swap func(i, j int))
}

func NewAccountRunner(cfg RunnerConfig, provider port.OnchainClientProvider, logger port.Logger, opts ...RunnerOption) *AccountRunner {
	if cfg.Cycles <= 0 {
		cfg.Cycles = 1
	}
	r := &AccountRunner{
		cfg:      cfg,
		provider: provider,
		logger:   logger,
		rnd:      utils.DefaultRandom,
		sleep:    utils.Sleep,
		shuffle:  rand.Shuffle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type slot struct {
	account *entity.Account
	index   int
}

// Run executes activity for all accounts. It returns ctx.Err() when the run
// was cancelled, with the summary collected so far.
func (r *AccountRunner) Run(ctx context.Context, accounts []*entity.Account, activity Activity) (Summary, error) {
	var summary Summary
	slots := make([]slot, len(accounts))
	for i, acc := range accounts {
		slots[i] = slot{account: acc, index: i}
	}

	for cycle := 1; cycle <= r.cfg.Cycles; cycle++ {
		if r.cfg.Shuffle {
			r.shuffle(len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })
		}
		r.logger.Info("Начинаю цикл", "activity", activity.Name(), "cycle", cycle, "of", r.cfg.Cycles, "accounts", len(slots))

		for i, sl := range slots {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			outcome, err := r.runOne(ctx, sl, activity)
			switch outcome {
			case OutcomeSuccess:
				summary.Success++
			case OutcomeTimeout:
				summary.Timeout++
			default:
				summary.Failed++
			}
			metrics.AccountOutcomes.WithLabelValues(activity.Name(), outcome).Inc()

			// отмена во время работы аккаунта останавливает весь прогон
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			if err != nil {
				r.logger.Error("Аккаунт завершился с ошибкой", "profile", sl.account.ProfileNumber,
					"address", sl.account.Address().Hex(), "outcome", outcome, "error", err)
			}

			if i < len(slots)-1 {
				if err := r.pause(ctx, r.cfg.PauseBetweenProfiles, "profiles"); err != nil {
					return summary, err
				}
			}
		}

		if cycle < r.cfg.Cycles {
			if err := r.pause(ctx, r.cfg.PauseBetweenCycles, "cycles"); err != nil {
				return summary, err
			}
		}
	}

	r.logger.Info("Прогон завершён", "activity", activity.Name(),
		"success", summary.Success, "timeout", summary.Timeout, "failed", summary.Failed)
	return summary, nil
}

func (r *AccountRunner) runOne(ctx context.Context, sl slot, activity Activity) (outcome string, err error) {
	accCtx := ctx
	if r.cfg.AccountTimeout > 0 {
		var cancel context.CancelFunc
		accCtx, cancel = context.WithTimeout(ctx, r.cfg.AccountTimeout)
		defer cancel()
	}

	session := NewSession(sl.account, sl.index, r.provider)
	defer session.Close()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s: %v", activity.Name(), p)
			outcome = OutcomeError
		}
	}()

	r.logger.Info("Работаю с профилем", "profile", sl.account.ProfileNumber, "address", sl.account.Address().Hex())
	err = activity.Run(accCtx, session)
	outcome = ClassifyOutcome(err)
	if outcome == OutcomeSuccess {
		r.logger.Info("Профиль обработан", "profile", sl.account.ProfileNumber)
	}
	return outcome, err
}

func (r *AccountRunner) pause(ctx context.Context, bounds [2]float64, between string) error {
	d := utils.UniformDuration(r.rnd, bounds[0], bounds[1])
	r.logger.Debug("Пауза", "between", between, "duration", d.String())
	return r.sleep(ctx, d)
}

// ClassifyOutcome maps an activity error to success, timeout or error.
func ClassifyOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, entity.ErrTransactionTimeout),
		errors.Is(err, entity.ErrWithdrawalTimeout):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
