package accountloader

import (
	"fmt"
	"path/filepath"
	"strconv"

	"airdrop_farmer/internal/domain/entity"
	"airdrop_farmer/internal/infrastructure/ledger"
	"airdrop_farmer/internal/pkg/utils"

	"go.uber.org/zap"
)

const (
	SourceExcel = "excel"
	SourceTxt   = "txt"

	AccountsFile = "accounts.xlsx"
)

// Файлы txt-источника, по одному значению на строку.
const (
	profileNumbersFile = "profile_numbers.txt"
	addressesFile      = "addresses.txt"
	passwordsFile      = "passwords.txt"
	privateKeysFile    = "private_keys.txt"
	seedsFile          = "seeds.txt"
	proxiesFile        = "proxies.txt"
)

// AccountLoader reads farm profiles from the accounts spreadsheet or from
// parallel txt files in the data directory.
type AccountLoader struct {
	source     string
	dataDir    string
	dateFormat string
	logger     *zap.Logger
}

func NewAccountLoader(source, dataDir, dateFormat string, logger *zap.Logger) *AccountLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountLoader{source: source, dataDir: dataDir, dateFormat: dateFormat, logger: logger.Named("accounts")}
}

// Load returns every account of the configured source in file order.
func (l *AccountLoader) Load() ([]*entity.Account, error) {
	var (
		accounts []*entity.Account
		err      error
	)
	switch l.source {
	case SourceExcel, "":
		accounts, err = l.loadExcel()
	case SourceTxt:
		accounts, err = l.loadTxt()
	default:
		return nil, fmt.Errorf("unknown accounts source %q", l.source)
	}
	if err != nil {
		return nil, err
	}
	l.logger.Info("Аккаунты загружены", zap.String("source", l.source), zap.Int("count", len(accounts)))
	return accounts, nil
}

func (l *AccountLoader) loadExcel() ([]*entity.Account, error) {
	book, err := ledger.Open(filepath.Join(l.dataDir, AccountsFile), l.dateFormat, l.logger, ledger.AccountHeaders...)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	records, err := book.Records()
	if err != nil {
		return nil, err
	}
	accounts := make([]*entity.Account, 0, len(records))
	for _, rec := range records {
		profile, err := strconv.Atoi(rec[ledger.ProfileColumn])
		if err != nil {
			l.logger.Warn("Некорректный номер профиля, строка пропущена", zap.String("value", rec[ledger.ProfileColumn]))
			continue
		}
		acc, err := entity.NewAccount(profile, rec["Address"], rec["Password"], rec["Private Key"], rec["Seed"], rec["Proxy"])
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

func (l *AccountLoader) readList(name string) ([]string, error) {
	lines, err := utils.ReadLines(filepath.Join(l.dataDir, name), true)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return lines, nil
}

func (l *AccountLoader) loadTxt() ([]*entity.Account, error) {
	names := []string{profileNumbersFile, addressesFile, passwordsFile, privateKeysFile, seedsFile, proxiesFile}
	lists := make(map[string][]string, len(names))
	longest := 0
	for _, name := range names {
		lines, err := l.readList(name)
		if err != nil {
			return nil, err
		}
		lists[name] = lines
		longest = max(longest, len(lines))
	}

	// без profile_numbers.txt профили нумеруются с 1
	count := len(lists[profileNumbersFile])
	if count == 0 {
		count = longest
		for i := 1; i <= count; i++ {
			lists[profileNumbersFile] = append(lists[profileNumbersFile], strconv.Itoa(i))
		}
	}
	for _, name := range names[1:] {
		if n := len(lists[name]); n > 0 && n < count {
			l.logger.Warn("В файле меньше строк, чем профилей, недостающие значения пустые",
				zap.String("file", name), zap.Int("lines", n), zap.Int("profiles", count))
		}
		lists[name] = utils.PadStrings(lists[name], count, "")
	}

	accounts := make([]*entity.Account, 0, count)
	for i := 0; i < count; i++ {
		profile, err := strconv.Atoi(lists[profileNumbersFile][i])
		if err != nil {
			l.logger.Warn("Некорректный номер профиля, строка пропущена", zap.Int("line", i+1))
			continue
		}
		acc, err := entity.NewAccount(profile,
			lists[addressesFile][i], lists[passwordsFile][i], lists[privateKeysFile][i], lists[seedsFile][i], lists[proxiesFile][i])
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// Select keeps the accounts named by a profile expression ("1-5 7"), in
// ascending profile order, optionally shuffled. An empty expression keeps all.
func Select(accounts []*entity.Account, expr string, shuffle bool, logger *zap.Logger) []*entity.Account {
	selected := accounts
	if expr != "" {
		profiles, invalid := utils.ParseProfileSelection(expr)
		if len(invalid) > 0 && logger != nil {
			logger.Warn("Некорректные номера профилей пропущены", zap.Strings("invalid", invalid))
		}
		byProfile := make(map[int]*entity.Account, len(accounts))
		for _, a := range accounts {
			byProfile[a.ProfileNumber] = a
		}
		selected = make([]*entity.Account, 0, len(profiles))
		for _, p := range profiles {
			if a, ok := byProfile[p]; ok {
				selected = append(selected, a)
			}
		}
	} else {
		selected = append([]*entity.Account(nil), accounts...)
	}
	if shuffle {
		utils.Shuffle(selected)
	}
	return selected
}
