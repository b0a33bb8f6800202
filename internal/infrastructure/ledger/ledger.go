package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const ProfileColumn = "Profile Number"

// AccountHeaders are written into a freshly created accounts spreadsheet.
var AccountHeaders = []string{ProfileColumn, "Address", "Password", "Seed", "Private Key", "Proxy"} //nolint:gochecknoglobals

// ErrNotNumber returned when a counter cell holds text.
var ErrNotNumber = errors.New("cell value is not a number")

// Ledger is a spreadsheet with one row per profile. Row 1 holds column
// names, column A the profile number. Every write saves the file.
type Ledger struct {
	mu         sync.Mutex
	path       string
	file       *excelize.File
	sheet      string
	dateFormat string
	logger     *zap.Logger

	columns map[string]int // имя столбца -> номер (с 1)
	rows    map[int]int    // профиль -> номер строки
	lastRow int
	lastCol int
}

// Open loads the spreadsheet at path or creates it with headers (column A is
// always the profile number).
func Open(path, dateFormat string, logger *zap.Logger, headers ...string) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		path:       path,
		dateFormat: dateFormat,
		logger:     logger.Named("ledger").With(zap.String("file", filepath.Base(path))),
		columns:    make(map[string]int),
		rows:       make(map[int]int),
	}

	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := l.create(headers); err != nil {
			return nil, err
		}
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	l.file = f
	l.sheet = f.GetSheetName(f.GetActiveSheetIndex())
	if err := l.index(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) create(headers []string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(l.path), err)
	}
	l.file = excelize.NewFile()
	l.sheet = l.file.GetSheetName(l.file.GetActiveSheetIndex())

	all := []string{ProfileColumn}
	for _, h := range headers {
		if h != ProfileColumn {
			all = append(all, h)
		}
	}
	for i, h := range all {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := l.file.SetCellValue(l.sheet, cell, h); err != nil {
			return err
		}
		l.columns[h] = i + 1
	}
	l.lastCol = len(all)
	l.lastRow = 1
	l.logger.Info("Создана новая таблица", zap.Strings("headers", all))
	return l.save()
}

func (l *Ledger) index() error {
	rows, err := l.file.GetRows(l.sheet)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", l.path, err)
	}
	l.lastRow = max(len(rows), 1)
	if len(rows) == 0 {
		return nil
	}
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := l.columns[name]; !dup {
			l.columns[name] = i + 1
		}
		l.lastCol = i + 1
	}
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if profile, err := strconv.Atoi(strings.TrimSpace(row[0])); err == nil {
			if _, dup := l.rows[profile]; !dup {
				l.rows[profile] = i + 2
			}
		}
	}
	return nil
}

func (l *Ledger) save() error {
	if err := l.file.SaveAs(l.path); err != nil {
		return fmt.Errorf("failed to save %s: %w", l.path, err)
	}
	return nil
}

// row returns the row of profile, appending one when missing.
func (l *Ledger) row(profile int) (int, error) {
	if r, ok := l.rows[profile]; ok {
		return r, nil
	}
	l.lastRow++
	cell, _ := excelize.CoordinatesToCellName(1, l.lastRow)
	if err := l.file.SetCellValue(l.sheet, cell, profile); err != nil {
		return 0, err
	}
	l.rows[profile] = l.lastRow
	return l.lastRow, l.save()
}

// column returns the column of name, creating it at the end when missing.
func (l *Ledger) column(name string) (int, error) {
	if c, ok := l.columns[name]; ok {
		return c, nil
	}
	l.logger.Warn("Столбец не найден, создаём новый", zap.String("column", name))
	l.lastCol++
	cell, _ := excelize.CoordinatesToCellName(l.lastCol, 1)
	if err := l.file.SetCellValue(l.sheet, cell, name); err != nil {
		return 0, err
	}
	l.columns[name] = l.lastCol
	return l.lastCol, l.save()
}

func (l *Ledger) cell(profile int, column string) (string, error) {
	r, err := l.row(profile)
	if err != nil {
		return "", err
	}
	c, err := l.column(column)
	if err != nil {
		return "", err
	}
	return excelize.CoordinatesToCellName(c, r)
}

func (l *Ledger) SetCell(profile int, column string, value any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cell, err := l.cell(profile, column)
	if err != nil {
		return err
	}
	if err := l.file.SetCellValue(l.sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", cell, err)
	}
	return l.save()
}

func (l *Ledger) GetCell(profile int, column string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getCell(profile, column)
}

func (l *Ledger) getCell(profile int, column string) (string, error) {
	cell, err := l.cell(profile, column)
	if err != nil {
		return "", err
	}
	return l.file.GetCellValue(l.sheet, cell)
}

// SetDate writes at in the configured date format.
func (l *Ledger) SetDate(profile int, column string, at time.Time) error {
	return l.SetCell(profile, column, at.Format(l.dateFormat))
}

// GetDate parses the date cell. An empty cell yields the current moment in
// year 2000 so that "long ago" checks pass.
func (l *Ledger) GetDate(profile int, column string) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	raw, err := l.getCell(profile, column)
	if err != nil {
		return time.Time{}, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		l.logger.Error("Не нашли дату в столбце, возвращаем старую дату", zap.Int("profile", profile), zap.String("column", column))
		now := time.Now()
		return time.Date(2000, now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.Local), nil
	}
	t, err := time.ParseInLocation(l.dateFormat, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q in %s: %w", raw, column, err)
	}
	return t, nil
}

func parseCounter(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrNotNumber, raw)
}

// GetCounter returns the numeric cell value, 0 for an empty cell.
func (l *Ledger) GetCounter(profile int, column string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	raw, err := l.getCell(profile, column)
	if err != nil {
		return 0, err
	}
	n, err := parseCounter(raw)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return n, nil
}

func (l *Ledger) IncreaseCounter(profile int, column string, delta int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cell, err := l.cell(profile, column)
	if err != nil {
		return 0, err
	}
	raw, err := l.file.GetCellValue(l.sheet, cell)
	if err != nil {
		return 0, err
	}
	n, err := parseCounter(raw)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	n += delta
	if err := l.file.SetCellValue(l.sheet, cell, n); err != nil {
		return 0, err
	}
	return n, l.save()
}

// GetColumn returns the values of column below the header; skipEmpty drops
// blank cells.
func (l *Ledger) GetColumn(column string, skipEmpty bool) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, err := l.column(column)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, l.lastRow)
	for r := 2; r <= l.lastRow; r++ {
		cell, _ := excelize.CoordinatesToCellName(c, r)
		v, err := l.file.GetCellValue(l.sheet, cell)
		if err != nil {
			return nil, err
		}
		if skipEmpty && strings.TrimSpace(v) == "" {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

// AddRow appends values after the last row.
func (l *Ledger) AddRow(values ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastRow++
	cell, _ := excelize.CoordinatesToCellName(1, l.lastRow)
	if err := l.file.SetSheetRow(l.sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	if len(values) > 0 {
		if profile, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(values[0]))); err == nil {
			if _, dup := l.rows[profile]; !dup {
				l.rows[profile] = l.lastRow
			}
		}
	}
	return l.save()
}

// Records returns every data row as header -> value.
func (l *Ledger) Records() ([]map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows, err := l.file.GetRows(l.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}
	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		empty := true
		for i, name := range header {
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
				if rec[name] != "" {
					empty = false
				}
			}
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
