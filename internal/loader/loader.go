// Package loader reads tabular files into datasets.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

// Options controls how a file is turned into a dataset.
type Options struct {
	// Sheet selects a worksheet (xlsx) or table (sqlite) by name.
	Sheet string
	// SheetIndex is a 1-based fallback when Sheet is empty.
	SheetIndex int
	// Delimiter for CSV. If 0, it is picked from the file extension.
	Delimiter rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	Logger  *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Loader reads one file format.
type Loader interface {
	CanLoad(filename string) bool
	Load(ctx context.Context, path string, opt Options) (*dataset.Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no loader accepts the file.
var ErrUnsupported = errors.New("unsupported data format")

// LoadFile picks a loader by filename and reads path.
func LoadFile(ctx context.Context, path string, opt Options) (*dataset.Dataset, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			ds, err := l.Load(ctx, path, opt)
			if err != nil {
				return nil, err
			}
			opt.logger().Debug("Loaded dataset",
				zap.String("file", ds.Name),
				zap.String("sheet", ds.Sheet),
				zap.Int("rows", ds.Len()),
				zap.Int("columns", ds.Schema.Len()),
			)
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
}

// Supported reports whether some loader accepts filename.
func Supported(filename string) bool {
	for _, l := range registry {
		if l.CanLoad(filename) {
			return true
		}
	}
	return false
}

// Extensions lists the file extensions the built-in loaders accept.
func Extensions() []string {
	return []string{".csv", ".tsv", ".json", ".xlsx", ".xlsm", ".db", ".sqlite", ".sqlite3"}
}

func init() {
	Register(csvLoader{})
	Register(jsonLoader{})
	Register(xlsxLoader{})
	Register(sqliteLoader{})
}

func hasExt(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

// NormalizeHeaders trims and NFC-normalizes column names, names blank
// columns Column_<n> and suffixes repeated names with _2, _3 and so on.
func NormalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = norm.NFC.String(strings.TrimSpace(h))
		if h == "" {
			h = "Column_" + strconv.Itoa(i+1)
		}
		name := h
		for n := 2; ; n++ {
			if _, taken := seen[name]; !taken {
				break
			}
			name = h + "_" + strconv.Itoa(n)
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out
}

// pickSheet resolves a sheet by case-insensitive name, then by 1-based
// index, defaulting to the first one.
func pickSheet(sheets []string, opt Options, file string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("no sheets in '%s'", file)
	}
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			opt.Sheet, file, strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range for '%s' (%d sheets)", idx, file, len(sheets))
	}
	return sheets[idx-1], nil
}

// fromRecords builds a dataset from a header row and string records.
func fromRecords(name string, header []string, records [][]string) *dataset.Dataset {
	return dataset.FromRecords(name, NormalizeHeaders(header), records)
}
