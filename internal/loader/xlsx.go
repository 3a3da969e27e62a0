package loader

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool { return hasExt(filename, ".xlsx", ".xlsm") }

// Load reads one worksheet. The first row holds the headers; every sheet
// name of the workbook is recorded on the dataset.
func (xlsxLoader) Load(_ context.Context, path string, opt Options) (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	sheets := f.GetSheetList()
	sheet, err := pickSheet(sheets, opt, name)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var ds *dataset.Dataset
	if len(rows) == 0 {
		ds = dataset.New(name, nil, nil)
	} else {
		body := rows[1:]
		if opt.MaxRows > 0 && len(body) > opt.MaxRows {
			body = body[:opt.MaxRows]
		}
		records := make([][]string, 0, len(body))
		for _, r := range body {
			if !isBlank(r) {
				records = append(records, r)
			}
		}
		ds = fromRecords(name, rows[0], records)
	}
	ds.Sheet = sheet
	ds.Sheets = sheets
	return ds, nil
}
