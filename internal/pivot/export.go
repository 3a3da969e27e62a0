package pivot

import (
	"encoding/json"
	"fmt"
	"time"
)

// DataInfo summarizes the input behind an export.
type DataInfo struct {
	TotalRows int `json:"totalRows"`
	Columns   int `json:"columns"`
}

// Export is the JSON summary written by `pivot --export`.
type Export struct {
	Timestamp     time.Time        `json:"timestamp"`
	Configuration Configuration    `json:"configuration"`
	Data          []map[string]any `json:"data"`
	DataInfo      DataInfo         `json:"dataInfo"`
}

// NewExport bundles a configuration with its result. totalRows counts the
// filtered rows and columns the number of available fields.
func NewExport(cfg Configuration, res *Result, columns int, now time.Time) Export {
	e := Export{
		Timestamp:     now.UTC(),
		Configuration: cfg,
		Data:          []map[string]any{},
		DataInfo:      DataInfo{Columns: columns},
	}
	if res != nil {
		e.Data = append(e.Data, res.Maps()...)
		e.DataInfo.TotalRows = res.FilteredRows
	}
	return e
}

// JSON renders the export indented by two spaces.
func (e Export) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return b, nil
}
