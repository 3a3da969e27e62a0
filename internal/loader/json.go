package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

type jsonLoader struct{}

func (jsonLoader) CanLoad(filename string) bool { return hasExt(filename, ".json") }

func (jsonLoader) Load(_ context.Context, path string, opt Options) (*dataset.Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return parseJSON(b, filepath.Base(path), opt.MaxRows)
}

// parseJSON accepts an array of objects or a single object. Columns follow
// the key order of the first object; keys first seen later are appended.
// Any other top-level shape yields an empty dataset.
func parseJSON(b []byte, name string, maxRows int) (*dataset.Dataset, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return dataset.New(name, nil, nil), nil
	}
	var items []json.RawMessage
	switch b[0] {
	case '[':
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case '{':
		items = []json.RawMessage{b}
	default:
		return dataset.New(name, nil, nil), nil
	}

	var columns []string
	index := map[string]int{}
	var objects []map[string]any
	for _, raw := range items {
		if maxRows > 0 && len(objects) >= maxRows {
			break
		}
		keys, obj, ok, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("parse json row %d: %w", len(objects)+1, err)
		}
		if !ok {
			continue
		}
		for _, k := range keys {
			if _, seen := index[k]; !seen {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
		objects = append(objects, obj)
	}

	values := make([][]dataset.Value, len(objects))
	for i, obj := range objects {
		row := make([]dataset.Value, len(columns))
		for k, v := range obj {
			row[index[k]] = jsonValue(v)
		}
		values[i] = row
	}
	return dataset.New(name, columns, values), nil
}

// decodeObject reads one JSON object keeping its key order. ok is false
// when raw is not an object.
func decodeObject(raw json.RawMessage) (keys []string, obj map[string]any, ok bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, false, err
	}
	if d, isDelim := tok.(json.Delim); !isDelim || d != '{' {
		return nil, nil, false, nil
	}
	obj = map[string]any{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, false, err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, false, err
		}
		if _, dup := obj[key]; !dup {
			keys = append(keys, key)
		}
		obj[key] = v
	}
	return keys, obj, true, nil
}

func jsonValue(v any) dataset.Value {
	switch x := v.(type) {
	case nil:
		return dataset.Null
	case json.Number:
		return dataset.ParseCell(x.String())
	case string:
		return dataset.ParseCell(x)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return dataset.Null
		}
		return dataset.Str(string(b))
	default:
		return dataset.Str(cast.ToString(x))
	}
}
