package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/headline-goat/oconv/internal/uploader"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var csvHeader = []string{"conversion_name", "google_click_id", "conversion_time", "conversion_value"}

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported file type %q: must be .csv or .json", filepath.Ext(path))
	}
}

// ReadFile reads conversions from a .csv or .json file.
func ReadFile(path string) ([]uploader.Conversion, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, format)
}

func Read(r io.Reader, format Format) ([]uploader.Conversion, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatJSON:
		return readJSON(r)
	default:
		return nil, fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}
}

func readCSV(r io.Reader) ([]uploader.Conversion, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Columns may come in any order
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range csvHeader {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var out []uploader.Conversion
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(rec[index["conversion_value"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid conversion_value: %w", line, err)
		}

		out = append(out, uploader.Conversion{
			ConversionName: strings.TrimSpace(rec[index["conversion_name"]]),
			GoogleClickID:  strings.TrimSpace(rec[index["google_click_id"]]),
			ConversionTime: strings.TrimSpace(rec[index["conversion_time"]]),
			Value:          value,
		})
	}

	return out, nil
}

func readJSON(r io.Reader) ([]uploader.Conversion, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read json: %w", err)
	}

	jsonStr := string(body)
	if !gjson.Valid(jsonStr) {
		return nil, errors.New("invalid json")
	}

	result := gjson.Parse(jsonStr)
	if !result.IsArray() {
		// Single object
		c, err := conversionFromJSON(result)
		if err != nil {
			return nil, err
		}
		return []uploader.Conversion{c}, nil
	}

	var out []uploader.Conversion
	var firstErr error
	result.ForEach(func(key, value gjson.Result) bool {
		c, err := conversionFromJSON(value)
		if err != nil {
			firstErr = fmt.Errorf("item %d: %w", key.Int(), err)
			return false
		}
		out = append(out, c)
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}

	return out, nil
}

func conversionFromJSON(v gjson.Result) (uploader.Conversion, error) {
	if !v.IsObject() {
		return uploader.Conversion{}, errors.New("expected an object")
	}

	value := v.Get("conversionValue")
	var amount float64
	switch value.Type {
	case gjson.Number:
		amount = value.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(value.String()), 64)
		if err != nil {
			return uploader.Conversion{}, fmt.Errorf("invalid conversionValue: %w", err)
		}
		amount = f
	default:
		return uploader.Conversion{}, errors.New("missing conversionValue")
	}

	return uploader.Conversion{
		ConversionName: v.Get("conversionName").String(),
		GoogleClickID:  v.Get("googleClickId").String(),
		ConversionTime: v.Get("conversionTime").String(),
		Value:          amount,
	}, nil
}
