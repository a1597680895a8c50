package batch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	input := `conversion_name,google_click_id,conversion_time,conversion_value
Sample Conversion,abc123,20140101 120000,123.45
Sample Conversion,def456,20140102 080000,10
`
	got, err := Read(strings.NewReader(input), FormatCSV)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d conversions, want 2", len(got))
	}
	if got[0].ConversionName != "Sample Conversion" {
		t.Errorf("got ConversionName %q", got[0].ConversionName)
	}
	if got[0].GoogleClickID != "abc123" {
		t.Errorf("got GoogleClickID %q, want abc123", got[0].GoogleClickID)
	}
	if got[0].ConversionTime != "20140101 120000" {
		t.Errorf("got ConversionTime %q", got[0].ConversionTime)
	}
	if got[0].Value != 123.45 {
		t.Errorf("got Value %v, want 123.45", got[0].Value)
	}
	if got[1].Value != 10 {
		t.Errorf("got Value %v, want 10", got[1].Value)
	}
}

func TestReadCSV_ColumnOrder(t *testing.T) {
	input := `conversion_value,conversion_time,google_click_id,conversion_name
1.5,20140101 120000,abc123,Leads
`
	got, err := Read(strings.NewReader(input), FormatCSV)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 1 || got[0].ConversionName != "Leads" || got[0].Value != 1.5 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing column", "conversion_name,google_click_id,conversion_time\nA,b,c\n"},
		{"bad value", "conversion_name,google_click_id,conversion_time,conversion_value\nA,b,20140101 120000,lots\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input), FormatCSV); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReadJSON_Array(t *testing.T) {
	input := `[
  {"conversionName": "Sample Conversion", "googleClickId": "abc123", "conversionTime": "20140101 120000", "conversionValue": 123.45},
  {"conversionName": "Sample Conversion", "googleClickId": "def456", "conversionTime": "20140102 080000", "conversionValue": "7.25"}
]`
	got, err := Read(strings.NewReader(input), FormatJSON)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d conversions, want 2", len(got))
	}
	if got[0].GoogleClickID != "abc123" || got[0].Value != 123.45 {
		t.Errorf("unexpected first conversion: %+v", got[0])
	}
	if got[1].Value != 7.25 {
		t.Errorf("got Value %v, want 7.25", got[1].Value)
	}
}

func TestReadJSON_SingleObject(t *testing.T) {
	input := `{"conversionName": "Leads", "googleClickId": "abc123", "conversionTime": "20140101 120000", "conversionValue": 1}`
	got, err := Read(strings.NewReader(input), FormatJSON)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 1 || got[0].ConversionName != "Leads" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestReadJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid", `{"conversionName":`},
		{"missing value", `[{"conversionName": "Leads", "googleClickId": "abc123"}]`},
		{"not an object", `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input), FormatJSON); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conversions.json")
	content := `[{"conversionName": "Leads", "googleClickId": "abc123", "conversionTime": "20140101 120000", "conversionValue": 2}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d conversions, want 1", len(got))
	}

	if _, err := ReadFile(filepath.Join(dir, "conversions.xml")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
