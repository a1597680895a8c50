package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/headline-goat/oconv/internal/testutil"
)

type env struct {
	endpoint string
	dbPath   string
}

func setupEnv(t *testing.T) env {
	t.Helper()
	_, url := testutil.SetupSandbox(t)
	return env{endpoint: url, dbPath: testutil.TempDBPath(t)}
}

// execute runs the root command against e and returns stdout.
func (e env) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--endpoint", e.endpoint, "--db", e.dbPath}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags puts every flag of cmd and its subcommands back to its default,
// so commands can be executed more than once in a test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestRun_Success(t *testing.T) {
	e := setupEnv(t)

	out, err := e.execute(t, "run",
		"--name", "Sample Conversion",
		"--gclid", "abc123",
		"--time", "20140101 120000",
		"--value", "123.45",
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, want := range []string{
		"CLICK_PERFORMANCE_REPORT",
		"New upload conversion type with name = 'Sample Conversion' and id = 1 was created.",
		"Uploaded offline conversion value of 123.45 for Google Click ID = 'abc123' to 'Sample Conversion'.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n\nGot:\n%s", want, out)
		}
	}
}

func TestRun_MissingFlags(t *testing.T) {
	e := setupEnv(t)

	_, err := e.execute(t, "run", "--name", "Sample Conversion")
	if err == nil {
		t.Fatal("expected error for missing flags, got nil")
	}
	for _, want := range []string{"--gclid", "--time", "--value"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestRun_UploadFailureKeepsDefinition(t *testing.T) {
	e := setupEnv(t)

	out, err := e.execute(t, "run",
		"--name", "Sample Conversion",
		"--gclid", "abc123",
		"--time", "2014-01-01",
		"--value", "1",
	)
	if err == nil {
		t.Fatal("expected error for unparseable time, got nil")
	}
	if !strings.Contains(err.Error(), "failed to upload offline conversions") {
		t.Errorf("expected the upload failure, got: %v", err)
	}
	if !strings.Contains(err.Error(), "UNPARSEABLE_DATE") {
		t.Errorf("expected the service's date fault, got: %v", err)
	}
	if !strings.Contains(out, "New upload conversion type with name = 'Sample Conversion'") {
		t.Errorf("definition should still be reported\n\nGot:\n%s", out)
	}
	if strings.Contains(out, "Uploaded offline conversion") {
		t.Errorf("nothing should be reported as uploaded\n\nGot:\n%s", out)
	}

	history, err := e.execute(t, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(history, "failed") {
		t.Errorf("history should show the failed upload\n\nGot:\n%s", history)
	}
}

func TestRun_DuplicateName(t *testing.T) {
	e := setupEnv(t)
	args := []string{"run", "--name", "Dup", "--gclid", "abc123", "--time", "20140101 120000", "--value", "1"}

	if _, err := e.execute(t, args...); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	out, err := e.execute(t, args...)
	if err == nil {
		t.Fatal("expected error for duplicate name, got nil")
	}
	if !strings.Contains(err.Error(), "DUPLICATE_NAME") {
		t.Errorf("expected the service's duplicate name fault, got: %v", err)
	}
	if strings.Contains(out, "New upload conversion type") {
		t.Errorf("no definition should be reported\n\nGot:\n%s", out)
	}
}

func TestDefineAndPush(t *testing.T) {
	e := setupEnv(t)

	out, err := e.execute(t, "define", "Leads")
	if err != nil {
		t.Fatalf("define failed: %v", err)
	}
	if !strings.Contains(out, "name = 'Leads' and id = 1") {
		t.Errorf("unexpected define output:\n%s", out)
	}

	out, err = e.execute(t, "push", "Leads", "--gclid", "g1", "--time", "20140102 080000", "--value", "10")
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if !strings.Contains(out, "value of 10 for Google Click ID = 'g1' to 'Leads'") {
		t.Errorf("unexpected push output:\n%s", out)
	}
}

func TestPush_File(t *testing.T) {
	e := setupEnv(t)

	if _, err := e.execute(t, "define", "Leads"); err != nil {
		t.Fatalf("define failed: %v", err)
	}

	file := filepath.Join(t.TempDir(), "conversions.csv")
	csvData := "google_click_id,conversion_time,conversion_value,conversion_name\n" +
		"g1,20140102 080000,10,\n" +
		"g2,20140103 080000,2.5,Leads\n"
	if err := os.WriteFile(file, []byte(csvData), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	out, err := e.execute(t, "push", "Leads", "--file", file)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if strings.Count(out, "Uploaded offline conversion") != 2 {
		t.Errorf("expected 2 uploads reported\n\nGot:\n%s", out)
	}
}

func TestPush_FileRowWithoutName(t *testing.T) {
	e := setupEnv(t)

	file := filepath.Join(t.TempDir(), "conversions.json")
	if err := os.WriteFile(file, []byte(`[{"googleClickId":"g1","conversionTime":"20140102 080000","conversionValue":1}]`), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := e.execute(t, "push", "--file", file)
	if err == nil {
		t.Fatal("expected error for row without a name, got nil")
	}
}

func TestPush_Validation(t *testing.T) {
	e := setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no name", []string{"push", "--gclid", "g", "--time", "20140101 120000", "--value", "1"}},
		{"no value", []string{"push", "Leads", "--gclid", "g", "--time", "20140101 120000"}},
		{"file and gclid", []string{"push", "Leads", "--file", "x.csv", "--gclid", "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.execute(t, tt.args...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestNoJournal(t *testing.T) {
	e := setupEnv(t)

	if _, err := e.execute(t, "--no-journal", "define", "Leads"); err != nil {
		t.Fatalf("define failed: %v", err)
	}

	out, err := e.execute(t, "history", "--definitions")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No upload conversions found") {
		t.Errorf("nothing should be journaled\n\nGot:\n%s", out)
	}
}

func TestHistory(t *testing.T) {
	e := setupEnv(t)

	if _, err := e.execute(t, "run", "--name", "Leads", "--gclid", "g1", "--time", "20140101 120000", "--value", "4"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out, err := e.execute(t, "history", "--definitions")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	for _, want := range []string{"NAME", "Leads", "PAGE_VIEW", "30d", "90d"} {
		if !strings.Contains(out, want) {
			t.Errorf("definitions missing %q\n\nGot:\n%s", want, out)
		}
	}

	out, err = e.execute(t, "history", "--name", "Leads")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	for _, want := range []string{"Upload conversion 'Leads' (id 1, PAGE_VIEW, 30d view-through, 90d click-through)", "g1", "20140101 120000", "uploaded", "TOTAL VALUE", "4.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("uploads missing %q\n\nGot:\n%s", want, out)
		}
	}

	out, err = e.execute(t, "history", "--name", "Other")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No uploads found.") {
		t.Errorf("expected empty history\n\nGot:\n%s", out)
	}
	if !strings.Contains(out, "Upload conversion 'Other' was not created from this journal.") {
		t.Errorf("expected unknown definition notice\n\nGot:\n%s", out)
	}
}

func TestExport(t *testing.T) {
	e := setupEnv(t)

	if _, err := e.execute(t, "run", "--name", "Leads", "--gclid", "g1", "--time", "20140101 120000", "--value", "4.5"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out, err := e.execute(t, "export", "--format", "csv")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and 1 row, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "conversion_name,google_click_id,conversion_time,conversion_value") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Leads,g1,20140101 120000,4.5,uploaded") {
		t.Errorf("unexpected row: %s", lines[1])
	}

	out, err = e.execute(t, "export", "--format", "json")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var export jsonExport
	if err := json.Unmarshal([]byte(out), &export); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if len(export.Uploads) != 1 || export.Uploads[0].ConversionValue != 4.5 {
		t.Errorf("unexpected export: %+v", export)
	}

	if _, err := e.execute(t, "export", "--format", "xml"); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestValidateValue(t *testing.T) {
	for _, ok := range []string{"1", "123.45", " 0 ", "-3"} {
		if err := validateValue(ok); err != nil {
			t.Errorf("validateValue(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "abc", "1,5"} {
		if err := validateValue(bad); err == nil {
			t.Errorf("validateValue(%q) expected error", bad)
		}
	}
}

func TestValidateNonEmpty(t *testing.T) {
	if err := validateNonEmpty("Leads"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := validateNonEmpty("   "); err == nil {
		t.Error("expected error for blank input")
	}
}

func TestParseClick(t *testing.T) {
	gclid, at, err := parseClick("abc123@20140101 080000")
	if err != nil {
		t.Fatalf("parseClick failed: %v", err)
	}
	if gclid != "abc123" {
		t.Errorf("got gclid %s, want abc123", gclid)
	}
	if !at.Equal(time.Date(2014, 1, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("got time %v", at)
	}

	for _, bad := range []string{"abc123", "@20140101 080000", "abc123@yesterday"} {
		if _, _, err := parseClick(bad); err == nil {
			t.Errorf("parseClick(%q) expected error", bad)
		}
	}
}
