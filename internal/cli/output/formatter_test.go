package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("json format did not produce a JSONFormatter")
	}
	if _, ok := NewFormatter(FormatTable).(*TableFormatter); !ok {
		t.Error("table format did not produce a TableFormatter")
	}
	if _, ok := NewFormatter("bogus").(*TableFormatter); !ok {
		t.Error("unknown format did not fall back to table")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	err := (&JSONFormatter{}).Format(&buf, map[string]int{"topology_id": 3})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["topology_id"] != 3 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	table := Table{
		Headers: []string{"CACHE", "TOPOLOGY"},
		Rows: [][]string{
			{"users", "3"},
			{"orders", "7"},
		},
	}
	if err := (&TableFormatter{}).Format(&buf, table); err != nil {
		t.Fatalf("Format: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"CACHE", "TOPOLOGY", "users", "orders"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatterFallback(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, "plain value"); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(buf.String(), "plain value") {
		t.Errorf("fallback output = %q", buf.String())
	}
}
