package commands

import (
	"strings"
	"testing"
)

func TestFormatRoutesTable(t *testing.T) {
	t.Parallel()

	routes := []routeView{
		{Destination: "10.0.0.0", PrefixLen: 24, Nexthop: "0.0.0.0", IfIndex: 1, Metric: 1},
	}

	out, err := formatRoutes(routes, formatTable)
	if err != nil {
		t.Fatalf("formatRoutes: %v", err)
	}
	if !strings.Contains(out, "10.0.0.0") || !strings.Contains(out, "/24") {
		t.Errorf("table output missing expected fields: %q", out)
	}
}

func TestFormatRoutesJSON(t *testing.T) {
	t.Parallel()

	routes := []routeView{
		{Destination: "172.16.0.0", PrefixLen: 16, Nexthop: "10.0.1.2", IfIndex: 2, Metric: 4},
	}

	out, err := formatRoutes(routes, formatJSON)
	if err != nil {
		t.Fatalf("formatRoutes: %v", err)
	}
	if !strings.Contains(out, `"destination": "172.16.0.0"`) {
		t.Errorf("JSON output missing expected field: %q", out)
	}
}

func TestFormatRoutesUnsupportedFormat(t *testing.T) {
	t.Parallel()

	if _, err := formatRoutes(nil, "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatHealthTable(t *testing.T) {
	t.Parallel()

	out, err := formatHealth(healthView{Status: "ok", Uptime: 42}, formatTable)
	if err != nil {
		t.Fatalf("formatHealth: %v", err)
	}
	if !strings.Contains(out, "status: ok") || !strings.Contains(out, "42") {
		t.Errorf("table output missing expected fields: %q", out)
	}
}
