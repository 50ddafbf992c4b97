package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatRoutes renders a slice of routing table entries in the
// requested format.
func formatRoutes(routes []routeView, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(routes, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal routes to JSON: %w", err)
		}
		return string(data), nil
	case formatTable:
		return formatRoutesTable(routes), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatRoutesTable(routes []routeView) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DESTINATION\tPREFIX\tNEXTHOP\tIFINDEX\tMETRIC")

	for _, r := range routes {
		fmt.Fprintf(w, "%s\t/%d\t%s\t%d\t%d\n",
			r.Destination, r.PrefixLen, r.Nexthop, r.IfIndex, r.Metric)
	}

	_ = w.Flush()
	return buf.String()
}

// formatHealth renders a health check response in the requested format.
func formatHealth(h healthView, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(h, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal health to JSON: %w", err)
		}
		return string(data), nil
	case formatTable:
		return fmt.Sprintf("status: %s\nuptime: %ds\n", h.Status, h.Uptime), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}
