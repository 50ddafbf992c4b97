package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// routeView mirrors internal/admin's wire shape for one routing table
// entry; duplicated here rather than imported so ripdctl depends only
// on the wire contract, not the daemon's internal packages.
type routeView struct {
	Destination string `json:"destination"`
	PrefixLen   int    `json:"prefix_len"`
	Nexthop     string `json:"nexthop"`
	IfIndex     int    `json:"if_index"`
	Metric      int    `json:"metric"`
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the routing table",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			routes, err := fetchRoutes()
			if err != nil {
				return fmt.Errorf("fetch routes: %w", err)
			}

			out, err := formatRoutes(routes, outputFormat)
			if err != nil {
				return fmt.Errorf("format routes: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

func fetchRoutes() ([]routeView, error) {
	resp, err := client.Get(adminURL("/routes"))
	if err != nil {
		return nil, fmt.Errorf("GET /routes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET /routes: unexpected status %s", resp.Status)
	}

	var routes []routeView
	if err := json.NewDecoder(resp.Body).Decode(&routes); err != nil {
		return nil, fmt.Errorf("decode routes response: %w", err)
	}
	return routes, nil
}
