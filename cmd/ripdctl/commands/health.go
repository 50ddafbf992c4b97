package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// healthView mirrors internal/admin's healthz wire shape.
type healthView struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime_seconds"`
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon liveness",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			h, err := fetchHealth()
			if err != nil {
				return fmt.Errorf("fetch health: %w", err)
			}

			out, err := formatHealth(h, outputFormat)
			if err != nil {
				return fmt.Errorf("format health: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

func fetchHealth() (healthView, error) {
	resp, err := client.Get(adminURL("/healthz"))
	if err != nil {
		return healthView{}, fmt.Errorf("GET /healthz: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return healthView{}, fmt.Errorf("GET /healthz: unexpected status %s", resp.Status)
	}

	var h healthView
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return healthView{}, fmt.Errorf("decode health response: %w", err)
	}
	return h, nil
}
