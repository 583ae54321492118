package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/duynhne/user-console/config"
)

// healthcheckCmd probes /health on the local server. Meant for container
// HEALTHCHECK in images without curl.
func healthcheckCmd() *cobra.Command {
	var port string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check that the local server answers /health",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = config.Load().Service.Port
			}
			return runHealthcheck(port, timeout)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "server port (defaults to PORT)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func runHealthcheck(port string, timeout time.Duration) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: timeout}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
