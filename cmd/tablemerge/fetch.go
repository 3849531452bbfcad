// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tablemerge/internal/fetch"
	"github.com/pdiddy/tablemerge/internal/secrets"
	"github.com/pdiddy/tablemerge/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "tablemerge/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [urls...]",
	Short: "Download source tables from a data portal",
	Long: `Fetch downloads each URL into <data-dir>/raw/ under the last segment of
its path. Files that already exist are skipped. The portal-token secret,
or --token, is sent as a bearer token. Rate-limited requests (HTTP 429 or
503) are retried with backoff.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	fetchCmd.Flags().String("data-dir", "data", "base directory for data (contains raw/)")
	fetchCmd.Flags().String("token", "", "bearer token for the data portal (default: portal-token secret)")
	fetchCmd.Flags().Int("max-retries", 0, "retries on HTTP 429/503 (default 5)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more URLs")
	}

	targets := make([]fetch.Target, len(args))
	for i, u := range args {
		targets[i] = fetch.Target{URL: u}
	}
	if err := fetch.CheckDistinct(targets); err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	token, _ := cmd.Flags().GetString("token")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DownloadDelay: delay,
		DataDir:       setting(cmd, "data-dir", "data_dir"),
		Token:         secrets.Lookup(loadedSecrets, secrets.KeyPortalToken, token),
		MaxRetries:    maxRetries,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	result := fetch.Batch(cmd.Context(), client, args, cfg, cmd.OutOrStdout())
	if result.HasFailures() {
		return fmt.Errorf("%d source(s) failed to download", result.Failed)
	}
	return nil
}
