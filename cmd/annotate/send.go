package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agenthands/districtlinker/internal/qanary"
)

var (
	componentURL string
	sendTimeout  time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Post a pipeline message to a running component",
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := message()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
		defer cancel()

		body, err := send(ctx, &http.Client{}, componentURL, msg)
		if err != nil {
			return err
		}
		color.Green("PASSED: %s/annotatequestion\n", strings.TrimRight(componentURL, "/"))
		printf("%s\n", body)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVarP(&componentURL, "url", "u", "http://localhost:8080", "Base URL of the component")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 2*time.Minute, "Request timeout")
}

func send(ctx context.Context, client *http.Client, baseURL string, msg qanary.Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(baseURL, "/") + "/annotatequestion"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return body, fmt.Errorf("component answered %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
