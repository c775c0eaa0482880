package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/edumeal/edumeal-api/internal/pkg/signature"
)

type testWebhook struct {
	StudentID     string `json:"studentId"`
	ProductType   string `json:"productType"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transactionId"`
	Description   string `json:"description,omitempty"`
}

func newSendTestWebhookCommand() *cobra.Command {
	var (
		baseURL string
		payload testWebhook
	)

	cmd := &cobra.Command{
		Use:   "send-test-webhook",
		Short: "Post a sample QuickBooks payment to a running API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if payload.TransactionID == "" {
				payload.TransactionID = fmt.Sprintf("QB-TEST-%d", time.Now().Unix())
			}
			status, body, err := sendWebhook(cmd.Context(), http.DefaultClient, baseURL, payload, cfg.WebhookSecret)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", status, bytes.TrimSpace(body))
			if status >= http.StatusBadRequest {
				return fmt.Errorf("webhook rejected with status %d", status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:5000", "API base URL")
	cmd.Flags().StringVar(&payload.StudentID, "student", "STU001", "School student id")
	cmd.Flags().StringVar(&payload.ProductType, "plan", "weekly", "Product type")
	cmd.Flags().StringVar(&payload.Amount, "amount", "25.00", "Amount paid")
	cmd.Flags().StringVar(&payload.TransactionID, "transaction", "", "Transaction id (default QB-TEST-<unix>)")
	cmd.Flags().StringVar(&payload.Description, "description", "", "Payer description, e.g. \"Jane Doe STU099\"")

	return cmd
}

// sendWebhook posts payload to the QuickBooks endpoint, signing it when a
// secret is configured.
func sendWebhook(ctx context.Context, client *http.Client, baseURL string, payload testWebhook, secret string) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/webhooks/quickbooks", bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Signature", signature.SignHex(body, secret))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}
