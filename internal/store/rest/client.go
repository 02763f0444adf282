// Package rest implements the TransactionStore port against the remote REST
// API that owns transactions.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

const dateLayout = "2006-01-02"

type Client struct {
	base  string
	token string
	http  *http.Client
}

var _ store.TransactionStore = (*Client)(nil)

// New creates a client for the store at baseURL. The token, when non-empty,
// is sent as a bearer credential.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		http: &http.Client{
			Timeout:   timeout,
			Transport: newPooledTransport(),
		},
	}
}

// newPooledTransport configures connection pooling and per-phase timeouts for
// the store API.
func newPooledTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// wireTransaction is the store's JSON shape. The category travels as a flat
// categoryId; the embedded name is local-only.
type wireTransaction struct {
	ID            string          `json:"id,omitempty"`
	Amount        float64         `json:"amount"`
	CategoryID    string          `json:"categoryId"`
	Description   string          `json:"description"`
	OccurredOn    string          `json:"occurredOn"`
	Type          string          `json:"type"`
	AccountID     string          `json:"accountId,omitempty"`
	PersonalShare *float64        `json:"personalShare,omitempty"`
	OwedShare     *float64        `json:"owedShare,omitempty"`
	ShareMetadata string          `json:"shareMetadata,omitempty"`
	Recurrence    *wireRecurrence `json:"recurrence"`
	Refunded      bool            `json:"refunded,omitempty"`
}

type wireRecurrence struct {
	Frequency      string `json:"frequency"`
	VariableAmount bool   `json:"variableAmount"`
}

func toWire(t core.Transaction) wireTransaction {
	w := wireTransaction{
		ID:            t.ID,
		Amount:        t.Amount.Float(),
		CategoryID:    t.Category.ID,
		Description:   t.Description,
		OccurredOn:    t.OccurredOn.Format(dateLayout),
		Type:          string(t.Type),
		AccountID:     t.AccountID,
		ShareMetadata: t.ShareMetadata,
		Refunded:      t.Refunded,
	}
	if t.ShareMetadata != "" || t.PersonalShare.Cents != 0 || t.OwedShare.Cents != 0 {
		personal := t.PersonalShare.Float()
		owed := t.OwedShare.Float()
		w.PersonalShare = &personal
		w.OwedShare = &owed
	}
	// Recurrence is serialized even when nil: a full-replace update with null
	// is how a recurrence gets stripped.
	if t.Recurrence != nil {
		w.Recurrence = &wireRecurrence{
			Frequency:      t.Recurrence.Frequency,
			VariableAmount: t.Recurrence.VariableAmount,
		}
	}
	return w
}

func fromWire(w wireTransaction) core.Transaction {
	t := core.Transaction{
		ID:            w.ID,
		Amount:        core.FromFloat(w.Amount),
		Category:      core.Category{ID: w.CategoryID},
		Description:   w.Description,
		Type:          core.TransactionType(w.Type),
		AccountID:     w.AccountID,
		ShareMetadata: w.ShareMetadata,
		Refunded:      w.Refunded,
	}
	if d, err := time.Parse(dateLayout, w.OccurredOn); err == nil {
		t.OccurredOn = core.Date{Time: d}
	}
	if w.PersonalShare != nil {
		t.PersonalShare = core.FromFloat(*w.PersonalShare)
	}
	if w.OwedShare != nil {
		t.OwedShare = core.FromFloat(*w.OwedShare)
	}
	if w.Recurrence != nil {
		t.Recurrence = &core.Recurrence{
			Frequency:      w.Recurrence.Frequency,
			VariableAmount: w.Recurrence.VariableAmount,
		}
	}
	return t
}

// UpdateTransaction performs a full-replace update by id.
func (c *Client) UpdateTransaction(ctx context.Context, txn core.Transaction) (core.Transaction, error) {
	if txn.ID == "" {
		return core.Transaction{}, fmt.Errorf("update transaction: missing id")
	}
	var out wireTransaction
	url := fmt.Sprintf("%s/transactions/%s", c.base, txn.ID)
	if err := c.do(ctx, http.MethodPut, url, toWire(txn), &out); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", txn.ID, err)
	}
	return fromWire(out), nil
}

// CreateTransactions creates a batch of transactions in one call.
func (c *Client) CreateTransactions(ctx context.Context, txns []core.Transaction) ([]core.Transaction, error) {
	body := make([]wireTransaction, len(txns))
	for i, t := range txns {
		body[i] = toWire(t)
	}
	var out []wireTransaction
	if err := c.do(ctx, http.MethodPost, c.base+"/transactions/batch", body, &out); err != nil {
		return nil, fmt.Errorf("create %d transactions: %w", len(txns), err)
	}
	created := make([]core.Transaction, len(out))
	for i, w := range out {
		created[i] = fromWire(w)
	}
	return created, nil
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call store: %w", err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Store call completed",
		"method", method,
		"url", url,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("store returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
