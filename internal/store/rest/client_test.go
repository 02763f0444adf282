package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/core"
)

func testTransaction() core.Transaction {
	return core.Transaction{
		ID:          "txn-1",
		Amount:      core.Money{Cents: 10000},
		Category:    core.Category{ID: "cat-1", Name: "Groceries"},
		Description: "weekly shop",
		OccurredOn:  core.NewDate(2026, 8, 30),
		Type:        core.Debit,
		AccountID:   "acc-1",
	}
}

func TestUpdateTransactionWireShape(t *testing.T) {
	var gotPath, gotMethod, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret", time.Second)
	txn := testTransaction()
	txn.Amount = core.Money{Cents: 2500}
	txn.Recurrence = &core.Recurrence{Frequency: "monthly", VariableAmount: true}

	updated, err := client.UpdateTransaction(context.Background(), txn)
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	if gotMethod != http.MethodPut || gotPath != "/transactions/txn-1" {
		t.Errorf("request = %s %s, want PUT /transactions/txn-1", gotMethod, gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["amount"] != 25.00 {
		t.Errorf("wire amount = %v, want 25", gotBody["amount"])
	}
	// categoryId is the wire field; the embedded category object never travels.
	if gotBody["categoryId"] != "cat-1" {
		t.Errorf("wire categoryId = %v", gotBody["categoryId"])
	}
	if _, ok := gotBody["category"]; ok {
		t.Error("embedded category leaked onto the wire")
	}
	rec, ok := gotBody["recurrence"].(map[string]any)
	if !ok || rec["variableAmount"] != true {
		t.Errorf("recurrence not preserved on wire: %v", gotBody["recurrence"])
	}
	if updated.Amount.Cents != 2500 {
		t.Errorf("decoded amount = %d cents, want 2500", updated.Amount.Cents)
	}
	if !updated.HasVariableRecurrence() {
		t.Error("variable recurrence lost in decode")
	}
}

func TestUpdateSerializesNilRecurrenceAsNull(t *testing.T) {
	var gotRaw map[string]json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotRaw)
		w.Write(body)
	}))
	defer srv.Close()

	client := New(srv.URL, "", time.Second)
	if _, err := client.UpdateTransaction(context.Background(), testTransaction()); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	raw, ok := gotRaw["recurrence"]
	if !ok {
		t.Fatal("recurrence field missing; full-replace cannot strip it")
	}
	if string(raw) != "null" {
		t.Errorf("recurrence = %s, want null", raw)
	}
}

func TestCreateTransactionsBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transactions/batch" {
			t.Errorf("request = %s %s, want POST /transactions/batch", r.Method, r.URL.Path)
		}
		var batch []map[string]any
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &batch); err != nil {
			t.Fatalf("batch body: %v", err)
		}
		for i, item := range batch {
			item["id"] = "new-" + string(rune('a'+i))
		}
		json.NewEncoder(w).Encode(batch)
	}))
	defer srv.Close()

	client := New(srv.URL, "", time.Second)
	children := []core.Transaction{
		{Amount: core.Money{Cents: 3000}, Category: core.Category{ID: "cat-x"}, OccurredOn: core.NewDate(2026, 8, 30), Type: core.Debit},
		{Amount: core.Money{Cents: 4500}, Category: core.Category{ID: "cat-y"}, OccurredOn: core.NewDate(2026, 8, 30), Type: core.Debit},
	}

	created, err := client.CreateTransactions(context.Background(), children)
	if err != nil {
		t.Fatalf("CreateTransactions: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d transactions, want 2", len(created))
	}
	if created[0].ID != "new-a" || created[1].ID != "new-b" {
		t.Errorf("ids = %q, %q", created[0].ID, created[1].ID)
	}
	if created[1].Amount.Cents != 4500 {
		t.Errorf("second child amount = %d, want 4500", created[1].Amount.Cents)
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, "", time.Second)
	if _, err := client.UpdateTransaction(context.Background(), testTransaction()); err == nil {
		t.Error("expected error for 502 response")
	}
}
