package allocation

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/paydown/paydown/internal/ledger"
)

func setupHandlerApp(t *testing.T) (*fiber.App, ledger.Store) {
	t.Helper()
	store := ledger.NewInMemory()
	h := NewHandler(NewService(store))

	app := fiber.New()
	app.Post("/transactions", h.Create)
	app.Get("/transactions", h.List)
	app.Post("/payments", h.CreatePayments)
	return app, store
}

func TestHandlerCreateDebit(t *testing.T) {
	app, store := setupHandlerApp(t)
	if _, err := store.CreateAccount(context.Background(), dec("1000"), dec("500")); err != nil {
		t.Fatalf("create account: %v", err)
	}

	req := httptest.NewRequest(fiber.MethodPost, "/transactions",
		strings.NewReader(`{"account_id":1,"operation_type":"cash_purchase","amount":"-300"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var tx struct {
		TransactionID int64  `json:"transaction_id"`
		Balance       string `json:"balance"`
	}
	if err := json.Unmarshal(payload, &tx); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if tx.TransactionID == 0 || tx.Balance != "-300" {
		t.Fatalf("unexpected response: %s", payload)
	}
}

func TestHandlerInsufficientLimit(t *testing.T) {
	app, store := setupHandlerApp(t)
	if _, err := store.CreateAccount(context.Background(), dec("100"), dec("0")); err != nil {
		t.Fatalf("create account: %v", err)
	}

	req := httptest.NewRequest(fiber.MethodPost, "/transactions",
		strings.NewReader(`{"account_id":1,"operation_type":"cash_purchase","amount":"-300"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestHandlerUnknownOperationType(t *testing.T) {
	app, store := setupHandlerApp(t)
	if _, err := store.CreateAccount(context.Background(), dec("100"), dec("0")); err != nil {
		t.Fatalf("create account: %v", err)
	}

	req := httptest.NewRequest(fiber.MethodPost, "/transactions",
		strings.NewReader(`{"account_id":1,"operation_type":"chargeback","amount":"-10"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandlerBatchPaymentsAndList(t *testing.T) {
	app, store := setupHandlerApp(t)
	if _, err := store.CreateAccount(context.Background(), dec("1000"), dec("500")); err != nil {
		t.Fatalf("create account: %v", err)
	}

	debit := httptest.NewRequest(fiber.MethodPost, "/transactions",
		strings.NewReader(`{"account_id":1,"operation_type":"withdrawal","amount":"-200"}`))
	debit.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if resp, err := app.Test(debit); err != nil || resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("debit setup failed: err=%v", err)
	}

	pay := httptest.NewRequest(fiber.MethodPost, "/payments",
		strings.NewReader(`[{"account_id":1,"amount":"200"}]`))
	pay.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(pay)
	if err != nil {
		t.Fatalf("app.Test payments: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	list := httptest.NewRequest(fiber.MethodGet, "/transactions?account_id=1", nil)
	resp, err = app.Test(list)
	if err != nil {
		t.Fatalf("app.Test list: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var txs []map[string]any
	if err := json.Unmarshal(payload, &txs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions in the ledger, got %d", len(txs))
	}
}
