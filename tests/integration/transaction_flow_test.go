package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// TestTransactionFlow drives the bookkeeping endpoints end to end: record
// income and expenses, list with filters, check aggregated stats, amend and
// delete an entry.
func TestTransactionFlow(t *testing.T) {
	skipIfNotRunning(t, apiPort)

	api := baseURL(apiPort)
	access, _ := registerUser(t, uniqueEmail("tx-flow"))

	// Record one income and two expenses.
	entries := []map[string]interface{}{
		{"type": "income", "amount_cents": 500000, "category": "Salary", "date": "2026-08-01"},
		{"type": "expense", "amount_cents": 42500, "category": "Groceries", "date": "2026-08-03"},
		{"type": "expense", "amount_cents": 120000, "category": "Rent", "date": "2026-08-05"},
	}
	var firstID string
	for i, entry := range entries {
		status, body := httpPostWithAuth(t, api+"/api/v1/transactions/", entry, access)
		requireStatus(t, status, http.StatusCreated)
		if i == 0 {
			firstID = extractString(t, body, "data.id")
		}
	}

	// Full list.
	status, body := httpGetWithAuth(t, api+"/api/v1/transactions/", access)
	requireStatus(t, status, http.StatusOK)
	if total := extractFloat(t, body, "data.total_count"); total != 3 {
		t.Errorf("expected 3 transactions, got %v", total)
	}

	// Filtered by type.
	status, body = httpGetWithAuth(t, api+"/api/v1/transactions/?type=expense", access)
	requireStatus(t, status, http.StatusOK)
	if total := extractFloat(t, body, "data.total_count"); total != 2 {
		t.Errorf("expected 2 expenses, got %v", total)
	}

	// Stats over the month.
	status, body = httpGetWithAuth(t, api+"/api/v1/transactions/stats?from=2026-08-01&to=2026-08-31", access)
	requireStatus(t, status, http.StatusOK)
	if balance := extractFloat(t, body, "data.balance_cents"); balance != 337500 {
		t.Errorf("expected balance 337500, got %v", balance)
	}

	// Amend the income entry and confirm the stats move.
	status, _ = httpPutWithAuth(t, api+"/api/v1/transactions/"+firstID, map[string]interface{}{
		"amount_cents": 550000,
	}, access)
	requireStatus(t, status, http.StatusOK)

	status, body = httpGetWithAuth(t, api+"/api/v1/transactions/stats?from=2026-08-01&to=2026-08-31", access)
	requireStatus(t, status, http.StatusOK)
	if balance := extractFloat(t, body, "data.balance_cents"); balance != 387500 {
		t.Errorf("expected balance 387500 after update, got %v", balance)
	}

	// Delete and verify it is gone.
	status, _ = httpDeleteWithAuth(t, api+"/api/v1/transactions/"+firstID, access)
	requireStatus(t, status, http.StatusNoContent)

	status, _ = httpGetWithAuth(t, api+"/api/v1/transactions/"+firstID, access)
	requireStatus(t, status, http.StatusNotFound)

	// Wipe the rest in one call.
	status, body = httpDeleteWithAuth(t, api+"/api/v1/transactions/", access)
	requireStatus(t, status, http.StatusOK)
	if deleted := extractFloat(t, body, "data.deleted"); deleted != 2 {
		t.Errorf("expected 2 deleted, got %v", deleted)
	}

	status, body = httpGetWithAuth(t, api+"/api/v1/transactions/", access)
	requireStatus(t, status, http.StatusOK)
	if total := extractFloat(t, body, "data.total_count"); total != 0 {
		t.Errorf("expected empty ledger after wipe, got %v", total)
	}
}

// TestTransactionFlow_Isolation verifies one user cannot see or touch
// another user's entries.
func TestTransactionFlow_Isolation(t *testing.T) {
	skipIfNotRunning(t, apiPort)

	api := baseURL(apiPort)
	ownerAccess, _ := registerUser(t, uniqueEmail("tx-owner"))
	otherAccess, _ := registerUser(t, uniqueEmail("tx-other"))

	status, body := httpPostWithAuth(t, api+"/api/v1/transactions/", map[string]interface{}{
		"type": "expense", "amount_cents": 9900, "category": "Groceries", "date": "2026-08-10",
	}, ownerAccess)
	requireStatus(t, status, http.StatusCreated)
	txID := extractString(t, body, "data.id")

	status, _ = httpGetWithAuth(t, api+"/api/v1/transactions/"+txID, otherAccess)
	requireStatus(t, status, http.StatusNotFound)

	status, _ = httpDeleteWithAuth(t, api+"/api/v1/transactions/"+txID, otherAccess)
	requireStatus(t, status, http.StatusNotFound)
}

// TestCategoryFlow checks the built-in defaults plus user-defined categories.
func TestCategoryFlow(t *testing.T) {
	skipIfNotRunning(t, apiPort)

	api := baseURL(apiPort)
	access, _ := registerUser(t, uniqueEmail("cat-flow"))

	status, body := httpGetWithAuth(t, api+"/api/v1/categories/", access)
	requireStatus(t, status, http.StatusOK)
	defaults, ok := body["data"].([]interface{})
	if !ok || len(defaults) == 0 {
		t.Fatalf("expected seeded default categories, got %v", body["data"])
	}

	// The defaults endpoint serves the seeded set without user categories.
	status, body = httpGetWithAuth(t, api+"/api/v1/categories/defaults", access)
	requireStatus(t, status, http.StatusOK)
	if seeded, _ := body["data"].([]interface{}); len(seeded) != len(defaults) {
		t.Errorf("expected %d default categories, got %d", len(defaults), len(seeded))
	}

	status, body = httpPostWithAuth(t, api+"/api/v1/categories/", map[string]interface{}{
		"name": fmt.Sprintf("Side projects %d", len(defaults)),
		"type": "income",
	}, access)
	requireStatus(t, status, http.StatusCreated)
	catID := extractString(t, body, "data.id")

	// Rename the new category.
	status, body = httpPutWithAuth(t, api+"/api/v1/categories/"+catID, map[string]interface{}{
		"name": "Consulting",
	}, access)
	requireStatus(t, status, http.StatusOK)
	if name := extractString(t, body, "data.name"); name != "Consulting" {
		t.Errorf("expected renamed category, got %q", name)
	}

	status, body = httpGetWithAuth(t, api+"/api/v1/categories/", access)
	requireStatus(t, status, http.StatusOK)
	all, _ := body["data"].([]interface{})
	if len(all) != len(defaults)+1 {
		t.Errorf("expected %d categories, got %d", len(defaults)+1, len(all))
	}

	// Own categories can be deleted, defaults cannot.
	status, _ = httpDeleteWithAuth(t, api+"/api/v1/categories/"+catID, access)
	requireStatus(t, status, http.StatusNoContent)

	firstDefault, _ := defaults[0].(map[string]interface{})
	defaultID, _ := firstDefault["id"].(string)
	status, _ = httpDeleteWithAuth(t, api+"/api/v1/categories/"+defaultID, access)
	requireStatus(t, status, http.StatusNotFound)
}
