package verification

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/credmesh/credmesh/internal/credential"
	"github.com/credmesh/credmesh/internal/logging"
	"github.com/credmesh/credmesh/internal/verifylog"
)

func setupVerifyApp(t *testing.T, authority Authority) *fiber.App {
	t.Helper()
	log := verifylog.NewMemoryStore()
	svc := NewService(authority, log, "verifier-a", logging.Discard())
	handler := NewHandler(svc, log, "verifier-a")

	app := fiber.New()
	app.Post("/api/verify", handler.Verify)
	app.Post("/api/verify/batch", handler.VerifyBatch)
	app.Get("/api/verify/logs", handler.Logs)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (map[string]any, int) {
	t.Helper()
	var reqBody *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	httpReq := httptest.NewRequest(method, path, reqBody)
	httpReq.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(httpReq)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded, resp.StatusCode
}

func TestVerifyEndpointVerified(t *testing.T) {
	app := setupVerifyApp(t, staticAuthority{records: map[string]Issued{"CRED-1": issuedAlice()}})

	body, status := doJSON(t, app, fiber.MethodPost, "/api/verify", map[string]any{
		"credential": issuedAlice().Credential,
	})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}
	if body["verified"] != true {
		t.Fatalf("expected verified=true, got %v", body)
	}
	if body["issuedBy"] != "issuer-a" || body["issuedAt"] != "2025-01-01T10:00:00Z" {
		t.Fatalf("expected provenance, got %v", body)
	}
	if _, ok := body["credential"].(map[string]any); !ok {
		t.Fatalf("expected authoritative credential in response: %v", body)
	}
}

func TestVerifyEndpointNotVerifiedIsStill200(t *testing.T) {
	app := setupVerifyApp(t, staticAuthority{records: map[string]Issued{}})

	body, status := doJSON(t, app, fiber.MethodPost, "/api/verify", map[string]any{
		"credential": credential.Credential{ID: "CRED-X", HolderName: "Alice", CredentialType: "ID Card", IssueDate: "2025-01-01"},
	})
	if status != fiber.StatusOK {
		t.Fatalf("verification failure is not an HTTP error, got %d", status)
	}
	if body["verified"] != false {
		t.Fatalf("expected verified=false, got %v", body)
	}
	if body["message"] != "Credential not found in issuance records" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if _, present := body["credential"]; present {
		t.Fatalf("not-found response should omit credential: %v", body)
	}
}

func TestVerifyEndpointValidation(t *testing.T) {
	app := setupVerifyApp(t, staticAuthority{records: map[string]Issued{}})

	body, status := doJSON(t, app, fiber.MethodPost, "/api/verify", map[string]any{
		"credential": credential.Credential{ID: "CRED-1"},
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%v)", status, body)
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body)
	}
}

func TestVerifyEndpointAuthorityFault(t *testing.T) {
	app := setupVerifyApp(t, faultyAuthority{})

	body, status := doJSON(t, app, fiber.MethodPost, "/api/verify", map[string]any{
		"credential": issuedAlice().Credential,
	})
	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 on authority fault, got %d (%v)", status, body)
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body)
	}
}

func TestVerifyBatchEndpoint(t *testing.T) {
	app := setupVerifyApp(t, staticAuthority{records: map[string]Issued{"CRED-1": issuedAlice()}})

	tampered := issuedAlice().Credential
	tampered.HolderName = "Bob"

	body, status := doJSON(t, app, fiber.MethodPost, "/api/verify/batch", map[string]any{
		"credentials": []credential.Credential{issuedAlice().Credential, tampered},
	})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}

	results, ok := body["results"].([]any)
	if !ok {
		t.Fatalf("expected results array, got %v", body)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0].(map[string]any)
	second := results[1].(map[string]any)
	if first["verified"] != true || second["verified"] != false {
		t.Fatalf("unexpected batch results: %v", results)
	}
}

func TestVerifyBatchEndpointRequiresArray(t *testing.T) {
	app := setupVerifyApp(t, staticAuthority{records: map[string]Issued{}})

	body, status := doJSON(t, app, fiber.MethodPost, "/api/verify/batch", map[string]any{})
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%v)", status, body)
	}
	if body["error"] != "Request must contain an array of credentials" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestLogsEndpoint(t *testing.T) {
	app := setupVerifyApp(t, staticAuthority{records: map[string]Issued{"CRED-1": issuedAlice()}})

	doJSON(t, app, fiber.MethodPost, "/api/verify", map[string]any{"credential": issuedAlice().Credential})
	doJSON(t, app, fiber.MethodPost, "/api/verify", map[string]any{
		"credential": credential.Credential{ID: "CRED-X", HolderName: "A", CredentialType: "T", IssueDate: "2025-01-01"},
	})

	body, status := doJSON(t, app, fiber.MethodGet, "/api/verify/logs?limit=1", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	logs, ok := body["logs"].([]any)
	if !ok {
		t.Fatalf("expected logs array, got %v", body)
	}
	if len(logs) != 1 {
		t.Fatalf("limit=1 should return one entry, got %d", len(logs))
	}
	latest := logs[0].(map[string]any)
	if latest["credentialId"] != "CRED-X" {
		t.Fatalf("expected most-recent entry first, got %v", latest)
	}

	stats, ok := body["stats"].(map[string]any)
	if !ok {
		t.Fatalf("expected stats, got %v", body)
	}
	if stats["total"] != float64(2) || stats["verified"] != float64(1) || stats["failed"] != float64(1) {
		t.Fatalf("unexpected stats: %v", stats)
	}

	body, status = doJSON(t, app, fiber.MethodGet, "/api/verify/logs?credentialId=CRED-1", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	filtered, ok := body["logs"].([]any)
	if !ok || len(filtered) != 1 {
		t.Fatalf("expected one entry for CRED-1, got %v", body["logs"])
	}
	if filtered[0].(map[string]any)["verified"] != true {
		t.Fatalf("expected verified entry for CRED-1: %v", filtered[0])
	}
}
