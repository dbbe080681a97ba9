package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/carrier"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
	grpcserver "github.com/spbu-ds-practicum-2025/daddy-bank/internal/grpc"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/httpapi"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/store"
)

// newTestServer wires a real ledger and a carrier gateway whose provider always
// accepts and whose only daily tier is 25.00.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ledger := domain.NewLedgerService(store.NewAccountRepository(), store.NewCreditCardRepository(), nil, nil)

	eligibility := carrier.NewEligibilityService(carrier.EligibilityConfig{
		LimitTiers: []decimal.Decimal{decimal.NewFromInt(25)},
	}, nil)
	provider := carrier.NewSimulatedProvider(carrier.SimulatedProviderConfig{SuccessProbability: 1})
	processor := carrier.NewProcessor(eligibility, provider, carrier.NewStatusStore(), carrier.ProcessorConfig{}, nil)
	gateway := carrier.NewGateway(eligibility, processor, nil, nil)

	handler := httpapi.NewHandler(grpcserver.NewBankServiceServer(ledger, gateway), nil)
	srv := httptest.NewServer(httpapi.NewRouter(handler, func() map[string]string {
		return map[string]string{"carrier": "closed"}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestAccountEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/v1/accounts",
		`{"accountNumber":"12345","holder":"John Doe","openingBalance":{"value":"100.00","currencyCode":"USD"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "12345", body["accountNumber"])

	resp, body = do(t, srv, http.MethodPost, "/v1/accounts/12345/deposits", `{"amount":{"value":"25.50"},"description":"Salary"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	tx := body["transaction"].(map[string]any)
	assert.Equal(t, "DEPOSIT", tx["kind"])
	assert.Equal(t, "Salary", tx["description"])

	resp, body = do(t, srv, http.MethodPost, "/v1/accounts/12345/withdrawals", `{"amount":{"value":"500"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "FAILED_PRECONDITION", body["code"])
	assert.NotEmpty(t, body["id"])

	resp, body = do(t, srv, http.MethodGet, "/v1/accounts/12345", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"value": "125.50", "currencyCode": "USD"}, body["balance"])

	resp, body = do(t, srv, http.MethodGet, "/v1/accounts/12345/transactions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["transactions"], 1)

	resp, body = do(t, srv, http.MethodGet, "/v1/accounts/99999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, _ = do(t, srv, http.MethodPost, "/v1/accounts", `{"accountNumber":"12345","holder":"Jane"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCardEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/v1/cards", `{"cardNumber":"4567","holder":"John Doe","creditLimit":{"value":"500.00"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, map[string]any{"value": "500.00", "currencyCode": "USD"}, body["availableCredit"])

	resp, body = do(t, srv, http.MethodPost, "/v1/cards/4567/charges", `{"amount":{"value":"120"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "Purchase at Unknown Merchant", body["transaction"].(map[string]any)["description"])

	resp, _ = do(t, srv, http.MethodPost, "/v1/cards/4567/charges", `{"amount":{"value":"380.01"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/v1/cards/4567/payments", `{"amount":{"value":"20"},"method":"Check"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/v1/cards/4567", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"value": "100.00", "currencyCode": "USD"}, body["balance"])
	assert.Equal(t, map[string]any{"value": "400.00", "currencyCode": "USD"}, body["availableCredit"])

	resp, body = do(t, srv, http.MethodGet, "/v1/cards/4567/transactions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["transactions"], 2)
}

func TestCarrierEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/v1/carrier/limits/505-123-4567", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, map[string]any{"value": "25.00", "currencyCode": "USD"}, body["dailyLimit"])
	assert.Equal(t, map[string]any{"value": "250.00", "currencyCode": "USD"}, body["monthlyLimit"])

	resp, body = do(t, srv, http.MethodPost, "/v1/carrier/payments",
		`{"phoneNumber":"505-123-4567","amount":{"value":"15.99"},"description":"Coffee Shop Purchase"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "pending", body["status"])
	id := body["transactionId"].(string)

	resp, body = do(t, srv, http.MethodGet, "/v1/carrier/payments/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, id, body["transactionId"])
	assert.Contains(t, []any{"pending", "confirmed", "failed", "cancelled"}, body["status"])

	t.Run("over the daily limit", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/v1/carrier/payments", `{"phoneNumber":"505-123-4567","amount":{"value":"30.00"}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "LIMIT_EXCEEDED", body["code"])
		assert.Contains(t, body["description"], "$25.00")
	})

	t.Run("ineligible number", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/v1/carrier/payments", `{"phoneNumber":"555-123-4567","amount":{"value":"10.00"}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INELIGIBLE_NUMBER", body["code"])
	})

	t.Run("unnormalized number is eligible", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/v1/carrier/payments", `{"phoneNumber":"505_123_4567","amount":{"value":"5.00"}}`)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode, body)
	})

	t.Run("short number", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/v1/carrier/payments", `{"phoneNumber":"12345","amount":{"value":"10.00"}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INELIGIBLE_NUMBER", body["code"])
	})

	t.Run("negative amount", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/v1/carrier/payments", `{"phoneNumber":"505-123-4567","amount":{"value":"-5"}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_AMOUNT", body["code"])
	})

	t.Run("unknown transaction", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodGet, "/v1/carrier/payments/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRequestErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
		code   string
	}{
		{"malformed json", http.MethodPost, "/v1/accounts", `{"accountNumber":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"empty body", http.MethodPost, "/v1/accounts", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing holder", http.MethodPost, "/v1/accounts", `{"accountNumber":"1"}`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"bad amount", http.MethodPost, "/v1/cards", `{"cardNumber":"1","holder":"A","creditLimit":{"value":"ten"}}`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"bad phone", http.MethodGet, "/v1/carrier/limits/hello", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"bad transaction id", http.MethodGet, "/v1/carrier/payments/nope", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.code, body["code"])
			assert.True(t, strings.TrimSpace(body["description"].(string)) != "")
		})
	}
}

func TestOversizedBody(t *testing.T) {
	srv := newTestServer(t)

	holder := strings.Repeat("x", 2<<20)
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts",
		strings.NewReader(`{"accountNumber":"1","holder":"`+holder+`"}`))
	rec := httptest.NewRecorder()
	srv.Config.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "REQUEST_TOO_LARGE", body["code"])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"status": "ok", "carrier": "closed"}, body)
}
