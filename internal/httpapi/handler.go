package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
	grpcserver "github.com/spbu-ds-practicum-2025/daddy-bank/internal/grpc"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// BaseError is the body of every non-2xx response.
type BaseError struct {
	Code        string    `json:"code"`
	Description *string   `json:"description,omitempty"`
	Id          uuid.UUID `json:"id"`
}

// Handler serves the REST API on top of a BankService.
type Handler struct {
	bank   grpcserver.BankService
	logger *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(bank grpcserver.BankService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{bank: bank, logger: logger}
}

// CreateAccount handles POST /v1/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req grpcserver.CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.bank.CreateAccount(r.Context(), &req)
	h.respond(w, http.StatusCreated, resp, err)
}

// GetAccount handles GET /v1/accounts/{number}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bank.GetAccount(r.Context(), &grpcserver.GetAccountRequest{AccountNumber: chi.URLParam(r, "number")})
	h.respond(w, http.StatusOK, resp, err)
}

// Deposit handles POST /v1/accounts/{number}/deposits
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req grpcserver.DepositRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.AccountNumber = chi.URLParam(r, "number")
	resp, err := h.bank.Deposit(r.Context(), &req)
	h.respond(w, http.StatusCreated, resp, err)
}

// Withdraw handles POST /v1/accounts/{number}/withdrawals
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req grpcserver.WithdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.AccountNumber = chi.URLParam(r, "number")
	resp, err := h.bank.Withdraw(r.Context(), &req)
	h.respond(w, http.StatusCreated, resp, err)
}

// AccountTransactions handles GET /v1/accounts/{number}/transactions
func (h *Handler) AccountTransactions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bank.ListTransactions(r.Context(), &grpcserver.ListTransactionsRequest{AccountNumber: chi.URLParam(r, "number")})
	h.respond(w, http.StatusOK, resp, err)
}

// CreateCreditCard handles POST /v1/cards
func (h *Handler) CreateCreditCard(w http.ResponseWriter, r *http.Request) {
	var req grpcserver.CreateCreditCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.bank.CreateCreditCard(r.Context(), &req)
	h.respond(w, http.StatusCreated, resp, err)
}

// GetCreditCard handles GET /v1/cards/{number}
func (h *Handler) GetCreditCard(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bank.GetCreditCard(r.Context(), &grpcserver.GetCreditCardRequest{CardNumber: chi.URLParam(r, "number")})
	h.respond(w, http.StatusOK, resp, err)
}

// Charge handles POST /v1/cards/{number}/charges
func (h *Handler) Charge(w http.ResponseWriter, r *http.Request) {
	var req grpcserver.ChargeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.CardNumber = chi.URLParam(r, "number")
	resp, err := h.bank.Charge(r.Context(), &req)
	h.respond(w, http.StatusCreated, resp, err)
}

// Payment handles POST /v1/cards/{number}/payments
func (h *Handler) Payment(w http.ResponseWriter, r *http.Request) {
	var req grpcserver.PaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.CardNumber = chi.URLParam(r, "number")
	resp, err := h.bank.Payment(r.Context(), &req)
	h.respond(w, http.StatusCreated, resp, err)
}

// CardTransactions handles GET /v1/cards/{number}/transactions
func (h *Handler) CardTransactions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bank.ListTransactions(r.Context(), &grpcserver.ListTransactionsRequest{CardNumber: chi.URLParam(r, "number")})
	h.respond(w, http.StatusOK, resp, err)
}

// GetBillingLimit handles GET /v1/carrier/limits/{phone}
func (h *Handler) GetBillingLimit(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bank.GetBillingLimit(r.Context(), &grpcserver.GetBillingLimitRequest{PhoneNumber: chi.URLParam(r, "phone")})
	h.respond(w, http.StatusOK, resp, err)
}

// ProcessCarrierPayment handles POST /v1/carrier/payments.
// An accepted payment is still pending, hence 202.
func (h *Handler) ProcessCarrierPayment(w http.ResponseWriter, r *http.Request) {
	var req grpcserver.ProcessCarrierPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.bank.ProcessCarrierPayment(r.Context(), &req)
	if err != nil {
		h.handleGrpcError(w, err)
		return
	}
	if !resp.Success {
		sendCarrierRejection(w, resp)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// VerifyCarrierPayment handles GET /v1/carrier/payments/{id}
func (h *Handler) VerifyCarrierPayment(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bank.VerifyCarrierPayment(r.Context(), &grpcserver.VerifyCarrierPaymentRequest{TransactionID: chi.URLParam(r, "id")})
	h.respond(w, http.StatusOK, resp, err)
}

func (h *Handler) respond(w http.ResponseWriter, statusCode int, resp any, err error) {
	if err != nil {
		h.handleGrpcError(w, err)
		return
	}
	writeJSON(w, statusCode, resp)
}

// handleGrpcError converts gRPC errors to HTTP responses
func (h *Handler) handleGrpcError(w http.ResponseWriter, err error) {
	st, ok := status.FromError(err)
	if !ok {
		h.logger.Error("unexpected handler error", zap.Error(err))
		sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", uuid.New())
		return
	}

	switch st.Code() {
	case codes.NotFound:
		sendErrorResponse(w, http.StatusNotFound, "NOT_FOUND", st.Message(), uuid.New())
	case codes.InvalidArgument:
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", st.Message(), uuid.New())
	case codes.FailedPrecondition:
		sendErrorResponse(w, http.StatusUnprocessableEntity, "FAILED_PRECONDITION", st.Message(), uuid.New())
	case codes.AlreadyExists:
		sendErrorResponse(w, http.StatusConflict, "ALREADY_EXISTS", st.Message(), uuid.New())
	case codes.Unavailable:
		sendErrorResponse(w, http.StatusServiceUnavailable, "UNAVAILABLE", st.Message(), uuid.New())
	case codes.Canceled, codes.DeadlineExceeded:
		sendErrorResponse(w, http.StatusGatewayTimeout, "TIMEOUT", st.Message(), uuid.New())
	default:
		h.logger.Error("internal error", zap.String("code", st.Code().String()), zap.String("message", st.Message()))
		sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", uuid.New())
	}
}

// sendCarrierRejection reports a rejected carrier payment. The error id is the
// carrier transaction id when the provider was reached.
func sendCarrierRejection(w http.ResponseWriter, resp *grpcserver.CarrierPaymentResponse) {
	id, err := uuid.Parse(resp.TransactionID)
	if err != nil {
		id = uuid.New()
	}

	statusCode := http.StatusInternalServerError
	switch resp.ErrorKind {
	case domain.KindInvalidAmount.String(), domain.KindInvalidRequest.String(), domain.KindIneligibleNumber.String():
		statusCode = http.StatusBadRequest
	case domain.KindLimitExceeded.String():
		statusCode = http.StatusUnprocessableEntity
	case domain.KindProviderUnavailable.String():
		statusCode = http.StatusServiceUnavailable
	}
	sendErrorResponse(w, statusCode, resp.ErrorKind, resp.Message, id)
}

// sendErrorResponse sends an error response in the expected format
func sendErrorResponse(w http.ResponseWriter, statusCode int, code, details string, id uuid.UUID) {
	writeJSON(w, statusCode, BaseError{
		Code:        code,
		Description: &details,
		Id:          id,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendErrorResponse(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE",
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), uuid.New())
			return false
		}
		msg := err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body: "+msg, uuid.New())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
