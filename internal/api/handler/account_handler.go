package handler

import (
	"account-service/internal/api/handler/dto"
	"account-service/internal/domain/account"
	"account-service/internal/pkg/apperrors"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type AccountHandler struct {
	service account.Service
	logger  *slog.Logger
}

func NewAccountHandler(s account.Service, l *slog.Logger) *AccountHandler {
	if s == nil {
		panic("account service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &AccountHandler{
		service: s,
		logger:  l.With("component", "AccountHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrMaximumAccountsReached):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrAlreadyExists):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrClassificationUnavailable):
		status, message = http.StatusBadGateway, "Customer classification is currently unavailable."
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrInvalidAccountType), errors.Is(err, apperrors.ErrInvalidAccountData):
		status, message = http.StatusBadRequest, err.Error()
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func getAccountIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "accountID")
	if id == "" {
		return "", fmt.Errorf("%w: accountID not found in URL path", apperrors.ErrInvalidArgument)
	}
	return id, nil
}

func getCustomerIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "customerID")
	if id == "" {
		return "", fmt.Errorf("%w: customerID not found in URL path", apperrors.ErrInvalidArgument)
	}
	return id, nil
}

// CreateAccount handles POST /accounts
// @Summary Open a new account
// @Description Opens an account for a customer. The customer classification decides eligibility: personal customers may hold one account per type, business customers only current accounts.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body dto.CreateAccountRequest true "Account creation request"
// @Success 201 {object} dto.AccountResponse "Account successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or account data"
// @Failure 409 {object} dto.ErrorResponse "Customer already holds an account of this type"
// @Failure 502 {object} dto.ErrorResponse "Customer classification unavailable"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create account request")

	var req dto.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, err)
		return
	}

	acct, err := req.ToAccount()
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to map request to account", slog.Any("error", err))
		respondError(w, err)
		return
	}

	created, err := h.service.CreateAccount(r.Context(), acct)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrMaximumAccountsReached) &&
			!errors.Is(err, apperrors.ErrInvalidAccountType) &&
			!errors.Is(err, apperrors.ErrInvalidAccountData) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to create account", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewAccountResponse(created)
	h.logger.InfoContext(r.Context(), "Account created successfully", slog.String("accountID", resp.ID))
	respondJSON(w, http.StatusCreated, resp)
}

// GetAccount handles GET /accounts/{accountID}
// @Summary Retrieve account details
// @Description Retrieves a single account by its ID.
// @Tags Accounts
// @Produce json
// @Param accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse "Account details retrieved"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /accounts/{accountID} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	acct, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get account", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAccountResponse(acct))
}

// UpdateBalance handles PUT /accounts/{accountID}/balance
// @Summary Update account balance
// @Description Replaces the balance of an account. No other attribute can be changed after creation.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param accountID path string true "Account ID"
// @Param request body dto.UpdateBalanceRequest true "New balance payload"
// @Success 200 {object} dto.AccountResponse "Account with updated balance"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /accounts/{accountID}/balance [put]
func (h *AccountHandler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	acct, err := h.service.UpdateBalance(r.Context(), accountID, req.Balance)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrInvalidAccountData) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to update balance", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Account balance updated successfully", slog.String("accountID", accountID))
	respondJSON(w, http.StatusOK, dto.NewAccountResponse(acct))
}

// DeleteAccount handles DELETE /accounts/{accountID}
// @Summary Delete an account
// @Description Removes an account permanently.
// @Tags Accounts
// @Produce json
// @Param accountID path string true "Account ID"
// @Success 204 "Account successfully deleted"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /accounts/{accountID} [delete]
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), accountID); err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to delete account", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Account deleted successfully", slog.String("accountID", accountID))
	respondJSON(w, http.StatusNoContent, nil)
}

// ListCustomerAccounts handles GET /customers/{customerID}/accounts
// @Summary List customer accounts
// @Description Retrieves every account owned by a customer. An unknown customer yields an empty list.
// @Tags Accounts
// @Produce json
// @Param customerID path string true "Customer ID"
// @Success 200 {array} dto.AccountResponse "List of accounts"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/accounts [get]
func (h *AccountHandler) ListCustomerAccounts(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	accts, err := h.service.ListAccountsForCustomer(r.Context(), customerID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list customer accounts", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAccountListResponse(accts))
}

// ListCustomerAccountsOfType handles GET /customers/{customerID}/accounts/{accountType}
// @Summary List customer accounts of a type
// @Description Retrieves every account of the given type owned by a customer. Responds 404 when the customer has none.
// @Tags Accounts
// @Produce json
// @Param customerID path string true "Customer ID"
// @Param accountType path string true "Account type" Enums(SAVINGS, CURRENT, FIXED_TERM)
// @Success 200 {array} dto.AccountResponse "List of accounts of the requested type"
// @Failure 400 {object} dto.ErrorResponse "Unknown account type"
// @Failure 404 {object} dto.ErrorResponse "Customer has no account of this type"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/accounts/{accountType} [get]
func (h *AccountHandler) ListCustomerAccountsOfType(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	accountType, err := account.ParseAccountType(chi.URLParam(r, "accountType"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "Unknown account type in URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	accts, err := h.service.ListAccountsOfType(r.Context(), customerID, accountType)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list accounts of type", slog.Any("error", err))
		respondError(w, err)
		return
	}
	if len(accts) == 0 {
		respondError(w, fmt.Errorf("%w: customer %s has no account of type %s", apperrors.ErrNotFound, customerID, accountType))
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAccountListResponse(accts))
}

// GetFirstCustomerAccountOfType handles GET /customers/{customerID}/accounts/{accountType}/first
// @Summary Get the first account of a type
// @Description Retrieves the oldest account of the given type owned by a customer.
// @Tags Accounts
// @Produce json
// @Param customerID path string true "Customer ID"
// @Param accountType path string true "Account type" Enums(SAVINGS, CURRENT, FIXED_TERM)
// @Success 200 {object} dto.AccountResponse "Account details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Unknown account type"
// @Failure 404 {object} dto.ErrorResponse "Customer has no account of this type"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/accounts/{accountType}/first [get]
func (h *AccountHandler) GetFirstCustomerAccountOfType(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	accountType, err := account.ParseAccountType(chi.URLParam(r, "accountType"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "Unknown account type in URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	acct, err := h.service.GetFirstAccountOfType(r.Context(), customerID, accountType)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get first account of type", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAccountResponse(acct))
}
