package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/yottapay-acquirer/internal/common"
	"github.com/noah-isme/yottapay-acquirer/internal/transaction"
	"github.com/noah-isme/yottapay-acquirer/internal/yottapay"
)

// Handler exposes the intent, redirect and status endpoints.
type Handler struct {
	Svc      *Service
	Store    TransactionStore
	Validate *validator.Validate
}

type intentReq struct {
	Reference      string `json:"reference" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Currency       string `json:"currency" validate:"required"`
	CustomerEmail  string `json:"customerEmail" validate:"omitempty,email"`
	NotificationID string `json:"notificationId"`
}

type intentResp struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirectUrl"`
}

// Intent creates a transaction and opens a hosted checkout session.
func (h *Handler) Intent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable")
		return
	}
	var req intentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body")
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
	}
	amountPence, err := yottapay.ParseAmount(req.Amount)
	if err != nil || amountPence <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "amount must be a positive decimal with at most two fraction digits")
		return
	}
	redirectURL, err := h.Svc.CreateIntent(r.Context(), IntentParams{
		Reference:      strings.TrimSpace(req.Reference),
		AmountPence:    amountPence,
		Currency:       strings.TrimSpace(req.Currency),
		CustomerEmail:  strings.TrimSpace(req.CustomerEmail),
		NotificationID: req.NotificationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, yottapay.ErrUnsupportedCurrency):
			common.JSONError(w, http.StatusBadRequest, "UNSUPPORTED_CURRENCY", "Yotta Pay currently works only with GBP.")
		case errors.Is(err, transaction.ErrDuplicateReference):
			common.JSONError(w, http.StatusConflict, "DUPLICATE_REFERENCE", "a payment attempt with this reference already exists")
		default:
			// Gateway and configuration failures collapse into one generic
			// shopper-facing message; the cause is already logged.
			code, message, status := "INTENT_FAILED", ContactStoreOwnerMessage, http.StatusBadGateway
			var appErr *common.AppError
			if errors.As(err, &appErr) {
				code, message, status = appErr.Code, appErr.Message, appErr.HTTPStatus
			}
			common.JSONError(w, status, code, message)
		}
		return
	}
	common.JSON(w, http.StatusOK, intentResp{Reference: req.Reference, RedirectURL: redirectURL})
}

// Redirect forwards the shopper to the hosted payment page. The target is
// opaque; no business logic beyond the pass-through.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url_process_payment_intent"))
	if target == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "url_process_payment_intent is required")
		return
	}
	if _, err := url.ParseRequestURI(target); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid redirect target")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type statusResp struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Message   string `json:"message,omitempty"`
}

// Status reports the current state of one transaction.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable")
		return
	}
	reference := strings.TrimSpace(chi.URLParam(r, "reference"))
	if reference == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "reference is required")
		return
	}
	tx, err := h.Store.FindByReference(r.Context(), reference)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "no transaction for reference")
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "STATUS_ERROR", "unable to load transaction")
		return
	}
	common.JSON(w, http.StatusOK, statusResp{
		Reference: tx.Reference,
		Status:    string(tx.Status),
		Amount:    yottapay.FormatAmount(tx.AmountPence),
		Currency:  tx.Currency,
		Message:   tx.StateMessage,
	})
}

// Landing is where the shopper returns after the hosted payment page, for
// both the success and the cancel leg. The authoritative state arrives via
// the signed callback, so this page only reflects what is recorded so far.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(r.URL.Query().Get("reference"))
	if h == nil || h.Store == nil || reference == "" {
		common.PlainText(w, http.StatusOK, "Your payment is being processed.")
		return
	}
	tx, err := h.Store.FindByReference(r.Context(), reference)
	if err != nil {
		common.PlainText(w, http.StatusOK, "Your payment is being processed.")
		return
	}
	switch tx.Status {
	case transaction.StatusDone:
		common.PlainText(w, http.StatusOK, "Your payment has been confirmed. Thank you.")
	case transaction.StatusCanceled:
		common.PlainText(w, http.StatusOK, "Payment was canceled.")
	case transaction.StatusError:
		common.PlainText(w, http.StatusOK, "Payment was failed. "+ContactStoreOwnerMessage)
	default:
		common.PlainText(w, http.StatusOK, "Your payment is being processed.")
	}
}
