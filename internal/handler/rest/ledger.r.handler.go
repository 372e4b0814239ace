package hrest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/usecase"
	"ledger-service/pkg/xerrors"
)

// LedgerRestHandler is the thin HTTP surface over the ledger core. It parses,
// delegates, and translates errors; all business rules live in the usecases.
type LedgerRestHandler struct {
	accountUC    *usecase.AccountUsecase
	userUC       *usecase.UserUsecase
	userStatusUC *usecase.UserStatusUsecase
	acctStatusUC *usecase.AccountStatusUsecase
	logger       *zap.Logger
}

func NewLedgerRestHandler(
	accountUC *usecase.AccountUsecase,
	userUC *usecase.UserUsecase,
	userStatusUC *usecase.UserStatusUsecase,
	acctStatusUC *usecase.AccountStatusUsecase,
	logger *zap.Logger,
) *LedgerRestHandler {
	return &LedgerRestHandler{
		accountUC:    accountUC,
		userUC:       userUC,
		userStatusUC: userStatusUC,
		acctStatusUC: acctStatusUC,
		logger:       logger,
	}
}

type amountRequestJSON struct {
	Amount string `json:"amount"`
}

type transferRequestJSON struct {
	SourceAccountID int64  `json:"source_account_id"`
	TargetAccountID int64  `json:"target_account_id"`
	Amount          string `json:"amount"`
}

type statusRequestJSON struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type registerRequestJSON struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Currency string `json:"currency"`
}

type openAccountRequestJSON struct {
	Currency string `json:"currency"`
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, xerrors.ErrInvalidID
	}
	return id, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, xerrors.ErrInvalidAmount
	}
	return amount, nil
}

func (h *LedgerRestHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		sendError(w, "invalid account id", err)
		return
	}

	var req amountRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", xerrors.ErrInvalidRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		sendError(w, "invalid amount", err)
		return
	}

	txn, err := h.accountUC.Deposit(r.Context(), accountID, amount)
	if err != nil {
		sendError(w, "deposit failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "deposit completed", txn)
}

func (h *LedgerRestHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		sendError(w, "invalid account id", err)
		return
	}

	var req amountRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", xerrors.ErrInvalidRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		sendError(w, "invalid amount", err)
		return
	}

	txn, err := h.accountUC.Withdraw(r.Context(), accountID, amount)
	if err != nil {
		sendError(w, "withdrawal failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "withdrawal completed", txn)
}

func (h *LedgerRestHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", xerrors.ErrInvalidRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		sendError(w, "invalid amount", err)
		return
	}

	legs, err := h.accountUC.Transfer(r.Context(), req.SourceAccountID, req.TargetAccountID, amount)
	if err != nil {
		sendError(w, "transfer failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "transfer completed", legs)
}

func (h *LedgerRestHandler) ChangeUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		sendError(w, "invalid user id", err)
		return
	}

	var req statusRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", xerrors.ErrInvalidRequest)
		return
	}

	if err := h.userStatusUC.ChangeStatus(r.Context(), userID, domain.UserStatus(req.Status), req.Reason); err != nil {
		sendError(w, "status change failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "user status changed", nil)
}

func (h *LedgerRestHandler) ChangeAccountStatus(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		sendError(w, "invalid account id", err)
		return
	}

	var req statusRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", xerrors.ErrInvalidRequest)
		return
	}

	if err := h.acctStatusUC.ChangeStatus(r.Context(), accountID, domain.AccountStatus(req.Status)); err != nil {
		sendError(w, "status change failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "account status changed", nil)
}

func (h *LedgerRestHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", xerrors.ErrInvalidRequest)
		return
	}

	user, err := h.userUC.Register(r.Context(), &domain.UserCreate{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
	}, req.Currency)
	if err != nil {
		sendError(w, "registration failed", err)
		return
	}
	sendSuccess(w, http.StatusCreated, "user registered", user)
}

func (h *LedgerRestHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		sendError(w, "invalid user id", err)
		return
	}

	var req openAccountRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", xerrors.ErrInvalidRequest)
		return
	}

	account, err := h.userUC.OpenAccount(r.Context(), userID, req.Currency)
	if err != nil {
		sendError(w, "account opening failed", err)
		return
	}
	sendSuccess(w, http.StatusCreated, "account opened", account)
}

func (h *LedgerRestHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		sendError(w, "invalid user id", err)
		return
	}

	user, err := h.userUC.GetUser(r.Context(), userID)
	if err != nil {
		sendError(w, "user lookup failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "user found", user)
}

func (h *LedgerRestHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		sendError(w, "invalid user id", err)
		return
	}

	if err := h.userUC.HardDelete(r.Context(), userID); err != nil {
		sendError(w, "user deletion failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "user deleted", nil)
}

func (h *LedgerRestHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		sendError(w, "invalid account id", err)
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), accountID)
	if err != nil {
		sendError(w, "account lookup failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "account found", account)
}

func (h *LedgerRestHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		sendError(w, "invalid account id", err)
		return
	}

	txns, err := h.userUC.ListTransactions(r.Context(), accountID)
	if err != nil {
		sendError(w, "transaction listing failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "transactions listed", txns)
}

func (h *LedgerRestHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		sendError(w, "invalid user id", err)
		return
	}

	audits, err := h.userUC.ListAudit(r.Context(), userID)
	if err != nil {
		sendError(w, "audit listing failed", err)
		return
	}
	sendSuccess(w, http.StatusOK, "audit records listed", audits)
}
