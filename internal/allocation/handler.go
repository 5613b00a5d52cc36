package allocation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/paydown/paydown/internal/operation"
)

// Handler exposes transaction and payment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transaction handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionRequest struct {
	AccountID     int64           `json:"account_id"`
	OperationType string          `json:"operation_type"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       *time.Time      `json:"due_date"`
}

type paymentRequest struct {
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Create records a debit, or a payment when the operation type says so,
// mirroring the single transactions endpoint the engine is fronted by.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	kind, err := operation.Parse(req.OperationType)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	if kind == operation.Payment {
		tx, err := h.service.RecordPayment(ctx, PaymentInput{AccountID: req.AccountID, Amount: req.Amount})
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(http.StatusCreated).JSON(tx)
	}

	tx, err := h.service.RecordDebit(ctx, DebitInput{
		AccountID: req.AccountID,
		Kind:      kind,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(tx)
}

// List returns the transaction ledger, optionally filtered by account.
func (h *Handler) List(c *fiber.Ctx) error {
	var accountID int64
	if raw := c.Query("account_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "account_id must be an integer")
		}
		accountID = parsed
	}

	txs, err := h.service.ListTransactions(c.UserContext(), accountID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(txs)
}

// CreatePayments applies a batch of payments in list order.
func (h *Handler) CreatePayments(c *fiber.Ctx) error {
	var reqs []paymentRequest
	if err := c.BodyParser(&reqs); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(reqs) == 0 {
		return fiber.NewError(http.StatusBadRequest, "at least one payment is required")
	}

	inputs := make([]PaymentInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, PaymentInput{AccountID: req.AccountID, Amount: req.Amount})
	}

	txs, err := h.service.RecordPayments(c.UserContext(), inputs)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(txs)
}

// toHTTPError maps the engine's failure kinds onto HTTP statuses at the
// boundary; the engine itself never sees transport concerns.
func toHTTPError(err error) error {
	switch KindOf(err) {
	case KindInvalidInput:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case KindAccountNotFound:
		return fiber.NewError(http.StatusNotFound, err.Error())
	case KindInsufficientLimit, KindPaymentNotAllowed:
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
