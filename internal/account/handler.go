package account

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/paydown/paydown/internal/ledger"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type limitPayload struct {
	Amount decimal.Decimal `json:"amount"`
}

type createRequest struct {
	AvailableCreditLimit     limitPayload `json:"available_credit_limit"`
	AvailableWithdrawalLimit limitPayload `json:"available_withdrawal_limit"`
}

type adjustRequest struct {
	AvailableCreditLimit     *limitPayload `json:"available_credit_limit"`
	AvailableWithdrawalLimit *limitPayload `json:"available_withdrawal_limit"`
}

type accountResponse struct {
	AccountID                int64        `json:"account_id"`
	AvailableCreditLimit     limitPayload `json:"available_credit_limit"`
	AvailableWithdrawalLimit limitPayload `json:"available_withdrawal_limit"`
}

func toResponse(account ledger.Account) accountResponse {
	return accountResponse{
		AccountID:                account.ID,
		AvailableCreditLimit:     limitPayload{Amount: account.AvailableCreditLimit},
		AvailableWithdrawalLimit: limitPayload{Amount: account.AvailableWithdrawalLimit},
	}
}

// Create provisions an account with initial limits.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.Create(c.UserContext(), CreateInput{
		CreditLimit:     req.AvailableCreditLimit.Amount,
		WithdrawalLimit: req.AvailableWithdrawalLimit.Amount,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidLimit) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(account))
}

// Get returns one account with its current limits.
func (h *Handler) Get(c *fiber.Ctx) error {
	accountID, err := parseAccountID(c)
	if err != nil {
		return err
	}
	account, err := h.service.Get(c.UserContext(), accountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(account))
}

// List returns every account with its current limits.
func (h *Handler) List(c *fiber.Ctx) error {
	accounts, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, toResponse(account))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Adjust adds the request deltas to the account's available limits.
func (h *Handler) Adjust(c *fiber.Ctx) error {
	accountID, err := parseAccountID(c)
	if err != nil {
		return err
	}

	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.AvailableCreditLimit == nil && req.AvailableWithdrawalLimit == nil {
		return fiber.NewError(http.StatusBadRequest, "at least one limit delta is required")
	}

	input := AdjustInput{}
	if req.AvailableCreditLimit != nil {
		input.CreditDelta = &req.AvailableCreditLimit.Amount
	}
	if req.AvailableWithdrawalLimit != nil {
		input.WithdrawalDelta = &req.AvailableWithdrawalLimit.Amount
	}

	account, err := h.service.Adjust(c.UserContext(), accountID, input)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(account))
}

func parseAccountID(c *fiber.Ctx) (int64, error) {
	accountID, err := strconv.ParseInt(c.Params("accountId"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, "account id must be an integer")
	}
	return accountID, nil
}
