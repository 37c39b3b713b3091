package handler

import (
	"net/http"

	"family-portal/internal/finance"
	"family-portal/internal/util"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves account listing, creation and transfers.
type AccountHandler struct {
	Svc *finance.Service
}

func NewAccountHandler(svc *finance.Service) *AccountHandler {
	return &AccountHandler{Svc: svc}
}

func (h *AccountHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	accounts, err := h.Svc.ListAccounts(actor)
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

type createAccountReq struct {
	Name          string `json:"name" binding:"required"`
	AccountType   string `json:"accountType"`
	OwnerID       *uint  `json:"ownerId"`
	AllowNegative bool   `json:"allowNegative"`
}

func (h *AccountHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req createAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := h.Svc.CreateAccount(actor, finance.CreateAccountInput{
		Name:          req.Name,
		AccountType:   req.AccountType,
		OwnerID:       req.OwnerID,
		AllowNegative: req.AllowNegative,
	})
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type transferReq struct {
	From        uint    `json:"from" binding:"required"`
	To          uint    `json:"to" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description"`
}

func (h *AccountHandler) Transfer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req transferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := h.Svc.Transfer(actor, finance.TransferInput{
		FromAccountID: req.From,
		ToAccountID:   req.To,
		Amount:        req.Amount,
		Description:   req.Description,
	})
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"tx_id":        res.TxID,
		"from_balance": res.FromBalance,
		"to_balance":   res.ToBalance,
	})
}
