package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"family-portal/internal/finance"
	"family-portal/internal/util"

	"github.com/gin-gonic/gin"
)

// RecurringHandler serves the recurring rule endpoints.
type RecurringHandler struct {
	Svc *finance.Service
}

func NewRecurringHandler(svc *finance.Service) *RecurringHandler {
	return &RecurringHandler{Svc: svc}
}

func (h *RecurringHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	rules, err := h.Svc.ListRules(actor, adminUserFilter(c, actor))
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

type createRuleReq struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	CategoryID  *uint   `json:"categoryId"`
	StartDate   string  `json:"startDate"`
	Frequency   string  `json:"frequency" binding:"required"`
	AccountID   *uint   `json:"accountId"`
}

func (h *RecurringHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req createRuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := h.Svc.CreateRule(actor, finance.RuleInput{
		Description: req.Description,
		Amount:      req.Amount,
		Kind:        req.Kind,
		Category:    req.Category,
		CategoryID:  req.CategoryID,
		StartDate:   req.StartDate,
		Frequency:   req.Frequency,
		AccountID:   req.AccountID,
	})
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type updateRuleReq struct {
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Kind        *string  `json:"kind"`
	Category    *string  `json:"category"`
	CategoryID  *uint    `json:"categoryId"`
	StartDate   *string  `json:"startDate"`
	Frequency   *string  `json:"frequency"`
	Active      *bool    `json:"active"`
	AccountID   *uint    `json:"accountId"`
}

func (h *RecurringHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		util.Error(c, http.StatusBadRequest, "invalid payload")
		return
	}
	var req updateRuleReq
	if err := json.Unmarshal(body, &req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid payload")
		return
	}
	var present map[string]json.RawMessage
	_ = json.Unmarshal(body, &present)
	_, catSet := present["categoryId"]
	_, accSet := present["accountId"]

	err = h.Svc.UpdateRule(actor, id, finance.UpdateRuleInput{
		Description: req.Description,
		Amount:      req.Amount,
		Kind:        req.Kind,
		Category:    req.Category,
		CategoryID:  finance.OptionalID{Set: catSet, Value: req.CategoryID},
		StartDate:   req.StartDate,
		Frequency:   req.Frequency,
		Active:      req.Active,
		AccountID:   finance.OptionalID{Set: accSet, Value: req.AccountID},
	})
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *RecurringHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Svc.DeleteRule(actor, id); err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
