package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"family-portal/internal/finance"
	"family-portal/internal/util"

	"github.com/gin-gonic/gin"
)

// EntryHandler serves the ledger entry endpoints.
type EntryHandler struct {
	Svc *finance.Service
}

func NewEntryHandler(svc *finance.Service) *EntryHandler {
	return &EntryHandler{Svc: svc}
}

type createEntryReq struct {
	Amount        float64 `json:"amount"`
	Kind          string  `json:"kind"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	CategoryID    *uint   `json:"categoryId"`
	AccountID     *uint   `json:"accountId"`
	PaymentMethod string  `json:"paymentMethod"`
	Notes         string  `json:"notes"`
	MakeRecurring bool    `json:"makeRecurring"`
	RecFrequency  string  `json:"recFrequency"`
}

func (h *EntryHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req createEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := h.Svc.CreateEntry(actor, finance.CreateEntryInput{
		Amount:        req.Amount,
		Kind:          req.Kind,
		Date:          req.Date,
		Description:   req.Description,
		Category:      req.Category,
		CategoryID:    req.CategoryID,
		AccountID:     req.AccountID,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		MakeRecurring: req.MakeRecurring,
		RecFrequency:  req.RecFrequency,
	})
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": res.ID, "recurring": res.Recurring})
}

// List materializes due recurring entries first, then returns the
// filtered page.
func (h *EntryHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	h.Svc.MaterializeDue(actor)

	page, err := h.Svc.ListEntries(actor, finance.ListFilter{
		Kind:     c.Query("kind"),
		Query:    c.Query("q"),
		Start:    c.Query("start"),
		End:      c.Query("end"),
		Year:     intQuery(c, "year", 0),
		Month:    intQuery(c, "month", 0),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 0),
		UserID:   adminUserFilter(c, actor),
	})
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": page.Items,
		"meta": gin.H{
			"page":             page.Page,
			"pages":            page.Pages,
			"total":            page.Total,
			"is_admin":         actor.IsAdmin,
			"filtered_user_id": page.FilteredUserID,
		},
	})
}

func (h *EntryHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	detail, err := h.Svc.GetEntry(actor, id)
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type updateEntryReq struct {
	Amount        *float64 `json:"amount"`
	Kind          *string  `json:"kind"`
	Date          *string  `json:"date"`
	Description   *string  `json:"description"`
	Category      *string  `json:"category"`
	CategoryID    *uint    `json:"categoryId"`
	AccountID     *uint    `json:"accountId"`
	PaymentMethod *string  `json:"paymentMethod"`
	Notes         *string  `json:"notes"`
}

// Update applies a partial edit. The raw body is decoded twice so that
// an explicit null accountId/categoryId (detach) can be told apart from
// the key being absent (leave unchanged).
func (h *EntryHandler) Update(c *gin.Context) {
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
	var req updateEntryReq
	if err := json.Unmarshal(body, &req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid payload")
		return
	}
	var present map[string]json.RawMessage
	_ = json.Unmarshal(body, &present)
	_, catSet := present["categoryId"]
	_, accSet := present["accountId"]

	err = h.Svc.UpdateEntry(actor, id, finance.UpdateEntryInput{
		Amount:        req.Amount,
		Kind:          req.Kind,
		Date:          req.Date,
		Description:   req.Description,
		Category:      req.Category,
		CategoryID:    finance.OptionalID{Set: catSet, Value: req.CategoryID},
		AccountID:     finance.OptionalID{Set: accSet, Value: req.AccountID},
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *EntryHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Svc.DeleteEntry(actor, id); err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
