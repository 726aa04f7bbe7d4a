package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/importer"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/gin-gonic/gin"
)

// writeError maps ledger errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateEntry), errors.Is(err, common.ErrInvalidStatus):
		status = http.StatusConflict
	case common.IsRequestError(err):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		common.LogError(err, "Request failed", common.Fields{"path": c.FullPath()})
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func (s *Server) handleSync(c *gin.Context) {
	result, err := s.ledger.Sync(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListTagRules(c *gin.Context) {
	rules, err := s.ledger.ListTagRules(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	payloads := make([]TagRulePayload, len(rules))
	for i, rule := range rules {
		payloads[i] = NewTagRulePayload(rule)
	}
	c.JSON(http.StatusOK, payloads)
}

func (s *Server) handleSaveTagRule(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "failed to read body")
		return
	}

	rule, err := DecodeTagRule(body)
	if err != nil {
		badRequest(c, "invalid payload")
		return
	}

	if err := s.ledger.SaveTagRule(c.Request.Context(), &rule); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTagRulePayload(rule))
}

func (s *Server) handleListOperations(c *gin.Context) {
	filter := service.OperationFilter{
		Status: model.OperationStatus(c.Query("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		badRequest(c, "invalid status")
		return
	}

	if raw := c.Query("bankAccountId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid bankAccountId")
			return
		}
		filter.BankAccountID = id
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			badRequest(c, "invalid from date")
			return
		}
		filter.StartDate = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			badRequest(c, "invalid to date")
			return
		}
		filter.EndDate = &to
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(c, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	ops, err := s.ledger.ListOperations(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if ops == nil {
		ops = []model.Operation{}
	}
	c.JSON(http.StatusOK, ops)
}

func (s *Server) handleImportOperations(c *gin.Context) {
	var payload ImportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	records, err := payload.Records()
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := s.ledger.ImportOperations(c.Request.Context(), importer.SourceAPI, records)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("sync") == "true" {
		syncResult, err := s.ledger.Sync(c.Request.Context())
		if err != nil {
			// The batch is committed; report it alongside the sync failure.
			common.LogError(err, "Sync after import failed", common.Fields{"batch_id": result.BatchID})
			c.JSON(http.StatusMultiStatus, gin.H{"import": result, "error": "sync failed: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"import": result, "sync": syncResult})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleConfirmOperation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid operation ID")
		return
	}

	op, err := s.ledger.ConfirmOperation(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, op)
}

func (s *Server) handleListTags(c *gin.Context) {
	tags, err := s.ledger.ListTags(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	c.JSON(http.StatusOK, tags)
}

func (s *Server) handleSaveTag(c *gin.Context) {
	var tag model.Tag
	if err := c.ShouldBindJSON(&tag); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	if err := s.ledger.SaveTag(c.Request.Context(), &tag); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (s *Server) handleListBankAccounts(c *gin.Context) {
	accounts, err := s.ledger.ListBankAccounts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if accounts == nil {
		accounts = []model.BankAccount{}
	}
	c.JSON(http.StatusOK, accounts)
}

func (s *Server) handleSaveBankAccount(c *gin.Context) {
	var account model.BankAccount
	if err := c.ShouldBindJSON(&account); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	if err := s.ledger.SaveBankAccount(c.Request.Context(), &account); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
