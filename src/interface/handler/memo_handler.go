package handler

import (
	"errors"
	"net/http"
	"strconv"

	"memo-app/src/domain"
	"memo-app/src/usecase"
	"memo-app/src/validator"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	emptyListMessage   = "メモがありません。新しいメモを追加してください！"
	noResultsMessage   = "検索結果がありません。"
	confirmDeleteQuery = "confirm"
)

// MemoHandler handles HTTP requests for memo operations
type MemoHandler struct {
	memoUsecase usecase.MemoUsecase
	validator   *validator.CustomValidator
	logger      *logrus.Logger
}

// NewMemoHandler creates a new memo handler
func NewMemoHandler(memoUsecase usecase.MemoUsecase, logger *logrus.Logger) *MemoHandler {
	return &MemoHandler{
		memoUsecase: memoUsecase,
		validator:   validator.NewCustomValidator(),
		logger:      logger,
	}
}

// ListMemos returns the memo list filtered by the current query.
// A search parameter filters this response only and leaves the current query alone.
func (h *MemoHandler) ListMemos(c *gin.Context) {
	if query, ok := c.GetQuery("search"); ok {
		if !h.validQuery(c, query) {
			return
		}
		c.JSON(http.StatusOK, h.toMemoListResponseDTO(h.memoUsecase.SearchMemos(query)))
		return
	}

	c.JSON(http.StatusOK, h.toMemoListResponseDTO(h.memoUsecase.ListMemos()))
}

// SearchMemos filters memos without changing the current query
func (h *MemoHandler) SearchMemos(c *gin.Context) {
	query := c.Query("q")
	if !h.validQuery(c, query) {
		return
	}

	c.JSON(http.StatusOK, h.toMemoListResponseDTO(h.memoUsecase.SearchMemos(query)))
}

// SetQuery sets the current search query
func (h *MemoHandler) SetQuery(c *gin.Context) {
	var req QueryRequestDTO
	if !h.bind(c, &req) {
		return
	}

	c.JSON(http.StatusOK, h.toMemoListResponseDTO(h.memoUsecase.SetQuery(req.Query)))
}

// AddMemo creates a new memo in editing state
func (h *MemoHandler) AddMemo(c *gin.Context) {
	list, err := h.memoUsecase.AddMemo(c.Request.Context())
	if err != nil {
		h.respondError(c, err, 0, "Failed to add memo")
		return
	}

	h.logger.WithField("total", list.Total).Info("メモを作成しました")
	c.JSON(http.StatusCreated, h.toMemoListResponseDTO(list))
}

// BeginEdit switches a memo into editing state
func (h *MemoHandler) BeginEdit(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	list, err := h.memoUsecase.BeginEdit(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, id, "Failed to edit memo")
		return
	}

	c.JSON(http.StatusOK, h.toMemoListResponseDTO(list))
}

// ChangeContent updates the draft content of a memo
func (h *MemoHandler) ChangeContent(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ContentRequestDTO
	if !h.bind(c, &req) {
		return
	}

	list, err := h.memoUsecase.ChangeContent(c.Request.Context(), id, req.Content)
	if err != nil {
		h.respondError(c, err, id, "Failed to change memo content")
		return
	}

	c.JSON(http.StatusOK, h.toMemoListResponseDTO(list))
}

// SaveMemo saves a memo; blank content is refused before reaching the usecase
func (h *MemoHandler) SaveMemo(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req SaveMemoRequestDTO
	if !h.bind(c, &req) {
		return
	}

	list, err := h.memoUsecase.SaveMemo(c.Request.Context(), id, req.Content)
	if err != nil {
		h.respondError(c, err, id, "Failed to save memo")
		return
	}

	h.logger.WithField("memo_id", id).Info("メモを保存しました")
	c.JSON(http.StatusOK, h.toMemoListResponseDTO(list))
}

// CancelEdit discards or reverts the memo being edited
func (h *MemoHandler) CancelEdit(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	list, err := h.memoUsecase.CancelEdit(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, id, "Failed to cancel editing")
		return
	}

	c.JSON(http.StatusOK, h.toMemoListResponseDTO(list))
}

// DeleteMemo deletes a memo after the client confirmed with confirm=true
func (h *MemoHandler) DeleteMemo(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	confirmed, _ := strconv.ParseBool(c.Query(confirmDeleteQuery))
	if !confirmed {
		c.JSON(http.StatusConflict, ErrorResponseDTO{
			Error:   "Confirmation required",
			Message: "本当にこのメモを削除しますか？ confirm=true を指定してください。",
		})
		return
	}

	list, err := h.memoUsecase.DeleteMemo(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, id, "Failed to delete memo")
		return
	}

	h.logger.WithField("memo_id", id).Info("メモを削除しました")
	c.JSON(http.StatusOK, h.toMemoListResponseDTO(list))
}

// Helper methods

func (h *MemoHandler) parseID(c *gin.Context) (int, bool) {
	id, err := h.validator.ValidateID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid memo ID",
			Message: err.Error(),
		})
		return 0, false
	}
	return id, true
}

func (h *MemoHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.WithError(err).Warn("リクエストのバインドに失敗")
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid request format",
			Message: err.Error(),
		})
		return false
	}

	if err := h.validator.Validate(req); err != nil {
		resp := ErrorResponseDTO{
			Error:   "Validation failed",
			Message: err.Error(),
		}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			resp.Details = ve.Errors
			if len(ve.Errors) > 0 {
				resp.Message = ve.Errors[0].Message
			}
		}
		c.JSON(http.StatusBadRequest, resp)
		return false
	}
	return true
}

func (h *MemoHandler) validQuery(c *gin.Context, query string) bool {
	return h.validateValue(c, &QueryRequestDTO{Query: query})
}

func (h *MemoHandler) validateValue(c *gin.Context, req interface{}) bool {
	if err := h.validator.Validate(req); err != nil {
		resp := ErrorResponseDTO{Error: "Invalid query parameters", Message: err.Error()}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			resp.Details = ve.Errors
		}
		c.JSON(http.StatusBadRequest, resp)
		return false
	}
	return true
}

func (h *MemoHandler) respondError(c *gin.Context, err error, id int, message string) {
	status := http.StatusInternalServerError
	resp := ErrorResponseDTO{Error: message}

	switch {
	case errors.Is(err, domain.ErrMemoNotFound):
		status = http.StatusNotFound
		resp.Message = "memo not found"
	case errors.Is(err, domain.ErrValidationRejected):
		status = http.StatusBadRequest
		resp.Message = validator.ContentRequiredMessage
	case errors.Is(err, usecase.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}

	entry := h.logger.WithError(err).WithField("memo_id", id)
	if status >= http.StatusInternalServerError {
		entry.Error("メモ操作に失敗")
	} else {
		entry.Warn("メモ操作が拒否されました")
	}

	c.JSON(status, resp)
}

func (h *MemoHandler) toMemoResponseDTO(memo domain.Memo) MemoResponseDTO {
	return MemoResponseDTO{
		ID:        memo.ID,
		Content:   memo.Content,
		IsEditing: memo.IsEditing,
		CreatedAt: memo.CreatedAt,
	}
}

func (h *MemoHandler) toMemoListResponseDTO(list usecase.MemoList) MemoListResponseDTO {
	memos := make([]MemoResponseDTO, len(list.Memos))
	for i, memo := range list.Memos {
		memos[i] = h.toMemoResponseDTO(memo)
	}

	resp := MemoListResponseDTO{
		Memos: memos,
		Total: list.Total,
		Query: list.Query,
	}
	if len(memos) == 0 {
		if list.Query != "" {
			resp.EmptyMessage = noResultsMessage
		} else {
			resp.EmptyMessage = emptyListMessage
		}
	}
	return resp
}
