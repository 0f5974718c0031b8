package handlers

import (
	"net/http"
	"strconv"

	"Attune/internal/crisis"
	"Attune/internal/models"
	"Attune/pkg/errors"
	"Attune/pkg/response"
	"Attune/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type evaluateRequest struct {
	Text     string `json:"text" binding:"required"`
	Context  string `json:"context"`
	CoupleID *uint  `json:"coupleId"`
	Geo      string `json:"geo"`
}

type safetyPlanRequest struct {
	WarningSigns         []string             `json:"warningSigns"`
	CopingStrategies     []string             `json:"copingStrategies"`
	SupportNetwork       []models.PlanContact `json:"supportNetwork"`
	ProfessionalContacts []models.PlanContact `json:"professionalContacts"`
	CrisisContacts       []models.PlanContact `json:"crisisContacts"`
}

// requestUser 从请求头解析用户标识
func requestUser(context *gin.Context) (uint, bool) {
	raw := context.GetHeader("X-User-ID")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// failFromError 把错误码映射到 HTTP 状态
func failFromError(context *gin.Context, err error) {
	switch errors.GetCode(err) {
	case errors.CodeValidation:
		response.FailWithStatus(context, http.StatusBadRequest, errors.GetMessage(err), nil)
	case errors.CodeAlertNotFound:
		response.FailWithStatus(context, http.StatusNotFound, errors.GetMessage(err), nil)
	case errors.CodeInvalidTransition:
		response.FailWithStatus(context, http.StatusConflict, errors.GetMessage(err), nil)
	default:
		response.FailWithStatus(context, http.StatusInternalServerError, "internal error", gin.H{"error": err.Error()})
	}
}

func (h *Handlers) handleEvaluate(context *gin.Context) {
	userID, ok := requestUser(context)
	if !ok {
		response.FailWithStatus(context, http.StatusBadRequest, "X-User-ID header is required", nil)
		return
	}
	var req evaluateRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	geo := req.Geo
	if geo == "" {
		geo = util.CountryForIP(context.ClientIP())
	}
	result, err := h.coord.Evaluate(context.Request.Context(), crisis.EvaluateRequest{
		UserID:   userID,
		CoupleID: req.CoupleID,
		Text:     req.Text,
		Context:  crisis.ContextTag(req.Context),
		Geo:      geo,
	})
	if err != nil {
		failFromError(context, err)
		return
	}
	response.Success(context, "success", result)
}

func (h *Handlers) handleActiveAlerts(context *gin.Context) {
	userID, ok := requestUser(context)
	if !ok {
		response.FailWithStatus(context, http.StatusBadRequest, "X-User-ID header is required", nil)
		return
	}
	alerts, err := h.coord.GetActiveAlerts(userID)
	if err != nil {
		failFromError(context, err)
		return
	}
	response.Success(context, "success", gin.H{"alerts": alerts})
}

func (h *Handlers) handleResolveAlert(context *gin.Context) {
	h.closeAlert(context, false)
}

func (h *Handlers) handleTransferAlert(context *gin.Context) {
	h.closeAlert(context, true)
}

func (h *Handlers) closeAlert(context *gin.Context, transfer bool) {
	alertID := context.Param("id")
	if _, err := uuid.Parse(alertID); err != nil {
		response.FailWithStatus(context, http.StatusBadRequest, "invalid alert id", nil)
		return
	}
	var body struct {
		Note string `json:"note"`
	}
	_ = context.ShouldBindJSON(&body)

	var (
		alert *models.CrisisAlert
		err   error
	)
	if transfer {
		alert, err = h.coord.TransferAlert(context.Request.Context(), alertID, body.Note)
	} else {
		alert, err = h.coord.ResolveAlert(context.Request.Context(), alertID, body.Note)
	}
	if err != nil {
		failFromError(context, err)
		return
	}
	response.Success(context, "success", gin.H{"alert": alert})
}

func (h *Handlers) handleGetSafetyPlan(context *gin.Context) {
	userID, ok := requestUser(context)
	if !ok {
		response.FailWithStatus(context, http.StatusBadRequest, "X-User-ID header is required", nil)
		return
	}
	plan, err := models.GetOrCreateSafetyPlan(h.db, userID)
	if err != nil {
		failFromError(context, err)
		return
	}
	response.Success(context, "success", gin.H{"plan": plan})
}

func (h *Handlers) handleUpdateSafetyPlan(context *gin.Context) {
	userID, ok := requestUser(context)
	if !ok {
		response.FailWithStatus(context, http.StatusBadRequest, "X-User-ID header is required", nil)
		return
	}
	var req safetyPlanRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, err := models.GetOrCreateSafetyPlan(h.db, userID)
	if err != nil {
		failFromError(context, err)
		return
	}
	plan.WarningSigns = req.WarningSigns
	plan.CopingStrategies = req.CopingStrategies
	plan.SupportNetwork = req.SupportNetwork
	plan.ProfessionalContacts = req.ProfessionalContacts
	plan.CrisisContacts = req.CrisisContacts
	plan.ReviewStatus = "needs_review"
	if err := models.UpdateSafetyPlan(h.db, plan); err != nil {
		failFromError(context, err)
		return
	}
	response.Success(context, "success", gin.H{"plan": plan})
}

func (h *Handlers) handleResources(context *gin.Context) {
	ctype := models.CrisisType(context.DefaultQuery("type", string(models.CrisisOther)))
	geo := context.Query("geo")
	if geo == "" {
		geo = util.CountryForIP(context.ClientIP())
	}
	resources := h.coord.MatchResources(context.Request.Context(), ctype, geo)
	response.Success(context, "success", gin.H{"resources": resources})
}

// handleAlertStream 订阅警报事件（SSE）
func (h *Handlers) handleAlertStream(context *gin.Context) {
	userID, ok := requestUser(context)
	if !ok {
		response.FailWithStatus(context, http.StatusBadRequest, "X-User-ID header is required", nil)
		return
	}
	h.hub.Serve(context, uuid.NewString(), alertGroup(userID))
}

func alertGroup(userID uint) string {
	return "alerts:" + strconv.FormatUint(uint64(userID), 10)
}
