package handler

import (
	"github.com/gin-gonic/gin"
	residencyapp "github.com/pgledger/backend/internal/application/residency"
)

// TenantHandler handles tenant registry and meter reading endpoints
type TenantHandler struct {
	BaseHandler
	tenantService *residencyapp.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService *residencyapp.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// List godoc
// @ID           listTenants
// @Summary      List tenants
// @Description  List tenants filtered by room, status or a name/phone search
// @Tags         tenants
// @Produce      json
// @Param        search       query    string  false  "Name or phone contains"
// @Param        room_number  query    string  false  "Room number"
// @Param        status       query    string  false  "Tenant status"  Enums(active, adjust, inactive)
// @Param        page         query    int     false  "Page number"  default(1)
// @Param        page_size    query    int     false  "Page size"    default(20)
// @Param        order_by     query    string  false  "Sort column"  default(created_at)
// @Param        order_dir    query    string  false  "Sort direction"  Enums(asc, desc)
// @Success      200 {object} APIResponse[[]residencyapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	var filter residencyapp.TenantListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	tenants, total, err := h.tenantService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, tenants, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getTenantById
// @Summary      Get tenant by ID
// @Tags         tenants
// @Produce      json
// @Param        id   path     string  true  "Tenant ID"  format(uuid)
// @Success      200 {object} APIResponse[residencyapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tenants/{id} [get]
func (h *TenantHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "tenant")
	if !ok {
		return
	}
	tenant, err := h.tenantService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// Register godoc
// @ID           registerTenant
// @Summary      Register a tenant
// @Description  Register a tenant in a room with rent, deposit and the meter reading at joining
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request  body     residencyapp.RegisterTenantRequest  true  "Tenant registration"
// @Success      201 {object} APIResponse[residencyapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /tenants [post]
func (h *TenantHandler) Register(c *gin.Context) {
	var req residencyapp.RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tenant, err := h.tenantService.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tenant)
}

// MoveRoom godoc
// @ID           moveTenantRoom
// @Summary      Move a tenant to another room
// @Description  Reassign the room; the joining reading becomes the new meter baseline
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id       path     string                        true  "Tenant ID"  format(uuid)
// @Param        request  body     residencyapp.MoveRoomRequest  true  "New room"
// @Success      200 {object} APIResponse[residencyapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /tenants/{id}/room [put]
func (h *TenantHandler) MoveRoom(c *gin.Context) {
	id, ok := h.ParseID(c, "tenant")
	if !ok {
		return
	}
	var req residencyapp.MoveRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tenant, err := h.tenantService.MoveRoom(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// ChangeStatus godoc
// @ID           changeTenantStatus
// @Summary      Change tenant status
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id       path     string                            true  "Tenant ID"  format(uuid)
// @Param        request  body     residencyapp.ChangeStatusRequest  true  "New status"
// @Success      200 {object} APIResponse[residencyapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /tenants/{id}/status [put]
func (h *TenantHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.ParseID(c, "tenant")
	if !ok {
		return
	}
	var req residencyapp.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tenant, err := h.tenantService.ChangeStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// UpdateDeposit godoc
// @ID           updateTenantDeposit
// @Summary      Record deposit paid and adjustments
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id       path     string                             true  "Tenant ID"  format(uuid)
// @Param        request  body     residencyapp.UpdateDepositRequest  true  "Deposit figures"
// @Success      200 {object} APIResponse[residencyapp.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /tenants/{id}/deposit [put]
func (h *TenantHandler) UpdateDeposit(c *gin.Context) {
	id, ok := h.ParseID(c, "tenant")
	if !ok {
		return
	}
	var req residencyapp.UpdateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tenant, err := h.tenantService.UpdateDeposit(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// UpdateReadings godoc
// @ID           updateElectricityReadings
// @Summary      Record current meter readings
// @Description  Set the latest reading for every active tenant of each listed room. All rooms are written or none.
// @Tags         electricity
// @Accept       json
// @Produce      json
// @Param        request  body     residencyapp.UpdateReadingsRequest  true  "Reading per room"
// @Success      200 {object} APIResponse[residencyapp.UpdateReadingsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /electricity/readings [put]
func (h *TenantHandler) UpdateReadings(c *gin.Context) {
	var req residencyapp.UpdateReadingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.tenantService.UpdateElectricityReadings(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
