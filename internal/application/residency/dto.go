package residency

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/residency"
)

// RegisterTenantRequest represents a request to register a tenant
type RegisterTenantRequest struct {
	Name                      string `json:"name" binding:"required,min=1,max=200"`
	Phone                     string `json:"phone" binding:"max=20"`
	RoomNumber                string `json:"room_number" binding:"required,min=1,max=20"`
	MonthlyRent               int64  `json:"monthly_rent" binding:"gte=0"`
	SecurityDeposit           int64  `json:"security_deposit" binding:"gte=0"`
	DepositPaid               int64  `json:"deposit_paid" binding:"gte=0"`
	ElectricityJoiningReading int64  `json:"electricity_joining_reading" binding:"gte=0"`
	JoiningDate               string `json:"joining_date" binding:"omitempty,datetime=2006-01-02"`
}

// MoveRoomRequest moves a tenant to another room with a fresh meter baseline
type MoveRoomRequest struct {
	RoomNumber                string `json:"room_number" binding:"required,min=1,max=20"`
	ElectricityJoiningReading int64  `json:"electricity_joining_reading" binding:"gte=0"`
}

// ChangeStatusRequest represents a tenant status transition
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active adjust inactive"`
}

// UpdateDepositRequest records deposit collection and deductions
type UpdateDepositRequest struct {
	DepositPaid       int64 `json:"deposit_paid" binding:"gte=0"`
	DepositAdjustment int64 `json:"deposit_adjustment" binding:"gte=0"`
}

// UpdateReadingsRequest carries the current meter value per room
type UpdateReadingsRequest struct {
	Readings map[string]int64 `json:"readings" binding:"required,min=1"`
}

// TenantListFilter represents filter options for the tenant list
type TenantListFilter struct {
	Search     string `form:"search"`
	RoomNumber string `form:"room_number"`
	Status     string `form:"status" binding:"omitempty,oneof=active adjust inactive"`
	Page       int    `form:"page" binding:"min=0"`
	PageSize   int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID                        uuid.UUID `json:"id"`
	Name                      string    `json:"name"`
	Phone                     string    `json:"phone,omitempty"`
	RoomNumber                string    `json:"room_number"`
	MonthlyRent               int64     `json:"monthly_rent"`
	SecurityDeposit           int64     `json:"security_deposit"`
	DepositPaid               int64     `json:"deposit_paid"`
	DepositAdjustment         int64     `json:"deposit_adjustment"`
	DepositBalance            int64     `json:"deposit_balance"`
	ElectricityJoiningReading int64     `json:"electricity_joining_reading"`
	LastElectricityReading    *int64    `json:"last_electricity_reading"`
	Status                    string    `json:"status"`
	JoiningDate               string    `json:"joining_date"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
	Version                   int       `json:"version"`
}

// RoomReadingResult reports the tenants touched by one room's reading
type RoomReadingResult struct {
	RoomNumber string      `json:"room_number"`
	Reading    int64       `json:"reading"`
	TenantIDs  []uuid.UUID `json:"tenant_ids"`
}

// UpdateReadingsResponse summarizes a meter reading update
type UpdateReadingsResponse struct {
	Rooms          []RoomReadingResult `json:"rooms"`
	TenantsUpdated int                 `json:"tenants_updated"`
}

// ToTenantResponse converts a domain tenant to a response
func ToTenantResponse(t *residency.Tenant) TenantResponse {
	return TenantResponse{
		ID:                        t.ID,
		Name:                      t.Name,
		Phone:                     t.Phone,
		RoomNumber:                t.RoomNumber,
		MonthlyRent:               t.MonthlyRent,
		SecurityDeposit:           t.SecurityDeposit,
		DepositPaid:               t.DepositPaid,
		DepositAdjustment:         t.DepositAdjustment,
		DepositBalance:            t.DepositBalance(),
		ElectricityJoiningReading: t.ElectricityJoiningReading,
		LastElectricityReading:    t.LastElectricityReading,
		Status:                    string(t.Status),
		JoiningDate:               t.JoiningDate.Format(residency.DateLayout),
		CreatedAt:                 t.CreatedAt,
		UpdatedAt:                 t.UpdatedAt,
		Version:                   t.GetVersion(),
	}
}

// ToTenantResponses converts a slice of tenants
func ToTenantResponses(tenants []residency.Tenant) []TenantResponse {
	out := make([]TenantResponse, len(tenants))
	for i := range tenants {
		out[i] = ToTenantResponse(&tenants[i])
	}
	return out
}
