package models

import (
	"time"

	"github.com/pgledger/backend/internal/domain/residency"
)

// TenantModel is the persistence model for the Tenant aggregate
type TenantModel struct {
	AggregateModel
	Name                      string                 `gorm:"type:varchar(200);not null"`
	Phone                     string                 `gorm:"type:varchar(30)"`
	RoomNumber                string                 `gorm:"type:varchar(20);not null;index:idx_tenants_room_status,priority:1"`
	MonthlyRent               int64                  `gorm:"not null;default:0"`
	SecurityDeposit           int64                  `gorm:"not null;default:0"`
	DepositPaid               int64                  `gorm:"not null;default:0"`
	DepositAdjustment         int64                  `gorm:"not null;default:0"`
	ElectricityJoiningReading int64                  `gorm:"not null;default:0"`
	LastElectricityReading    *int64                 `gorm:""`
	Status                    residency.TenantStatus `gorm:"type:varchar(20);not null;default:'active';index:idx_tenants_room_status,priority:2"`
	JoiningDate               time.Time              `gorm:"type:date;not null"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the model to a Tenant aggregate
func (m *TenantModel) ToDomain() *residency.Tenant {
	return &residency.Tenant{
		BaseAggregateRoot:         m.toAggregate(),
		Name:                      m.Name,
		Phone:                     m.Phone,
		RoomNumber:                m.RoomNumber,
		MonthlyRent:               m.MonthlyRent,
		SecurityDeposit:           m.SecurityDeposit,
		DepositPaid:               m.DepositPaid,
		DepositAdjustment:         m.DepositAdjustment,
		ElectricityJoiningReading: m.ElectricityJoiningReading,
		LastElectricityReading:    m.LastElectricityReading,
		Status:                    m.Status,
		JoiningDate:               m.JoiningDate,
	}
}

// TenantModelFromDomain converts a Tenant aggregate to its model
func TenantModelFromDomain(t *residency.Tenant) *TenantModel {
	m := &TenantModel{
		Name:                      t.Name,
		Phone:                     t.Phone,
		RoomNumber:                t.RoomNumber,
		MonthlyRent:               t.MonthlyRent,
		SecurityDeposit:           t.SecurityDeposit,
		DepositPaid:               t.DepositPaid,
		DepositAdjustment:         t.DepositAdjustment,
		ElectricityJoiningReading: t.ElectricityJoiningReading,
		LastElectricityReading:    t.LastElectricityReading,
		Status:                    t.Status,
		JoiningDate:               t.JoiningDate,
	}
	m.fromAggregate(t.BaseAggregateRoot)
	return m
}
