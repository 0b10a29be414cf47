package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
)

// BaseModel holds the id and audit columns every table has
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) toEntity() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (m *BaseModel) fromEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel adds the optimistic-locking version column
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) toAggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.toEntity(),
		Version:    m.Version,
	}
}

func (m *AggregateModel) fromAggregate(a shared.BaseAggregateRoot) {
	m.fromEntity(a.BaseEntity)
	m.Version = a.Version
}
