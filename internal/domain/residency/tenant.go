package residency

import (
	"fmt"
	"strings"
	"time"

	"github.com/pgledger/backend/internal/domain/shared"
)

// TenantStatus represents the occupancy status of a tenant
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"   // Living in the room, billed monthly
	TenantStatusAdjust   TenantStatus = "adjust"   // Notice period / deposit being settled, not billed
	TenantStatusInactive TenantStatus = "inactive" // Moved out
)

// IsValid checks if the status is a valid TenantStatus
func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantStatusActive, TenantStatusAdjust, TenantStatusInactive:
		return true
	}
	return false
}

func (s TenantStatus) String() string {
	return string(s)
}

// DateLayout is the wire and storage layout of calendar dates
const DateLayout = "2006-01-02"

// Tenant is a resident occupying a bed in a room. It owns the electricity
// meter baseline used for the room's consumption split.
type Tenant struct {
	shared.BaseAggregateRoot
	Name                      string
	Phone                     string
	RoomNumber                string
	MonthlyRent               int64
	SecurityDeposit           int64
	DepositPaid               int64
	DepositAdjustment         int64
	ElectricityJoiningReading int64
	LastElectricityReading    *int64
	Status                    TenantStatus
	JoiningDate               time.Time
}

// RegisterTenantInput carries the values needed to register a tenant
type RegisterTenantInput struct {
	Name                      string
	Phone                     string
	RoomNumber                string
	MonthlyRent               int64
	SecurityDeposit           int64
	DepositPaid               int64
	ElectricityJoiningReading int64
	JoiningDate               time.Time
}

// NewTenant validates the input and creates an active tenant
func NewTenant(in RegisterTenantInput, now time.Time) (*Tenant, error) {
	name := strings.TrimSpace(in.Name)
	room := strings.TrimSpace(in.RoomNumber)
	if name == "" {
		return nil, shared.NewValidationError("tenant name is required")
	}
	if room == "" {
		return nil, shared.NewValidationError("room number is required")
	}
	if in.MonthlyRent < 0 {
		return nil, shared.NewValidationError("monthly rent cannot be negative")
	}
	if in.SecurityDeposit < 0 || in.DepositPaid < 0 {
		return nil, shared.NewValidationError("deposit amounts cannot be negative")
	}
	if in.ElectricityJoiningReading < 0 {
		return nil, shared.NewValidationError("electricity joining reading cannot be negative")
	}

	joined := in.JoiningDate
	if joined.IsZero() {
		joined = now
	}

	t := &Tenant{
		BaseAggregateRoot:         shared.NewBaseAggregateRoot(now),
		Name:                      name,
		Phone:                     strings.TrimSpace(in.Phone),
		RoomNumber:                room,
		MonthlyRent:               in.MonthlyRent,
		SecurityDeposit:           in.SecurityDeposit,
		DepositPaid:               in.DepositPaid,
		ElectricityJoiningReading: in.ElectricityJoiningReading,
		Status:                    TenantStatusActive,
		JoiningDate:               truncateDay(joined),
	}
	t.AddDomainEvent(NewTenantRegisteredEvent(t, now))
	return t, nil
}

// IsActive reports whether the tenant takes part in billing
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// DepositBalance is the part of the security deposit still owed, never below zero
func (t *Tenant) DepositBalance() int64 {
	b := t.SecurityDeposit - t.DepositPaid - t.DepositAdjustment
	if b < 0 {
		return 0
	}
	return b
}

// KnownReading returns the most recent meter value known for this tenant:
// the last recorded reading when set, otherwise the joining baseline.
func (t *Tenant) KnownReading() int64 {
	if t.LastElectricityReading != nil {
		return *t.LastElectricityReading
	}
	return t.ElectricityJoiningReading
}

// RecordReading stores a meter value read for the tenant's room.
// A reading below the joining baseline is rejected.
func (t *Tenant) RecordReading(reading int64, now time.Time) error {
	if reading < t.ElectricityJoiningReading {
		return shared.NewValidationError(
			"reading %d for room %s is below tenant %s joining reading %d",
			reading, t.RoomNumber, t.Name, t.ElectricityJoiningReading)
	}
	t.setReading(reading, now)
	return nil
}

// AdvanceReading moves the last known reading forward after billing. The
// stored value never drops below the joining baseline, so a clamped
// (meter reset) month leaves the baseline in place.
func (t *Tenant) AdvanceReading(reading int64, now time.Time) {
	if reading < t.ElectricityJoiningReading {
		reading = t.ElectricityJoiningReading
	}
	t.setReading(reading, now)
}

func (t *Tenant) setReading(reading int64, now time.Time) {
	r := reading
	t.LastElectricityReading = &r
	t.Touch(now)
	t.IncrementVersion()
}

// MoveToRoom reassigns the tenant. The joining reading becomes the new
// room's meter value at move time and the last reading is cleared.
func (t *Tenant) MoveToRoom(room string, joiningReading int64, now time.Time) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return shared.NewValidationError("room number is required")
	}
	if joiningReading < 0 {
		return shared.NewValidationError("electricity joining reading cannot be negative")
	}
	if t.Status == TenantStatusInactive {
		return shared.NewDomainError(shared.CodeInvalidState, "inactive tenants cannot be moved")
	}

	from := t.RoomNumber
	t.RoomNumber = room
	t.ElectricityJoiningReading = joiningReading
	t.LastElectricityReading = nil
	t.Touch(now)
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantMovedEvent(t, from, now))
	return nil
}

// ChangeStatus transitions the tenant to status
func (t *Tenant) ChangeStatus(status TenantStatus, now time.Time) error {
	if !status.IsValid() {
		return shared.NewValidationError("invalid tenant status %q", status)
	}
	if t.Status == status {
		return nil
	}
	t.Status = status
	t.Touch(now)
	t.IncrementVersion()
	return nil
}

// AdjustDeposit records a deduction or settlement against the deposit
func (t *Tenant) AdjustDeposit(paid, adjustment int64, now time.Time) error {
	if paid < 0 || adjustment < 0 {
		return shared.NewValidationError("deposit amounts cannot be negative")
	}
	t.DepositPaid = paid
	t.DepositAdjustment = adjustment
	t.Touch(now)
	t.IncrementVersion()
	return nil
}

func (t *Tenant) String() string {
	return fmt.Sprintf("%s (room %s)", t.Name, t.RoomNumber)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
