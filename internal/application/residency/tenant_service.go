package residency

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/residency"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// TenantService handles tenant registry operations
type TenantService struct {
	tenantRepo     residency.TenantRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewTenantService creates a new TenantService
func NewTenantService(tenantRepo residency.TenantRepository, txManager shared.TransactionManager) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		txManager:  txManager,
		now:        time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TenantService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Register creates an active tenant
func (s *TenantService) Register(ctx context.Context, req RegisterTenantRequest) (*TenantResponse, error) {
	var joined time.Time
	if req.JoiningDate != "" {
		d, err := time.Parse(residency.DateLayout, req.JoiningDate)
		if err != nil {
			return nil, shared.NewValidationError("joining date %q must be in YYYY-MM-DD format", req.JoiningDate)
		}
		joined = d
	}

	tenant, err := residency.NewTenant(residency.RegisterTenantInput{
		Name:                      req.Name,
		Phone:                     req.Phone,
		RoomNumber:                req.RoomNumber,
		MonthlyRent:               req.MonthlyRent,
		SecurityDeposit:           req.SecurityDeposit,
		DepositPaid:               req.DepositPaid,
		ElectricityJoiningReading: req.ElectricityJoiningReading,
		JoiningDate:               joined,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, tenant)

	logger.L(ctx).Info("tenant registered",
		zap.String("tenant_id", tenant.ID.String()),
		logger.Room(tenant.RoomNumber))

	response := ToTenantResponse(tenant)
	return &response, nil
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTenantResponse(tenant)
	return &response, nil
}

// List retrieves tenants with filtering and pagination
func (s *TenantService) List(ctx context.Context, filter TenantListFilter) ([]TenantResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := residency.TenantFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		RoomNumber: strings.TrimSpace(filter.RoomNumber),
	}
	if filter.Status != "" {
		status := residency.TenantStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("invalid tenant status %q", filter.Status)
		}
		domainFilter.Status = &status
	}

	tenants, err := s.tenantRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tenantRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTenantResponses(tenants), total, nil
}

// MoveRoom reassigns a tenant to another room. The new room's current
// meter value becomes the tenant's joining reading.
func (s *TenantService) MoveRoom(ctx context.Context, id uuid.UUID, req MoveRoomRequest) (*TenantResponse, error) {
	var tenant *residency.Tenant
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		tenant, err = s.tenantRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tenant.MoveToRoom(req.RoomNumber, req.ElectricityJoiningReading, s.now()); err != nil {
			return err
		}
		return s.tenantRepo.SaveWithLock(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, tenant)

	response := ToTenantResponse(tenant)
	return &response, nil
}

// ChangeStatus moves a tenant between active, adjust and inactive
func (s *TenantService) ChangeStatus(ctx context.Context, id uuid.UUID, req ChangeStatusRequest) (*TenantResponse, error) {
	status := residency.TenantStatus(req.Status)
	if !status.IsValid() {
		return nil, shared.NewValidationError("invalid tenant status %q", req.Status)
	}

	var tenant *residency.Tenant
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		tenant, err = s.tenantRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if tenant.Status == status {
			return nil
		}
		if err := tenant.ChangeStatus(status, s.now()); err != nil {
			return err
		}
		return s.tenantRepo.SaveWithLock(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}

	response := ToTenantResponse(tenant)
	return &response, nil
}

// UpdateDeposit records how much of the security deposit was collected and deducted
func (s *TenantService) UpdateDeposit(ctx context.Context, id uuid.UUID, req UpdateDepositRequest) (*TenantResponse, error) {
	var tenant *residency.Tenant
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		tenant, err = s.tenantRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tenant.AdjustDeposit(req.DepositPaid, req.DepositAdjustment, s.now()); err != nil {
			return err
		}
		return s.tenantRepo.SaveWithLock(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}

	response := ToTenantResponse(tenant)
	return &response, nil
}

// UpdateElectricityReadings records the current meter value of each room
// on every active tenant in it. All rooms are checked before anything is
// written; one bad room rejects the whole request.
func (s *TenantService) UpdateElectricityReadings(ctx context.Context, req UpdateReadingsRequest) (*UpdateReadingsResponse, error) {
	if len(req.Readings) == 0 {
		return nil, shared.NewValidationError("at least one room reading is required")
	}

	rooms := make([]string, 0, len(req.Readings))
	for room, reading := range req.Readings {
		if strings.TrimSpace(room) == "" {
			return nil, shared.NewValidationError("room number is required")
		}
		if reading < 0 {
			return nil, shared.NewValidationError("reading for room %s cannot be negative", room)
		}
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)

	response := &UpdateReadingsResponse{Rooms: make([]RoomReadingResult, 0, len(rooms))}
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		groups := make(map[string][]*residency.Tenant, len(rooms))
		for _, room := range rooms {
			tenants, err := s.tenantRepo.FindActiveByRoom(ctx, room)
			if err != nil {
				return err
			}
			if len(tenants) == 0 {
				return shared.NewNotFoundError("room", room)
			}
			reading := req.Readings[room]
			for _, t := range tenants {
				if reading < t.ElectricityJoiningReading {
					return shared.NewValidationError(
						"reading %d for room %s is below tenant %s joining reading %d",
						reading, room, t.Name, t.ElectricityJoiningReading)
				}
			}
			groups[room] = tenants
		}

		now := s.now()
		for _, room := range rooms {
			result := RoomReadingResult{RoomNumber: room, Reading: req.Readings[room]}
			for _, t := range groups[room] {
				if err := t.RecordReading(result.Reading, now); err != nil {
					return err
				}
				if err := s.tenantRepo.SaveWithLock(ctx, t); err != nil {
					return err
				}
				result.TenantIDs = append(result.TenantIDs, t.ID)
			}
			response.TenantsUpdated += len(result.TenantIDs)
			response.Rooms = append(response.Rooms, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("electricity readings updated",
		zap.Int("rooms", len(response.Rooms)),
		zap.Int("tenants", response.TenantsUpdated))
	return response, nil
}

// publishDomainEvents publishes and clears the tenant's pending events
func (s *TenantService) publishDomainEvents(ctx context.Context, tenant *residency.Tenant) {
	if s.eventPublisher == nil {
		return
	}
	events := tenant.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish errors are logged by the bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
	tenant.ClearDomainEvents()
}
