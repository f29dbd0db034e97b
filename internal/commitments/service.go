package commitments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vendorpool-backend/internal/allocation"
	"github.com/angelmondragon/vendorpool-backend/internal/carriers"
	"github.com/angelmondragon/vendorpool-backend/internal/pricing"
	dbpkg "github.com/angelmondragon/vendorpool-backend/pkg/db"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/metrics"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/vendorpool-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	activeCommitmentIndex = "ux_commitments_active_per_vendor_deal"
	// sqlite names the indexed columns instead of the index.
	activeCommitmentColumns = "commitments.user_id, commitments.deal_id"
	maxTrackingLength     = 64
	maxNotesLength        = 2000

	operationCreate = "create"
	operationResize = "resize"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type commitmentRepository interface {
	CreateWithTx(tx *gorm.DB, commitment *models.Commitment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error)
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Commitment, error)
	ListForVendorDealWithTx(tx *gorm.DB, userID, dealID uuid.UUID) ([]models.Commitment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Commitment, error)
	UpdateWithTx(tx *gorm.DB, commitment *models.Commitment) error
	CreateTrackingWithTx(tx *gorm.DB, tracking *models.Tracking) error
	UpdateTrackingWithTx(tx *gorm.DB, tracking *models.Tracking) error
	DeleteTrackingWithTx(tx *gorm.DB, commitmentID uuid.UUID) error
	CreateLabelRequestWithTx(tx *gorm.DB, request *models.LabelRequest) error
	UpdateLabelRequestWithTx(tx *gorm.DB, request *models.LabelRequest) error
	CreateInvoiceWithTx(tx *gorm.DB, invoice *models.Invoice) error
	FindInvoiceByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Invoice, error)
	UpdateInvoiceWithTx(tx *gorm.DB, invoice *models.Invoice) error
}

type dealLoader interface {
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Deal, error)
}

type profileLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Profile, error)
}

type membershipRefresher interface {
	Refresh(ctx context.Context, profile *models.Profile) *models.Profile
}

type warehouseResolver interface {
	ResolveForDelivery(ctx context.Context, code string, method enums.DeliveryMethod) (*models.Warehouse, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies who is calling. Role comes from the profile, never from
// the request body.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) ref() *outbox.ActorRef {
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role}
}

// Service exposes the commitment lifecycle.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*CommitmentDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error)
	List(ctx context.Context, actor Actor, params ListParams) (pagination.Page[CommitmentDTO], error)
	SetDelivery(ctx context.Context, actor Actor, id uuid.UUID, input SetDeliveryInput) (*CommitmentDTO, error)
	SubmitTracking(ctx context.Context, actor Actor, id uuid.UUID, trackingNumber string) (*CommitmentDTO, error)
	RemoveTracking(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error)
	UpdateTrackingStatus(ctx context.Context, actor Actor, id uuid.UUID, input TrackingStatusInput) (*CommitmentDTO, error)
	RequestLabel(ctx context.Context, actor Actor, id uuid.UUID, notes *string) (*CommitmentDTO, error)
	ReviewLabel(ctx context.Context, actor Actor, id uuid.UUID, input ReviewLabelInput) (*CommitmentDTO, error)
	UpdateQuantity(ctx context.Context, actor Actor, id uuid.UUID, quantity int) (*CommitmentDTO, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error)
	MarkDelivered(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error)
	Fulfill(ctx context.Context, actor Actor, id uuid.UUID, input FulfillInput) (*CommitmentDTO, error)
	ForceCancel(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error)
	AdminSetStatus(ctx context.Context, actor Actor, id uuid.UUID, input AdminStatusInput) (*CommitmentDTO, error)
	MarkInvoicePaid(ctx context.Context, actor Actor, invoiceID uuid.UUID, input MarkPaidInput) (*InvoiceDTO, error)
}

// ServiceParams groups the commitment service collaborators.
type ServiceParams struct {
	Tx         txRunner
	Repo       commitmentRepository
	Deals      dealLoader
	Profiles   profileLoader
	Membership membershipRefresher
	Warehouses warehouseResolver
	Outbox     outboxPublisher
	Metrics    *metrics.AllocationMetrics
	Logger     *logger.Logger
}

type service struct {
	tx         txRunner
	repo       commitmentRepository
	deals      dealLoader
	profiles   profileLoader
	membership membershipRefresher
	warehouses warehouseResolver
	outbox     outboxPublisher
	metrics    *metrics.AllocationMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the commitment service. Membership, Metrics and Logger
// are optional.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("commitment repository required")
	case params.Deals == nil:
		return nil, fmt.Errorf("deal loader required")
	case params.Profiles == nil:
		return nil, fmt.Errorf("profile loader required")
	case params.Warehouses == nil:
		return nil, fmt.Errorf("warehouse resolver required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:         params.Tx,
		repo:       params.Repo,
		deals:      params.Deals,
		profiles:   params.Profiles,
		membership: params.Membership,
		warehouses: params.Warehouses,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

// Create admits a new commitment. The allocation check and the insert share
// one transaction holding a per-(vendor, deal) advisory lock, so concurrent
// requests for the same pair serialize and the loser sees a normal rejection.
func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*CommitmentDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.DealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	profile, err := s.profiles.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile not provisioned")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if s.membership != nil {
		profile = s.membership.Refresh(ctx, profile)
	}

	var (
		created   *models.Commitment
		remaining int
		limit     allocation.Limit
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := dbpkg.AdvisoryXactLock(tx, allocationLockKey(actor.UserID, input.DealID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire allocation lock")
		}
		deal, err := s.loadDeal(tx, input.DealID)
		if err != nil {
			return err
		}
		existing, err := s.repo.ListForVendorDealWithTx(tx, actor.UserID, deal.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor commitments")
		}

		limit = allocation.LimitFromPtr(deal.LimitPerVendor)
		result, err := allocation.CheckNew(s.effectiveDealStatus(deal), allocation.EntriesFromCommitments(existing), input.Quantity, limit)
		if err != nil {
			s.observeRejection(ctx, operationCreate, err)
			return err
		}

		rate, isVip := pricing.ResolvePayoutRate(profile, deal)
		commitment := &models.Commitment{
			DealID:         deal.ID,
			UserID:         actor.UserID,
			Quantity:       input.Quantity,
			DeliveryMethod: enums.DeliveryMethodShip,
			Warehouse:      models.WarehouseTBD,
			Status:         enums.CommitmentStatusPending,
			PayoutRate:     rate,
			IsVip:          isVip,
		}
		if err := s.repo.CreateWithTx(tx, commitment); err != nil {
			if isActiveCommitmentConflict(err) {
				rejection := allocation.ErrActiveCommitmentExists(result.RemainingAllowance, limit)
				s.observeRejection(ctx, operationCreate, rejection)
				return rejection
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create commitment")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCommitmentCreated,
			AggregateType: enums.AggregateCommitment,
			AggregateID:   commitment.ID,
			Actor:         actor.ref(),
			Data: payloads.CommitmentCreatedEvent{
				CommitmentID:     commitment.ID,
				CommitmentNumber: commitment.CommitmentNumber,
				DealID:           commitment.DealID,
				UserID:           commitment.UserID,
				Quantity:         commitment.Quantity,
				PayoutRate:       commitment.PayoutRate,
				IsVip:            commitment.IsVip,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit commitment created")
		}

		created = commitment
		remaining = result.RemainingAllowance - input.Quantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveDecision(operationCreate, metrics.OutcomeAllowed, "")
	if s.logg != nil {
		logCtx := s.logg.WithCommitmentID(ctx, created.ID.String())
		logCtx = s.logg.WithDealID(logCtx, created.DealID.String())
		s.logg.Info(logCtx, "commitment.created")
	}

	dto := FromModel(created)
	if limit.IsBounded() {
		dto.RemainingAllowance = &remaining
	}
	return dto, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error) {
	commitment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if !actor.Role.IsStaff() && commitment.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commitment not found")
	}
	return FromModel(commitment), nil
}

func (s *service) List(ctx context.Context, actor Actor, params ListParams) (pagination.Page[CommitmentDTO], error) {
	empty := pagination.Page[CommitmentDTO]{Items: []CommitmentDTO{}}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return empty, pkgerrors.New(pkgerrors.CodeValidation, "invalid commitment status")
	}

	filter := ListFilter{DealID: params.DealID, Status: params.Status, Cursor: cursor, Limit: params.Limit}
	if actor.Role.IsStaff() {
		filter.UserID = params.UserID
	} else {
		own := actor.UserID
		filter.UserID = &own
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commitments")
	}
	dtos := make([]CommitmentDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return pagination.BuildPage(dtos, params.Limit, func(c CommitmentDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	}), nil
}

func (s *service) SetDelivery(ctx context.Context, actor Actor, id uuid.UUID, input SetDeliveryInput) (*CommitmentDTO, error) {
	action := ActionSetDeliveryShip
	switch input.Method {
	case enums.DeliveryMethodShip:
	case enums.DeliveryMethodDropOff:
		action = ActionSetDeliveryDropOff
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery method must be SHIP or DROP_OFF")
	}
	warehouse, err := s.warehouses.ResolveForDelivery(ctx, strings.TrimSpace(input.WarehouseCode), input.Method)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		if err := requireOwner(actor, c); err != nil {
			return err
		}
		previous, err := s.apply(c, action, actor)
		if err != nil {
			return err
		}
		c.DeliveryMethod = input.Method
		c.Warehouse = warehouse.Code
		return s.save(ctx, tx, actor, c, previous, action)
	})
}

func (s *service) SubmitTracking(ctx context.Context, actor Actor, id uuid.UUID, trackingNumber string) (*CommitmentDTO, error) {
	number := strings.ToUpper(strings.TrimSpace(trackingNumber))
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required")
	}
	if len(number) > maxTrackingLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("tracking number must be at most %d characters", maxTrackingLength))
	}

	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		if err := requireOwner(actor, c); err != nil {
			return err
		}
		if c.DeliveryMethod != enums.DeliveryMethodShip {
			return stateConflict(c, ActionSubmitTracking, "tracking can only be added to ship commitments")
		}
		if c.Tracking != nil {
			return stateConflict(c, ActionSubmitTracking, "tracking already attached")
		}
		previous, err := s.apply(c, ActionSubmitTracking, actor)
		if err != nil {
			return err
		}
		if err := s.repo.CreateTrackingWithTx(tx, &models.Tracking{
			CommitmentID:   c.ID,
			TrackingNumber: number,
			Carrier:        carriers.Detect(number),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tracking")
		}
		now := s.now().UTC()
		c.ShippedAt = &now
		return s.save(ctx, tx, actor, c, previous, ActionSubmitTracking)
	})
}

func (s *service) RemoveTracking(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error) {
	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		if !actor.Role.IsStaff() {
			if err := requireOwner(actor, c); err != nil {
				return err
			}
		}
		if c.Tracking == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "commitment has no tracking")
		}
		previous, err := s.apply(c, ActionRemoveTracking, actor)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteTrackingWithTx(tx, c.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete tracking")
		}
		c.ShippedAt = nil
		return s.save(ctx, tx, actor, c, previous, ActionRemoveTracking)
	})
}

func (s *service) UpdateTrackingStatus(ctx context.Context, actor Actor, id uuid.UUID, input TrackingStatusInput) (*CommitmentDTO, error) {
	if !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins or workers can update tracking status")
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		if c.Tracking == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "commitment has no tracking")
		}
		tracking := c.Tracking
		if input.LastStatus != nil {
			tracking.LastStatus = trimmedOrNil(input.LastStatus)
		}
		if input.LastLocation != nil {
			tracking.LastLocation = trimmedOrNil(input.LastLocation)
		}
		now := s.now().UTC()
		tracking.LastCheckedAt = &now
		if err := s.repo.UpdateTrackingWithTx(tx, tracking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tracking")
		}
		return nil
	})
}

func (s *service) RequestLabel(ctx context.Context, actor Actor, id uuid.UUID, notes *string) (*CommitmentDTO, error) {
	if err := validateNotes(notes); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		if err := requireOwner(actor, c); err != nil {
			return err
		}
		if _, err := NextState(c.Status, ActionRequestLabel, actor.Role); err != nil {
			return err
		}
		if c.DeliveryMethod != enums.DeliveryMethodShip {
			return stateConflict(c, ActionRequestLabel, "labels can only be requested for ship commitments")
		}
		if c.LabelRequest != nil {
			return stateConflict(c, ActionRequestLabel, "a label has already been requested")
		}
		deal, err := s.loadDeal(tx, c.DealID)
		if err != nil {
			return err
		}
		if deal.FreeLabelMin != nil && c.Quantity < *deal.FreeLabelMin {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("free labels require at least %d units", *deal.FreeLabelMin)).
				WithDetails(map[string]any{
					"currentStatus": c.Status.String(),
					"quantity":      c.Quantity,
					"freeLabelMin":  *deal.FreeLabelMin,
				})
		}
		if err := s.repo.CreateLabelRequestWithTx(tx, &models.LabelRequest{
			CommitmentID: c.ID,
			Status:       enums.LabelRequestStatusPending,
			Notes:        trimmedOrNil(notes),
		}); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return stateConflict(c, ActionRequestLabel, "a label has already been requested")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create label request")
		}
		return nil
	})
}

func (s *service) ReviewLabel(ctx context.Context, actor Actor, id uuid.UUID, input ReviewLabelInput) (*CommitmentDTO, error) {
	if !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins or workers can review labels")
	}
	if input.Status != enums.LabelRequestStatusApproved && input.Status != enums.LabelRequestStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be APPROVED or REJECTED")
	}
	if err := validateNotes(input.Notes); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		request := c.LabelRequest
		if request == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "label request not found")
		}
		if request.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "label request already reviewed").
				WithDetails(map[string]string{"currentStatus": request.Status.String()})
		}
		now := s.now().UTC()
		reviewer := actor.UserID
		request.Status = input.Status
		request.LabelURL = trimmedOrNil(input.LabelURL)
		if len(input.LabelFiles) > 0 {
			request.LabelFiles = input.LabelFiles
		}
		if input.Notes != nil {
			request.Notes = trimmedOrNil(input.Notes)
		}
		request.ReviewedBy = &reviewer
		request.ReviewedAt = &now
		if err := s.repo.UpdateLabelRequestWithTx(tx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update label request")
		}
		return nil
	})
}

// UpdateQuantity resizes a vendor's commitment. Shrinking always passes the
// allocation check; growing needs an ACTIVE deal and headroom under the limit
// once every other non-cancelled commitment is counted.
func (s *service) UpdateQuantity(ctx context.Context, actor Actor, id uuid.UUID, quantity int) (*CommitmentDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		if err := requireOwner(actor, c); err != nil {
			return err
		}
		if err := dbpkg.AdvisoryXactLock(tx, allocationLockKey(c.UserID, c.DealID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire allocation lock")
		}
		fresh, err := s.repo.FindByIDWithTx(tx, c.ID)
		if err != nil {
			return mapLoadError(err)
		}
		*c = *fresh

		if _, err := NextState(c.Status, ActionUpdateQuantity, actor.Role); err != nil {
			return err
		}
		if quantity == c.Quantity {
			return nil
		}

		deal, err := s.loadDeal(tx, c.DealID)
		if err != nil {
			return err
		}
		limit := allocation.LimitFromPtr(deal.LimitPerVendor)
		if quantity > c.Quantity {
			if status := s.effectiveDealStatus(deal); status != enums.DealStatusActive {
				rejection := allocation.ErrDealNotActive(status, 0, limit)
				s.observeRejection(ctx, operationResize, rejection)
				return rejection
			}
		}
		rows, err := s.repo.ListForVendorDealWithTx(tx, c.UserID, c.DealID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor commitments")
		}
		if _, err := allocation.CheckResize(allocation.OtherCommittedQty(rows, *c), c.Quantity, quantity, limit); err != nil {
			s.observeRejection(ctx, operationResize, err)
			return err
		}

		previous := c.Quantity
		c.Quantity = quantity
		if err := s.repo.UpdateWithTx(tx, c); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update commitment quantity")
		}
		s.metrics.ObserveDecision(operationResize, metrics.OutcomeAllowed, "")
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCommitmentQuantityChanged,
			AggregateType: enums.AggregateCommitment,
			AggregateID:   c.ID,
			Actor:         actor.ref(),
			Data: payloads.CommitmentQuantityChangedEvent{
				CommitmentID: c.ID,
				DealID:       c.DealID,
				UserID:       c.UserID,
				Previous:     previous,
				Quantity:     quantity,
			},
		})
	})
}

func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error) {
	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		if err := requireOwner(actor, c); err != nil {
			return err
		}
		return s.cancel(ctx, tx, actor, c, ActionCancel)
	})
}

func (s *service) ForceCancel(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error) {
	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		return s.cancel(ctx, tx, actor, c, ActionForceCancel)
	})
}

func (s *service) MarkDelivered(ctx context.Context, actor Actor, id uuid.UUID) (*CommitmentDTO, error) {
	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		previous, err := s.apply(c, ActionMarkDelivered, actor)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		c.DeliveredAt = &now
		return s.save(ctx, tx, actor, c, previous, ActionMarkDelivered)
	})
}

// Fulfill completes a commitment. When an invoice URL is supplied the invoice
// is created in the same transaction; a failed insert leaves the commitment
// untouched.
func (s *service) Fulfill(ctx context.Context, actor Actor, id uuid.UUID, input FulfillInput) (*CommitmentDTO, error) {
	invoiceURL := trimmedOrNil(input.InvoiceURL)
	if input.Amount != nil && input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice amount must not be negative")
	}
	if input.Amount != nil && invoiceURL == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice amount requires an invoice url")
	}
	if err := validateNotes(input.Notes); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(tx *gorm.DB, c *models.Commitment) error {
		previous, err := s.apply(c, ActionFulfill, actor)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		fulfilledBy := actor.UserID
		c.FulfilledAt = &now
		c.FulfilledBy = &fulfilledBy
		if err := s.save(ctx, tx, actor, c, previous, ActionFulfill); err != nil {
			return err
		}
		if invoiceURL == nil {
			return nil
		}

		amount, err := s.invoiceAmount(tx, c, input.Amount)
		if err != nil {
			return err
		}
		invoice := &models.Invoice{
			CommitmentID: c.ID,
			UserID:       c.UserID,
			SkynovaURL:   *invoiceURL,
			Amount:       amount,
			Status:       enums.InvoiceStatusPending,
			Notes:        trimmedOrNil(input.Notes),
		}
		if err := s.repo.CreateInvoiceWithTx(tx, invoice); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return stateConflict(c, ActionFulfill, "commitment already has an invoice")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvoiceCreated,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         actor.ref(),
			Data: payloads.InvoiceCreatedEvent{
				InvoiceID:    invoice.ID,
				CommitmentID: c.ID,
				UserID:       c.UserID,
				Amount:       invoice.Amount,
				InvoiceURL:   invoice.SkynovaURL,
			},
		})
	})
}

// AdminSetStatus routes the staff status endpoint to the matching transition.
func (s *service) AdminSetStatus(ctx context.Context, actor Actor, id uuid.UUID, input AdminStatusInput) (*CommitmentDTO, error) {
	switch input.Status {
	case enums.CommitmentStatusDelivered:
		return s.MarkDelivered(ctx, actor, id)
	case enums.CommitmentStatusFulfilled:
		return s.Fulfill(ctx, actor, id, input.FulfillInput)
	case enums.CommitmentStatusCancelled:
		return s.ForceCancel(ctx, actor, id)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be DELIVERED, FULFILLED or CANCELLED")
	}
}

func (s *service) MarkInvoicePaid(ctx context.Context, actor Actor, invoiceID uuid.UUID, input MarkPaidInput) (*InvoiceDTO, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can record invoice payments")
	}
	if err := validateNotes(input.Notes); err != nil {
		return nil, err
	}

	var paid *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		invoice, err := s.repo.FindInvoiceByIDWithTx(tx, invoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
		}
		if invoice.Status == enums.InvoiceStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice already paid").
				WithDetails(map[string]string{"currentStatus": invoice.Status.String()})
		}
		now := s.now().UTC()
		invoice.Status = enums.InvoiceStatusPaid
		invoice.PaidAt = &now
		invoice.CheckNumber = trimmedOrNil(input.CheckNumber)
		invoice.CheckImageURL = trimmedOrNil(input.CheckImageURL)
		if input.Notes != nil {
			invoice.Notes = trimmedOrNil(input.Notes)
		}
		if err := s.repo.UpdateInvoiceWithTx(tx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
		}
		paid = invoice
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvoicePaid,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         actor.ref(),
			Data: payloads.InvoicePaidEvent{
				InvoiceID:    invoice.ID,
				CommitmentID: invoice.CommitmentID,
				UserID:       invoice.UserID,
				Amount:       invoice.Amount,
				CheckNumber:  invoice.CheckNumber,
				PaidAt:       now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return InvoiceFromModel(paid), nil
}

// mutate loads the commitment inside a transaction, runs fn and returns the
// reloaded aggregate.
func (s *service) mutate(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, c *models.Commitment) error) (*CommitmentDTO, error) {
	var out *models.Commitment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		commitment, err := s.repo.FindByIDWithTx(tx, id)
		if err != nil {
			return mapLoadError(err)
		}
		if err := fn(tx, commitment); err != nil {
			return err
		}
		reloaded, err := s.repo.FindByIDWithTx(tx, id)
		if err != nil {
			return mapLoadError(err)
		}
		out = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(out), nil
}

// apply runs the state machine and moves c to the next status, returning the
// status it left.
func (s *service) apply(c *models.Commitment, action Action, actor Actor) (enums.CommitmentStatus, error) {
	next, err := NextState(c.Status, action, actor.Role)
	if err != nil {
		return "", err
	}
	previous := c.Status
	c.Status = next
	return previous, nil
}

func (s *service) save(ctx context.Context, tx *gorm.DB, actor Actor, c *models.Commitment, previous enums.CommitmentStatus, action Action) error {
	if err := s.repo.UpdateWithTx(tx, c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update commitment")
	}
	if previous == c.Status {
		return nil
	}
	s.metrics.ObserveTransition(string(action), c.Status.String())
	if s.logg != nil {
		logCtx := s.logg.WithCommitmentID(ctx, c.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"from":   previous.String(),
			"to":     c.Status.String(),
			"action": string(action),
		})
		s.logg.Info(logCtx, "commitment.transitioned")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCommitmentStatusChanged,
		AggregateType: enums.AggregateCommitment,
		AggregateID:   c.ID,
		Actor:         actor.ref(),
		Data: payloads.CommitmentStatusChangedEvent{
			CommitmentID: c.ID,
			DealID:       c.DealID,
			UserID:       c.UserID,
			From:         previous,
			To:           c.Status,
			Action:       string(action),
		},
	})
}

func (s *service) cancel(ctx context.Context, tx *gorm.DB, actor Actor, c *models.Commitment, action Action) error {
	previous, err := s.apply(c, action, actor)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	cancelledBy := actor.UserID
	c.CancelledAt = &now
	c.CancelledBy = &cancelledBy
	return s.save(ctx, tx, actor, c, previous, action)
}

// invoiceAmount prefers a positive admin amount, otherwise quantity times
// the rate resolved from the current profile and deal.
func (s *service) invoiceAmount(tx *gorm.DB, c *models.Commitment, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil && explicit.IsPositive() {
		return explicit.Round(2), nil
	}
	deal, err := s.loadDeal(tx, c.DealID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	profile, err := s.profiles.FindByIDWithTx(tx, c.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	rate, _ := pricing.ResolvePayoutRate(profile, deal)
	return pricing.InvoiceAmount(c.Quantity, rate), nil
}

func (s *service) loadDeal(tx *gorm.DB, id uuid.UUID) (*models.Deal, error) {
	deal, err := s.deals.FindByIDWithTx(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	return deal, nil
}

// effectiveDealStatus treats an ACTIVE deal past its deadline as EXPIRED even
// before the expiry sweep has run.
func (s *service) effectiveDealStatus(deal *models.Deal) enums.DealStatus {
	if deal.Status == enums.DealStatusActive && deal.Deadline != nil && !deal.Deadline.After(s.now()) {
		return enums.DealStatusExpired
	}
	return deal.Status
}

func (s *service) observeRejection(ctx context.Context, operation string, err error) {
	reason := "unknown"
	if typed := pkgerrors.As(err); typed != nil {
		if details, ok := typed.Details().(allocation.RejectionDetails); ok {
			reason = details.Reason
		}
	}
	s.metrics.ObserveDecision(operation, metrics.OutcomeRejected, reason)
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"operation": operation, "reason": reason})
		s.logg.Warn(logCtx, "allocation.rejected")
	}
}

func isActiveCommitmentConflict(err error) bool {
	return dbpkg.IsUniqueViolation(err, activeCommitmentIndex) || dbpkg.IsUniqueViolation(err, activeCommitmentColumns)
}

func allocationLockKey(userID, dealID uuid.UUID) string {
	return fmt.Sprintf("commitment:%s:%s", userID, dealID)
}

func requireOwner(actor Actor, c *models.Commitment) error {
	if c.UserID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "commitment belongs to another vendor")
	}
	return nil
}

func stateConflict(c *models.Commitment, action Action, msg string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).
		WithDetails(TransitionDetails{CurrentStatus: c.Status.String(), Action: string(action)})
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "commitment not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commitment")
}

func validateNotes(notes *string) error {
	if notes != nil && len(*notes) > maxNotesLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}
	return nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
