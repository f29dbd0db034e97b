package deals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vendorpool-backend/internal/pricing"
	dbpkg "github.com/angelmondragon/vendorpool-backend/pkg/db"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/vendorpool-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	maxTitleLength    = 200
	maxSlugAttempts   = 20
	expiryBatchSize   = 200
	expiryReason      = "deadline_passed"
	deleteBlockedHint = "deal has commitments that are not cancelled; close it instead"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type dealRepository interface {
	CreateWithTx(tx *gorm.DB, deal *models.Deal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Deal, error)
	SlugExists(tx *gorm.DB, slug string) (bool, error)
	UpdateWithTx(tx *gorm.DB, deal *models.Deal) error
	List(ctx context.Context, filter ListFilter) ([]models.Deal, error)
	CountBlockingCommitments(tx *gorm.DB, dealID uuid.UUID) (int64, error)
	DeleteWithTx(tx *gorm.DB, dealID uuid.UUID) error
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]models.Deal, error)
	TransitionWithTx(tx *gorm.DB, id uuid.UUID, from, to enums.DealStatus) (bool, error)
}

type profileLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type membershipRefresher interface {
	Refresh(ctx context.Context, profile *models.Profile) *models.Profile
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
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

// Service exposes deal operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateDealInput) (*DealDTO, error)
	Update(ctx context.Context, actor Actor, dealID uuid.UUID, input UpdateDealInput) (*DealDTO, error)
	Get(ctx context.Context, viewer Actor, dealID uuid.UUID) (*DealDTO, error)
	List(ctx context.Context, viewer Actor, params ListParams) (pagination.Page[DealDTO], error)
	Delete(ctx context.Context, actor Actor, dealID uuid.UUID) error
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	tx         txRunner
	repo       dealRepository
	profiles   profileLoader
	membership membershipRefresher
	outbox     outboxPublisher
	now        func() time.Time
}

// ServiceParams groups the deal service collaborators. Profiles and
// Membership are optional; without them single-deal reads omit the viewer
// rate.
type ServiceParams struct {
	Tx         txRunner
	Repo       dealRepository
	Profiles   profileLoader
	Membership membershipRefresher
	Outbox     outboxPublisher
}

// NewService builds the deal service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("deal repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:         params.Tx,
		repo:       params.Repo,
		profiles:   params.Profiles,
		membership: params.Membership,
		outbox:     params.Outbox,
		now:        time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateDealInput) (*DealDTO, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can create deals")
	}
	status := input.Status
	if status == "" {
		status = enums.DealStatusDraft
	}
	if !InitialStatusAllowed(status) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deals must start as DRAFT or ACTIVE")
	}

	now := s.now().UTC()
	deal := &models.Deal{
		Title:          strings.TrimSpace(input.Title),
		Description:    trimmedOrNil(input.Description),
		ImageURL:       trimmedOrNil(input.ImageURL),
		RetailPrice:    input.RetailPrice,
		Payout:         input.Payout,
		LimitPerVendor: input.LimitPerVendor,
		FreeLabelMin:   input.FreeLabelMin,
		IsExclusive:    input.IsExclusive,
		ExclusivePrice: input.ExclusivePrice,
		Deadline:       utcPtr(input.Deadline),
		Status:         status,
	}
	if actor.UserID != uuid.Nil {
		createdBy := actor.UserID
		deal.CreatedBy = &createdBy
	}
	if err := validateDeal(deal); err != nil {
		return nil, err
	}
	deal.PriceType = pricing.ClassifyPrice(deal.RetailPrice, deal.Payout)
	if status == enums.DealStatusActive {
		if deadlinePassed(deal, now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "deadline must be in the future for an active deal")
		}
		deal.ActivatedAt = &now
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		dealSlug, err := s.uniqueSlug(tx, deal.Title)
		if err != nil {
			return err
		}
		deal.Slug = dealSlug
		if err := s.repo.CreateWithTx(tx, deal); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_deals_slug") {
				return pkgerrors.New(pkgerrors.CodeConflict, "deal slug already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deal")
		}
		if deal.Status == enums.DealStatusActive {
			return s.emitActivated(ctx, tx, actor, deal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(deal), nil
}

func (s *service) Update(ctx context.Context, actor Actor, dealID uuid.UUID, input UpdateDealInput) (*DealDTO, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can edit deals")
	}

	var updated *models.Deal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		deal, err := s.repo.FindByIDWithTx(tx, dealID)
		if err != nil {
			return mapLoadError(err)
		}
		previous := deal.Status

		applyUpdate(deal, input)
		if err := validateDeal(deal); err != nil {
			return err
		}
		deal.PriceType = pricing.ClassifyPrice(deal.RetailPrice, deal.Payout)

		now := s.now().UTC()
		if input.Status != nil && *input.Status != previous {
			if err := ValidateTransition(previous, *input.Status); err != nil {
				return err
			}
			deal.Status = *input.Status
		}
		activating := deal.Status == enums.DealStatusActive && previous != enums.DealStatusActive
		if activating {
			if deadlinePassed(deal, now) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "deadline has passed; move it before activating").
					WithDetails(map[string]string{"currentStatus": previous.String()})
			}
			deal.ActivatedAt = &now
		}

		if err := s.repo.UpdateWithTx(tx, deal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update deal")
		}

		if deal.Status != previous {
			if err := s.emitStatusChanged(ctx, tx, actor.ref(), deal.ID, previous, deal.Status, ""); err != nil {
				return err
			}
		}
		if activating {
			if err := s.emitActivated(ctx, tx, actor, deal); err != nil {
				return err
			}
		}
		updated = deal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Get(ctx context.Context, viewer Actor, dealID uuid.UUID) (*DealDTO, error) {
	deal, err := s.repo.FindByID(ctx, dealID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if !IsVisible(viewer.Role, deal.Status, true) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
	}

	dto := FromModel(deal)
	if s.profiles == nil || viewer.UserID == uuid.Nil {
		return dto, nil
	}
	profile, err := s.profiles.FindByID(ctx, viewer.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if s.membership != nil {
		profile = s.membership.Refresh(ctx, profile)
	}
	rate, isVip := pricing.ResolvePayoutRate(profile, deal)
	dto.ViewerRate = &rate
	dto.ViewerIsVip = &isVip
	return dto, nil
}

func (s *service) List(ctx context.Context, viewer Actor, params ListParams) (pagination.Page[DealDTO], error) {
	empty := pagination.Page[DealDTO]{Items: []DealDTO{}}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	statuses := VisibleStatuses(viewer.Role, params.IncludeExpired)
	if params.Status != nil {
		if !params.Status.IsValid() {
			return empty, pkgerrors.New(pkgerrors.CodeValidation, "invalid deal status")
		}
		if !IsVisible(viewer.Role, *params.Status, params.IncludeExpired) {
			return empty, nil
		}
		statuses = []enums.DealStatus{*params.Status}
	}

	rows, err := s.repo.List(ctx, ListFilter{Statuses: statuses, Cursor: cursor, Limit: params.Limit})
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deals")
	}
	dtos := make([]DealDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return pagination.BuildPage(dtos, params.Limit, func(d DealDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, dealID uuid.UUID) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can delete deals")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		deal, err := s.repo.FindByIDWithTx(tx, dealID)
		if err != nil {
			return mapLoadError(err)
		}
		blocking, err := s.repo.CountBlockingCommitments(tx, dealID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count deal commitments")
		}
		if blocking > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, deleteBlockedHint).WithDetails(map[string]any{
				"currentStatus":       deal.Status.String(),
				"blockingCommitments": blocking,
			})
		}
		if err := s.repo.DeleteWithTx(tx, dealID); err != nil {
			return mapLoadError(err)
		}
		return nil
	})
}

// ExpireOverdue moves ACTIVE deals past their deadline to EXPIRED. Each deal
// is expired in its own transaction; failures are collected and the sweep
// continues.
func (s *service) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.repo.FindOverdue(ctx, now.UTC(), expiryBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find overdue deals")
	}

	var (
		expired int
		errs    []error
	)
	for _, deal := range rows {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		dealID := deal.ID
		var changed bool
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			changed, err = s.repo.TransitionWithTx(tx, dealID, enums.DealStatusActive, enums.DealStatusExpired)
			if err != nil || !changed {
				return err
			}
			return s.emitStatusChanged(ctx, tx, nil, dealID, enums.DealStatusActive, enums.DealStatusExpired, expiryReason)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("expire deal %s: %w", dealID, err))
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, multierr.Combine(errs...)
}

func (s *service) uniqueSlug(tx *gorm.DB, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "deal"
	}
	candidate := base
	for attempt := 2; attempt <= maxSlugAttempts+1; attempt++ {
		exists, err := s.repo.SlugExists(tx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check deal slug")
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}

func (s *service) emitActivated(ctx context.Context, tx *gorm.DB, actor Actor, deal *models.Deal) error {
	activatedAt := s.now().UTC()
	if deal.ActivatedAt != nil {
		activatedAt = *deal.ActivatedAt
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventDealActivated,
		AggregateType: enums.AggregateDeal,
		AggregateID:   deal.ID,
		Actor:         actor.ref(),
		Data: payloads.DealActivatedEvent{
			DealID:         deal.ID,
			DealNumber:     deal.DealNumber,
			Slug:           deal.Slug,
			Title:          deal.Title,
			ImageURL:       deal.ImageURL,
			RetailPrice:    deal.RetailPrice,
			Payout:         deal.Payout,
			PriceType:      deal.PriceType,
			LimitPerVendor: deal.LimitPerVendor,
			IsExclusive:    deal.IsExclusive,
			ExclusivePrice: deal.ExclusivePrice,
			Deadline:       deal.Deadline,
			ActivatedAt:    activatedAt,
		},
	})
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, actor *outbox.ActorRef, dealID uuid.UUID, from, to enums.DealStatus, reason string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventDealStatusChanged,
		AggregateType: enums.AggregateDeal,
		AggregateID:   dealID,
		Actor:         actor,
		Data:          payloads.DealStatusChangedEvent{DealID: dealID, From: from, To: to, Reason: reason},
	})
}

func applyUpdate(deal *models.Deal, input UpdateDealInput) {
	if input.Title != nil {
		deal.Title = strings.TrimSpace(*input.Title)
	}
	input.Description.Apply(&deal.Description)
	deal.Description = trimmedOrNil(deal.Description)
	input.ImageURL.Apply(&deal.ImageURL)
	deal.ImageURL = trimmedOrNil(deal.ImageURL)
	if input.RetailPrice != nil {
		deal.RetailPrice = *input.RetailPrice
	}
	if input.Payout != nil {
		deal.Payout = *input.Payout
	}
	input.LimitPerVendor.Apply(&deal.LimitPerVendor)
	input.FreeLabelMin.Apply(&deal.FreeLabelMin)
	if input.IsExclusive != nil {
		deal.IsExclusive = *input.IsExclusive
	}
	input.ExclusivePrice.Apply(&deal.ExclusivePrice)
	input.Deadline.Apply(&deal.Deadline)
	deal.Deadline = utcPtr(deal.Deadline)
}

func validateDeal(deal *models.Deal) error {
	fields := map[string]string{}
	if deal.Title == "" {
		fields["title"] = "title is required"
	} else if len(deal.Title) > maxTitleLength {
		fields["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if deal.RetailPrice.IsNegative() {
		fields["retailPrice"] = "retail price must not be negative"
	}
	if deal.Payout.IsNegative() {
		fields["payout"] = "payout must not be negative"
	}
	if deal.LimitPerVendor != nil && *deal.LimitPerVendor < 0 {
		fields["limitPerVendor"] = "limit per vendor must not be negative"
	}
	if deal.FreeLabelMin != nil && *deal.FreeLabelMin <= 0 {
		fields["freeLabelMin"] = "free label minimum must be positive"
	}
	if deal.ExclusivePrice != nil && deal.ExclusivePrice.IsNegative() {
		fields["exclusivePrice"] = "exclusive price must not be negative"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid deal").WithDetails(fields)
	}
	deal.RetailPrice = deal.RetailPrice.Round(2)
	deal.Payout = deal.Payout.Round(2)
	if deal.ExclusivePrice != nil {
		rounded := deal.ExclusivePrice.Round(2)
		deal.ExclusivePrice = &rounded
	}
	return nil
}

func deadlinePassed(deal *models.Deal, now time.Time) bool {
	return deal.Deadline != nil && !deal.Deadline.After(now)
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
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

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
