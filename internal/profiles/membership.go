package profiles

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/vendorpool-backend/pkg/redis"
	"github.com/google/uuid"
)

// MinMembershipTTL is the shortest interval between guild lookups for the
// same profile.
const MinMembershipTTL = time.Hour

const (
	cachedMember    = "1"
	cachedNonMember = "0"
)

type guildChecker interface {
	MembershipConfigured() bool
	IsGuildMember(ctx context.Context, discordUserID string) (bool, error)
}

type membershipWriter interface {
	UpdateMembership(ctx context.Context, id uuid.UUID, isMember bool, checkedAt time.Time) error
}

// MembershipService keeps Profile.IsExclusiveMember in step with Discord guild
// membership. Lookups are cached in Redis and on the profile row for at least
// MinMembershipTTL.
type MembershipService struct {
	repo    membershipWriter
	cache   pkgredis.MembershipCache
	checker guildChecker
	ttl     time.Duration
	logg    *logger.Logger
	now     func() time.Time
}

// NewMembershipService wires the refresher. cache and checker may be nil, in
// which case the stored flag is used as-is.
func NewMembershipService(repo membershipWriter, cache pkgredis.MembershipCache, checker guildChecker, ttl time.Duration, logg *logger.Logger) *MembershipService {
	if ttl < MinMembershipTTL {
		ttl = MinMembershipTTL
	}
	return &MembershipService{
		repo:    repo,
		cache:   cache,
		checker: checker,
		ttl:     ttl,
		logg:    logg,
		now:     time.Now,
	}
}

// Refresh updates profile in place when its membership flag is stale. Lookup
// failures are logged and the previous flag is kept; Refresh never blocks the
// caller on Discord being unavailable.
func (s *MembershipService) Refresh(ctx context.Context, profile *models.Profile) *models.Profile {
	if s == nil || profile == nil || profile.DiscordUserID == nil || strings.TrimSpace(*profile.DiscordUserID) == "" {
		return profile
	}
	now := s.now().UTC()
	if profile.MembershipCheckedAt != nil && now.Sub(*profile.MembershipCheckedAt) < s.ttl {
		return profile
	}

	if isMember, ok := s.fromCache(ctx, profile.ID); ok {
		s.apply(ctx, profile, isMember, now)
		return profile
	}

	if s.checker == nil || !s.checker.MembershipConfigured() {
		return profile
	}
	isMember, err := s.checker.IsGuildMember(ctx, *profile.DiscordUserID)
	if err != nil {
		if s.logg != nil {
			warnCtx := s.logg.WithFields(ctx, map[string]any{
				"profile_id": profile.ID.String(),
				"error":      err.Error(),
			})
			s.logg.Warn(warnCtx, "membership.lookup_failed")
		}
		return profile
	}

	s.storeCache(ctx, profile.ID, isMember)
	s.apply(ctx, profile, isMember, now)
	return profile
}

func (s *MembershipService) fromCache(ctx context.Context, profileID uuid.UUID) (bool, bool) {
	if s.cache == nil {
		return false, false
	}
	value, err := s.cache.Get(ctx, s.cache.MembershipKey(profileID.String()))
	if err != nil {
		if !pkgredis.IsNil(err) && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "membership.cache_read_failed")
		}
		return false, false
	}
	switch value {
	case cachedMember:
		return true, true
	case cachedNonMember:
		return false, true
	default:
		return false, false
	}
}

func (s *MembershipService) storeCache(ctx context.Context, profileID uuid.UUID, isMember bool) {
	if s.cache == nil {
		return
	}
	value := cachedNonMember
	if isMember {
		value = cachedMember
	}
	if err := s.cache.Set(ctx, s.cache.MembershipKey(profileID.String()), value, s.ttl); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "membership.cache_write_failed")
	}
}

func (s *MembershipService) apply(ctx context.Context, profile *models.Profile, isMember bool, checkedAt time.Time) {
	profile.IsExclusiveMember = isMember
	profile.MembershipCheckedAt = &checkedAt
	if s.repo == nil {
		return
	}
	if err := s.repo.UpdateMembership(ctx, profile.ID, isMember, checkedAt); err != nil && s.logg != nil {
		s.logg.Error(ctx, "membership.persist_failed", err)
	}
}
