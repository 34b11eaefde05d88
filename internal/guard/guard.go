// Package guard gates incoming download requests: membership checks,
// daily quotas and admin exemptions.
package guard

import (
	"context"
	"log/slog"
	"time"

	"github.com/raditpra/unduh-bot/internal/domain"
	"github.com/raditpra/unduh-bot/internal/vip"
	"github.com/raditpra/unduh-bot/pkg/metrics"
)

// DenyReason classifies why a request was refused.
type DenyReason string

const (
	DenyNotMember  DenyReason = "not_member"
	DenyDailyLimit DenyReason = "daily_limit"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool
	Reason  DenyReason

	// populated for DenyDailyLimit
	Current int
	Limit   int

	// populated for DenyNotMember
	Channel string
}

// Store is the persistence surface the guard needs.
type Store interface {
	IsVipActive(ctx context.Context, userID int64) (bool, error)
	GetDailyDownloadCount(ctx context.Context, userID int64, date string) (int, error)
	RecordDownload(ctx context.Context, userID int64, date string) error
}

// MembershipChecker asks the transport whether the user belongs to a
// required channel.
type MembershipChecker interface {
	IsMember(ctx context.Context, channel string, userID int64) (bool, error)
}

// Guard enforces the admission policy.
type Guard struct {
	store            Store
	membership       MembershipChecker
	catalog          *vip.Catalog
	requiredChannels []string
	log              *slog.Logger
	now              func() time.Time
}

// NewGuard wires the admission guard. An empty requiredChannels slice
// disables membership gating.
func NewGuard(st Store, membership MembershipChecker, catalog *vip.Catalog, requiredChannels []string, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}

	return &Guard{
		store:            st,
		membership:       membership,
		catalog:          catalog,
		requiredChannels: requiredChannels,
		log:              log,
		now:              time.Now,
	}
}

// Check decides whether the user may download right now. Admins are
// always allowed and never counted.
func (g *Guard) Check(ctx context.Context, userID int64, isAdmin bool) (Decision, error) {
	if isAdmin {
		return Decision{Allowed: true}, nil
	}

	if g.membership != nil {
		for _, channel := range g.requiredChannels {
			member, err := g.membership.IsMember(ctx, channel, userID)
			if err != nil {
				// treat a failed check the same as non-membership
				g.log.Warn("membership check failed",
					slog.String("channel", channel),
					slog.Int64("user_id", userID),
					slog.Any("error", err))
				member = false
			}
			if !member {
				metrics.RecordAdmissionDenied(string(DenyNotMember))
				return Decision{Allowed: false, Reason: DenyNotMember, Channel: channel}, nil
			}
		}
	}

	active, err := g.store.IsVipActive(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	limit := g.catalog.DailyLimit(active)

	count, err := g.store.GetDailyDownloadCount(ctx, userID, domain.DateKey(g.now()))
	if err != nil {
		return Decision{}, err
	}

	if count >= limit {
		metrics.RecordAdmissionDenied(string(DenyDailyLimit))
		return Decision{Allowed: false, Reason: DenyDailyLimit, Current: count, Limit: limit}, nil
	}

	return Decision{Allowed: true, Current: count, Limit: limit}, nil
}

// RecordDelivery counts one delivered media item. Admin deliveries stay
// uncounted. A carousel calls this once per item.
func (g *Guard) RecordDelivery(ctx context.Context, userID int64, isAdmin bool) error {
	if isAdmin {
		return nil
	}

	return g.store.RecordDownload(ctx, userID, domain.DateKey(g.now()))
}
