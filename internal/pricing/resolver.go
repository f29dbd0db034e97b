package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// ResolvePayoutRate returns the per-unit payout owed to the vendor for the
// deal and whether the VIP rate applied. Both arguments must be server-held
// records; rates or flags supplied by clients are never consulted.
func ResolvePayoutRate(profile *models.Profile, deal *models.Deal) (decimal.Decimal, bool) {
	if deal == nil {
		return decimal.Zero, false
	}
	if IsVip(profile, deal) {
		return *deal.ExclusivePrice, true
	}
	return deal.Payout, false
}

// IsVip reports whether the exclusive rate applies to the profile on the deal.
func IsVip(profile *models.Profile, deal *models.Deal) bool {
	if profile == nil || deal == nil {
		return false
	}
	return profile.IsExclusiveMember && deal.IsExclusive && deal.ExclusivePrice != nil
}

// ClassifyPrice labels a payout relative to the retail price.
func ClassifyPrice(retailPrice, payout decimal.Decimal) enums.PriceType {
	switch payout.Cmp(retailPrice) {
	case 1:
		return enums.PriceTypeAboveRetail
	case 0:
		return enums.PriceTypeRetail
	default:
		return enums.PriceTypeBelowCost
	}
}

// InvoiceAmount is quantity times the resolved per-unit rate, rounded to cents.
func InvoiceAmount(quantity int, rate decimal.Decimal) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
