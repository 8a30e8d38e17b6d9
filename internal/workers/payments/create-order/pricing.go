// internal/workers/payments/create-order/pricing.go
package createorder

import (
	"fmt"

	"primoboost-workers/internal/catalog"
	"primoboost-workers/internal/models"
)

// Quote is the server-side price of one checkout attempt, in paise.
type Quote struct {
	Plan            models.Plan
	PurchaseType    string
	OriginalAmount  int64
	CouponCode      string // normalized code actually applied
	DiscountAmount  int64
	WalletDeduction int64
	AddOnsTotal     int64
	FinalAmount     int64
}

// FinalAmount is max(0, original - discount - wallet) + addOns. Negative
// wallet and add-on values are ignored.
func FinalAmount(original, discount, wallet, addOns int64) int64 {
	amount := original - discount
	if wallet > 0 {
		amount -= wallet
	}
	if amount < 0 {
		amount = 0
	}
	if addOns > 0 {
		amount += addOns
	}
	return amount
}

// resolvePlan picks the plan being bought and the purchase type recorded on
// the transaction. Webinar fields are checked here so no store call happens
// for an incomplete webinar request.
func resolvePlan(cat *catalog.Catalog, in *Input) (models.Plan, string, error) {
	if in.isWebinar() {
		if in.Amount <= 0 {
			return models.Plan{}, "", ErrInvalidWebinarAmount
		}
		if in.Metadata.WebinarID == "" || in.Metadata.RegistrationID == "" {
			return models.Plan{}, "", ErrMissingWebinarInfo
		}
		return catalog.WebinarPlan(in.Metadata.WebinarTitle, in.Amount), models.PurchaseTypeWebinar, nil
	}

	if in.PlanID == "" || in.PlanID == catalog.AddOnOnlyPlanID {
		return catalog.AddOnOnlyPlan(), models.PurchaseTypeAddOnOnly, nil
	}

	plan, ok := cat.Plan(in.PlanID)
	if !ok {
		return models.Plan{}, "", ErrInvalidPlan
	}
	if len(in.SelectedAddOns) > 0 {
		return plan, models.PurchaseTypePlanWithAddOns, nil
	}
	return plan, models.PurchaseTypePlan, nil
}

// addOnsTotal prices the selected add-ons from the catalog, in paise.
func addOnsTotal(cat *catalog.Catalog, selected map[string]int) (int64, error) {
	var total int64
	for id, qty := range selected {
		addOn, ok := cat.AddOn(id)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownAddOn, id)
		}
		total += addOn.Price * 100 * int64(qty)
	}
	return total, nil
}

// originalAmount converts the plan price to paise. Webinar plans are already
// priced in paise.
func originalAmount(plan models.Plan, purchaseType string) int64 {
	if purchaseType == models.PurchaseTypeWebinar {
		return plan.Price
	}
	return plan.Price * 100
}
