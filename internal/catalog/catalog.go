// Package catalog holds the immutable table of plans, add-ons and coupon rules
// used to price checkout requests.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"primoboost-workers/internal/common/config"
	"primoboost-workers/internal/models"
)

const (
	AddOnOnlyPlanID      = "addon_only_purchase"
	WebinarPaymentPlanID = "webinar_payment"
)

// CouponRule describes one coupon code. Percent 100 waives the whole plan price.
type CouponRule struct {
	Code        string
	PlanID      string // empty applies to every plan
	Percent     int
	GlobalLimit int // 0 means unlimited
}

// AppliesTo reports whether the coupon is valid for planID.
func (r CouponRule) AppliesTo(planID string) bool {
	return r.PlanID == "" || r.PlanID == planID
}

// Discount returns the discount in paise for an original price in paise.
func (r CouponRule) Discount(original int64) int64 {
	if r.Percent >= 100 {
		return original
	}
	return original * int64(r.Percent) / 100
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	plans   map[string]models.Plan
	addOns  map[string]models.AddOn
	coupons map[string]CouponRule
}

// New builds the catalog from the compiled defaults with cfg entries merged
// over them by id (or code for coupons).
func New(cfg config.CatalogConfig) (*Catalog, error) {
	c := &Catalog{
		plans:   make(map[string]models.Plan),
		addOns:  make(map[string]models.AddOn),
		coupons: make(map[string]CouponRule),
	}

	for _, p := range defaultPlans {
		c.plans[p.ID] = p
	}
	for _, a := range defaultAddOns {
		c.addOns[a.ID] = a
	}
	for _, r := range defaultCoupons {
		c.coupons[r.Code] = r
	}

	for _, p := range cfg.Plans {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog plan without id")
		}
		if p.ID == AddOnOnlyPlanID || p.ID == WebinarPaymentPlanID {
			return nil, fmt.Errorf("catalog plan id %q is reserved", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog plan %q has negative price", p.ID)
		}
		c.plans[p.ID] = models.Plan{
			ID:                 p.ID,
			Name:               p.Name,
			Price:              p.Price,
			MRP:                p.MRP,
			DiscountPercentage: p.DiscountPercentage,
			Duration:           p.Duration,
			Optimizations:      p.Optimizations,
			ScoreChecks:        p.ScoreChecks,
			LinkedinMessages:   p.LinkedinMessages,
			GuidedBuilds:       p.GuidedBuilds,
			DurationInHours:    p.DurationInHours,
			Tag:                p.Tag,
			TagColor:           p.TagColor,
			Gradient:           p.Gradient,
			Icon:               p.Icon,
			Features:           append([]string(nil), p.Features...),
		}
	}

	for _, a := range cfg.AddOns {
		if a.ID == "" {
			return nil, fmt.Errorf("catalog add-on without id")
		}
		c.addOns[a.ID] = models.AddOn{ID: a.ID, Name: a.Name, Price: a.Price, Type: a.Type, Quantity: a.Quantity}
	}

	for _, r := range cfg.Coupons {
		code := NormalizeCoupon(r.Code)
		if code == "" {
			return nil, fmt.Errorf("catalog coupon without code")
		}
		if r.Percent < 1 || r.Percent > 100 {
			return nil, fmt.Errorf("catalog coupon %q percent must be within 1..100", code)
		}
		c.coupons[code] = CouponRule{Code: code, PlanID: r.PlanID, Percent: r.Percent, GlobalLimit: r.GlobalLimit}
	}

	return c, nil
}

// Default returns the catalog with no configuration overrides.
func Default() *Catalog {
	c, _ := New(config.CatalogConfig{})
	return c
}

// NormalizeCoupon lowercases and trims a user-entered coupon code.
func NormalizeCoupon(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func (c *Catalog) Plan(id string) (models.Plan, bool) {
	p, ok := c.plans[id]
	return p, ok
}

func (c *Catalog) AddOn(id string) (models.AddOn, bool) {
	a, ok := c.addOns[id]
	return a, ok
}

// Coupon looks up a rule by its normalized code.
func (c *Catalog) Coupon(code string) (CouponRule, bool) {
	r, ok := c.coupons[NormalizeCoupon(code)]
	return r, ok
}

// Plans lists catalog plans, most expensive first.
func (c *Catalog) Plans() []models.Plan {
	out := make([]models.Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price > out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *Catalog) AddOns() []models.AddOn {
	out := make([]models.AddOn, 0, len(c.addOns))
	for _, a := range c.addOns {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddOnOnlyPlan is the zero-priced plan used when only add-ons are bought.
func AddOnOnlyPlan() models.Plan {
	return models.Plan{
		ID:       AddOnOnlyPlanID,
		Name:     "Add-on Only Purchase",
		Duration: "One-time Purchase",
		Features: []string{},
	}
}

// WebinarPlan is the synthetic plan for a webinar seat. amount is already in
// paise and is used as-is.
func WebinarPlan(title string, amount int64) models.Plan {
	name := title
	if name == "" {
		name = "Webinar Registration"
	}
	return models.Plan{
		ID:       WebinarPaymentPlanID,
		Name:     name,
		Price:    amount,
		MRP:      amount,
		Duration: "One-time Purchase",
		Features: []string{},
	}
}
