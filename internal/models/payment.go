// internal/models/payment.go
package models

import "encoding/json"

const (
	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

const (
	PurchaseTypePlan           = "plan"
	PurchaseTypePlanWithAddOns = "plan_with_addons"
	PurchaseTypeAddOnOnly      = "addon_only"
	PurchaseTypeWebinar        = "webinar"
)

// Plan is a purchasable subscription tier. Prices are in major units (rupees).
type Plan struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Price              int64    `json:"price"`
	MRP                int64    `json:"mrp"`
	DiscountPercentage int      `json:"discountPercentage"`
	Duration           string   `json:"duration"`
	Optimizations      int      `json:"optimizations"`
	ScoreChecks        int      `json:"scoreChecks"`
	LinkedinMessages   int      `json:"linkedinMessages"`
	GuidedBuilds       int      `json:"guidedBuilds"`
	DurationInHours    int      `json:"durationInHours"`
	Tag                string   `json:"tag"`
	TagColor           string   `json:"tagColor"`
	Gradient           string   `json:"gradient"`
	Icon               string   `json:"icon"`
	Features           []string `json:"features"`
}

type AddOn struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// PaymentTransaction is a row of payment_transactions. Amounts are in paise.
type PaymentTransaction struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	PlanID         *string         `json:"planId,omitempty"`
	Status         string          `json:"status"`
	Amount         int64           `json:"amount"`
	Currency       string          `json:"currency"`
	CouponCode     *string         `json:"couponCode,omitempty"`
	DiscountAmount int64           `json:"discountAmount"`
	FinalAmount    int64           `json:"finalAmount"`
	PurchaseType   string          `json:"purchaseType"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// WebinarPaymentMetadata is attached to webinar purchases.
type WebinarPaymentMetadata struct {
	Type           string `json:"type"`
	WebinarID      string `json:"webinarId"`
	RegistrationID string `json:"registrationId"`
	WebinarTitle   string `json:"webinarTitle,omitempty"`
}

// OrderHandle is returned to the checkout client to open the gateway widget.
type OrderHandle struct {
	OrderID       string `json:"orderId"`
	Amount        int64  `json:"amount"`
	KeyID         string `json:"keyId"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transactionId"`
}
