// internal/workers/payments/create-order/models.go
package createorder

import (
	"primoboost-workers/internal/common/validation"
	"primoboost-workers/internal/models"
)

// Input is the checkout request. Amounts are in paise. UserID and UserEmail
// come from the authenticated caller, never from the request body.
type Input struct {
	PlanID          string           `json:"planId,omitempty"`
	CouponCode      string           `json:"couponCode,omitempty"`
	WalletDeduction int64            `json:"walletDeduction,omitempty"`
	AddOnsTotal     int64            `json:"addOnsTotal,omitempty"`
	Amount          int64            `json:"amount"`
	SelectedAddOns  map[string]int   `json:"selectedAddOns,omitempty"`
	Metadata        *PaymentMetadata `json:"metadata,omitempty"`
	UserID          string           `json:"userId"`
	UserEmail       string           `json:"userEmail,omitempty"`
}

type PaymentMetadata struct {
	Type           string `json:"type,omitempty"`
	WebinarID      string `json:"webinarId,omitempty"`
	RegistrationID string `json:"registrationId,omitempty"`
	WebinarTitle   string `json:"webinarTitle,omitempty"`
}

func (in *Input) isWebinar() bool {
	return in.Metadata != nil && in.Metadata.Type == models.PurchaseTypeWebinar
}

type Output = models.OrderHandle

// Amounts are capped at 10^10 paise so the pricing sums stay far from int64
// overflow.
var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["amount"],
	"properties": {
		"planId": {"type": "string", "maxLength": 100},
		"couponCode": {"type": "string", "maxLength": 50},
		"walletDeduction": {"type": "integer", "minimum": 0, "maximum": 10000000000},
		"addOnsTotal": {"type": "integer", "minimum": 0, "maximum": 10000000000},
		"amount": {"type": "integer", "maximum": 10000000000},
		"selectedAddOns": {
			"type": "object",
			"additionalProperties": {"type": "integer", "minimum": 0, "maximum": 100}
		},
		"metadata": {
			"type": "object",
			"properties": {
				"type": {"enum": ["webinar", "subscription"]},
				"webinarId": {"type": "string"},
				"registrationId": {"type": "string"},
				"webinarTitle": {"type": "string"}
			}
		}
	}
}`)
