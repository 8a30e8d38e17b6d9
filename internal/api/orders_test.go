package api

import (
	"errors"
	"net/http"
	"testing"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/models"
	autoapplystatus "primoboost-workers/internal/workers/applications/auto-apply-status"
	createorder "primoboost-workers/internal/workers/payments/create-order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetStatus(t *testing.T) {
	status := &MockStatus{}
	status.On("Execute", mock.Anything, &autoapplystatus.Input{ApplicationID: "app-1"}).Return(&autoapplystatus.Output{
		StatusProjection: models.StatusProjection{
			Status:                 "processing",
			Progress:               30,
			CurrentStep:            "Filling personal details...",
			EstimatedTimeRemaining: 90,
		},
		ApplicationID: "app-1",
		JobID:         "job-9",
	}, nil)
	r := newTestRouter(t, Services{Status: status})

	w := doRequest(r, http.MethodGet, "/status/app-1", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "processing", body["status"])
	assert.Equal(t, float64(30), body["progress"])
	assert.Equal(t, "Filling personal details...", body["currentStep"])
	assert.Equal(t, float64(90), body["estimatedTimeRemaining"])
	assert.Equal(t, "app-1", body["applicationId"])
	assert.Equal(t, "job-9", body["jobId"])
	status.AssertExpectations(t)
}

func TestGetStatus_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		id         string
		err        error
		wantStatus int
		wantError  string
		wantFailed bool
	}{
		{
			name:       "unknown application",
			path:       "/status/missing",
			id:         "missing",
			err:        apperrors.NewNotFoundError("Application not found", ""),
			wantStatus: http.StatusNotFound,
			wantError:  "Application not found",
			wantFailed: true,
		},
		{
			name:       "missing id",
			path:       "/status",
			id:         "",
			err:        apperrors.NewValidationError("Application ID is required", ""),
			wantStatus: http.StatusBadRequest,
			wantError:  "Application ID is required",
		},
		{
			name:       "store unavailable",
			path:       "/status/app-1",
			id:         "app-1",
			err:        apperrors.NewUpstreamError("database", errors.New("connection refused")),
			wantStatus: http.StatusBadGateway,
			wantError:  "database request failed",
			wantFailed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := &MockStatus{}
			status.On("Execute", mock.Anything, &autoapplystatus.Input{ApplicationID: tt.id}).Return(nil, tt.err)
			r := newTestRouter(t, Services{Status: status})

			w := doRequest(r, http.MethodGet, tt.path, "", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantFailed {
				assert.Equal(t, "failed", body["status"])
			} else {
				assert.NotContains(t, body, "status")
			}
			assert.NotContains(t, body, "details")
		})
	}
}

func TestCreateOrder_UsesAuthenticatedUser(t *testing.T) {
	orders := &MockOrders{}
	orders.On("Execute", mock.Anything, mock.MatchedBy(func(in *createorder.Input) bool {
		return in.UserID == "user-1" &&
			in.UserEmail == "asha@example.com" &&
			in.PlanID == "starter_plan" &&
			in.Amount == 9900
	})).Return(&createorder.Output{
		OrderID:       "order_123",
		Amount:        9900,
		KeyID:         "rzp_test_key",
		Currency:      "INR",
		TransactionID: "txn-1",
	}, nil)
	r := newTestRouter(t, Services{Orders: orders})

	w := doRequest(r, http.MethodPost, "/order", userToken,
		`{"planId":"starter_plan","amount":9900,"userId":"someone-else"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "order_123", body["orderId"])
	assert.Equal(t, float64(9900), body["amount"])
	assert.Equal(t, "rzp_test_key", body["keyId"])
	assert.Equal(t, "INR", body["currency"])
	assert.Equal(t, "txn-1", body["transactionId"])
	orders.AssertExpectations(t)
}

func TestCreateOrder_AmountMismatchCarriesDebug(t *testing.T) {
	orders := &MockOrders{}
	orders.On("Execute", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAmountMismatchError(14900, 9900))
	r := newTestRouter(t, Services{Orders: orders})

	w := doRequest(r, http.MethodPost, "/order", userToken, `{"planId":"career_pro","amount":9900}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "AMOUNT_MISMATCH", body["code"])
	debug := body["debug"].(map[string]interface{})
	assert.Equal(t, float64(14900), debug["backendCalculated"])
	assert.Equal(t, float64(9900), debug["frontendSent"])
	assert.Equal(t, float64(5000), debug["difference"])
}

func TestCreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails bool
	}{
		{
			name:        "malformed body",
			body:        `{"amount":"lots"}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_ERROR",
			wantDetails: true,
		},
		{
			name:        "coupon already used",
			body:        `{"planId":"career_pro_max","couponCode":"worthyone","amount":9950}`,
			err:         apperrors.NewCouponAlreadyUsedError("worthyone"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "COUPON_ALREADY_USED",
		},
		{
			name:       "gateway failure hides details",
			body:       `{"planId":"starter_plan","amount":9900}`,
			err:        apperrors.NewUpstreamError("payment gateway", errors.New("razorpay: 500 internal")),
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &MockOrders{}
			if tt.err != nil {
				orders.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)
			}
			r := newTestRouter(t, Services{Orders: orders})

			w := doRequest(r, http.MethodPost, "/order", userToken, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.wantCode, body["code"])
			if tt.wantDetails {
				assert.Contains(t, body, "details")
			} else {
				assert.NotContains(t, body, "details")
			}
			if tt.err == nil {
				orders.AssertNotCalled(t, "Execute")
			}
		})
	}
}
