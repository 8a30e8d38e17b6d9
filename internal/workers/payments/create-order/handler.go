// internal/workers/payments/create-order/handler.go
package createorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"primoboost-workers/internal/catalog"
	"primoboost-workers/internal/common/database"
	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/common/metrics"
	"primoboost-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	TaskType = "create-order"

	OrderCreatedMessage = "order-created"
)

var (
	ErrUserRequired         = errors.New("USER_REQUIRED")
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrInvalidWebinarAmount = errors.New("INVALID_WEBINAR_AMOUNT")
	ErrMissingWebinarInfo   = errors.New("MISSING_WEBINAR_INFO")
	ErrInvalidPlan          = errors.New("INVALID_PLAN")
	ErrUnknownAddOn         = errors.New("UNKNOWN_ADD_ON")
	ErrAddOnsMismatch       = errors.New("ADD_ONS_MISMATCH")
	ErrInvalidCoupon        = errors.New("INVALID_COUPON")
	ErrCouponAlreadyUsed    = errors.New("COUPON_ALREADY_USED")
	ErrCouponExhausted      = errors.New("COUPON_EXHAUSTED")
	ErrAmountMismatch       = errors.New("AMOUNT_MISMATCH")
	ErrStoreFailed          = errors.New("TRANSACTION_STORE_FAILED")
	ErrGatewayFailed        = errors.New("GATEWAY_FAILED")
)

const (
	userCouponUsageQuery = `SELECT COUNT(*) FROM payment_transactions WHERE user_id = $1 AND lower(coupon_code) = $2 AND status IN ('success', 'pending')`

	couponUsageQuery = `SELECT COUNT(*) FROM payment_transactions WHERE coupon_code = $1 AND status IN ('success', 'pending')`

	insertTransactionQuery = `INSERT INTO payment_transactions (user_id, plan_id, status, amount, currency, coupon_code, discount_amount, final_amount, purchase_type, metadata) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`

	updateStatusQuery = `UPDATE payment_transactions SET status = $1 WHERE id = $2`
)

type couponError struct {
	err  error
	code string
}

func (e *couponError) Error() string { return fmt.Sprintf("%v: %s", e.err, e.code) }
func (e *couponError) Unwrap() error { return e.err }

type mismatchError struct {
	backend, frontend int64
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("%v: backend %d, frontend %d", ErrAmountMismatch, e.backend, e.frontend)
}
func (e *mismatchError) Unwrap() error { return ErrAmountMismatch }

// MessagePublisher is satisfied by *camunda.Client.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, ttl time.Duration, variables interface{}) error
}

// Mailer is satisfied by *aws.Mailer.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type Handler struct {
	config     *Config
	db         *sql.DB
	catalog    *catalog.Catalog
	gateway    Gateway
	publisher  MessagePublisher
	mailer     Mailer
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
	now        func() time.Time
}

func NewHandler(config *Config, db *sql.DB, cat *catalog.Catalog, gateway Gateway, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		catalog:    cat,
		gateway:    gateway,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
		now:        time.Now,
	}
}

// WithPublisher enables the "order-created" message for waiting processes.
func (h *Handler) WithPublisher(p MessagePublisher) *Handler {
	h.publisher = p
	return h
}

// WithMailer enables the checkout email sent once an order exists.
func (h *Handler) WithMailer(m Mailer) *Handler {
	h.mailer = m
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job,
			apperrors.NewValidationError("Invalid job variables", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// Execute reconciles the checkout request against the catalog, records a
// pending transaction and opens a gateway order for the reconciled amount.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := otel.Tracer(TaskType).Start(ctx, "create-order")
	defer span.End()

	output, err := h.execute(ctx, input)
	if err != nil {
		stdErr := toStandardError(err, input)
		metrics.OrdersRejected.WithLabelValues(string(stdErr.Code)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stdErr.Code))
		h.logger.Warn("order rejected", map[string]interface{}{
			"userId": input.UserID,
			"planId": input.PlanID,
			"code":   string(stdErr.Code),
			"error":  err.Error(),
		})
		return nil, stdErr
	}
	return output, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, ErrUserRequired
	}
	if result := inputSchema.Validate(input); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(result.GetErrorMessages(), "; "))
	}

	plan, purchaseType, err := resolvePlan(h.catalog, input)
	if err != nil {
		return nil, err
	}
	addOns, err := addOnsTotal(h.catalog, input.SelectedAddOns)
	if err != nil {
		return nil, err
	}
	if purchaseType != models.PurchaseTypeWebinar && addOns != input.AddOnsTotal {
		return nil, fmt.Errorf("%w: catalog %d, request %d", ErrAddOnsMismatch, addOns, input.AddOnsTotal)
	}

	var (
		quote *Quote
		txID  string
	)
	err = database.WithTx(ctx, h.db, sql.LevelSerializable, func(tx *sql.Tx) error {
		q, err := h.price(ctx, tx, input, plan, purchaseType)
		if err != nil {
			return err
		}
		id, err := insertTransaction(ctx, tx, input, q)
		if err != nil {
			return err
		}
		quote, txID = q, id
		return nil
	})
	if err != nil {
		return nil, err
	}

	gwCtx, span := otel.Tracer(TaskType).Start(ctx, "gateway.create-order")
	span.SetAttributes(
		attribute.String("transaction.id", txID),
		attribute.String("purchase.type", quote.PurchaseType),
		attribute.Int64("amount.final", quote.FinalAmount),
	)
	order, err := h.gateway.CreateOrder(gwCtx, txID, h.orderRequest(input, quote, txID))
	span.End()
	if err != nil {
		metrics.UpstreamCalls.WithLabelValues("razorpay", "error").Inc()
		h.markFailed(ctx, txID)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}
	metrics.UpstreamCalls.WithLabelValues("razorpay", "success").Inc()
	metrics.OrdersCreated.WithLabelValues(quote.PurchaseType).Inc()
	if quote.CouponCode != "" {
		metrics.CouponsApplied.WithLabelValues(quote.CouponCode).Inc()
	}

	output := &Output{
		OrderID:       order.ID,
		Amount:        quote.FinalAmount,
		KeyID:         h.gateway.KeyID(),
		Currency:      Currency,
		TransactionID: txID,
	}

	h.logger.Info("order created", map[string]interface{}{
		"userId":        input.UserID,
		"transactionId": txID,
		"orderId":       order.ID,
		"purchaseType":  quote.PurchaseType,
		"amount":        quote.FinalAmount,
	})

	h.announce(ctx, input, quote, output)
	return output, nil
}

// price runs the coupon checks and amount arithmetic inside the reconcile
// transaction so the usage counts and the insert see one snapshot.
func (h *Handler) price(ctx context.Context, tx *sql.Tx, input *Input, plan models.Plan, purchaseType string) (*Quote, error) {
	q := &Quote{
		Plan:            plan,
		PurchaseType:    purchaseType,
		OriginalAmount:  originalAmount(plan, purchaseType),
		WalletDeduction: input.WalletDeduction,
		AddOnsTotal:     input.AddOnsTotal,
	}

	if purchaseType == models.PurchaseTypeWebinar {
		q.FinalAmount = input.Amount
		return q, nil
	}

	if code := catalog.NormalizeCoupon(input.CouponCode); code != "" {
		var used int
		if err := tx.QueryRowContext(ctx, userCouponUsageQuery, input.UserID, code).Scan(&used); err != nil {
			return nil, fmt.Errorf("%w: coupon usage: %v", ErrStoreFailed, err)
		}
		if used > 0 {
			return nil, &couponError{err: ErrCouponAlreadyUsed, code: code}
		}

		rule, ok := h.catalog.Coupon(code)
		if !ok || !rule.AppliesTo(plan.ID) {
			return nil, &couponError{err: ErrInvalidCoupon, code: code}
		}

		if rule.GlobalLimit > 0 {
			var total int
			if err := tx.QueryRowContext(ctx, couponUsageQuery, rule.Code).Scan(&total); err != nil {
				return nil, fmt.Errorf("%w: coupon count: %v", ErrStoreFailed, err)
			}
			if total >= rule.GlobalLimit {
				return nil, &couponError{err: ErrCouponExhausted, code: code}
			}
		}

		q.CouponCode = rule.Code
		q.DiscountAmount = rule.Discount(q.OriginalAmount)
	}

	q.FinalAmount = FinalAmount(q.OriginalAmount, q.DiscountAmount, q.WalletDeduction, q.AddOnsTotal)
	if q.FinalAmount != input.Amount {
		return nil, &mismatchError{backend: q.FinalAmount, frontend: input.Amount}
	}
	return q, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, input *Input, q *Quote) (string, error) {
	var planID interface{}
	if q.PurchaseType != models.PurchaseTypeWebinar && q.PurchaseType != models.PurchaseTypeAddOnOnly {
		planID = q.Plan.ID
	}
	var couponCode interface{}
	if q.CouponCode != "" {
		couponCode = q.CouponCode
	}
	var metadata interface{}
	if q.PurchaseType == models.PurchaseTypeWebinar {
		raw, err := json.Marshal(models.WebinarPaymentMetadata{
			Type:           models.PurchaseTypeWebinar,
			WebinarID:      input.Metadata.WebinarID,
			RegistrationID: input.Metadata.RegistrationID,
			WebinarTitle:   input.Metadata.WebinarTitle,
		})
		if err != nil {
			return "", fmt.Errorf("%w: encode metadata: %v", ErrStoreFailed, err)
		}
		metadata = string(raw)
	}

	var id string
	err := tx.QueryRowContext(ctx, insertTransactionQuery,
		input.UserID, planID, models.TransactionStatusPending, q.OriginalAmount, Currency,
		couponCode, q.DiscountAmount, q.FinalAmount, q.PurchaseType, metadata,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%w: insert transaction: %w", ErrStoreFailed, err)
	}
	return id, nil
}

func (h *Handler) orderRequest(input *Input, q *Quote, txID string) OrderRequest {
	var couponCode interface{}
	if q.CouponCode != "" {
		couponCode = q.CouponCode
	}
	addOns := input.SelectedAddOns
	if addOns == nil {
		addOns = map[string]int{}
	}
	selected, _ := json.Marshal(addOns)

	paymentType := "subscription"
	var webinarID, registrationID, webinarTitle string
	if q.PurchaseType == models.PurchaseTypeWebinar {
		paymentType = models.PurchaseTypeWebinar
	}
	if input.Metadata != nil {
		webinarID = input.Metadata.WebinarID
		registrationID = input.Metadata.RegistrationID
		webinarTitle = input.Metadata.WebinarTitle
	}

	return OrderRequest{
		Amount:   q.FinalAmount,
		Currency: Currency,
		Receipt:  fmt.Sprintf("receipt_%d", h.now().UnixMilli()),
		Notes: map[string]interface{}{
			"planId":          q.Plan.ID,
			"planName":        q.Plan.Name,
			"originalAmount":  q.OriginalAmount,
			"couponCode":      couponCode,
			"discountAmount":  q.DiscountAmount,
			"walletDeduction": q.WalletDeduction,
			"addOnsTotal":     q.AddOnsTotal,
			"transactionId":   txID,
			"selectedAddOns":  string(selected),
			"paymentType":     paymentType,
			"webinarId":       webinarID,
			"registrationId":  registrationID,
			"webinarTitle":    webinarTitle,
		},
	}
}

// markFailed resolves the pending row after a gateway failure. It detaches
// from ctx so a gateway timeout does not also cancel the compensation.
func (h *Handler) markFailed(ctx context.Context, txID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.CompensationTimeout)
	defer cancel()

	if _, err := h.db.ExecContext(ctx, updateStatusQuery, models.TransactionStatusFailed, txID); err != nil {
		h.logger.Error("failed to mark transaction failed", map[string]interface{}{
			"transactionId": txID,
			"error":         err.Error(),
		})
	}
}

// announce publishes the order-created message and sends the checkout mail.
// Both are best effort: the order already exists.
func (h *Handler) announce(ctx context.Context, input *Input, q *Quote, out *Output) {
	if h.publisher != nil {
		vars := map[string]interface{}{
			"transactionId": out.TransactionID,
			"orderId":       out.OrderID,
			"userId":        input.UserID,
			"amount":        out.Amount,
			"purchaseType":  q.PurchaseType,
		}
		if err := h.publisher.PublishMessage(ctx, OrderCreatedMessage, out.TransactionID, h.config.MessageTTL, vars); err != nil {
			h.logger.Warn("order-created message not published", map[string]interface{}{
				"transactionId": out.TransactionID,
				"error":         err.Error(),
			})
		}
	}

	if h.mailer != nil && input.UserEmail != "" {
		subject := fmt.Sprintf("Complete your payment for %s", q.Plan.Name)
		text := fmt.Sprintf("Your order %s for %s is ready. Amount due: Rs %s.\nReference: %s",
			out.OrderID, q.Plan.Name, formatRupees(out.Amount), out.TransactionID)
		if err := h.mailer.Send(ctx, input.UserEmail, subject, text, ""); err != nil {
			h.logger.Warn("checkout email not sent", map[string]interface{}{
				"transactionId": out.TransactionID,
				"error":         err.Error(),
			})
		}
	}
}

func formatRupees(paise int64) string {
	return fmt.Sprintf("%d.%02d", paise/100, paise%100)
}

func toStandardError(err error, input *Input) *apperrors.StandardError {
	var coupon *couponError
	var mismatch *mismatchError
	switch {
	case errors.Is(err, ErrUserRequired):
		return apperrors.NewAuthenticationError("authenticated user required")
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewValidationError("Invalid order request", err.Error())
	case errors.Is(err, ErrInvalidWebinarAmount):
		return apperrors.NewValidationError("Invalid payment amount for webinar. Amount must be greater than 0.",
			fmt.Sprintf("Received amount: %d", input.Amount))
	case errors.Is(err, ErrMissingWebinarInfo):
		return apperrors.NewValidationError("Missing required webinar information", "webinarId and registrationId are required")
	case errors.Is(err, ErrInvalidPlan):
		return apperrors.NewInvalidPlanError(input.PlanID)
	case errors.Is(err, ErrUnknownAddOn):
		return apperrors.NewValidationError("Unknown add-on selected", err.Error())
	case errors.Is(err, ErrAddOnsMismatch):
		return apperrors.NewValidationError("Add-on total does not match the selected add-ons", err.Error())
	case errors.As(err, &coupon):
		switch {
		case errors.Is(err, ErrCouponAlreadyUsed):
			return apperrors.NewCouponAlreadyUsedError(coupon.code)
		case errors.Is(err, ErrCouponExhausted):
			return apperrors.NewCouponExhaustedError(coupon.code)
		default:
			return apperrors.NewInvalidCouponError(coupon.code)
		}
	case errors.As(err, &mismatch):
		return apperrors.NewAmountMismatchError(mismatch.backend, mismatch.frontend)
	case database.IsUniqueViolation(err):
		// lost the race against a concurrent checkout with the same coupon
		return apperrors.NewCouponAlreadyUsedError(catalog.NormalizeCoupon(input.CouponCode))
	case errors.Is(err, ErrGatewayFailed):
		return apperrors.NewUpstreamError("payment gateway", err)
	default:
		return apperrors.NewUpstreamError("database", err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}
