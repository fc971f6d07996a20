package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
	r "github.com/itadmit/quickshop3-sub006/internal/repository"
)

// Notifier sends the best-effort side effects of order creation. Failures are
// logged and never fail the order.
type Notifier interface {
	SendWelcomeEmail(ctx context.Context, storeID int64, email string) error
	SyncContact(ctx context.Context, storeID int64, customer *domain.Customer) error
	SendOrderConfirmation(ctx context.Context, storeID int64, order *domain.OrderWithItems) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, in *domain.CreateOrderInput) (*domain.OrderWithItems, error)
}

type OrderServiceImpl struct {
	store    r.OrderStore
	notifier Notifier
	logger   *slog.Logger

	notifyTimeout time.Duration
}

func NewOrderService(store r.OrderStore, notifier Notifier, logger *slog.Logger) *OrderServiceImpl {
	return &OrderServiceImpl{
		store:         store,
		notifier:      notifier,
		logger:        logger,
		notifyTimeout: 10 * time.Second,
	}
}

// CreateOrder runs the whole checkout pipeline inside one database
// transaction: customer resolution, store credit and gift card application,
// order number allocation, status derivation, discount counters, order and
// line item rows, customer aggregates and outbox events all commit or roll
// back together.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, in *domain.CreateOrderInput) (*domain.OrderWithItems, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	totals := computeTotals(in)

	var (
		result        *domain.OrderWithItems
		customer      *domain.Customer
		isNewCustomer bool
	)

	err := s.store.InTransaction(ctx, func(tx r.OrderTx) error {
		var err error
		customer, isNewCustomer, err = s.resolveCustomer(ctx, tx, in)
		if err != nil {
			return err
		}

		remaining := totals.Total

		credit, creditUsed, err := s.applyStoreCredit(ctx, tx, in, customer, remaining)
		if err != nil {
			return err
		}
		remaining -= creditUsed

		giftCard, giftUsed, err := s.applyGiftCard(ctx, tx, in, remaining)
		if err != nil {
			return err
		}
		remaining -= giftUsed

		orderNumber, err := tx.NextOrderNumber(ctx, in.StoreID)
		if err != nil {
			return err
		}

		financial := deriveFinancialStatus(remaining)
		fulfillment := domain.FulfillmentStatusPending
		if financial == domain.FinancialStatusPaid {
			storeDefault, err := tx.DefaultFulfillmentStatus(ctx, in.StoreID)
			if err != nil {
				return err
			}
			fulfillment = deriveFulfillmentStatus(financial, storeDefault)
		}

		usedDiscounts, err := s.applyDiscountCodes(ctx, tx, in)
		if err != nil {
			return err
		}

		order := buildOrder(in, customer, totals, orderNumber, financial, fulfillment,
			effectivePaymentMethod(in.PaymentMethod, remaining, giftUsed, creditUsed),
			creditUsed, giftUsed)

		orderID, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}

		if creditUsed > 0 {
			if err := s.recordCreditUsage(ctx, tx, credit, customer, creditUsed, orderID); err != nil {
				return err
			}
		}
		if giftUsed > 0 {
			if err := tx.DeductGiftCard(ctx, giftCard.ID, giftUsed); err != nil {
				return err
			}
		}

		items, err := s.insertLineItems(ctx, tx, in, orderID)
		if err != nil {
			return err
		}

		if err := tx.AddCustomerTotals(ctx, customer.ID, order.TotalPrice); err != nil {
			return err
		}

		if err := s.enqueueEvents(ctx, tx, in, order, items, customer, isNewCustomer, usedDiscounts); err != nil {
			return err
		}

		result = &domain.OrderWithItems{Order: *order, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatchNotifications(result, customer, isNewCustomer)
	return result, nil
}

func validateInput(in *domain.CreateOrderInput) error {
	if len(in.LineItems) == 0 {
		return ErrEmptyCart
	}
	if in.Email == "" {
		return ErrMissingEmail
	}
	for _, li := range in.LineItems {
		if li.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if li.Price < 0 || li.TotalDiscount < 0 {
			return ErrNegativeAmount
		}
	}
	if in.StoreCreditRequested < 0 || in.ShippingPrice < 0 || in.TaxAmount < 0 {
		return ErrNegativeAmount
	}
	switch in.PaymentMethod {
	case domain.PaymentMethodCreditCard, domain.PaymentMethodCash,
		domain.PaymentMethodBankTransfer, domain.PaymentMethodGiftCard,
		domain.PaymentMethodStoreCredit:
		return nil
	default:
		return ErrInvalidPaymentMethod
	}
}

// resolveCustomer finds the customer by (store, email) or creates one. An
// existing customer gets its contact fields refreshed from the payload. The
// create path is an upsert, so a concurrent first order for the same email
// resolves to the winner's row instead of failing on the unique index.
func (s *OrderServiceImpl) resolveCustomer(ctx context.Context, tx r.OrderTx, in *domain.CreateOrderInput) (*domain.Customer, bool, error) {
	existing, err := tx.FindCustomerByEmail(ctx, in.StoreID, in.Email)
	if err != nil && !errors.Is(err, r.ErrCustomerNotFound) {
		return nil, false, fmt.Errorf("resolve customer: %w", err)
	}

	if existing != nil {
		existing.FirstName = in.FirstName
		existing.LastName = in.LastName
		existing.Phone = in.Phone
		existing.AcceptsMarketing = in.BuyerAcceptsMarketing
		if err := tx.UpdateCustomerContact(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	c := &domain.Customer{
		StoreID:          in.StoreID,
		Email:            in.Email,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Phone:            in.Phone,
		AcceptsMarketing: in.BuyerAcceptsMarketing,
	}
	id, created, err := tx.CreateCustomer(ctx, c)
	if err != nil {
		return nil, false, err
	}
	c.ID = id
	return c, created, nil
}

// applyStoreCredit locks the balance and clamps the requested amount to
// min(requested, balance, remaining). A customer with no credit row simply
// uses none.
func (s *OrderServiceImpl) applyStoreCredit(ctx context.Context, tx r.OrderTx, in *domain.CreateOrderInput, customer *domain.Customer, remaining float64) (*domain.StoreCredit, float64, error) {
	if in.StoreCreditRequested <= 0 {
		return nil, 0, nil
	}

	credit, err := tx.StoreCreditForUpdate(ctx, in.StoreID, customer.ID)
	if errors.Is(err, r.ErrNoStoreCredit) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	used := creditToUse(in.StoreCreditRequested, credit.Balance, remaining)
	if used == 0 {
		return credit, 0, nil
	}
	if err := tx.DeductStoreCredit(ctx, credit.ID, used); err != nil {
		return nil, 0, err
	}
	return credit, used, nil
}

func (s *OrderServiceImpl) applyGiftCard(ctx context.Context, tx r.OrderTx, in *domain.CreateOrderInput, remaining float64) (*domain.GiftCard, float64, error) {
	if in.GiftCardCode == "" {
		return nil, 0, nil
	}

	card, err := tx.GiftCardForUpdate(ctx, in.StoreID, in.GiftCardCode)
	if err != nil {
		return nil, 0, err
	}

	used := creditToUse(card.Balance, card.Balance, remaining)
	return card, used, nil
}

// applyDiscountCodes bumps usage counters. Unknown codes are skipped rather
// than failing the order, matching the tolerant dashboard behavior.
func (s *OrderServiceImpl) applyDiscountCodes(ctx context.Context, tx r.OrderTx, in *domain.CreateOrderInput) (map[string]int64, error) {
	used := make(map[string]int64, len(in.DiscountCodes))
	for _, code := range in.DiscountCodes {
		id, err := tx.IncrementDiscountUsage(ctx, in.StoreID, code)
		if errors.Is(err, r.ErrDiscountNotFound) {
			s.logger.Warn("discount code not found, skipping", "store_id", in.StoreID, "code", code)
			continue
		}
		if err != nil {
			return nil, err
		}
		used[code] = id
	}
	return used, nil
}

func (s *OrderServiceImpl) recordCreditUsage(ctx context.Context, tx r.OrderTx, credit *domain.StoreCredit, customer *domain.Customer, used float64, orderID int64) error {
	return tx.InsertCreditTransaction(ctx, &domain.CreditTransaction{
		CreditID:   credit.ID,
		CustomerID: customer.ID,
		Amount:     -used,
		Type:       domain.CreditTransactionUsed,
		OrderID:    &orderID,
	})
}

func (s *OrderServiceImpl) insertLineItems(ctx context.Context, tx r.OrderTx, in *domain.CreateOrderInput, orderID int64) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, 0, len(in.LineItems))
	for _, li := range in.LineItems {
		props := li.Properties
		if li.Image != "" {
			if props == nil {
				props = map[string]any{}
			}
			if _, ok := props["image"]; !ok {
				props["image"] = li.Image
			}
		}

		item := domain.LineItem{
			OrderID:       orderID,
			ProductID:     li.ProductID,
			VariantID:     li.VariantID,
			Title:         li.Title,
			VariantTitle:  li.VariantTitle,
			SKU:           li.SKU,
			Quantity:      li.Quantity,
			Price:         li.Price,
			TotalDiscount: li.TotalDiscount,
			Properties:    props,
		}
		if _, err := tx.InsertLineItem(ctx, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *OrderServiceImpl) enqueueEvents(ctx context.Context, tx r.OrderTx, in *domain.CreateOrderInput, order *domain.Order, items []domain.LineItem, customer *domain.Customer, isNew bool, usedDiscounts map[string]int64) error {
	eventItems := make([]domain.OrderCreatedLineItem, 0, len(items))
	for _, li := range items {
		eventItems = append(eventItems, domain.OrderCreatedLineItem{
			ID:        li.ID,
			ProductID: li.ProductID,
			VariantID: li.VariantID,
			Title:     li.Title,
			Quantity:  li.Quantity,
			Price:     li.Price,
		})
	}

	created := domain.OrderCreatedEvent{
		OrderID:       order.ID,
		StoreID:       order.StoreID,
		CustomerID:    order.CustomerID,
		OrderNumber:   order.OrderNumber,
		OrderName:     order.OrderName,
		TotalPrice:    order.TotalPrice,
		Currency:      order.Currency,
		Email:         order.Email,
		DiscountCodes: order.DiscountCodes,
		LineItems:     eventItems,
		Source:        in.Source,
	}
	if err := s.enqueue(ctx, tx, domain.EventOrderCreated, strconv.FormatInt(order.ID, 10), created); err != nil {
		return err
	}

	for code, discountID := range usedDiscounts {
		ev := domain.DiscountUsedEvent{
			DiscountID: discountID,
			OrderID:    order.ID,
			StoreID:    order.StoreID,
			Code:       code,
		}
		if err := s.enqueue(ctx, tx, domain.EventDiscountUsed, strconv.FormatInt(order.ID, 10), ev); err != nil {
			return err
		}
	}

	if isNew {
		ev := domain.CustomerCreatedEvent{
			CustomerID: customer.ID,
			StoreID:    customer.StoreID,
			Email:      customer.Email,
		}
		if err := s.enqueue(ctx, tx, domain.EventCustomerCreated, strconv.FormatInt(customer.ID, 10), ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderServiceImpl) enqueue(ctx context.Context, tx r.OrderTx, eventType, aggregateID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return tx.InsertOutboxEvent(ctx, eventType, aggregateID, data)
}

// dispatchNotifications runs after commit. Each send is fire-and-forget with
// its own timeout; failures are only logged.
func (s *OrderServiceImpl) dispatchNotifications(order *domain.OrderWithItems, customer *domain.Customer, isNew bool) {
	if s.notifier == nil {
		return
	}

	if isNew {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
			defer cancel()
			if err := s.notifier.SendWelcomeEmail(ctx, order.StoreID, customer.Email); err != nil {
				s.logger.Warn("welcome email failed", "customer_id", customer.ID, "error", err)
			}
			if err := s.notifier.SyncContact(ctx, order.StoreID, customer); err != nil {
				s.logger.Warn("contact sync failed", "customer_id", customer.ID, "error", err)
			}
		}()
	}

	// Card payments with a remaining balance defer the confirmation to the
	// payment-success callback.
	if order.PaymentMethod == domain.PaymentMethodCreditCard && order.FinancialStatus != domain.FinancialStatusPaid {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.SendOrderConfirmation(ctx, order.StoreID, order); err != nil {
			s.logger.Warn("order confirmation email failed", "order_id", order.ID, "error", err)
		}
	}()
}

func buildOrder(in *domain.CreateOrderInput, customer *domain.Customer, totals orderTotals, orderNumber int, financial domain.FinancialStatus, fulfillment domain.FulfillmentStatus, method domain.PaymentMethod, creditUsed, giftUsed float64) *domain.Order {
	customerID := customer.ID

	currency := in.Currency
	if currency == "" {
		currency = "ILS"
	}

	attrs := domain.NoteAttributes{
		DeliveryMethod:   in.DeliveryMethod,
		Discounts:        in.Discounts,
		StoreCreditUsed:  creditUsed,
		GiftCardUsed:     giftUsed,
		RequestedPayment: in.PaymentMethod.String(),
	}
	if giftUsed > 0 {
		attrs.GiftCardCode = in.GiftCardCode
	}

	return &domain.Order{
		StoreID:           in.StoreID,
		CustomerID:        &customerID,
		Email:             in.Email,
		Phone:             in.Phone,
		Name:              in.Name(),
		OrderNumber:       orderNumber,
		OrderName:         fmt.Sprintf("#%04d", orderNumber),
		OrderHandle:       uuid.NewString(),
		FinancialStatus:   financial,
		FulfillmentStatus: fulfillment,
		PaymentMethod:     method,
		SubtotalPrice:     totals.Subtotal,
		TotalShipping:     totals.Shipping,
		TotalTax:          totals.Tax,
		TotalDiscounts:    totals.TotalDiscounts,
		TotalPrice:        totals.Total,
		Currency:          currency,
		BillingAddress:    in.BillingAddress,
		ShippingAddress:   in.ShippingAddress,
		DiscountCodes:     in.DiscountCodes,
		Note:              in.Note,
		Tags:              in.Tags,
		NoteAttributes:    attrs,
	}
}
