// Package model содержит доменные сущности магазина.
package model

import "time"

// Account представляет зарегистрированный аккаунт покупателя.
type Account struct {
	ID                      int64
	Login                   string
	PasswordHash            []byte
	ReferralCode            string
	VoucherBalance          int
	VouchersConsumed        int
	ReferralCount           int
	ReferredBy              *int64
	HasRegistrationVoucher  bool
	RegistrationVoucherUsed bool
	CreatedAt               time.Time
}

// Product описывает позицию каталога: авторитетный источник цены и категории.
type Product struct {
	ID       string
	Name     string
	Price    int64
	Category string
}

// PromotionType описывает тип акции, применённой к заказу.
type PromotionType string

const (
	PromotionNone         PromotionType = "none"
	PromotionReferral     PromotionType = "referral"
	PromotionRegistration PromotionType = "registration"
)

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Переходы задаются явным графом; всё, чего нет в карте, запрещено.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusApproved, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusApproved:  {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
}

// IsValidStatus сообщает, является ли строка известным статусом заказа.
func IsValidStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected,
		OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition сообщает, разрешён ли переход заказа из статуса from в статус to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus сообщает, является ли статус конечным.
func IsTerminalStatus(s OrderStatus) bool {
	return IsValidStatus(s) && len(statusTransitions[s]) == 0
}

// OrderItem описывает строку заказа. Цена и категория фиксируются в момент
// оформления и не меняются при последующих изменениях каталога.
type OrderItem struct {
	ProductID   string
	ProductName string
	UnitPrice   int64
	Quantity    int
	Category    string
}

// Delivery содержит данные получателя заказа.
type Delivery struct {
	Recipient string
	Phone     string
	Address   string
}

// Order описывает заказ. После создания изменяются только статусные поля.
type Order struct {
	ID                   string
	AccountID            int64
	Items                []OrderItem
	Subtotal             int64
	PromotionType        PromotionType
	VouchersApplied      int
	VoucherDiscount      int64
	RegistrationDiscount int64
	DeliveryFee          int64
	Total                int64
	Status               OrderStatus
	PaymentProofRef      *string
	Delivery             Delivery
	CreatedAt            time.Time
	UpdatedAt            time.Time
	ReviewedAt           *time.Time
	ReviewedBy           *string
	RejectionReason      *string
}

// Referral описывает факт успешного реферального приглашения. Записи
// только добавляются и никогда не изменяются.
type Referral struct {
	ReferrerID        int64
	ReferredAccountID int64
	CreatedAt         time.Time
}

// Notification описывает уведомление покупателя об изменении статуса заказа.
type Notification struct {
	ID        int64
	AccountID int64
	OrderID   string
	Kind      string
	Message   string
	Read      bool
	CreatedAt time.Time
}
