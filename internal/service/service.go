// Package service реализует бизнес-логику магазина.
package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/smorozov/shopcore/internal/model"
	"github.com/smorozov/shopcore/internal/notify"
	"github.com/smorozov/shopcore/internal/orderid"
	"github.com/smorozov/shopcore/internal/repository"
)

// ErrEmptyOrder возвращается для заказа без позиций.
var (
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrInvalidQuantity возвращается для строки заказа с неположительным количеством.
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	// ErrInvalidPromotion возвращается для неизвестного типа акции.
	ErrInvalidPromotion = errors.New("unknown promotion type")
	// ErrUnexpectedVouchers возвращается, если ваучеры запрошены без реферальной акции.
	ErrUnexpectedVouchers = errors.New("vouchers require referral promotion")
	// ErrInvalidOrderID возвращается для идентификатора заказа неверного формата.
	ErrInvalidOrderID = errors.New("invalid order id format")
	// ErrInvalidCredentials возвращается при неверной паре логин-пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Число повторов при коллизии сгенерированного идентификатора или кода.
const idRetries = 3

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateAccount(ctx context.Context, login string, passwordHash []byte, referralCode string) (int64, error)
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	GetAccountByLogin(ctx context.Context, login string) (*model.Account, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]model.Product, error)
	CreateOrder(ctx context.Context, accountID int64, orderID string, items []model.OrderItem, delivery model.Delivery, deliveryFee int64, promotion model.PromotionType, vouchers int) (*model.Order, error)
	ApplyReferral(ctx context.Context, accountID int64, code string) (bool, error)
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, newStatus model.OrderStatus, reviewer, rejectionReason *string) (*model.Order, error)
	AttachPaymentProof(ctx context.Context, orderID string, accountID int64, proofRef string) error
	GetNotificationsByAccount(ctx context.Context, accountID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, accountID, notificationID int64) error
}

// Emitter описывает контракт отправки уведомлений.
type Emitter interface {
	Enqueue(ctx context.Context, n *model.Notification) error
}

// Service содержит бизнес-логику магазина.
type Service struct {
	repo        Repository
	emitter     Emitter
	deliveryFee int64
	logger      *zap.Logger
}

// NewService создаёт новый сервис с указанным репозиторием и эмиттером уведомлений.
func NewService(repo Repository, emitter Emitter, deliveryFee int64, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		emitter:     emitter,
		deliveryFee: deliveryFee,
		logger:      logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterAccount регистрирует новый аккаунт со свежим реферальным кодом.
func (s *Service) RegisterAccount(ctx context.Context, login, password string) (int64, error) {
	hashed := hashPassword(login, password)

	var lastErr error
	for i := 0; i < idRetries; i++ {
		id, err := s.repo.CreateAccount(ctx, login, hashed, orderid.NewReferralCode())
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repository.ErrReferralCodeTaken) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

// AuthenticateAccount проверяет логин и пароль и возвращает идентификатор аккаунта.
func (s *Service) AuthenticateAccount(ctx context.Context, login, password string) (int64, error) {
	acc, err := s.repo.GetAccountByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	hashed := hashPassword(login, password)
	if subtle.ConstantTimeCompare(hashed, acc.PasswordHash) != 1 {
		return 0, ErrInvalidCredentials
	}

	return acc.ID, nil
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// OrderLine описывает строку запроса на оформление заказа: только
// идентификатор товара и количество, цены клиенту не доверяются.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// CreateOrderRequest описывает запрос на оформление заказа.
type CreateOrderRequest struct {
	Lines     []OrderLine
	Delivery  model.Delivery
	Promotion model.PromotionType
	Vouchers  int
	// OrderID опционален: переданный идентификатор делает запрос
	// идемпотентным, повтор возвращает ранее созданный заказ.
	OrderID string
}

// CreateOrder оформляет заказ: собирает позиции по каталожным ценам и
// атомарно сохраняет заказ с применением акции.
func (s *Service) CreateOrder(ctx context.Context, accountID int64, req CreateOrderRequest) (*model.Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, line.ProductID)
		}
	}

	switch req.Promotion {
	case model.PromotionNone, model.PromotionRegistration:
		if req.Vouchers != 0 {
			return nil, ErrUnexpectedVouchers
		}
	case model.PromotionReferral:
		if req.Vouchers < 0 {
			return nil, ErrUnexpectedVouchers
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPromotion, req.Promotion)
	}

	provided := req.OrderID != ""
	if provided && !orderid.IsValid(req.OrderID) {
		return nil, ErrInvalidOrderID
	}

	items, err := s.buildItems(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	orderID := req.OrderID
	for attempt := 0; attempt < idRetries; attempt++ {
		if !provided {
			orderID = orderid.New()
		}

		order, err := s.repo.CreateOrder(ctx, accountID, orderID, items, req.Delivery, s.deliveryFee, req.Promotion, req.Vouchers)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, repository.ErrOrderExists) {
			return nil, err
		}

		if provided {
			// Повтор запроса с тем же идентификатором: возвращаем уже
			// созданный заказ, ваучеры второй раз не списываются.
			existing, getErr := s.repo.GetOrderByID(ctx, orderID)
			if getErr != nil {
				return nil, getErr
			}
			if existing.AccountID != accountID {
				return nil, repository.ErrOrderOwnedByAnother
			}
			return existing, nil
		}
	}

	return nil, repository.ErrOrderExists
}

func (s *Service) buildItems(ctx context.Context, lines []OrderLine) ([]model.OrderItem, error) {
	merged := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, seen := merged[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		merged[line.ProductID] += line.Quantity
	}

	products, err := s.repo.GetProductsByIDs(ctx, order)
	if err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, 0, len(order))
	for _, id := range order {
		p := products[id]
		items = append(items, model.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    merged[id],
			Category:    p.Category,
		})
	}

	return items, nil
}

// ProcessReferral применяет реферальный код к аккаунту. Операция идемпотентна:
// повторный вызов для уже приглашённого аккаунта возвращает true без записей.
func (s *Service) ProcessReferral(ctx context.Context, accountID int64, code string) (bool, error) {
	normalized := orderid.NormalizeCode(code)
	if normalized == "" {
		return false, repository.ErrInvalidReferralCode
	}
	return s.repo.ApplyReferral(ctx, accountID, normalized)
}

// UpdateOrderStatus переводит заказ в новый статус и уведомляет владельца.
// Сбой отправки уведомления логируется и не откатывает смену статуса.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, newStatus model.OrderStatus, reviewer, rejectionReason string) (*model.Order, error) {
	var reviewerPtr, reasonPtr *string
	if reviewer != "" {
		reviewerPtr = &reviewer
	}
	if rejectionReason != "" {
		reasonPtr = &rejectionReason
	}

	order, err := s.repo.UpdateOrderStatus(ctx, orderID, newStatus, reviewerPtr, reasonPtr)
	if err != nil {
		return nil, err
	}

	if s.emitter != nil {
		n := notify.BuildStatusNotification(order)
		if err := s.emitter.Enqueue(ctx, n); err != nil {
			s.logger.Error("emit status notification",
				zap.Error(err), zap.String("order", order.ID), zap.String("status", string(order.Status)))
		}
	}

	return order, nil
}

// GetAccount возвращает аккаунт по идентификатору.
func (s *Service) GetAccount(ctx context.Context, accountID int64) (*model.Account, error) {
	return s.repo.GetAccountByID(ctx, accountID)
}

// GetOrder возвращает заказ по публичному идентификатору.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.repo.GetOrderByID(ctx, orderID)
}

// GetOrdersByAccount возвращает историю заказов аккаунта.
func (s *Service) GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByAccount(ctx, accountID)
}

// AttachPaymentProof сохраняет ссылку на чек оплаты заказа.
func (s *Service) AttachPaymentProof(ctx context.Context, orderID string, accountID int64, proofRef string) error {
	return s.repo.AttachPaymentProof(ctx, orderID, accountID, proofRef)
}

// GetNotifications возвращает уведомления аккаунта.
func (s *Service) GetNotifications(ctx context.Context, accountID int64) ([]model.Notification, error) {
	return s.repo.GetNotificationsByAccount(ctx, accountID)
}

// MarkNotificationRead помечает уведомление аккаунта прочитанным.
func (s *Service) MarkNotificationRead(ctx context.Context, accountID, notificationID int64) error {
	return s.repo.MarkNotificationRead(ctx, accountID, notificationID)
}
