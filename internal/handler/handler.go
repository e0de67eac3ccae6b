// Package handler содержит HTTP-обработчики API сервиса магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/smorozov/shopcore/internal/middleware"
	"github.com/smorozov/shopcore/internal/model"
	"github.com/smorozov/shopcore/internal/promo"
	"github.com/smorozov/shopcore/internal/repository"
	"github.com/smorozov/shopcore/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterAccount(ctx context.Context, login, password string) (int64, error)
	AuthenticateAccount(ctx context.Context, login, password string) (int64, error)
	CreateOrder(ctx context.Context, accountID int64, req service.CreateOrderRequest) (*model.Order, error)
	ProcessReferral(ctx context.Context, accountID int64, code string) (bool, error)
	UpdateOrderStatus(ctx context.Context, orderID string, newStatus model.OrderStatus, reviewer, rejectionReason string) (*model.Order, error)
	GetAccount(ctx context.Context, accountID int64) (*model.Account, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	AttachPaymentProof(ctx context.Context, orderID string, accountID int64, proofRef string) error
	GetNotifications(ctx context.Context, accountID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, accountID, notificationID int64) error
}

// Handler реализует HTTP-обработчики API сервиса магазина.
type Handler struct {
	service         Service
	logger          *zap.Logger
	authMiddleware  *middleware.AuthMiddleware
	adminMiddleware *middleware.AdminMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, admin *middleware.AdminMiddleware) *Handler {
	return &Handler{
		service:         s,
		logger:          logger,
		authMiddleware:  auth,
		adminMiddleware: admin,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func cents(v int64) float64 {
	return float64(v) / 100
}

type registerRequest struct {
	Login        string `json:"login"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type registerResponse struct {
	ReferralApplied bool   `json:"referral_applied"`
	ReferralError   string `json:"referral_error,omitempty"`
}

// Register обрабатывает регистрацию нового аккаунта. Реферальный код,
// переданный при регистрации, применяется в том же запросе; его ошибка не
// отменяет уже созданный аккаунт и возвращается в теле ответа.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	accountID, err := h.service.RegisterAccount(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("register account error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, accountID)

	resp := registerResponse{}
	if req.ReferralCode != "" {
		_, refErr := h.service.ProcessReferral(r.Context(), accountID, req.ReferralCode)
		switch {
		case refErr == nil:
			resp.ReferralApplied = true
		case errors.Is(refErr, repository.ErrInvalidReferralCode),
			errors.Is(refErr, repository.ErrSelfReferral):
			resp.ReferralError = refErr.Error()
		default:
			h.logger.Error("apply referral on register error", zap.Error(refErr), zap.Int64("accountID", accountID))
			resp.ReferralError = "referral could not be applied, try again"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию аккаунта и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	accountID, err := h.service.AuthenticateAccount(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login account error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, accountID)
	w.WriteHeader(http.StatusOK)
}

type accountResponse struct {
	Login                   string `json:"login"`
	ReferralCode            string `json:"referral_code"`
	VoucherBalance          int    `json:"voucher_balance"`
	VouchersConsumed        int    `json:"vouchers_consumed"`
	ReferralCount           int    `json:"referral_count"`
	Referred                bool   `json:"referred"`
	HasRegistrationVoucher  bool   `json:"has_registration_voucher"`
	RegistrationVoucherUsed bool   `json:"registration_voucher_used"`
}

// GetAccount возвращает сводку текущего аккаунта.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	acc, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get account error", zap.Error(err), zap.Int64("accountID", accountID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{
		Login:                   acc.Login,
		ReferralCode:            acc.ReferralCode,
		VoucherBalance:          acc.VoucherBalance,
		VouchersConsumed:        acc.VouchersConsumed,
		ReferralCount:           acc.ReferralCount,
		Referred:                acc.ReferredBy != nil,
		HasRegistrationVoucher:  acc.HasRegistrationVoucher,
		RegistrationVoucherUsed: acc.RegistrationVoucherUsed,
	})
}

type referralRequest struct {
	Code string `json:"code"`
}

type referralResponse struct {
	AlreadyReferred bool `json:"already_referred"`
}

// ApplyReferral применяет реферальный код к текущему аккаунту.
func (h *Handler) ApplyReferral(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req referralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	already, err := h.service.ProcessReferral(r.Context(), accountID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidReferralCode),
			errors.Is(err, repository.ErrSelfReferral):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, repository.ErrAccountNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrContention):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			h.logger.Error("apply referral error", zap.Error(err), zap.Int64("accountID", accountID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, referralResponse{AlreadyReferred: already})
}

type orderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type deliveryRequest struct {
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type createOrderRequest struct {
	OrderID   string             `json:"order_id,omitempty"`
	Promotion string             `json:"promotion"`
	Vouchers  int                `json:"vouchers"`
	Delivery  deliveryRequest    `json:"delivery"`
	Items     []orderLineRequest `json:"items"`
}

type orderItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Category    string  `json:"category"`
}

type orderResponse struct {
	ID                   string              `json:"id"`
	Status               string              `json:"status"`
	PromotionType        string              `json:"promotion_type"`
	Items                []orderItemResponse `json:"items"`
	Subtotal             float64             `json:"subtotal"`
	VouchersApplied      int                 `json:"vouchers_applied"`
	VoucherDiscount      float64             `json:"voucher_discount"`
	RegistrationDiscount float64             `json:"registration_discount"`
	DeliveryFee          float64             `json:"delivery_fee"`
	Total                float64             `json:"total"`
	PaymentProofRef      *string             `json:"payment_proof_ref,omitempty"`
	Delivery             deliveryRequest     `json:"delivery"`
	CreatedAt            string              `json:"created_at"`
	UpdatedAt            string              `json:"updated_at"`
	ReviewedAt           *string             `json:"reviewed_at,omitempty"`
	ReviewedBy           *string             `json:"reviewed_by,omitempty"`
	RejectionReason      *string             `json:"rejection_reason,omitempty"`
}

func toOrderResponse(o *model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   cents(it.UnitPrice),
			Quantity:    it.Quantity,
			Category:    it.Category,
		})
	}

	resp := orderResponse{
		ID:                   o.ID,
		Status:               string(o.Status),
		PromotionType:        string(o.PromotionType),
		Items:                items,
		Subtotal:             cents(o.Subtotal),
		VouchersApplied:      o.VouchersApplied,
		VoucherDiscount:      cents(o.VoucherDiscount),
		RegistrationDiscount: cents(o.RegistrationDiscount),
		DeliveryFee:          cents(o.DeliveryFee),
		Total:                cents(o.Total),
		PaymentProofRef:      o.PaymentProofRef,
		Delivery: deliveryRequest{
			Recipient: o.Delivery.Recipient,
			Phone:     o.Delivery.Phone,
			Address:   o.Delivery.Address,
		},
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
		UpdatedAt: o.UpdatedAt.Format(time.RFC3339),
	}

	if o.ReviewedAt != nil {
		v := o.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &v
	}
	resp.ReviewedBy = o.ReviewedBy
	resp.RejectionReason = o.RejectionReason

	return resp
}

// CreateOrder оформляет заказ текущего аккаунта.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	promotion := model.PromotionType(req.Promotion)
	if req.Promotion == "" {
		promotion = model.PromotionNone
	}

	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, service.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.service.CreateOrder(r.Context(), accountID, service.CreateOrderRequest{
		Lines: lines,
		Delivery: model.Delivery{
			Recipient: req.Delivery.Recipient,
			Phone:     req.Delivery.Phone,
			Address:   req.Delivery.Address,
		},
		Promotion: promotion,
		Vouchers:  req.Vouchers,
		OrderID:   req.OrderID,
	})
	if err != nil {
		h.writeCreateOrderError(w, err, accountID)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) writeCreateOrderError(w http.ResponseWriter, err error, accountID int64) {
	switch {
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPromotion),
		errors.Is(err, service.ErrUnexpectedVouchers),
		errors.Is(err, service.ErrInvalidOrderID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, promo.ErrInsufficientBalance):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, promo.ErrExceedsEligibility),
		errors.Is(err, repository.ErrProductNotFound):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, promo.ErrAlreadyUsed),
		errors.Is(err, promo.ErrNotAvailable),
		errors.Is(err, repository.ErrOrderExists),
		errors.Is(err, repository.ErrOrderOwnedByAnother):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, repository.ErrAccountNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, repository.ErrContention):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.logger.Error("create order error", zap.Error(err), zap.Int64("accountID", accountID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// GetOrders возвращает список заказов текущего аккаунта.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orders, err := h.service.GetOrdersByAccount(r.Context(), accountID)
	if err != nil {
		h.logger.Error("get orders error", zap.Error(err), zap.Int64("accountID", accountID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetOrder возвращает один заказ текущего аккаунта.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orderID := chi.URLParam(r, "orderID")

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get order error", zap.Error(err), zap.String("order", orderID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// Чужой заказ не раскрывается даже фактом существования.
	if order.AccountID != accountID {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type paymentProofRequest struct {
	Ref string `json:"ref"`
}

// AttachPaymentProof сохраняет ссылку на чек оплаты заказа текущего аккаунта.
func (h *Handler) AttachPaymentProof(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orderID := chi.URLParam(r, "orderID")

	var req paymentProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ref == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.AttachPaymentProof(r.Context(), orderID, accountID, req.Ref)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrProofNotAllowed):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, repository.ErrContention):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			h.logger.Error("attach payment proof error", zap.Error(err), zap.String("order", orderID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

type notificationResponse struct {
	ID        int64  `json:"id"`
	OrderID   string `json:"order_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// GetNotifications возвращает уведомления текущего аккаунта.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	notifications, err := h.service.GetNotifications(r.Context(), accountID)
	if err != nil {
		h.logger.Error("get notifications error", zap.Error(err), zap.Int64("accountID", accountID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(notifications) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, notificationResponse{
			ID:        n.ID,
			OrderID:   n.OrderID,
			Kind:      n.Kind,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// MarkNotificationRead помечает уведомление текущего аккаунта прочитанным.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), accountID, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("mark notification read error", zap.Error(err), zap.Int64("accountID", accountID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type updateStatusRequest struct {
	Status   string `json:"status"`
	Reviewer string `json:"reviewer,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// UpdateOrderStatus переводит заказ в новый статус (админский маршрут).
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	newStatus := model.OrderStatus(req.Status)
	if !model.IsValidStatus(newStatus) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), orderID, newStatus, req.Reviewer, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, repository.ErrContention):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			h.logger.Error("update order status error", zap.Error(err), zap.String("order", orderID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}
