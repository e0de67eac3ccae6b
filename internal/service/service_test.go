package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/smorozov/shopcore/internal/model"
	"github.com/smorozov/shopcore/internal/repository"
)

func TestHashPasswordDeterministic(t *testing.T) {
	a := hashPassword("user", "pass")
	b := hashPassword("user", "pass")
	c := hashPassword("user", "other")

	if string(a) != string(b) {
		t.Fatalf("hashPassword must be deterministic, got %x and %x", a, b)
	}
	if string(a) == string(c) {
		t.Fatalf("different passwords must produce different hashes")
	}
}

type createOrderCall struct {
	accountID int64
	orderID   string
	items     []model.OrderItem
	promotion model.PromotionType
	vouchers  int
}

type stubRepo struct {
	createAccountID   int64
	createAccountErrs []error
	createAccountN    int

	getAccount    *model.Account
	getAccountErr error

	products    map[string]model.Product
	productsErr error

	createOrderResp *model.Order
	createOrderErr  error
	createOrderCall *createOrderCall

	applyReferralAlready bool
	applyReferralErr     error
	applyReferralCode    string

	getOrderResp *model.Order
	getOrderErr  error

	updateStatusResp *model.Order
	updateStatusErr  error
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateAccount(ctx context.Context, login string, passwordHash []byte, referralCode string) (int64, error) {
	idx := s.createAccountN
	s.createAccountN++
	if idx < len(s.createAccountErrs) && s.createAccountErrs[idx] != nil {
		return 0, s.createAccountErrs[idx]
	}
	return s.createAccountID, nil
}

func (s *stubRepo) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	return s.getAccount, s.getAccountErr
}

func (s *stubRepo) GetAccountByLogin(ctx context.Context, login string) (*model.Account, error) {
	return s.getAccount, s.getAccountErr
}

func (s *stubRepo) GetProductsByIDs(ctx context.Context, ids []string) (map[string]model.Product, error) {
	if s.productsErr != nil {
		return nil, s.productsErr
	}
	res := make(map[string]model.Product, len(ids))
	for _, id := range ids {
		p, ok := s.products[id]
		if !ok {
			return nil, repository.ErrProductNotFound
		}
		res[id] = p
	}
	return res, nil
}

func (s *stubRepo) CreateOrder(ctx context.Context, accountID int64, orderID string, items []model.OrderItem, delivery model.Delivery, deliveryFee int64, promotion model.PromotionType, vouchers int) (*model.Order, error) {
	s.createOrderCall = &createOrderCall{
		accountID: accountID,
		orderID:   orderID,
		items:     items,
		promotion: promotion,
		vouchers:  vouchers,
	}
	return s.createOrderResp, s.createOrderErr
}

func (s *stubRepo) ApplyReferral(ctx context.Context, accountID int64, code string) (bool, error) {
	s.applyReferralCode = code
	return s.applyReferralAlready, s.applyReferralErr
}

func (s *stubRepo) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	return s.getOrderResp, s.getOrderErr
}

func (s *stubRepo) GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) UpdateOrderStatus(ctx context.Context, orderID string, newStatus model.OrderStatus, reviewer, rejectionReason *string) (*model.Order, error) {
	return s.updateStatusResp, s.updateStatusErr
}

func (s *stubRepo) AttachPaymentProof(ctx context.Context, orderID string, accountID int64, proofRef string) error {
	return nil
}

func (s *stubRepo) GetNotificationsByAccount(ctx context.Context, accountID int64) ([]model.Notification, error) {
	return nil, nil
}

func (s *stubRepo) MarkNotificationRead(ctx context.Context, accountID, notificationID int64) error {
	return nil
}

type stubEmitter struct {
	enqueued []*model.Notification
	err      error
}

func (e *stubEmitter) Enqueue(ctx context.Context, n *model.Notification) error {
	e.enqueued = append(e.enqueued, n)
	return e.err
}

func newTestService(repo Repository, emitter Emitter) *Service {
	return NewService(repo, emitter, 1500, zap.NewNop())
}

func TestRegisterAccount_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{
		createAccountErrs: []error{repository.ErrAccountExists},
	}
	svc := newTestService(repo, nil)

	_, err := svc.RegisterAccount(context.Background(), "login", "pass")
	if !errors.Is(err, repository.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestRegisterAccount_RetriesReferralCodeCollision(t *testing.T) {
	repo := &stubRepo{
		createAccountID:   7,
		createAccountErrs: []error{repository.ErrReferralCodeTaken, nil},
	}
	svc := newTestService(repo, nil)

	id, err := svc.RegisterAccount(context.Background(), "login", "pass")
	if err != nil {
		t.Fatalf("RegisterAccount error: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
	if repo.createAccountN != 2 {
		t.Fatalf("CreateAccount called %d times, want 2", repo.createAccountN)
	}
}

func TestAuthenticateAccount_InvalidCredentials(t *testing.T) {
	hashed := hashPassword("user", "correct")
	repo := &stubRepo{
		getAccount: &model.Account{
			ID:           1,
			Login:        "user",
			PasswordHash: hashed,
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.AuthenticateAccount(context.Background(), "user", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCreateOrder_RequestValidation(t *testing.T) {
	svc := newTestService(&stubRepo{}, nil)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, 1, CreateOrderRequest{})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}

	_, err = svc.CreateOrder(ctx, 1, CreateOrderRequest{
		Lines: []OrderLine{{ProductID: "p", Quantity: 0}},
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	_, err = svc.CreateOrder(ctx, 1, CreateOrderRequest{
		Lines:     []OrderLine{{ProductID: "p", Quantity: 1}},
		Promotion: model.PromotionNone,
		Vouchers:  2,
	})
	if !errors.Is(err, ErrUnexpectedVouchers) {
		t.Fatalf("expected ErrUnexpectedVouchers, got %v", err)
	}

	_, err = svc.CreateOrder(ctx, 1, CreateOrderRequest{
		Lines:     []OrderLine{{ProductID: "p", Quantity: 1}},
		Promotion: "flash-sale",
	})
	if !errors.Is(err, ErrInvalidPromotion) {
		t.Fatalf("expected ErrInvalidPromotion, got %v", err)
	}

	_, err = svc.CreateOrder(ctx, 1, CreateOrderRequest{
		Lines:     []OrderLine{{ProductID: "p", Quantity: 1}},
		Promotion: model.PromotionNone,
		OrderID:   "not-an-order-id",
	})
	if !errors.Is(err, ErrInvalidOrderID) {
		t.Fatalf("expected ErrInvalidOrderID, got %v", err)
	}
}

func TestCreateOrder_PricesFromCatalog(t *testing.T) {
	repo := &stubRepo{
		products: map[string]model.Product{
			"cake-choco-12": {ID: "cake-choco-12", Name: "Chocolate Fudge Cake 12\"", Price: 5000, Category: "12inch"},
		},
		createOrderResp: &model.Order{ID: "ORD-000000000001"},
	}
	svc := newTestService(repo, nil)

	// Две строки одного товара сливаются, цена берётся из каталога.
	_, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		Lines: []OrderLine{
			{ProductID: "cake-choco-12", Quantity: 1},
			{ProductID: "cake-choco-12", Quantity: 1},
		},
		Promotion: model.PromotionReferral,
		Vouchers:  2,
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	call := repo.createOrderCall
	if call == nil {
		t.Fatalf("repository CreateOrder was not called")
	}
	if call.accountID != 42 {
		t.Fatalf("accountID = %d, want 42", call.accountID)
	}
	if len(call.items) != 1 {
		t.Fatalf("items = %d, want 1 merged line", len(call.items))
	}
	it := call.items[0]
	if it.UnitPrice != 5000 || it.Quantity != 2 || it.Category != "12inch" {
		t.Fatalf("unexpected item: %+v", it)
	}
	if call.orderID == "" {
		t.Fatalf("order id must be generated when not provided")
	}
	if call.vouchers != 2 || call.promotion != model.PromotionReferral {
		t.Fatalf("promotion not passed through: %+v", call)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	repo := &stubRepo{products: map[string]model.Product{}}
	svc := newTestService(repo, nil)

	_, err := svc.CreateOrder(context.Background(), 1, CreateOrderRequest{
		Lines: []OrderLine{{ProductID: "ghost", Quantity: 1}},
	})
	if !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCreateOrder_ProvidedIDReplayReturnsExisting(t *testing.T) {
	existing := &model.Order{ID: "ORD-0123456789AB", AccountID: 42, Total: 5500}
	repo := &stubRepo{
		products: map[string]model.Product{
			"cake-choco-12": {ID: "cake-choco-12", Name: "cake", Price: 5000, Category: "12inch"},
		},
		createOrderErr: repository.ErrOrderExists,
		getOrderResp:   existing,
	}
	svc := newTestService(repo, nil)

	order, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		Lines:   []OrderLine{{ProductID: "cake-choco-12", Quantity: 1}},
		OrderID: "ORD-0123456789AB",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order != existing {
		t.Fatalf("expected the previously created order to be returned")
	}
}

func TestCreateOrder_ProvidedIDOwnedByAnother(t *testing.T) {
	repo := &stubRepo{
		products: map[string]model.Product{
			"cake-choco-12": {ID: "cake-choco-12", Name: "cake", Price: 5000, Category: "12inch"},
		},
		createOrderErr: repository.ErrOrderExists,
		getOrderResp:   &model.Order{ID: "ORD-0123456789AB", AccountID: 99},
	}
	svc := newTestService(repo, nil)

	_, err := svc.CreateOrder(context.Background(), 42, CreateOrderRequest{
		Lines:   []OrderLine{{ProductID: "cake-choco-12", Quantity: 1}},
		OrderID: "ORD-0123456789AB",
	})
	if !errors.Is(err, repository.ErrOrderOwnedByAnother) {
		t.Fatalf("expected ErrOrderOwnedByAnother, got %v", err)
	}
}

func TestProcessReferral_NormalizesCode(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, nil)

	_, err := svc.ProcessReferral(context.Background(), 1, " ab12cd34 ")
	if err != nil {
		t.Fatalf("ProcessReferral error: %v", err)
	}
	if repo.applyReferralCode != "AB12CD34" {
		t.Fatalf("code = %q, want AB12CD34", repo.applyReferralCode)
	}

	_, err = svc.ProcessReferral(context.Background(), 1, "   ")
	if !errors.Is(err, repository.ErrInvalidReferralCode) {
		t.Fatalf("expected ErrInvalidReferralCode for blank code, got %v", err)
	}
}

func TestProcessReferral_Idempotent(t *testing.T) {
	repo := &stubRepo{applyReferralAlready: true}
	svc := newTestService(repo, nil)

	already, err := svc.ProcessReferral(context.Background(), 1, "AB12CD34")
	if err != nil {
		t.Fatalf("ProcessReferral error: %v", err)
	}
	if !already {
		t.Fatalf("expected alreadyReferred = true")
	}
}

func TestUpdateOrderStatus_EmitsNotification(t *testing.T) {
	reason := "blurry payment proof"
	repo := &stubRepo{
		updateStatusResp: &model.Order{
			ID:              "ORD-0123456789AB",
			AccountID:       42,
			Status:          model.OrderStatusRejected,
			RejectionReason: &reason,
		},
	}
	emitter := &stubEmitter{}
	svc := newTestService(repo, emitter)

	_, err := svc.UpdateOrderStatus(context.Background(), "ORD-0123456789AB", model.OrderStatusRejected, "admin", reason)
	if err != nil {
		t.Fatalf("UpdateOrderStatus error: %v", err)
	}

	if len(emitter.enqueued) != 1 {
		t.Fatalf("enqueued %d notifications, want 1", len(emitter.enqueued))
	}
	n := emitter.enqueued[0]
	if n.AccountID != 42 || n.OrderID != "ORD-0123456789AB" || n.Kind != string(model.OrderStatusRejected) {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestUpdateOrderStatus_EmitterFailureDoesNotFail(t *testing.T) {
	repo := &stubRepo{
		updateStatusResp: &model.Order{
			ID:        "ORD-0123456789AB",
			AccountID: 42,
			Status:    model.OrderStatusApproved,
		},
	}
	emitter := &stubEmitter{err: errors.New("notification store down")}
	svc := newTestService(repo, emitter)

	order, err := svc.UpdateOrderStatus(context.Background(), "ORD-0123456789AB", model.OrderStatusApproved, "admin", "")
	if err != nil {
		t.Fatalf("status update must not fail on emitter error, got %v", err)
	}
	if order.Status != model.OrderStatusApproved {
		t.Fatalf("status = %s, want approved", order.Status)
	}
}

func TestUpdateOrderStatus_PropagatesInvalidTransition(t *testing.T) {
	repo := &stubRepo{updateStatusErr: repository.ErrInvalidTransition}
	emitter := &stubEmitter{}
	svc := newTestService(repo, emitter)

	_, err := svc.UpdateOrderStatus(context.Background(), "ORD-0123456789AB", model.OrderStatusPending, "", "")
	if !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(emitter.enqueued) != 0 {
		t.Fatalf("no notification must be emitted on failed transition")
	}
}
