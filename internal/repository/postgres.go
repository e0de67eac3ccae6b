// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/smorozov/shopcore/internal/model"
	"github.com/smorozov/shopcore/internal/promo"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrAccountExists возвращается при попытке создать аккаунт с уже существующим логином.
var (
	ErrAccountExists = errors.New("account already exists")
	// ErrReferralCodeTaken возвращается при коллизии сгенерированного реферального кода.
	ErrReferralCodeTaken = errors.New("referral code already taken")
	// ErrAccountNotFound возвращается, если аккаунт не найден.
	ErrAccountNotFound = errors.New("account not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается, если заказ с таким идентификатором уже сохранён.
	ErrOrderExists = errors.New("order already exists")
	// ErrProductNotFound возвращается, если позиция каталога не найдена.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidReferralCode возвращается, если реферальный код не принадлежит ни одному аккаунту.
	ErrInvalidReferralCode = errors.New("invalid referral code")
	// ErrSelfReferral возвращается при попытке применить собственный реферальный код.
	ErrSelfReferral = errors.New("self referral is not allowed")
	// ErrInvalidTransition возвращается при недопустимом переходе статуса заказа.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrProofNotAllowed возвращается при попытке приложить чек к заказу в недопустимом статусе.
	ErrProofNotAllowed = errors.New("payment proof not allowed in current status")
	// ErrNotificationNotFound возвращается, если уведомление не найдено.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrOrderOwnedByAnother возвращается, если идентификатор заказа принадлежит другому аккаунту.
	ErrOrderOwnedByAnother = errors.New("order belongs to another account")
	// ErrContention возвращается после исчерпания повторов конкурентной транзакции.
	ErrContention = errors.New("transaction contention, try again")
)

// errTxConflict помечает конфликт с параллельной транзакцией, проявившийся не
// кодом сериализации: транзакцию нужно повторить с чтения.
var errTxConflict = errors.New("transaction conflict")

const (
	txMaxRetries = 4
	txRetryDelay = 50 * time.Millisecond
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// inTx выполняет fn в транзакции уровня REPEATABLE READ. При конфликте
// сериализации или дедлоке вся последовательность чтение-проверка-запись
// повторяется с нуля; после исчерпания повторов возвращается ErrContention.
func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	backoff := retry.WithMaxRetries(txMaxRetries, retry.NewConstant(txRetryDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := fn(tx); err != nil {
			if isRetryableTxError(err) {
				return retry.RetryableError(err)
			}
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			if isRetryableTxError(err) {
				return retry.RetryableError(err)
			}
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
	if err != nil && isRetryableTxError(err) {
		return fmt.Errorf("%w: %s", ErrContention, err)
	}
	return err
}

func isRetryableTxError(err error) bool {
	if errors.Is(err, errTxConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

// CreateAccount создаёт новый аккаунт с реферальным кодом и невостребованной
// регистрационной скидкой.
func (r *PostgresRepository) CreateAccount(ctx context.Context, login string, passwordHash []byte, referralCode string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (login, password_hash, referral_code) VALUES ($1, $2, $3) RETURNING id`,
		login, passwordHash, referralCode,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == "accounts_referral_code_key" {
				return 0, ErrReferralCodeTaken
			}
			return 0, fmt.Errorf("%w: %s", ErrAccountExists, login)
		}
		return 0, fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

const accountColumns = `id, login, password_hash, referral_code, voucher_balance, vouchers_consumed,
	referral_count, referred_by, has_registration_voucher, registration_voucher_used, created_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Login, &a.PasswordHash, &a.ReferralCode, &a.VoucherBalance, &a.VouchersConsumed,
		&a.ReferralCount, &a.ReferredBy, &a.HasRegistrationVoucher, &a.RegistrationVoucherUsed, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

// GetAccountByID возвращает аккаунт по идентификатору.
func (r *PostgresRepository) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// GetAccountByLogin возвращает аккаунт по логину.
func (r *PostgresRepository) GetAccountByLogin(ctx context.Context, login string) (*model.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE login = $1`, login))
}

// GetProductsByIDs возвращает позиции каталога по идентификаторам.
// Отсутствие любой из запрошенных позиций считается ошибкой.
func (r *PostgresRepository) GetProductsByIDs(ctx context.Context, ids []string) (map[string]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price, category FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]model.Product, len(ids))
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Category); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
	}

	return products, nil
}

// CreateOrder атомарно сохраняет заказ и применяет выбранную акцию к аккаунту.
// Либо сохраняются и заказ, и изменение аккаунта, либо ничего: скидки
// пересчитываются внутри транзакции по свежему состоянию аккаунта, и при
// конфликте с параллельным заказом вся проверка выполняется заново.
func (r *PostgresRepository) CreateOrder(
	ctx context.Context,
	accountID int64,
	orderID string,
	items []model.OrderItem,
	delivery model.Delivery,
	deliveryFee int64,
	promotion model.PromotionType,
	vouchers int,
) (*model.Order, error) {
	var order *model.Order

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		acc, err := scanAccount(tx.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID))
		if err != nil {
			return err
		}

		subtotal := promo.Subtotal(items)

		var (
			vouchersApplied      int
			voucherDiscount      int64
			registrationDiscount int64
		)

		switch promotion {
		case model.PromotionReferral:
			voucherDiscount, err = promo.ValidateVoucherUsage(items, vouchers, acc.VoucherBalance)
			if err != nil {
				return err
			}
			vouchersApplied = vouchers
		case model.PromotionRegistration:
			if err := promo.ValidateRegistrationVoucher(acc.HasRegistrationVoucher, acc.RegistrationVoucherUsed); err != nil {
				return err
			}
			registrationDiscount = promo.RegistrationDiscount(subtotal)
		}

		total := promo.Total(subtotal, voucherDiscount+registrationDiscount, deliveryFee)
		now := time.Now()

		_, err = tx.Exec(ctx,
			`INSERT INTO orders (id, account_id, subtotal, promotion_type, vouchers_applied,
				voucher_discount, registration_discount, delivery_fee, total, status,
				delivery_recipient, delivery_phone, delivery_address, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
			orderID, accountID, subtotal, string(promotion), vouchersApplied,
			voucherDiscount, registrationDiscount, deliveryFee, total, string(model.OrderStatusPending),
			delivery.Recipient, delivery.Phone, delivery.Address, now,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return ErrOrderExists
			}
			return fmt.Errorf("insert order: %w", err)
		}

		for _, it := range items {
			_, err = tx.Exec(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, category)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				orderID, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, it.Category,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		switch {
		case promotion == model.PromotionReferral && vouchersApplied > 0:
			_, err = tx.Exec(ctx,
				`UPDATE accounts
				 SET voucher_balance = voucher_balance - $2, vouchers_consumed = vouchers_consumed + $2
				 WHERE id = $1`,
				accountID, vouchersApplied,
			)
			if err != nil {
				return fmt.Errorf("debit vouchers: %w", err)
			}
		case promotion == model.PromotionRegistration:
			_, err = tx.Exec(ctx,
				`UPDATE accounts SET registration_voucher_used = TRUE WHERE id = $1`,
				accountID,
			)
			if err != nil {
				return fmt.Errorf("consume registration voucher: %w", err)
			}
		}

		order = &model.Order{
			ID:                   orderID,
			AccountID:            accountID,
			Items:                items,
			Subtotal:             subtotal,
			PromotionType:        promotion,
			VouchersApplied:      vouchersApplied,
			VoucherDiscount:      voucherDiscount,
			RegistrationDiscount: registrationDiscount,
			DeliveryFee:          deliveryFee,
			Total:                total,
			Status:               model.OrderStatusPending,
			Delivery:             delivery,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// ApplyReferral атомарно применяет реферальный код к новому аккаунту: создаёт
// запись Referral, помечает аккаунт приглашённым и начисляет ваучер
// пригласившему. Повторный вызов для уже приглашённого аккаунта ничего не
// записывает и возвращает true.
func (r *PostgresRepository) ApplyReferral(ctx context.Context, accountID int64, code string) (bool, error) {
	var alreadyReferred bool

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		alreadyReferred = false

		var referredBy *int64
		err := tx.QueryRow(ctx,
			`SELECT referred_by FROM accounts WHERE id = $1`, accountID,
		).Scan(&referredBy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("select account: %w", err)
		}

		if referredBy != nil {
			alreadyReferred = true
			return nil
		}

		var referrerID int64
		err = tx.QueryRow(ctx,
			`SELECT id FROM accounts WHERE referral_code = $1`, code,
		).Scan(&referrerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidReferralCode
			}
			return fmt.Errorf("select referrer: %w", err)
		}

		if referrerID == accountID {
			return ErrSelfReferral
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO referrals (referrer_id, referred_account_id) VALUES ($1, $2)`,
			referrerID, accountID,
		)
		if err != nil {
			return referralInsertError(err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE accounts SET referred_by = $2 WHERE id = $1 AND referred_by IS NULL`,
			accountID, referrerID,
		)
		if err != nil {
			return fmt.Errorf("mark account referred: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE accounts SET voucher_balance = voucher_balance + 1, referral_count = referral_count + 1
			 WHERE id = $1`,
			referrerID,
		)
		if err != nil {
			return fmt.Errorf("credit referrer: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return alreadyReferred, nil
}

// referralInsertError переводит нарушение уникальности referrals в повторяемый
// конфликт: параллельная попытка уже записала реферала после нашего чтения,
// повтор транзакции увидит заполненный referred_by.
func referralInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: account already referred", errTxConflict)
	}
	return fmt.Errorf("insert referral: %w", err)
}

const orderColumns = `id, account_id, subtotal, promotion_type, vouchers_applied, voucher_discount,
	registration_discount, delivery_fee, total, status, payment_proof_ref,
	delivery_recipient, delivery_phone, delivery_address,
	created_at, updated_at, reviewed_at, reviewed_by, rejection_reason`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o         model.Order
		promotion string
		status    string
	)
	err := row.Scan(
		&o.ID, &o.AccountID, &o.Subtotal, &promotion, &o.VouchersApplied, &o.VoucherDiscount,
		&o.RegistrationDiscount, &o.DeliveryFee, &o.Total, &status, &o.PaymentProofRef,
		&o.Delivery.Recipient, &o.Delivery.Phone, &o.Delivery.Address,
		&o.CreatedAt, &o.UpdatedAt, &o.ReviewedAt, &o.ReviewedBy, &o.RejectionReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.PromotionType = model.PromotionType(promotion)
	o.Status = model.OrderStatus(status)
	return &o, nil
}

func (r *PostgresRepository) loadOrderItems(ctx context.Context, orderIDs []string) (map[string][]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, product_name, unit_price, quantity, category
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY id`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]model.OrderItem)
	for rows.Next() {
		var (
			orderID string
			it      model.OrderItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.Category); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[orderID] = append(items[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// GetOrderByID возвращает заказ с позициями по публичному идентификатору.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		return nil, err
	}

	items, err := r.loadOrderItems(ctx, []string{orderID})
	if err != nil {
		return nil, err
	}
	o.Items = items[orderID]

	return o, nil
}

// GetOrdersByAccount возвращает заказы аккаунта, новые первыми.
func (r *PostgresRepository) GetOrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE account_id = $1 ORDER BY created_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(ids) > 0 {
		items, err := r.loadOrderItems(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range orders {
			orders[i].Items = items[orders[i].ID]
		}
	}

	return orders, nil
}

// UpdateOrderStatus переводит заказ в новый статус. Текущий статус
// перечитывается и проверяется внутри той же транзакции, поэтому
// параллельное изменение статуса не может быть затёрто.
func (r *PostgresRepository) UpdateOrderStatus(
	ctx context.Context,
	orderID string,
	newStatus model.OrderStatus,
	reviewer *string,
	rejectionReason *string,
) (*model.Order, error) {
	var order *model.Order

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
		if err != nil {
			return err
		}

		if !model.CanTransition(o.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, newStatus)
		}

		now := time.Now()
		o.Status = newStatus
		o.UpdatedAt = now

		if newStatus == model.OrderStatusApproved || newStatus == model.OrderStatusRejected {
			o.ReviewedAt = &now
			o.ReviewedBy = reviewer
		}
		if newStatus == model.OrderStatusRejected {
			o.RejectionReason = rejectionReason
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders
			 SET status = $2, updated_at = $3, reviewed_at = $4, reviewed_by = $5, rejection_reason = $6
			 WHERE id = $1`,
			orderID, string(o.Status), o.UpdatedAt, o.ReviewedAt, o.ReviewedBy, o.RejectionReason,
		)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// AttachPaymentProof сохраняет ссылку на чек оплаты заказа. Разрешено только
// владельцу заказа и только до подтверждения оплаты администратором.
func (r *PostgresRepository) AttachPaymentProof(ctx context.Context, orderID string, accountID int64, proofRef string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND account_id = $2`, orderID, accountID))
		if err != nil {
			return err
		}

		if o.Status != model.OrderStatusPending && o.Status != model.OrderStatusApproved {
			return ErrProofNotAllowed
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders SET payment_proof_ref = $2, updated_at = $3 WHERE id = $1`,
			orderID, proofRef, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("attach payment proof: %w", err)
		}
		return nil
	})
}

// CreateNotification сохраняет уведомление для аккаунта.
func (r *PostgresRepository) CreateNotification(ctx context.Context, n *model.Notification) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notifications (account_id, order_id, kind, message)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		n.AccountID, n.OrderID, n.Kind, n.Message,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// GetNotificationsByAccount возвращает уведомления аккаунта, новые первыми.
func (r *PostgresRepository) GetNotificationsByAccount(ctx context.Context, accountID int64) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, order_id, kind, message, read, created_at
		 FROM notifications
		 WHERE account_id = $1
		 ORDER BY created_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	var res []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.OrderID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		res = append(res, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// MarkNotificationRead помечает уведомление прочитанным.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, accountID, notificationID int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND account_id = $2`,
		notificationID, accountID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
