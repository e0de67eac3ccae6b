// Package promo содержит чистые функции расчёта и валидации акций.
// Пакет не выполняет ввод-вывод: все решения принимаются по переданному
// снимку состояния аккаунта и позиций заказа.
package promo

import (
	"errors"
	"math"

	"github.com/smorozov/shopcore/internal/model"
)

// VoucherValue задаёт номинал одного реферального ваучера в копейках.
const VoucherValue int64 = 3000

// registrationRate задаёт долю скидки за регистрацию от суммы заказа.
const registrationRate = 0.10

// ErrInsufficientBalance возвращается при запросе большего числа ваучеров, чем есть на балансе.
var (
	ErrInsufficientBalance = errors.New("insufficient voucher balance")
	// ErrExceedsEligibility возвращается, если запрошено больше ваучеров, чем допускает состав заказа.
	ErrExceedsEligibility = errors.New("voucher count exceeds eligible items")
	// ErrAlreadyUsed возвращается при повторной попытке применить регистрационную скидку.
	ErrAlreadyUsed = errors.New("registration voucher already used")
	// ErrNotAvailable возвращается, если регистрационная скидка аккаунту не выдавалась.
	ErrNotAvailable = errors.New("registration voucher not available")
)

// Категории, строки которых учитываются при погашении ваучеров:
// один ваучер на единицу товара крупного формата.
var eligibleCategories = map[string]struct{}{
	"12inch": {},
	"16inch": {},
	"20inch": {},
}

// EligibleQuantity возвращает суммарное количество единиц товара из
// категорий, допускающих погашение ваучеров.
func EligibleQuantity(items []model.OrderItem) int {
	total := 0
	for _, it := range items {
		if _, ok := eligibleCategories[it.Category]; ok {
			total += it.Quantity
		}
	}
	return total
}

// MaxVouchers возвращает максимальное число ваучеров, погашаемых в заказе.
func MaxVouchers(items []model.OrderItem) int {
	return EligibleQuantity(items)
}

// VoucherDiscount возвращает сумму скидки за n ваучеров.
func VoucherDiscount(n int) int64 {
	return int64(n) * VoucherValue
}

// RegistrationDiscount возвращает регистрационную скидку от суммы заказа,
// округлённую до копейки.
func RegistrationDiscount(subtotal int64) int64 {
	return int64(math.Round(float64(subtotal) * registrationRate))
}

// Subtotal возвращает сумму заказа, пересчитанную по зафиксированным ценам строк.
func Subtotal(items []model.OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitPrice * int64(it.Quantity)
	}
	return sum
}

// Total возвращает итоговую сумму заказа, не опускающуюся ниже нуля.
func Total(subtotal, discount, deliveryFee int64) int64 {
	total := subtotal - discount + deliveryFee
	if total < 0 {
		return 0
	}
	return total
}

// ValidateVoucherUsage проверяет запрошенное погашение ваучеров против
// состава заказа и доступного баланса и возвращает сумму скидки.
// Нулевой запрос всегда допустим со скидкой 0.
func ValidateVoucherUsage(items []model.OrderItem, requested, availableBalance int) (int64, error) {
	if requested == 0 {
		return 0, nil
	}
	if requested > availableBalance {
		return 0, ErrInsufficientBalance
	}
	if requested > MaxVouchers(items) {
		return 0, ErrExceedsEligibility
	}
	return VoucherDiscount(requested), nil
}

// ValidateRegistrationVoucher проверяет доступность регистрационной скидки.
func ValidateRegistrationVoucher(hasVoucher, alreadyUsed bool) error {
	if alreadyUsed {
		return ErrAlreadyUsed
	}
	if !hasVoucher {
		return ErrNotAvailable
	}
	return nil
}
