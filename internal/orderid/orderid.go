// Package orderid генерирует публичные идентификаторы заказов и реферальные коды.
package orderid

import (
	"strings"

	"github.com/google/uuid"
)

const (
	orderPrefix = "ORD-"
	orderDigits = 12
	codeDigits  = 8
)

// New возвращает новый публичный идентификатор заказа вида ORD-XXXXXXXXXXXX.
// Идентификатор устойчив к коллизиям, но единственность гарантирует
// ограничение уникальности в хранилище, а не генератор.
func New() string {
	return orderPrefix + randomHex(orderDigits)
}

// NewReferralCode возвращает новый реферальный код из восьми шестнадцатеричных
// символов в верхнем регистре.
func NewReferralCode() string {
	return randomHex(codeDigits)
}

func randomHex(n int) string {
	id := uuid.New()
	hex := strings.ReplaceAll(id.String(), "-", "")
	return strings.ToUpper(hex[:n])
}

// IsValid проверяет синтаксис публичного идентификатора заказа.
func IsValid(id string) bool {
	if !strings.HasPrefix(id, orderPrefix) {
		return false
	}
	rest := strings.TrimPrefix(id, orderPrefix)
	if len(rest) != orderDigits {
		return false
	}
	for _, ch := range rest {
		if (ch < '0' || ch > '9') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}

// NormalizeCode приводит реферальный код к канонической форме сравнения.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
