// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode"
)

const serviceIDPrefix = "SRV-"

// IsValidServiceID проверяет идентификатор заказа: префикс SRV- без учёта
// регистра, далее буквы, цифры и дефисы.
func IsValidServiceID(id string) bool {
	if len(id) <= len(serviceIDPrefix) || !strings.EqualFold(id[:len(serviceIDPrefix)], serviceIDPrefix) {
		return false
	}

	for _, ch := range id[len(serviceIDPrefix):] {
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' {
			return false
		}
	}

	return true
}
