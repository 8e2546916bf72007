// Package casing преобразует ключи записей между camelCase доменной модели
// и snake_case хранилища. Используется только на границе с хранилищем.
package casing

import (
	"strings"
	"unicode"
)

// SnakeKey переводит ключ из camelCase в snake_case: каждая заглавная буква
// заменяется на "_" и строчную букву.
func SnakeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CamelKey переводит ключ из snake_case в camelCase: "_" перед строчной буквой
// удаляется, а буква становится заглавной.
func CamelKey(key string) string {
	runes := []rune(key)
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(runes); i++ {
		if runes[i] == '_' && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			b.WriteRune(unicode.ToUpper(runes[i+1]))
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// ToSnake рекурсивно переименовывает ключи всех вложенных объектов в snake_case.
func ToSnake(v any) any {
	return convert(v, SnakeKey)
}

// ToCamel рекурсивно переименовывает ключи всех вложенных объектов в camelCase.
func ToCamel(v any) any {
	return convert(v, CamelKey)
}

// SnakeMap — типизированная обёртка над ToSnake для записей верхнего уровня.
func SnakeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return convertMap(m, SnakeKey)
}

// CamelMap — типизированная обёртка над ToCamel для записей верхнего уровня.
func CamelMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return convertMap(m, CamelKey)
}

func convert(v any, key func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		return convertMap(t, key)
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = convertMap(item, key)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = convert(item, key)
		}
		return out
	default:
		return v
	}
}

func convertMap(m map[string]any, key func(string) string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[key(k)] = convert(v, key)
	}
	return out
}
