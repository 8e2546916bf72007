package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// normalize приводит значение к виду, который получается после JSON-декодирования:
// строки, float64, bool, map[string]any, []any или nil.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, float64, bool:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case Record:
		return normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}

	// Прочие типы (например, decimal.Decimal) проходят через JSON.
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return string(data)
	}
	return out
}

// compare сравнивает нормализованные значения. nil меньше любого значения,
// строки в формате RFC 3339 сравниваются как моменты времени.
func compare(a, b any) int {
	a, b = normalize(a), normalize(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr && bStr {
		ta, errA := time.Parse(time.RFC3339Nano, sa)
		tb, errB := time.Parse(time.RFC3339Nano, sb)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
		if fa, errA := strconv.ParseFloat(sa, 64); errA == nil {
			if fb, errB := strconv.ParseFloat(sb, 64); errB == nil {
				return compare(fa, fb)
			}
		}
		return strings.Compare(sa, sb)
	}

	return strings.Compare(textOf(a), textOf(b))
}

func equal(a, b any) bool {
	na, nb := normalize(a), normalize(b)
	if reflect.DeepEqual(na, nb) {
		return true
	}
	_, aMap := na.(map[string]any)
	_, aSlice := na.([]any)
	if aMap || aSlice {
		return false
	}
	return na != nil && nb != nil && compare(na, nb) == 0
}

// textOf возвращает текстовое представление значения для передачи в SQL
// или в строку запроса REST-бэкенда.
func textOf(v any) string {
	switch t := normalize(v).(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

// sqlParam возвращает параметр запроса: строку или nil для NULL.
func sqlParam(v any) any {
	if normalize(v) == nil {
		return nil
	}
	return textOf(v)
}

func matches(rec Record, filters []Filter) bool {
	for _, f := range filters {
		v := rec[f.Column]
		switch f.Op {
		case OpEq:
			if !equal(v, f.Value) {
				return false
			}
		case OpGt:
			if v == nil || compare(v, f.Value) <= 0 {
				return false
			}
		case OpIn:
			found := false
			for _, candidate := range inValues(f.Value) {
				if equal(v, candidate) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func inValues(v any) []any {
	if vs, ok := v.([]any); ok {
		return vs
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}
