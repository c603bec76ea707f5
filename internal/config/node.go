package config

import "strconv"

// Node - нетипизированный узел конфигурации (как его разбирает yaml.v3 в map[string]interface{}).
// Из таких узлов собираются шейдеры и модели освещения, у которых набор ключей заранее не известен.
type Node map[string]interface{}

// GetString возвращает строку или def
func (n Node) GetString(key, def string) string {
	if v, ok := n[key]; ok && v != nil {
		switch s := v.(type) {
		case string:
			return s
		case int:
			return strconv.Itoa(s)
		}
	}
	return def
}

// GetInt возвращает целое или def. Дробные значения отбрасываются до целого.
func (n Node) GetInt(key string, def int) int {
	switch v := n[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// GetFloat возвращает число с плавающей точкой или def
func (n Node) GetFloat(key string, def float64) float64 {
	switch v := n[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// GetBool возвращает логическое значение или def
func (n Node) GetBool(key string, def bool) bool {
	switch v := n[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// GetList возвращает список или nil
func (n Node) GetList(key string) []interface{} {
	switch v := n[key].(type) {
	case []interface{}:
		return v
	case []int:
		out := make([]interface{}, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out
	}
	return nil
}
