// Package messageprovider: 임베드된 YAML 카탈로그에서 사용자 노출 문자열을 조회한다.
// 점(.) 구분 키와 {param} 치환을 지원한다.
package messageprovider

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider: YAML 메시지 카탈로그의 조회 창구입니다.
type Provider struct {
	root map[string]any
}

// NewFromYAML: YAML 문자열로부터 Provider를 생성합니다.
func NewFromYAML(yamlContent string) (*Provider, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(yamlContent), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal yaml failed: %w", err)
	}

	if raw == nil {
		return &Provider{root: make(map[string]any)}, nil
	}

	root, ok := normalizeYAMLValue(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected yaml root type: %T", raw)
	}

	return &Provider{root: root}, nil
}

// Get: 점 구분 키로 메시지를 조회하고 {param}을 치환합니다.
// 키가 없으면 키 자체를 반환합니다.
func (p *Provider) Get(key string, params ...Param) string {
	if p == nil {
		return key
	}
	if strings.TrimSpace(key) == "" {
		return key
	}

	value, ok := resolveDottedKey(p.root, key)
	if !ok {
		return key
	}

	template, ok := value.(string)
	if !ok {
		return fmt.Sprint(value)
	}

	out := template
	for _, param := range params {
		out = strings.ReplaceAll(out, "{"+param.Key+"}", fmt.Sprint(param.Value))
	}
	return out
}

// Param: 메시지 치환 파라미터입니다.
type Param struct {
	Key   string
	Value any
}

// P: Param 생성 축약 함수입니다.
func P(key string, value any) Param {
	return Param{Key: key, Value: value}
}

func resolveDottedKey(root map[string]any, key string) (any, bool) {
	parts := strings.Split(key, ".")
	var current any = root

	for _, part := range parts {
		nextMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := nextMap[part]
		if !ok {
			return nil, false
		}
		current = next
	}

	return current, true
}

func normalizeYAMLValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, vv := range typed {
			out[k] = normalizeYAMLValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, vv := range typed {
			out[fmt.Sprint(k)] = normalizeYAMLValue(vv)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, vv := range typed {
			out = append(out, normalizeYAMLValue(vv))
		}
		return out
	default:
		return v
	}
}
