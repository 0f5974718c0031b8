package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 列的通用编解码
func valueJSON(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(dst any, src any) error {
	switch data := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(data) == 0 {
			return nil
		}
		return json.Unmarshal(data, dst)
	case string:
		if data == "" {
			return nil
		}
		return json.Unmarshal([]byte(data), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}

// StringList 以 JSON 存储的字符串数组
type StringList []string

func (l StringList) Value() (driver.Value, error) { return valueJSON([]string(l)) }
func (l *StringList) Scan(src any) error          { return scanJSON(l, src) }
