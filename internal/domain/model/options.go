package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
)

// MaxOptionsKeyLength 與 cart_items.options_key 欄位長度一致
const MaxOptionsKeyLength = 512

// SelectedOptions 商品選項 ex: {"size": "M", "color": "red"}
// 無序，存入DB時序列化為 key 排序後的 JSON，同時作為購物車明細唯一鍵的一部分
type SelectedOptions map[string]string

// Key 正規化後的字串，nil 與空 map 相同
func (o SelectedOptions) Key() string {
	if len(o) == 0 {
		return "{}"
	}
	// encoding/json 對 map key 會排序
	b, _ := json.Marshal(map[string]string(o))
	return string(b)
}

// Fits 序列化後能否放進 options_key
func (o SelectedOptions) Fits() bool {
	return len(o.Key()) <= MaxOptionsKeyLength
}

func (o SelectedOptions) Equal(other SelectedOptions) bool {
	return o.Key() == other.Key()
}

func (o SelectedOptions) Value() (driver.Value, error) {
	return o.Key(), nil
}

func (o *SelectedOptions) Scan(src any) error {
	raw, err := scanText(src)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*o = SelectedOptions{}
		return nil
	}
	decoded := map[string]string{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return apperr.ErrMalformedStoreData.Wrap(fmt.Errorf("selected options: %w", err))
	}
	*o = decoded
	return nil
}

func scanText(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, apperr.ErrMalformedStoreData.Wrap(fmt.Errorf("unsupported column type %T", src))
	}
}
