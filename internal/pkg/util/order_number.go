package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// GenerateOrderNumber 時間戳 + 隨機後綴
// 同時作為金流的 idempotent reference，所以必須全域唯一
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102150405"), suffix)
}

// ToMinorUnits 金額轉最小貨幣單位(分)，四捨五入到整數
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits 最小貨幣單位轉回兩位小數金額
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
