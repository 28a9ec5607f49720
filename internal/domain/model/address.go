package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
)

// DeliveryAddress 訂單收件資訊，以 JSON 存在 orders.delivery_address
type DeliveryAddress struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName,omitempty"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Validate 必填: firstName, address, city, country, phone
func (a DeliveryAddress) Validate() error {
	fields := map[string]string{}
	required := map[string]string{
		"firstName": a.FirstName,
		"address":   a.Address,
		"city":      a.City,
		"country":   a.Country,
		"phone":     a.Phone,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			fields[name] = "required"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	e := apperr.ErrInvalidAddress.WithMessage("delivery address is incomplete")
	e.Fields = fields
	return e
}

func (a DeliveryAddress) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 讀回時也做結構檢查，資料壞掉直接回錯不要帶著半殘地址往下走
func (a *DeliveryAddress) Scan(src any) error {
	raw, err := scanText(src)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var decoded DeliveryAddress
	if err := dec.Decode(&decoded); err != nil {
		return apperr.ErrMalformedStoreData.Wrap(fmt.Errorf("delivery address: %w", err))
	}
	if err := decoded.Validate(); err != nil {
		return apperr.ErrMalformedStoreData.Wrap(fmt.Errorf("delivery address: %w", err))
	}
	*a = decoded
	return nil
}
