package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// 錯誤欄位名稱用 json tag，跟前端送來的一致
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("options", validOptions)
	})
	return validate
}

// validOptions 商品選項序列化後不可超過明細唯一鍵長度
func validOptions(fl validator.FieldLevel) bool {
	m, ok := fl.Field().Interface().(map[string]string)
	if !ok {
		return false
	}
	return model.SelectedOptions(m).Fits()
}

// Validate 欄位錯誤轉成 INVALID_REQUEST，errors 為 {欄位: 規則}
func Validate(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.ErrInvalidRequest.Wrap(err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fieldPath(fe)] = rule
	}
	e := apperr.ErrInvalidRequest.WithMessage("request validation failed")
	e.Fields = fields
	return e
}

// fieldPath 去掉最外層 struct 名稱 ex: CheckoutRequest.deliveryAddress.phone -> deliveryAddress.phone
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Decode 讀取 JSON body 後做欄位驗證
// allowEmpty 為 true 時空 body 視為零值
func Decode(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return apperr.ErrInvalidRequest.Wrap(fmt.Errorf("decoding body: %w", err))
		}
	}
	return Validate(v)
}
