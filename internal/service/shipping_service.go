package service

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ShippingSelection 結帳時選擇的配送方式
type ShippingSelection struct {
	Method           model.ShippingMethod
	PickupLocationID *uint
}

// DefaultFees 沒有任何啟用中的運費設定時使用
type DefaultFees struct {
	Standard decimal.Decimal
	Express  decimal.Decimal
	Pickup   decimal.Decimal
}

func (d DefaultFees) byMethod(method model.ShippingMethod) decimal.Decimal {
	switch method {
	case model.ShippingExpress:
		return d.Express
	case model.ShippingPickup:
		return d.Pickup
	default:
		return d.Standard
	}
}

type IShippingService interface {
	ResolveFee(ctx context.Context, selection ShippingSelection, state string) (decimal.Decimal, error)
	Activate(ctx context.Context, settingID uint) (*model.ShippingSetting, error)
}

type ShippingService struct {
	store    db.Store
	defaults DefaultFees
	logger   *zerolog.Logger
}

func NewShippingService(store db.Store, defaults DefaultFees, logger *zerolog.Logger) *ShippingService {
	return &ShippingService{store: store, defaults: defaults, logger: logger}
}

// ResolveFee 運費查找順序
//  1. 自取且指定取貨點 -> 取貨點運費
//  2. 啟用中設定為 state 模式 -> 州別運費
//  3. 啟用中設定的固定費率表
//  4. 沒有啟用中設定 -> 設定檔預設值
func (s *ShippingService) ResolveFee(ctx context.Context, selection ShippingSelection, state string) (decimal.Decimal, error) {
	return resolveFee(ctx, s.store, s.defaults, selection, state)
}

func resolveFee(ctx context.Context, store db.Store, defaults DefaultFees, selection ShippingSelection, state string) (decimal.Decimal, error) {
	if !selection.Method.IsValid() {
		return decimal.Zero, apperr.ErrInvalidShipping.WithMessage("unknown shipping method %q", selection.Method)
	}

	if selection.Method == model.ShippingPickup && selection.PickupLocationID != nil {
		location, err := store.GetPickupLocation(ctx, *selection.PickupLocationID)
		if err != nil {
			return decimal.Zero, err
		}
		return location.Fee, nil
	}

	setting, err := store.GetActiveShippingSetting(ctx)
	if err != nil {
		if apperr.HasCode(err, apperr.ErrShippingSettingNotFound.Code) {
			return defaults.byMethod(selection.Method), nil
		}
		return decimal.Zero, err
	}

	if setting.Mode == model.ShippingModeState && selection.Method != model.ShippingPickup {
		state = strings.TrimSpace(state)
		if state == "" {
			return decimal.Zero, apperr.ErrInvalidAddress.WithMessage("delivery state is required")
		}
		fee, err := store.GetStateFee(ctx, state)
		if err != nil {
			return decimal.Zero, err
		}
		return fee.Fee, nil
	}
	return setting.FlatFee(selection.Method), nil
}

// Activate 停用舊設定與啟用新設定在同一個 transaction
func (s *ShippingService) Activate(ctx context.Context, settingID uint) (*model.ShippingSetting, error) {
	var activated *model.ShippingSetting
	err := s.store.ExecTx(ctx, func(tx db.Store) error {
		setting, err := tx.GetShippingSettingByID(ctx, settingID)
		if err != nil {
			return err
		}
		if err := tx.DeactivateShippingSettings(ctx); err != nil {
			return err
		}
		if err := tx.ActivateShippingSetting(ctx, settingID); err != nil {
			return err
		}
		setting.IsActive = true
		activated = setting
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Uint("setting_id", settingID).Msg("shipping setting activated")
	return activated, nil
}
