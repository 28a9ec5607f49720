package db

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
)

type ShippingRepo struct {
	db *DbDao
}

func NewShippingRepo(db *DbDao) *ShippingRepo {
	return &ShippingRepo{db: db}
}

func (s *ShippingRepo) CreateShippingSetting(ctx context.Context, setting *model.ShippingSetting) error {
	return s.db.WithContext(ctx).Create(setting).Error
}

func (s *ShippingRepo) GetActiveShippingSetting(ctx context.Context) (*model.ShippingSetting, error) {
	var setting model.ShippingSetting
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&setting).Error; err != nil {
		return nil, notFound(err, apperr.ErrShippingSettingNotFound)
	}
	return &setting, nil
}

func (s *ShippingRepo) GetShippingSettingByID(ctx context.Context, id uint) (*model.ShippingSetting, error) {
	var setting model.ShippingSetting
	if err := s.db.WithContext(ctx).First(&setting, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrShippingSettingNotFound)
	}
	return &setting, nil
}

func (s *ShippingRepo) DeactivateShippingSettings(ctx context.Context) error {
	return s.db.WithContext(ctx).Model(&model.ShippingSetting{}).
		Where("is_active = ?", true).
		Update("is_active", false).Error
}

// ActivateShippingSetting 呼叫前需先 DeactivateShippingSettings，否則違反唯一索引
func (s *ShippingRepo) ActivateShippingSetting(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&model.ShippingSetting{}).Where("id = ?", id).Update("is_active", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrShippingSettingNotFound
	}
	return nil
}

func (s *ShippingRepo) CreateStateFee(ctx context.Context, fee *model.StateFee) error {
	return s.db.WithContext(ctx).Create(fee).Error
}

// GetStateFee 州名不分大小寫
func (s *ShippingRepo) GetStateFee(ctx context.Context, state string) (*model.StateFee, error) {
	var fee model.StateFee
	err := s.db.WithContext(ctx).
		Where("LOWER(state) = ?", strings.ToLower(strings.TrimSpace(state))).
		First(&fee).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrStateFeeNotFound)
	}
	return &fee, nil
}

func (s *ShippingRepo) CreatePickupLocation(ctx context.Context, location *model.PickupLocation) error {
	return s.db.WithContext(ctx).Create(location).Error
}

func (s *ShippingRepo) GetPickupLocation(ctx context.Context, id uint) (*model.PickupLocation, error) {
	var location model.PickupLocation
	if err := s.db.WithContext(ctx).Where("active = ?", true).First(&location, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrPickupLocationNotFound)
	}
	return &location, nil
}
