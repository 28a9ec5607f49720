package db

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"gorm.io/gorm"
)

type ProductRepo struct {
	db *DbDao
}

func NewProductRepo(db *DbDao) *ProductRepo {
	return &ProductRepo{db: db}
}

func (s *ProductRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	return s.db.WithContext(ctx).Create(product).Error
}

func (s *ProductRepo) GetProductByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrProductNotFound)
	}
	return &product, nil
}

func (s *ProductRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&products).Error
	return products, err
}

// DeductProductStock 條件式扣庫存，庫存不足時不會有任何列被更新
// 錯誤:
//   - ErrStockUnavailable: 庫存不足或同時被其他訂單扣走
func (s *ProductRepo) DeductProductStock(ctx context.Context, id uint, quantity int) error {
	res := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrStockUnavailable
	}
	return nil
}

// AddProductStock 取消訂單或金流失敗時回補
func (s *ProductRepo) AddProductStock(ctx context.Context, id uint, quantity int) error {
	res := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}
