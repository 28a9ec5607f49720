package db

import (
	"context"

	"gorm.io/gorm"
)

type SQLStore struct {
	db *DbDao
	*UserRepo
	*ProductRepo
	*CartRepo
	*CouponRepo
	*OrderRepo
	*ShippingRepo
}

func NewStore(db *DbDao) *SQLStore {
	return &SQLStore{
		db:           db,
		UserRepo:     NewUserRepo(db),
		ProductRepo:  NewProductRepo(db),
		CartRepo:     NewCartRepo(db),
		CouponRepo:   NewCouponRepo(db),
		OrderRepo:    NewOrderRepo(db),
		ShippingRepo: NewShippingRepo(db),
	}
}

// ExecTx fn 回傳錯誤時整個 transaction rollback
// fn 內只能使用傳入的 Store，sqlite 只有一條連線，用外層 Store 會卡住
func (s *SQLStore) ExecTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(NewDbDao(tx)))
	})
}
