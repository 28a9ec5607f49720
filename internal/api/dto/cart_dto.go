package dto

import "github.com/RoyceAzure/lab/marketplace/internal/domain/model"

type AddCartItemRequest struct {
	ProductID       uint              `json:"productId" validate:"required"`
	Quantity        int               `json:"quantity" validate:"required,min=1"`
	SelectedOptions map[string]string `json:"selectedOptions" validate:"omitempty,max=20,options,dive,keys,required,max=50,endkeys,max=100"`
}

func (r AddCartItemRequest) Options() model.SelectedOptions {
	return model.SelectedOptions(r.SelectedOptions)
}

type UpdateCartItemRequest struct {
	Quantity        int               `json:"quantity" validate:"required,min=1"`
	SelectedOptions map[string]string `json:"selectedOptions" validate:"omitempty,max=20,options"`
}

func (r UpdateCartItemRequest) Options() model.SelectedOptions {
	return model.SelectedOptions(r.SelectedOptions)
}

// RemoveCartItemRequest body 可省略，沒有選項時移除該商品所有明細
type RemoveCartItemRequest struct {
	SelectedOptions map[string]string `json:"selectedOptions" validate:"omitempty,max=20,options"`
}

func (r RemoveCartItemRequest) Options() model.SelectedOptions {
	if r.SelectedOptions == nil {
		return nil
	}
	return model.SelectedOptions(r.SelectedOptions)
}

// MergeCartRequest sessionId 沒給時使用 X-Session-ID
type MergeCartRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=100"`
}
