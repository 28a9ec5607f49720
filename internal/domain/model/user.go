package model

import "github.com/RoyceAzure/lab/marketplace/internal/constants"

// 認證不在這個服務，這裡只保留通知與商家歸屬需要的欄位
type User struct {
	ID    uint           `gorm:"primaryKey" json:"id"`
	Name  string         `gorm:"not null;type:varchar(100)" json:"name"`
	Email string         `gorm:"not null;type:varchar(255);uniqueIndex" json:"email"`
	Role  constants.Role `gorm:"not null;type:varchar(20)" json:"role"`
	BaseModel
}
