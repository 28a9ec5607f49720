package model

import "github.com/RoyceAzure/lab/marketplace/internal/constants"

// Identity 上游認證層轉送的身分，未登入時只有 SessionID
type Identity struct {
	UserID    uint
	SessionID string
	Role      constants.Role
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}

// CartOwner 會員優先，沒有就用 session
func (i Identity) CartOwner() (CartOwner, error) {
	return NewCartOwner(i.UserID, i.SessionID)
}
