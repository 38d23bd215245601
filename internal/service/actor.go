package service

import (
	"strings"

	"github.com/printdesk-next/internal/constants"
)

// Actor 当前操作人
type Actor struct {
	UserID    string
	CompanyID uint
	Role      string
}

// Validate 校验操作人
func (a Actor) Validate() error {
	if strings.TrimSpace(a.UserID) == "" || a.CompanyID == 0 {
		return ErrInvalidActor
	}
	if !constants.IsKnownRole(a.Role) {
		return ErrInvalidActor
	}
	return nil
}

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool {
	return a.Role == constants.RoleAdmin
}
