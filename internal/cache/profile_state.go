package cache

import (
	"context"
	"fmt"
	"time"
)

const profileStateCacheTTL = 5 * time.Minute

// ProfileState 用户档案快照：身份标识到租户与角色的映射
type ProfileState struct {
	UserID    string `json:"user_id"`
	CompanyID uint   `json:"company_id"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
}

func profileStateKey(userID string) string {
	return fmt.Sprintf("auth:profile:%s", userID)
}

// GetProfileState 获取档案快照
func GetProfileState(ctx context.Context, userID string) (*ProfileState, bool, error) {
	if userID == "" {
		return nil, false, nil
	}
	var state ProfileState
	hit, err := GetJSON(ctx, profileStateKey(userID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetProfileState 写入档案快照
func SetProfileState(ctx context.Context, state *ProfileState) error {
	if state == nil || state.UserID == "" {
		return nil
	}
	return SetJSON(ctx, profileStateKey(state.UserID), state, profileStateCacheTTL)
}

// DelProfileState 删除档案快照
func DelProfileState(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return Del(ctx, profileStateKey(userID))
}
