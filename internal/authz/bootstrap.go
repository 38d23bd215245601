package authz

import (
	"fmt"
	"sort"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Policies []Policy
}

// ActionGrant 一条“资源-动作-角色”授权
type ActionGrant struct {
	Object string
	Action string
	Roles  []string
}

// SeedsFromGrants 将动作授权表展开为按角色聚合的种子
func SeedsFromGrants(grants []ActionGrant) []RoleSeed {
	byRole := make(map[string][]Policy)
	for _, grant := range grants {
		for _, role := range grant.Roles {
			byRole[role] = append(byRole[role], Policy{
				Object: NormalizeObject(grant.Object),
				Action: NormalizeAction(grant.Action),
			})
		}
	}
	roles := make([]string, 0, len(byRole))
	for role := range byRole {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	seeds := make([]RoleSeed, 0, len(roles))
	for _, role := range roles {
		seeds = append(seeds, RoleSeed{Role: role, Policies: byRole[role]})
	}
	return seeds
}

// BootstrapRoles 初始化角色与策略（幂等）
func (s *Service) BootstrapRoles(seeds []RoleSeed) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range seeds {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
