package staff

import (
	"fmt"
	"strings"

	"github.com/printdesk-next/internal/authz"
	"github.com/printdesk-next/internal/constants"
	handlershared "github.com/printdesk-next/internal/http/handlers/shared"
	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAuthzRoles 角色列表（仅管理员）
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondServiceError(c, wrapAuthzError(err))
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 角色策略（仅管理员）
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}
	role, err := authz.NormalizeRole(c.Param("role"))
	if err != nil {
		respondBadRequest(c, "invalid role", err)
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondServiceError(c, wrapAuthzError(err))
		return
	}
	response.Success(c, policies)
}

// GrantAuthzRolePolicy 授予角色策略（仅管理员）
func (h *Handler) GrantAuthzRolePolicy(c *gin.Context) {
	actor, role, req, ok := h.bindRolePolicy(c)
	if !ok {
		return
	}
	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondServiceError(c, wrapAuthzError(err))
		return
	}
	handlershared.RequestLog(c).Infow("authz_policy_granted", "actor_id", actor.UserID, "role", role, "object", req.Object, "action", req.Action)
	h.respondRolePolicies(c, role, "policy granted")
}

// RevokeAuthzRolePolicy 撤销角色策略（仅管理员）
func (h *Handler) RevokeAuthzRolePolicy(c *gin.Context) {
	actor, role, req, ok := h.bindRolePolicy(c)
	if !ok {
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondServiceError(c, wrapAuthzError(err))
		return
	}
	handlershared.RequestLog(c).Infow("authz_policy_revoked", "actor_id", actor.UserID, "role", role, "object", req.Object, "action", req.Action)
	h.respondRolePolicies(c, role, "policy revoked")
}

// ReloadAuthzPolicy 从数据库重新加载策略（仅管理员）
func (h *Handler) ReloadAuthzPolicy(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}
	if err := h.AuthzService.ReloadPolicy(); err != nil {
		respondServiceError(c, wrapAuthzError(err))
		return
	}
	handlershared.RequestLog(c).Infow("authz_policy_reloaded", "actor_id", actor.UserID)
	response.SuccessWithMsg(c, "policy reloaded", nil)
}

// bindRolePolicy 校验路径角色与请求体，资源动作必须属于工作流授权清单
func (h *Handler) bindRolePolicy(c *gin.Context) (service.Actor, string, RolePolicyRequest, bool) {
	var req RolePolicyRequest
	actor, ok := h.requireAdmin(c)
	if !ok {
		return actor, "", req, false
	}
	rawRole := strings.ToLower(strings.TrimSpace(c.Param("role")))
	if !constants.IsKnownRole(rawRole) {
		respondServiceError(c, fmt.Errorf("%w: unknown role %q", service.ErrPolicyInvalid, rawRole))
		return actor, "", req, false
	}
	role, err := authz.NormalizeRole(rawRole)
	if err != nil {
		respondBadRequest(c, "invalid role", err)
		return actor, "", req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return actor, "", req, false
	}
	req.Object = authz.NormalizeObject(req.Object)
	req.Action = authz.NormalizeAction(req.Action)
	if !service.IsGrantableAction(req.Object, req.Action) {
		respondServiceError(c, fmt.Errorf("%w: %s/%s", service.ErrPolicyInvalid, req.Object, req.Action))
		return actor, "", req, false
	}
	return actor, role, req, true
}

func (h *Handler) respondRolePolicies(c *gin.Context, role, msg string) {
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondServiceError(c, wrapAuthzError(err))
		return
	}
	response.SuccessWithMsg(c, msg, policies)
}

func (h *Handler) requireAdmin(c *gin.Context) (service.Actor, bool) {
	actor, ok := getActor(c)
	if !ok {
		return actor, false
	}
	if !actor.IsAdmin() {
		respondServiceError(c, service.ErrTransitionForbidden)
		return actor, false
	}
	if h.AuthzService == nil {
		respondServiceError(c, service.ErrAuthzUnavailable)
		return actor, false
	}
	return actor, true
}

func wrapAuthzError(err error) error {
	return fmt.Errorf("%w: %w", service.ErrAuthzUnavailable, err)
}
