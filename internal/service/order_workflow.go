package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/printdesk-next/internal/authz"
	"github.com/printdesk-next/internal/constants"
)

// workflowRule 一条状态流转规则
type workflowRule struct {
	Action          string
	From            []string
	To              string
	Roles           []string
	FileType        string // 非空时该动作登记上传文件为此类型
	RequiresFiles   bool
	RequiresComment bool // 必须附带反馈
	ArchiveMockups  bool
	ConfirmPayment  bool
	Details         string
}

var allRoles = constants.Roles()

// workflowRules 状态流转表，顺序即界面展示顺序
var workflowRules = []workflowRule{
	{
		Action:  constants.ActionStartDesign,
		From:    []string{constants.OrderStatusReadyForDesign, constants.OrderStatusNew},
		To:      constants.OrderStatusInDesign,
		Roles:   []string{constants.RoleDesigner},
		Details: "Started working on design",
	},
	{
		Action:        constants.ActionSubmitMockup,
		From:          []string{constants.OrderStatusInDesign, constants.OrderStatusDesignRevision},
		To:            constants.OrderStatusDesignApproval,
		Roles:         []string{constants.RoleDesigner},
		FileType:      constants.FileTypeDesignMockup,
		RequiresFiles: true,
		Details:       "Submitted design mockups",
	},
	{
		Action:  constants.ActionApproveDesign,
		From:    []string{constants.OrderStatusDesignApproval},
		To:      constants.OrderStatusWaitingForPrintFile,
		Roles:   []string{constants.RoleSales, constants.RoleAdmin},
		Details: "Design approved",
	},
	{
		Action:          constants.ActionRequestRevision,
		From:            []string{constants.OrderStatusDesignApproval},
		To:              constants.OrderStatusDesignRevision,
		Roles:           []string{constants.RoleSales, constants.RoleAdmin},
		RequiresComment: true,
		ArchiveMockups:  true,
		Details:         "Requested design revision",
	},
	{
		Action:        constants.ActionUploadPrintFile,
		From:          []string{constants.OrderStatusWaitingForPrintFile},
		To:            constants.OrderStatusPendingPayment,
		Roles:         []string{constants.RoleDesigner},
		FileType:      constants.FileTypePrintFile,
		RequiresFiles: true,
		Details:       "Uploaded print files",
	},
	{
		Action:         constants.ActionConfirmPayment,
		From:           []string{constants.OrderStatusPendingPayment},
		To:             constants.OrderStatusReadyForProduction,
		Roles:          []string{constants.RoleAccountant, constants.RoleAdmin},
		ConfirmPayment: true,
		Details:        "Payment confirmed",
	},
	{
		Action:  constants.ActionStartProduction,
		From:    []string{constants.OrderStatusReadyForProduction},
		To:      constants.OrderStatusInProduction,
		Roles:   []string{constants.RoleProduction, constants.RoleAdmin},
		Details: "Production started",
	},
	{
		Action:  constants.ActionMarkReady,
		From:    []string{constants.OrderStatusInProduction},
		To:      constants.OrderStatusReadyForPickup,
		Roles:   []string{constants.RoleProduction, constants.RoleAdmin},
		Details: "Order is ready for pickup",
	},
	{
		Action:  constants.ActionMarkDelivered,
		From:    []string{constants.OrderStatusReadyForPickup},
		To:      constants.OrderStatusDelivered,
		Roles:   allRoles,
		Details: "Order delivered",
	},
}

// 非流转类动作的角色授权
var orderActionRoles = map[string][]string{
	constants.ActionCreate:        {constants.RoleSales, constants.RoleAdmin},
	constants.ActionEditItems:     {constants.RoleSales, constants.RoleAdmin},
	constants.ActionRecordPayment: {constants.RoleAccountant, constants.RoleAdmin},
}

var quotationActionRoles = map[string][]string{
	constants.ActionCreate:    {constants.RoleSales, constants.RoleAdmin},
	constants.ActionEditItems: {constants.RoleSales, constants.RoleAdmin},
	constants.ActionConvert:   {constants.RoleSales, constants.RoleAdmin},
}

// 各角色工作队列关注的状态
var workQueueStatuses = map[string][]string{
	constants.RoleDesigner: {
		constants.OrderStatusReadyForDesign,
		constants.OrderStatusInDesign,
		constants.OrderStatusDesignRevision,
		constants.OrderStatusWaitingForPrintFile,
	},
	constants.RoleSales:      {constants.OrderStatusDesignApproval},
	constants.RoleAccountant: {constants.OrderStatusPendingPayment},
	constants.RoleProduction: {
		constants.OrderStatusReadyForProduction,
		constants.OrderStatusInProduction,
		constants.OrderStatusReadyForPickup,
	},
}

// 不可再编辑订单项的状态
var itemsLockedStatuses = map[string]struct{}{
	constants.OrderStatusReadyForProduction: {},
	constants.OrderStatusInProduction:       {},
	constants.OrderStatusReadyForPickup:     {},
	constants.OrderStatusDelivered:          {},
}

func lookupRule(action string) (workflowRule, bool) {
	normalized := strings.ToLower(strings.TrimSpace(action))
	for _, rule := range workflowRules {
		if rule.Action == normalized {
			return rule, true
		}
	}
	return workflowRule{}, false
}

func (r workflowRule) allowsFrom(status string) bool {
	return containsString(r.From, status)
}

func (r workflowRule) allowsRole(role string) bool {
	return containsString(r.Roles, role)
}

// InitialStatus 新订单的初始状态
func InitialStatus(requiresDesign bool) string {
	if requiresDesign {
		return constants.OrderStatusReadyForDesign
	}
	return constants.OrderStatusPendingPayment
}

// AvailableActions 角色在当前状态下可执行的动作
func AvailableActions(status, role string) []string {
	actions := make([]string, 0, 2)
	for _, rule := range workflowRules {
		if rule.allowsFrom(status) && rule.allowsRole(role) {
			actions = append(actions, rule.Action)
		}
	}
	return actions
}

// NextRoles 负责推进该状态的角色
func NextRoles(status string) []string {
	seen := make(map[string]struct{})
	roles := make([]string, 0, len(allRoles))
	for _, rule := range workflowRules {
		if !rule.allowsFrom(status) {
			continue
		}
		for _, role := range rule.Roles {
			if _, ok := seen[role]; ok {
				continue
			}
			seen[role] = struct{}{}
			roles = append(roles, role)
		}
	}
	return roles
}

// WorkQueueStatuses 角色工作队列的状态集合；管理员为全部未交付状态
func WorkQueueStatuses(role string) []string {
	if role == constants.RoleAdmin {
		statuses := make([]string, 0, len(constants.OrderStatusCatalog()))
		for _, status := range constants.OrderStatusCatalog() {
			if status != constants.OrderStatusDelivered {
				statuses = append(statuses, status)
			}
		}
		return statuses
	}
	return append([]string(nil), workQueueStatuses[role]...)
}

// WorkflowGrants 由流转表生成的授权清单
func WorkflowGrants() []authz.ActionGrant {
	grants := make([]authz.ActionGrant, 0, len(workflowRules)+len(orderActionRoles)+len(quotationActionRoles))
	for _, rule := range workflowRules {
		grants = append(grants, authz.ActionGrant{Object: authz.ObjectOrder, Action: rule.Action, Roles: rule.Roles})
	}
	for _, action := range sortedKeys(orderActionRoles) {
		grants = append(grants, authz.ActionGrant{Object: authz.ObjectOrder, Action: action, Roles: orderActionRoles[action]})
	}
	for _, action := range sortedKeys(quotationActionRoles) {
		grants = append(grants, authz.ActionGrant{Object: authz.ObjectQuotation, Action: action, Roles: quotationActionRoles[action]})
	}
	return grants
}

// IsGrantableAction 判定资源动作是否出现在授权清单中
func IsGrantableAction(object, action string) bool {
	for _, grant := range WorkflowGrants() {
		if grant.Object == object && grant.Action == action {
			return true
		}
	}
	return false
}

// BuiltinRoleSeeds 预置角色授权种子
func BuiltinRoleSeeds() []authz.RoleSeed {
	return authz.SeedsFromGrants(WorkflowGrants())
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ActionAuthorizer 角色动作授权判定
type ActionAuthorizer interface {
	EnforceObjectAction(role, object, action string) (bool, error)
}

// permits 判定角色能否执行动作；未配置授权服务时按内置表判定
func permits(authorizer ActionAuthorizer, role, object, action string) error {
	if authorizer != nil {
		allowed, err := authorizer.EnforceObjectAction(role, object, action)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAuthzUnavailable, err)
		}
		if !allowed {
			return ErrTransitionForbidden
		}
		return nil
	}
	if !builtinPermits(role, object, action) {
		return ErrTransitionForbidden
	}
	return nil
}

func builtinPermits(role, object, action string) bool {
	switch object {
	case authz.ObjectQuotation:
		return containsString(quotationActionRoles[action], role)
	default:
		if rule, ok := lookupRule(action); ok {
			return rule.allowsRole(role)
		}
		return containsString(orderActionRoles[action], role)
	}
}
