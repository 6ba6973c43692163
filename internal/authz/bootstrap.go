package authz

import (
	"fmt"

	"github.com/mailpulse/mailpulse/internal/constants"
)

const managerRoleName = constants.RoleManager

// managerCapabilities 经理角色的能力矩阵：
// 跨租户读取三类实体、停用邮件活动、封禁账号。
func managerCapabilities() []Capability {
	return []Capability{
		{Object: constants.AuthzObjectRecipients, Action: constants.AuthzActionViewAll},
		{Object: constants.AuthzObjectMessages, Action: constants.AuthzActionViewAll},
		{Object: constants.AuthzObjectMailings, Action: constants.AuthzActionViewAll},
		{Object: constants.AuthzObjectMailings, Action: constants.AuthzActionDisable},
		{Object: constants.AuthzObjectAccounts, Action: constants.AuthzActionBlock},
	}
}

// BootstrapManagerRole 确保经理角色及其能力策略存在
func (s *Service) BootstrapManagerRole() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	for _, capability := range managerCapabilities() {
		if err := s.GrantRolePolicy(managerRoleName, capability.Object, capability.Action); err != nil {
			return fmt.Errorf("seed manager capability %s:%s failed: %w", capability.Object, capability.Action, err)
		}
	}
	return nil
}

// GrantManager 将账号加入经理角色
func (s *Service) GrantManager(userID uint) error {
	if userID == 0 {
		return fmt.Errorf("user id is required")
	}
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	subject := SubjectForUser(userID)
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, RoleSubject(managerRoleName)); err != nil {
		return fmt.Errorf("grant manager role failed: %w", err)
	}
	return s.saveAndReload()
}
