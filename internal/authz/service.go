package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	casbinTableName = "casbin_rule"
	userSubjectFmt  = "user:%d"
	rolePrefix      = "role:"
)

const defaultRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

// Capability 能力定义：对某类对象执行某个动作
type Capability struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

// Service Casbin 授权服务
// 统一封装角色成员关系与能力判定；经理身份即 manager 角色成员。
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}

	m, err := model.NewModelFromString(defaultRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	return &Service{enforcer: enforcer}, nil
}

// Enforce 执行授权判断
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), normalize(obj), normalize(act))
}

// HasCapability 判定账号是否具备某能力
func (s *Service) HasCapability(userID uint, obj, act string) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.Enforce(SubjectForUser(userID), obj, act)
}

// IsManager 判定账号是否属于经理角色
func (s *Service) IsManager(userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	if s == nil || s.enforcer == nil {
		return false, fmt.Errorf("authz service unavailable")
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForUser(userID))
	if err != nil {
		return false, fmt.Errorf("get user roles failed: %w", err)
	}
	for _, role := range roles {
		if role == RoleSubject(managerRoleName) {
			return true, nil
		}
	}
	return false, nil
}

// GrantRolePolicy 为角色授予能力
func (s *Service) GrantRolePolicy(role, object, action string) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	normalizedAction := normalize(action)
	if normalizedAction == "" {
		return fmt.Errorf("action is required")
	}

	added, err := s.enforcer.AddPolicy(RoleSubject(role), normalize(object), normalizedAction)
	if err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	if added {
		return s.saveAndReload()
	}
	return nil
}

// GetRolePolicies 查询角色能力列表
func (s *Service) GetRolePolicies(role string) ([]Capability, error) {
	if s == nil || s.enforcer == nil {
		return nil, fmt.Errorf("authz service unavailable")
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, RoleSubject(role))
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	capabilities := make([]Capability, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		capabilities = append(capabilities, Capability{Object: rule[1], Action: rule[2]})
	}
	sort.Slice(capabilities, func(i, j int) bool {
		if capabilities[i].Object != capabilities[j].Object {
			return capabilities[i].Object < capabilities[j].Object
		}
		return capabilities[i].Action < capabilities[j].Action
	})
	return capabilities, nil
}

// SetUserRoles 覆盖设置账号角色
func (s *Service) SetUserRoles(userID uint, roles []string) error {
	if userID == 0 {
		return fmt.Errorf("user id is required")
	}
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	subject := SubjectForUser(userID)

	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear user roles failed: %w", err)
	}

	for _, role := range roles {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, RoleSubject(role)); err != nil {
			return fmt.Errorf("assign user role failed: %w", err)
		}
	}

	return s.saveAndReload()
}

// GetUserRoles 查询账号角色
func (s *Service) GetUserRoles(userID uint) ([]string, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user id is required")
	}
	if s == nil || s.enforcer == nil {
		return nil, fmt.Errorf("authz service unavailable")
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForUser(userID))
	if err != nil {
		return nil, fmt.Errorf("get user roles failed: %w", err)
	}
	filtered := make([]string, 0, len(roles))
	for _, role := range roles {
		if !strings.HasPrefix(role, rolePrefix) {
			continue
		}
		filtered = append(filtered, strings.TrimPrefix(role, rolePrefix))
	}
	sort.Strings(filtered)
	return filtered, nil
}

// SubjectForUser 拼装账号主体标识
func SubjectForUser(userID uint) string {
	return fmt.Sprintf(userSubjectFmt, userID)
}

// RoleSubject 拼装角色主体标识
func RoleSubject(role string) string {
	normalized := normalize(role)
	if strings.HasPrefix(normalized, rolePrefix) {
		return normalized
	}
	return rolePrefix + normalized
}

func (s *Service) saveAndReload() error {
	if err := s.enforcer.SavePolicy(); err != nil {
		return fmt.Errorf("save authz policy failed: %w", err)
	}
	if err := s.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("reload authz policy failed: %w", err)
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
