package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mailpulse/mailpulse/internal/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestBootstrapManagerRoleGrantsCapabilities(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapManagerRole(); err != nil {
		t.Fatalf("bootstrap manager role failed: %v", err)
	}
	if err := svc.GrantManager(7); err != nil {
		t.Fatalf("grant manager failed: %v", err)
	}

	checks := []struct {
		object string
		action string
	}{
		{constants.AuthzObjectRecipients, constants.AuthzActionViewAll},
		{constants.AuthzObjectMessages, constants.AuthzActionViewAll},
		{constants.AuthzObjectMailings, constants.AuthzActionViewAll},
		{constants.AuthzObjectMailings, constants.AuthzActionDisable},
		{constants.AuthzObjectAccounts, constants.AuthzActionBlock},
	}
	for _, check := range checks {
		allow, err := svc.HasCapability(7, check.object, check.action)
		if err != nil {
			t.Fatalf("has capability %s:%s failed: %v", check.object, check.action, err)
		}
		if !allow {
			t.Fatalf("manager should have %s:%s", check.object, check.action)
		}
	}

	isManager, err := svc.IsManager(7)
	if err != nil {
		t.Fatalf("is manager failed: %v", err)
	}
	if !isManager {
		t.Fatalf("expected user 7 to be manager")
	}
}

func TestPlainUserHasNoManagerCapabilities(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapManagerRole(); err != nil {
		t.Fatalf("bootstrap manager role failed: %v", err)
	}

	allow, err := svc.HasCapability(42, constants.AuthzObjectMailings, constants.AuthzActionDisable)
	if err != nil {
		t.Fatalf("has capability failed: %v", err)
	}
	if allow {
		t.Fatalf("plain user must not disable mailings")
	}

	isManager, err := svc.IsManager(42)
	if err != nil {
		t.Fatalf("is manager failed: %v", err)
	}
	if isManager {
		t.Fatalf("plain user must not be manager")
	}
}

func TestSetUserRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("auditor", constants.AuthzObjectMailings, constants.AuthzActionViewAll); err != nil {
		t.Fatalf("grant auditor policy failed: %v", err)
	}

	if err := svc.SetUserRoles(3, []string{constants.RoleManager}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	if err := svc.SetUserRoles(3, []string{"auditor"}); err != nil {
		t.Fatalf("override roles failed: %v", err)
	}

	roles, err := svc.GetUserRoles(3)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "auditor" {
		t.Fatalf("roles want [auditor], got %v", roles)
	}

	isManager, err := svc.IsManager(3)
	if err != nil {
		t.Fatalf("is manager failed: %v", err)
	}
	if isManager {
		t.Fatalf("override should have removed manager role")
	}
}
