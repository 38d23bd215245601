package authz

import (
	"fmt"
	"strings"
	"testing"

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

func TestEnforceActionWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("designer", ObjectOrder, "start_design"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}

	allow, err := svc.EnforceAction("designer", "START_DESIGN")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceAction("designer", "approve_design")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}

	allow, err = svc.EnforceAction("sales", "start_design")
	if err != nil {
		t.Fatalf("enforce other role failed: %v", err)
	}
	if allow {
		t.Fatalf("expected sales to be denied")
	}
}

func TestEnforceActionRejectsEmptyRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if _, err := svc.EnforceAction("  ", "start_design"); err == nil {
		t.Fatalf("expected error for empty role")
	}
}

func TestSeedsFromGrantsGroupsByRole(t *testing.T) {
	seeds := SeedsFromGrants([]ActionGrant{
		{Object: ObjectOrder, Action: "approve_design", Roles: []string{"sales", "admin"}},
		{Object: ObjectOrder, Action: "mark_ready", Roles: []string{"production", "admin"}},
	})
	if len(seeds) != 3 {
		t.Fatalf("expected 3 role seeds, got %d", len(seeds))
	}
	if seeds[0].Role != "admin" || len(seeds[0].Policies) != 2 {
		t.Fatalf("admin seed should carry 2 policies, got %+v", seeds[0])
	}
}

func TestBootstrapRolesIdempotent(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	seeds := SeedsFromGrants([]ActionGrant{
		{Object: ObjectOrder, Action: "confirm_payment", Roles: []string{"accountant", "admin"}},
	})
	if err := svc.BootstrapRoles(seeds); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if err := svc.BootstrapRoles(seeds); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	policies, err := svc.GetRolePolicies("accountant")
	if err != nil {
		t.Fatalf("get policies failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Action != "confirm_payment" {
		t.Fatalf("unexpected accountant policies: %+v", policies)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if strings.Join(roles, ",") != "role:accountant,role:admin" {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("production", ObjectOrder, "mark_ready"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := svc.RevokeRolePolicy("production", ObjectOrder, "mark_ready"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, err := svc.EnforceAction("production", "mark_ready")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if allow {
		t.Fatalf("expected revoked policy to deny")
	}
}
