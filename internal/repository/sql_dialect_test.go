package repository

import (
	"strings"
	"testing"
)

func TestBuildLikeConditionSQLite(t *testing.T) {
	condition, argCount := buildLikeCondition(nil, []string{"client_name", " ", "order_no"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "client_name LIKE ? OR order_no LIKE ?" {
		t.Fatalf("unexpected condition: %s", condition)
	}
}

func TestBuildLikeConditionPostgres(t *testing.T) {
	condition, _ := buildLikeConditionByDialect("postgres", []string{"email"})
	if !strings.Contains(condition, "email ILIKE ?") {
		t.Fatalf("postgres condition should use ILIKE, got %s", condition)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
