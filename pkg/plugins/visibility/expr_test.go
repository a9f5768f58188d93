package visibility_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/plugins/visibility"
)

func TestRuleEval(t *testing.T) {
	scope := visibility.Scope{
		Values: map[string]any{
			"plan":       "pro",
			"seats":      float64(12),
			"newsletter": true,
			"owner":      map[string]any{"name": "Ada", "email": ""},
			"tags":       []any{"go"},
			"coupon":     nil,
		},
		Extras: map[string]any{
			"role":    "admin",
			"account": map[string]any{"tier": float64(2)},
		},
	}

	cases := []struct {
		rule string
		want bool
	}{
		{rule: "", want: true},
		{rule: "newsletter", want: true},
		{rule: "!newsletter", want: false},
		{rule: "owner.email", want: false},
		{rule: "owner.name", want: true},
		{rule: "tags", want: true},
		{rule: "missing", want: false},
		{rule: `plan == "pro"`, want: true},
		{rule: "plan == 'free'", want: false},
		{rule: "plan != free", want: true},
		{rule: "seats > 10", want: true},
		{rule: "seats <= 10", want: false},
		{rule: "seats >= 12 && seats < 13", want: true},
		{rule: "seats == 12", want: true},
		{rule: "missing > 1", want: false},
		{rule: "missing != 1", want: true},
		{rule: "newsletter == false", want: false},
		{rule: "coupon == null", want: true},
		{rule: "owner.name != nil", want: true},
		{rule: `plan == "free" || newsletter`, want: true},
		{rule: `!(plan == "pro" && newsletter)`, want: false},
		{rule: `extras.role == "admin"`, want: true},
		{rule: "extras.account.tier >= 2", want: true},
		{rule: "extras.missing", want: false},
	}
	for _, tc := range cases {
		rule, err := visibility.Compile(tc.rule)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tc.rule, err)
		}
		if got := rule.Eval(scope); got != tc.want {
			t.Errorf("Eval(%q) = %v, want %v", tc.rule, got, tc.want)
		}
	}
}

func TestCompile_RejectsMalformedRules(t *testing.T) {
	rules := []string{
		"plan = pro",
		"plan ==",
		"(plan",
		"plan == pro)",
		`plan == "pro`,
		"&& plan",
		"plan > pro",
		"plan == (",
		"a & b",
	}
	for _, rule := range rules {
		if _, err := visibility.Compile(rule); err == nil {
			t.Errorf("Compile(%q) should fail", rule)
		}
	}
}

func TestRuleString(t *testing.T) {
	rule, err := visibility.Compile("  plan == pro  ")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if diff := cmp.Diff("plan == pro", rule.String()); diff != "" {
		t.Fatalf("source mismatch (-want +got):\n%s", diff)
	}
}
