package domain

import (
	"testing"
	"time"
)

func TestDomainRuleKind_String(t *testing.T) {
	if DomainRuleExact.String() != "exact" {
		t.Fatalf("exact string mismatch: %q", DomainRuleExact.String())
	}
	if DomainRuleSuffix.String() != "suffix" {
		t.Fatalf("suffix string mismatch: %q", DomainRuleSuffix.String())
	}
	if got := DomainRuleKind(9).String(); got != "DomainRuleKind(9)" {
		t.Fatalf("unknown kind string mismatch: %q", got)
	}
}

func TestParseDomainRuleKind(t *testing.T) {
	cases := []struct {
		in      string
		want    DomainRuleKind
		wantErr bool
	}{
		{"exact", DomainRuleExact, false},
		{" EXACT ", DomainRuleExact, false},
		{"Suffix", DomainRuleSuffix, false},
		{"wildcard", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseDomainRuleKind(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseDomainRuleKind(%q) expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("ParseDomainRuleKind(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
	}
}

func TestNewDomainRule_Validation(t *testing.T) {
	now := time.Now()
	if _, err := NewDomainRule("", DomainRuleExact, "src", now); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := NewDomainRule("example.com", DomainRuleExact, "  ", now); err == nil {
		t.Error("expected error for empty source")
	}
	if _, err := NewDomainRule("example.com", DomainRuleExact, "src", time.Time{}); err == nil {
		t.Error("expected error for zero time")
	}
	if _, err := NewDomainRule("example.com", DomainRuleKind(7), "src", now); err == nil {
		t.Error("expected error for unknown kind")
	}

	r, err := NewSuffixDomainRule(" tsukulink.net ", "builtin", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Name != "tsukulink.net" || !r.IsSuffix() || r.IsExact() {
		t.Fatalf("unexpected rule: %+v", r)
	}
	e, err := NewExactDomainRule("carcon.co.jp", "builtin", now)
	if err != nil || !e.IsExact() {
		t.Fatalf("unexpected exact rule: %+v err=%v", e, err)
	}
}

func TestDomainRule_Matches(t *testing.T) {
	now := time.Now()
	suffix, _ := NewSuffixDomainRule("tsukulink.net", "t", now)
	exact, _ := NewExactDomainRule("carcon.co.jp", "t", now)

	cases := []struct {
		rule DomainRule
		host string
		want bool
	}{
		{suffix, "tsukulink.net", true},
		{suffix, "sub.tsukulink.net", true},
		{suffix, "xtsukulink.net", false},
		{exact, "carcon.co.jp", true},
		{exact, "www.carcon.co.jp", false},
	}
	for _, c := range cases {
		if got := c.rule.Matches(c.host); got != c.want {
			t.Errorf("%s rule %q Matches(%q) = %v, want %v", c.rule.Kind, c.rule.Name, c.host, got, c.want)
		}
	}
}
