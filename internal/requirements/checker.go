package requirements

import (
	"strings"

	"github.com/joseph-ayodele/payment-review/internal/entity"
)

// Requirement codes.
const (
	CodeProvidersUnavailable = "PROVIDERS_UNAVAILABLE"
	CodeBankAppMissing       = "BANK_APP_MISSING"
)

// Environment is the local state a payment depends on.
type Environment struct {
	InstalledPackages []string
	Providers         []entity.PaymentProvider
}

// Requirement is an unmet precondition.
type Requirement struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Checker evaluates requirements synchronously without network access.
type Checker interface {
	Check(env Environment) []Requirement
}

// Rule returns a Requirement when env fails it, nil otherwise.
type Rule func(env Environment) *Requirement

// RuleChecker runs rules in order and collects every unmet requirement.
type RuleChecker struct {
	rules []Rule
}

var _ Checker = (*RuleChecker)(nil)

// NewRuleChecker returns a checker with the given rules, or DefaultRules when none.
func NewRuleChecker(rules ...Rule) *RuleChecker {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &RuleChecker{rules: rules}
}

func DefaultRules() []Rule {
	return []Rule{ProvidersAvailable, BankAppInstalled}
}

func (c *RuleChecker) Check(env Environment) []Requirement {
	out := make([]Requirement, 0)
	for _, rule := range c.rules {
		if r := rule(env); r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// ProvidersAvailable fails when the provider list is empty.
func ProvidersAvailable(env Environment) *Requirement {
	if len(env.Providers) == 0 {
		return &Requirement{Code: CodeProvidersUnavailable, Message: "no payment providers are available"}
	}
	return nil
}

// BankAppInstalled fails when no installed package belongs to a provider.
// It is skipped while the provider list is empty.
func BankAppInstalled(env Environment) *Requirement {
	if len(env.Providers) == 0 {
		return nil
	}
	installed := make(map[string]struct{}, len(env.InstalledPackages))
	for _, p := range env.InstalledPackages {
		installed[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	for _, p := range env.Providers {
		if _, ok := installed[strings.ToLower(p.PackageName)]; ok && p.PackageName != "" {
			return nil
		}
	}
	return &Requirement{Code: CodeBankAppMissing, Message: "no supported banking app is installed"}
}
