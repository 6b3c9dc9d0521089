package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// NicknamePolicy is the validation hook consulted before uniqueness.
type NicknamePolicy interface {
	Check(nickname string) error
}

// AnyNickname accepts every nickname, the empty string included.
type AnyNickname struct{}

func (AnyNickname) Check(string) error { return nil }

// RuleNickname validates nicknames against a validator tag such as "required,max=36".
type RuleNickname struct {
	rule     string
	validate *validator.Validate
}

// NewNicknamePolicy returns AnyNickname for an empty rule.
// An unknown validator tag is reported here instead of at the first join.
func NewNicknamePolicy(rule string) (policy NicknamePolicy, err error) {
	if rule == "" {
		return AnyNickname{}, nil
	}
	v := validator.New()
	defer func() {
		if r := recover(); r != nil {
			policy, err = nil, fmt.Errorf("bad nickname rule %q: %v", rule, r)
		}
	}()
	_ = v.Var("", rule)
	return &RuleNickname{rule: rule, validate: v}, nil
}

func (p *RuleNickname) Check(nickname string) error {
	return p.validate.Var(nickname, p.rule)
}
