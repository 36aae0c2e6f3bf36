package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Validator resolves a user-entered code to the coupon rule it names.
// Resolve never consumes a use; Redeem records one at checkout.
type Validator interface {
	Resolve(ctx context.Context, code string) (*Rule, error)
	Redeem(ctx context.Context, code string) error
}

// RepoValidator implements Validator by looking up coupon rules from a
// Repository and checking temporal validity and usage limits.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Resolve looks up the rule for the given code and checks its validity
// window and usage limit.
func (v *RepoValidator) Resolve(ctx context.Context, code string) (*Rule, error) {
	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrUnknownCoupon) {
			return nil, ErrUnknownCoupon
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	now := v.now()

	if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
		return nil, ErrExpired
	}
	if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
		return nil, ErrExpired
	}

	if rule.MaxUses > 0 && rule.Uses >= rule.MaxUses {
		return nil, ErrUsageLimitReached
	}

	return rule, nil
}

// Redeem records one use of the coupon.
func (v *RepoValidator) Redeem(ctx context.Context, code string) error {
	if err := v.repo.IncrementUses(ctx, code); err != nil {
		return errors.Wrap(err, "increment coupon uses")
	}
	return nil
}

// StaticValidator implements Validator from a fixed in-memory rule table.
// It does not track usage and ignores validity windows.
type StaticValidator struct {
	rules []Rule
}

// NewStaticValidator creates a StaticValidator over the given rules.
func NewStaticValidator(rules []Rule) *StaticValidator {
	return &StaticValidator{rules: rules}
}

// Resolve matches the code against the rule table, case-insensitively.
func (v *StaticValidator) Resolve(_ context.Context, code string) (*Rule, error) {
	for i := range v.rules {
		if strings.EqualFold(v.rules[i].Code, code) {
			return &v.rules[i], nil
		}
	}
	return nil, ErrUnknownCoupon
}

// Redeem is a no-op; the static table does not track usage.
func (v *StaticValidator) Redeem(context.Context, string) error {
	return nil
}
