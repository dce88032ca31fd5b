// Package policy is the PolicyKit-equivalent go/no-go decision for
// WRITE roles (§4.5 WAITING_FOR_AUTH) plus the bearer-token caller
// identity it is evaluated against. Grounded on two pieces of evidence
// in the teacher's own config surface: an `OpaPoliciesFolder` field
// (the teacher already wires a Rego policy bundle) and a JWT auth
// config (`Auth.JWTFilePath`) it uses to authenticate its own console
// connection.
package policy

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/open-policy-agent/opa/rego"
	"go.uber.org/zap"

	"github.com/opkgd/pkgbrokerd/internal/enums"
)

// Claims is the caller identity a bearer token decodes to: the uid
// PolicyKit-equivalent authorization is evaluated against. It carries no
// action-id allowlist, and CanAuthorize does not read it.
type Claims struct {
	jwt.RegisteredClaims
	UID uint32 `json:"uid"`
}

// ParseCallerUID decodes tokenString without verifying a signature
// (the bus transport is expected to have already authenticated the
// connection; this just recovers the uid claim) and returns the uid it
// carries.
func ParseCallerUID(tokenString string) (uint32, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims Claims
	if _, _, err := parser.ParseUnverified(tokenString, &claims); err != nil {
		return 0, fmt.Errorf("policy: parse caller token: %w", err)
	}
	return claims.UID, nil
}

// Checker evaluates a Rego policy bundle to decide whether a uid may
// invoke a WRITE role. It satisfies internal/transaction.AuthChecker
// and internal/control.Authorizer.
type Checker struct {
	allowRole   rego.PreparedEvalQuery
	canAuthorize rego.PreparedEvalQuery
	log         *zap.SugaredLogger
}

// NewFromBundle compiles the Rego policy files under bundlePath (a
// directory of .rego files) into two prepared queries: one deciding
// role+uid WRITE admission, one deciding action-id authorizability.
func NewFromBundle(ctx context.Context, bundlePath string) (*Checker, error) {
	allowRole, err := rego.New(
		rego.Query("data.pkgbrokerd.authz.allow_role"),
		rego.Load([]string{bundlePath}, nil),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: compile allow_role query: %w", err)
	}

	canAuthorize, err := rego.New(
		rego.Query("data.pkgbrokerd.authz.can_authorize"),
		rego.Load([]string{bundlePath}, nil),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: compile can_authorize query: %w", err)
	}

	return &Checker{
		allowRole:    allowRole,
		canAuthorize: canAuthorize,
		log:          zap.S().Named("policy"),
	}, nil
}

// CheckAuthorization evaluates the allow_role rule for role+callerUID
// (§4.5 WAITING_FOR_AUTH → WAITING/FINISHED(failed)).
func (c *Checker) CheckAuthorization(ctx context.Context, role enums.Role, callerUID uint32) (bool, error) {
	results, err := c.allowRole.Eval(ctx, rego.EvalInput(map[string]any{
		"role": role.String(),
		"uid":  callerUID,
	}))
	if err != nil {
		return false, fmt.Errorf("policy: evaluate allow_role: %w", err)
	}
	granted := decisionBool(results)
	c.log.Debugw("authorization decision", "role", role, "uid", callerUID, "granted", granted)
	return granted, nil
}

// CanAuthorize evaluates the can_authorize rule for a PolicyKit-style
// action id and returns whether it would be granted outright, denied,
// or require an interactive prompt (§4.7).
func (c *Checker) CanAuthorize(ctx context.Context, actionID string) (enums.AuthorizeResult, error) {
	results, err := c.canAuthorize.Eval(ctx, rego.EvalInput(map[string]any{
		"action_id": actionID,
	}))
	if err != nil {
		return enums.AuthorizeNo, fmt.Errorf("policy: evaluate can_authorize: %w", err)
	}
	if len(results) == 0 {
		return enums.AuthorizeNo, nil
	}
	switch v := results[0].Expressions[0].Value.(type) {
	case string:
		if parsed, ok := map[string]enums.AuthorizeResult{
			"yes":         enums.AuthorizeYes,
			"no":          enums.AuthorizeNo,
			"interactive": enums.AuthorizeInteractive,
		}[v]; ok {
			return parsed, nil
		}
	}
	return enums.AuthorizeNo, nil
}

func decisionBool(results rego.ResultSet) bool {
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false
	}
	allowed, _ := results[0].Expressions[0].Value.(bool)
	return allowed
}
