// Package engine evaluates viewer access policy with OPA Rego: whether an
// authenticated viewer may stream a device's updates or send it commands.
package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Viewers may only reach devices whose silo belongs to their own organization.
const accessPolicy = `package silowatch.access

default allow = false

allow if {
	input.viewer.org_id != ""
	input.viewer.org_id == input.device.org_id
}
`

const allowQuery = "data.silowatch.access.allow"

// Evaluator evaluates device access policy in-process.
type Evaluator struct {
	compiler *ast.Compiler
}

// NewEvaluator compiles the access policy. Fails only if the policy source is
// invalid, which is a programming error.
func NewEvaluator() (*Evaluator, error) {
	compiler, err := ast.CompileModules(map[string]string{"access.rego": accessPolicy})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	return &Evaluator{compiler: compiler}, nil
}

// HealthCheck verifies the engine can evaluate the compiled policy. Does not
// touch any external resource.
func (e *Evaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, "", "")
	return err
}

// AllowDeviceAccess reports whether a viewer from viewerOrgID may observe or
// command a device owned by deviceOrgID. Denied on any evaluation failure.
func (e *Evaluator) AllowDeviceAccess(ctx context.Context, viewerOrgID, deviceOrgID string) (bool, error) {
	return e.eval(ctx, viewerOrgID, deviceOrgID)
}

func (e *Evaluator) eval(ctx context.Context, viewerOrgID, deviceOrgID string) (bool, error) {
	input := map[string]interface{}{
		"viewer": map[string]interface{}{"org_id": viewerOrgID},
		"device": map[string]interface{}{"org_id": deviceOrgID},
	}
	q := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(e.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("access policy returned no result")
	}
	allow, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("access policy returned non-boolean")
	}
	return allow, nil
}
