// Package optimizer rewrites a logicalplan.LogicalPlan into an equivalent,
// cheaper plan. It generalizes the internal/queryoptimizer package
// — which normalized one EAV attribute-filter tree into hand-built SQL
// clauses in a single monolithic GeneratePlan pass — into a rule-based
// fixpoint driver over the full relational logical plan tree, the standard
// shape a SQL optimizer takes once the algebra covers joins and set ops
// rather than one filtered scan.
package optimizer

import (
	"context"

	"github.com/yachtsql/yachtsql/internal/logicalplan"
	"go.uber.org/zap"
)

// Rule rewrites a single plan node (children already rewritten). It returns
// the (possibly unchanged) node and whether it made a change, the same
// changed-bool convention the normalizeConditionTree callers used
// to decide whether to keep descending.
type Rule interface {
	Name() string
	Apply(p *logicalplan.LogicalPlan) (*logicalplan.LogicalPlan, bool)
}

// Optimizer applies a fixed rule set to a logical plan until no rule fires,
// bounded by MaxPasses the way the Optimizer bounded SQL clause
// construction by input size rather than iteration count.
type Optimizer struct {
	rules     []Rule
	maxPasses int
	logger    *zap.Logger
}

// New builds an Optimizer with the default rule set: constant folding,
// predicate pushdown, and sort-limit-to-topn fusion, applied in that order
// each pass since folding can expose pushdown opportunities and pushdown can
// expose topn fusion.
func New(logger *zap.Logger, maxPasses int) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxPasses <= 0 {
		maxPasses = 10
	}
	return &Optimizer{
		rules: []Rule{
			&ConstantFoldingRule{},
			&PredicatePushdownRule{},
			&SortLimitToTopNRule{},
		},
		maxPasses: maxPasses,
		logger:    logger,
	}
}

// Optimize runs the rule set to a fixpoint or until MaxPasses is reached,
// whichever comes first, logging each pass's rewrite count the same way
// GeneratePlan logs query-plan construction.
func (o *Optimizer) Optimize(ctx context.Context, plan *logicalplan.LogicalPlan) (*logicalplan.LogicalPlan, error) {
	current := plan
	for pass := 0; pass < o.maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changedThisPass := false
		for _, rule := range o.rules {
			next, changed := applyRuleTree(rule, current)
			if changed {
				changedThisPass = true
				current = next
			}
		}
		o.logger.Debug("optimizer pass complete", zap.Int("pass", pass), zap.Bool("changed", changedThisPass))
		if !changedThisPass {
			break
		}
	}
	return current, nil
}

// applyRuleTree applies rule bottom-up across the whole tree in one pass,
// returning whether any node changed.
func applyRuleTree(rule Rule, p *logicalplan.LogicalPlan) (*logicalplan.LogicalPlan, bool) {
	anyChanged := false
	result := logicalplan.Transform(p, func(node *logicalplan.LogicalPlan) *logicalplan.LogicalPlan {
		rewritten, changed := rule.Apply(node)
		if changed {
			anyChanged = true
			return rewritten
		}
		return node
	})
	return result, anyChanged
}
