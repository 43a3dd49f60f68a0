package yachtsql

import (
	"encoding/json"
	"fmt"
)

// ExprKind discriminates the concrete Expr variant carried by an Expr value,
// the same role the Logic/Attr discriminator pair played for
// Condition trees, generalized to the full scalar expression grammar needed
// by the logical planner and evaluator.
type ExprKind string

const (
	ExprKindColumn      ExprKind = "column"
	ExprKindLiteral     ExprKind = "literal"
	ExprKindBinaryOp    ExprKind = "binary_op"
	ExprKindUnaryOp     ExprKind = "unary_op"
	ExprKindFunction    ExprKind = "function"
	ExprKindAggregate   ExprKind = "aggregate"
	ExprKindWindow      ExprKind = "window"
	ExprKindCase        ExprKind = "case"
	ExprKindCast        ExprKind = "cast"
	ExprKindBetween     ExprKind = "between"
	ExprKindInList      ExprKind = "in_list"
	ExprKindSubquery    ExprKind = "subquery"
	ExprKindStructLit   ExprKind = "struct_literal"
	ExprKindArrayIndex  ExprKind = "array_index"
	ExprKindIsNull      ExprKind = "is_null"
	ExprKindAnd         ExprKind = "and"
	ExprKindOr          ExprKind = "or"
	ExprKindNot         ExprKind = "not"
)

// BinaryOperator enumerates the scalar binary operators the evaluator and
// optimizer both need to reason about (constant folding switches on these).
type BinaryOperator string

const (
	OpEq       BinaryOperator = "="
	OpNotEq    BinaryOperator = "!="
	OpLt       BinaryOperator = "<"
	OpLte      BinaryOperator = "<="
	OpGt       BinaryOperator = ">"
	OpGte      BinaryOperator = ">="
	OpLike     BinaryOperator = "LIKE"
	OpNotLike  BinaryOperator = "NOT LIKE"
	OpAdd      BinaryOperator = "+"
	OpSub      BinaryOperator = "-"
	OpMul      BinaryOperator = "*"
	OpDiv      BinaryOperator = "/"
	OpMod      BinaryOperator = "%"
	OpConcat   BinaryOperator = "||"
	OpIsDistinctFrom    BinaryOperator = "IS DISTINCT FROM"
	OpIsNotDistinctFrom BinaryOperator = "IS NOT DISTINCT FROM"
)

// UnaryOperator enumerates prefix scalar operators.
type UnaryOperator string

const (
	OpNeg UnaryOperator = "-"
	OpNotOp UnaryOperator = "NOT"
)

// SortDirection is the ORDER BY direction, generalizing SortOrder to
// NULLS FIRST/LAST placement as well.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type NullsOrder string

const (
	NullsDefault NullsOrder = ""
	NullsFirst   NullsOrder = "nulls_first"
	NullsLast    NullsOrder = "nulls_last"
)

// SortExpr pairs an expression with its sort direction and null placement,
// used by ORDER BY, window ORDER BY, and TopN physical operators alike.
type SortExpr struct {
	Expr  Expr          `json:"expr"`
	Dir   SortDirection `json:"dir"`
	Nulls NullsOrder    `json:"nulls,omitempty"`
}

// Expr is the scalar expression IR shared by the logical planner, optimizer
// and evaluator. Every concrete node implements Kind() so callers can
// type-switch without reflection, the same dispatch shape Condition.IsLeaf()
// used for its own expression tree.
type Expr interface {
	Kind() ExprKind
}

// ColumnRef names a column by table-qualified path, resolved against a plan
// schema during binding.
type ColumnRef struct {
	Table  string `json:"table,omitempty"`
	Column string `json:"column"`
}

func (ColumnRef) Kind() ExprKind { return ExprKindColumn }

// Literal wraps a constant Value as an expression node.
type Literal struct {
	Value Value `json:"value"`
}

func (Literal) Kind() ExprKind { return ExprKindLiteral }

// BinaryOp is a two-operand scalar expression.
type BinaryOp struct {
	Op    BinaryOperator `json:"op"`
	Left  Expr           `json:"left"`
	Right Expr           `json:"right"`
}

func (BinaryOp) Kind() ExprKind { return ExprKindBinaryOp }

// UnaryOp is a one-operand scalar expression.
type UnaryOp struct {
	Op      UnaryOperator `json:"op"`
	Operand Expr          `json:"operand"`
}

func (UnaryOp) Kind() ExprKind { return ExprKindUnaryOp }

// AndExpr / OrExpr / NotExpr are kept distinct from BinaryOp/UnaryOp so the
// optimizer's predicate-pushdown rule can pattern-match boolean structure
// without inspecting operator strings.
type AndExpr struct {
	Operands []Expr `json:"operands"`
}

func (AndExpr) Kind() ExprKind { return ExprKindAnd }

type OrExpr struct {
	Operands []Expr `json:"operands"`
}

func (OrExpr) Kind() ExprKind { return ExprKindOr }

type NotExpr struct {
	Operand Expr `json:"operand"`
}

func (NotExpr) Kind() ExprKind { return ExprKindNot }

// IsNullExpr tests for null, with Negate distinguishing IS NULL / IS NOT NULL.
type IsNullExpr struct {
	Operand Expr `json:"operand"`
	Negate  bool `json:"negate"`
}

func (IsNullExpr) Kind() ExprKind { return ExprKindIsNull }

// FunctionCall invokes a registered scalar or table function by name.
type FunctionCall struct {
	Name string `json:"name"`
	Args []Expr `json:"args"`
}

func (FunctionCall) Kind() ExprKind { return ExprKindFunction }

// AggregateFunc represents an aggregate call (COUNT, SUM, ARRAY_AGG, ...).
type AggregateFunc struct {
	Name     string `json:"name"`
	Args     []Expr `json:"args"`
	Distinct bool   `json:"distinct"`
	Filter   Expr   `json:"filter,omitempty"`
}

func (AggregateFunc) Kind() ExprKind { return ExprKindAggregate }

// FrameUnit is ROWS/RANGE/GROUPS framing for a window spec.
type FrameUnit string

const (
	FrameRows   FrameUnit = "rows"
	FrameRange  FrameUnit = "range"
	FrameGroups FrameUnit = "groups"
)

// FrameBoundKind enumerates window frame boundary kinds.
type FrameBoundKind string

const (
	BoundUnboundedPreceding FrameBoundKind = "unbounded_preceding"
	BoundPreceding          FrameBoundKind = "preceding"
	BoundCurrentRow         FrameBoundKind = "current_row"
	BoundFollowing          FrameBoundKind = "following"
	BoundUnboundedFollowing FrameBoundKind = "unbounded_following"
)

type FrameBound struct {
	Kind   FrameBoundKind `json:"kind"`
	Offset Expr           `json:"offset,omitempty"`
}

type ExcludeClause string

const (
	ExcludeNone       ExcludeClause = "none"
	ExcludeCurrentRow ExcludeClause = "current_row"
	ExcludeGroup      ExcludeClause = "group"
	ExcludeTies       ExcludeClause = "ties"
)

// WindowFrame fully describes a window's partitioning, ordering and framing.
type WindowFrame struct {
	PartitionBy []Expr        `json:"partition_by,omitempty"`
	OrderBy     []SortExpr    `json:"order_by,omitempty"`
	Unit        FrameUnit     `json:"unit,omitempty"`
	Start       *FrameBound   `json:"start,omitempty"`
	End         *FrameBound   `json:"end,omitempty"`
	Exclude     ExcludeClause `json:"exclude,omitempty"`
}

// WindowCall is a window function invocation over a WindowFrame.
type WindowCall struct {
	Name  string      `json:"name"`
	Args  []Expr      `json:"args"`
	Frame WindowFrame `json:"frame"`
}

func (WindowCall) Kind() ExprKind { return ExprKindWindow }

// CaseWhen is one WHEN/THEN arm of a CaseExpr.
type CaseWhen struct {
	When Expr `json:"when"`
	Then Expr `json:"then"`
}

// CaseExpr implements both simple (CASE x WHEN ...) and searched (CASE WHEN
// cond ...) forms; Operand is nil for the searched form.
type CaseExpr struct {
	Operand Expr       `json:"operand,omitempty"`
	Whens   []CaseWhen `json:"whens"`
	Else    Expr       `json:"else,omitempty"`
}

func (CaseExpr) Kind() ExprKind { return ExprKindCase }

// CastExpr converts Operand to TargetKind under the coercion lattice.
type CastExpr struct {
	Operand    Expr      `json:"operand"`
	TargetKind ValueKind `json:"target_kind"`
	Safe       bool      `json:"safe"` // SAFE_CAST: null on failure instead of error
}

func (CastExpr) Kind() ExprKind { return ExprKindCast }

// BetweenExpr implements `Operand BETWEEN Low AND High`.
type BetweenExpr struct {
	Operand Expr `json:"operand"`
	Low     Expr `json:"low"`
	High    Expr `json:"high"`
	Negate  bool `json:"negate"`
}

func (BetweenExpr) Kind() ExprKind { return ExprKindBetween }

// InListExpr implements `Operand [NOT] IN (List...)`; Subquery is used
// instead of List when the IN target is a subquery plan handle.
type InListExpr struct {
	Operand  Expr   `json:"operand"`
	List     []Expr `json:"list,omitempty"`
	Subquery Expr   `json:"subquery,omitempty"`
	Negate   bool   `json:"negate"`
}

func (InListExpr) Kind() ExprKind { return ExprKindInList }

// SubqueryKind distinguishes scalar, EXISTS and ANY/ALL correlated forms.
type SubqueryKind string

const (
	SubqueryScalar SubqueryKind = "scalar"
	SubqueryExists SubqueryKind = "exists"
	SubqueryAny    SubqueryKind = "any"
	SubqueryAll    SubqueryKind = "all"
	SubqueryIn     SubqueryKind = "in"
)

// SubqueryExpr references a nested logical plan by opaque handle; the plan
// itself lives in internal/logicalplan and is attached by the binder.
type SubqueryExpr struct {
	SubKind SubqueryKind `json:"sub_kind"`
	Plan    any          `json:"-"` // *logicalplan.LogicalPlan, set during binding
	Negate  bool         `json:"negate,omitempty"`
}

func (SubqueryExpr) Kind() ExprKind { return ExprKindSubquery }

// StructLiteral constructs a struct value from named field expressions.
type StructLiteral struct {
	Fields []string `json:"fields"`
	Values []Expr   `json:"values"`
}

func (StructLiteral) Kind() ExprKind { return ExprKindStructLit }

// ArrayIndexExpr indexes into an array or struct-by-name.
type ArrayIndexExpr struct {
	Operand Expr `json:"operand"`
	Index   Expr `json:"index"`
}

func (ArrayIndexExpr) Kind() ExprKind { return ExprKindArrayIndex }

// exprEnvelope is the wire form used to serialize a heterogeneous Expr tree:
// a discriminator tag plus the raw payload, mirroring the
// CompositeCondition/KvCondition discriminator-peek pattern in UnmarshalJSON.
type exprEnvelope struct {
	Kind    ExprKind        `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalExpr encodes an Expr tree to its envelope wire form.
func MarshalExpr(e Expr) ([]byte, error) {
	if e == nil {
		return json.Marshal(nil)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(exprEnvelope{Kind: e.Kind(), Payload: payload})
}

// UnmarshalExpr decodes an envelope back into the concrete Expr variant named
// by its Kind discriminator, the generalized form of the
// unmarshalCondition dispatcher.
func UnmarshalExpr(data []byte) (Expr, error) {
	var env exprEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case ExprKindColumn:
		var v ColumnRef
		return v, json.Unmarshal(env.Payload, &v)
	case ExprKindLiteral:
		var v Literal
		return v, json.Unmarshal(env.Payload, &v)
	case ExprKindBinaryOp:
		return unmarshalBinaryOp(env.Payload)
	case ExprKindUnaryOp:
		return unmarshalUnaryOp(env.Payload)
	case ExprKindAnd:
		return unmarshalBoolList(env.Payload, func(ops []Expr) Expr { return AndExpr{Operands: ops} })
	case ExprKindOr:
		return unmarshalBoolList(env.Payload, func(ops []Expr) Expr { return OrExpr{Operands: ops} })
	case ExprKindNot:
		return unmarshalOperandWrapper(env.Payload, func(operand Expr) Expr { return NotExpr{Operand: operand} })
	case ExprKindIsNull:
		var raw struct {
			Operand json.RawMessage `json:"operand"`
			Negate  bool            `json:"negate"`
		}
		if err := json.Unmarshal(env.Payload, &raw); err != nil {
			return nil, err
		}
		operand, err := UnmarshalExpr(raw.Operand)
		if err != nil {
			return nil, err
		}
		return IsNullExpr{Operand: operand, Negate: raw.Negate}, nil
	case ExprKindFunction:
		var v FunctionCall
		return v, json.Unmarshal(env.Payload, &v)
	case ExprKindAggregate:
		var v AggregateFunc
		return v, json.Unmarshal(env.Payload, &v)
	case ExprKindCase:
		var v CaseExpr
		return v, json.Unmarshal(env.Payload, &v)
	case ExprKindCast:
		var v CastExpr
		return v, json.Unmarshal(env.Payload, &v)
	case ExprKindBetween:
		var v BetweenExpr
		return v, json.Unmarshal(env.Payload, &v)
	case ExprKindInList:
		var v InListExpr
		return v, json.Unmarshal(env.Payload, &v)
	case ExprKindStructLit:
		var v StructLiteral
		return v, json.Unmarshal(env.Payload, &v)
	case ExprKindArrayIndex:
		var v ArrayIndexExpr
		return v, json.Unmarshal(env.Payload, &v)
	default:
		return nil, fmt.Errorf("yachtsql: unknown expr kind %q", env.Kind)
	}
}

func unmarshalBinaryOp(payload json.RawMessage) (Expr, error) {
	var raw struct {
		Op    BinaryOperator  `json:"op"`
		Left  json.RawMessage `json:"left"`
		Right json.RawMessage `json:"right"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	left, err := UnmarshalExpr(raw.Left)
	if err != nil {
		return nil, err
	}
	right, err := UnmarshalExpr(raw.Right)
	if err != nil {
		return nil, err
	}
	return BinaryOp{Op: raw.Op, Left: left, Right: right}, nil
}

func unmarshalUnaryOp(payload json.RawMessage) (Expr, error) {
	var raw struct {
		Op      UnaryOperator   `json:"op"`
		Operand json.RawMessage `json:"operand"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	operand, err := UnmarshalExpr(raw.Operand)
	if err != nil {
		return nil, err
	}
	return UnaryOp{Op: raw.Op, Operand: operand}, nil
}

func unmarshalBoolList(payload json.RawMessage, build func([]Expr) Expr) (Expr, error) {
	var raw struct {
		Operands []json.RawMessage `json:"operands"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	operands := make([]Expr, 0, len(raw.Operands))
	for _, o := range raw.Operands {
		e, err := UnmarshalExpr(o)
		if err != nil {
			return nil, err
		}
		operands = append(operands, e)
	}
	return build(operands), nil
}

func unmarshalOperandWrapper(payload json.RawMessage, build func(Expr) Expr) (Expr, error) {
	var raw struct {
		Operand json.RawMessage `json:"operand"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	operand, err := UnmarshalExpr(raw.Operand)
	if err != nil {
		return nil, err
	}
	return build(operand), nil
}
