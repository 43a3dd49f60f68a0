package eval

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/yachtsql/yachtsql"
)

// likeCache memoizes compiled LIKE patterns, avoiding a recompile per row
// the way a hot predicate evaluated over many rows would otherwise pay for.
var (
	likeCacheMu sync.Mutex
	likeCache   = map[string]*regexp.Regexp{}
)

// evalLike implements SQL LIKE/NOT LIKE with '%' and '_' wildcards and '\'
// escaping, the Value-typed generalization of the
// convertTextPattern, which only distinguished prefix-vs-contains patterns
// for SQL clause generation rather than evaluating the match itself.
func evalLike(op yachtsql.BinaryOperator, left, right yachtsql.Value) (yachtsql.Value, error) {
	s, ok := left.AsString()
	if !ok {
		return yachtsql.Value{}, fmt.Errorf("eval: LIKE requires string operand")
	}
	pattern, ok := right.AsString()
	if !ok {
		return yachtsql.Value{}, fmt.Errorf("eval: LIKE requires string pattern")
	}

	re, err := compileLikePattern(pattern)
	if err != nil {
		return yachtsql.Value{}, err
	}
	matched := re.MatchString(s)
	if op == yachtsql.OpNotLike {
		matched = !matched
	}
	return yachtsql.BoolValue(matched), nil
}

func compileLikePattern(pattern string) (*regexp.Regexp, error) {
	likeCacheMu.Lock()
	if re, ok := likeCache[pattern]; ok {
		likeCacheMu.Unlock()
		return re, nil
	}
	likeCacheMu.Unlock()

	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteString(regexp.QuoteMeta(string(runes[i])))
			} else {
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile("(?s)" + b.String())
	if err != nil {
		return nil, fmt.Errorf("eval: invalid LIKE pattern %q: %w", pattern, err)
	}

	likeCacheMu.Lock()
	likeCache[pattern] = re
	likeCacheMu.Unlock()
	return re, nil
}
