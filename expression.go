package pegium

// parseFailure is the sentinel returned by both matching operations when
// an expression does not match.  Parse failures are not errors, they
// drive choice and repetition.
const parseFailure = -1

func success(n int) bool { return n != parseFailure }

// Expression is a composable, immutable grammar element.  Every variant
// implements the two matching modes:
//
//   - rule mode emits CST children into the parent node and skips hidden
//     tokens after each matched token;
//   - terminal mode touches no CST and skips nothing.  It is used inside
//     the body of a terminal rule.
//
// Both return the number of consumed bytes or parseFailure.  On failure
// an expression must leave parent.Children exactly as it found it.
type Expression interface {
	parseRule(sv []byte, parent *CstNode, ctx *Context) int
	parseTerminal(sv []byte) int
}

// children returns the direct sub-expressions of e, used by build-time
// validation walks.
func children(e Expression) []Expression {
	switch v := e.(type) {
	case group:
		return v.elements
	case choice:
		return v.elements
	case unordered:
		return v.elements
	case repetition:
		return []Expression{v.element}
	case andPredicate:
		return []Expression{v.element}
	case notPredicate:
		return []Expression{v.element}
	case *Assignment:
		return []Expression{v.element}
	}
	return nil
}

// containsAssignment reports whether e or any sub-expression is an
// Assignment.  Rule calls are not descended into: assignments inside a
// called rule belong to that rule.
func containsAssignment(e Expression) bool {
	if _, ok := e.(*Assignment); ok {
		return true
	}
	for _, c := range children(e) {
		if containsAssignment(c) {
			return true
		}
	}
	return false
}
