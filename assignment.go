package pegium

import (
	"fmt"
	"reflect"
)

// Assignment binds the value of a matched sub-expression to a field of
// the AST node under construction.  The inner expression is restricted
// to a rule call, a literal, or an ordered choice of those, which
// guarantees a successful match produces exactly one CST child.
type Assignment struct {
	feature string
	element Expression
}

// Assign binds the value produced by element to the named field.
func Assign(feature string, element Expression) *Assignment {
	mustBeAssignable(feature, element)
	return &Assignment{feature: feature, element: element}
}

// Append is Assign for sequence fields; the write semantics are decided
// by the field's declared shape either way.
func Append(feature string, element Expression) *Assignment {
	return Assign(feature, element)
}

func mustBeAssignable(feature string, element Expression) {
	if !isAssignable(element) {
		panic(fmt.Errorf("assignment to %q: only a rule call, a literal, or an ordered choice of those can be assigned", feature))
	}
}

func isAssignable(element Expression) bool {
	switch v := element.(type) {
	case *RuleCall, Literal:
		return true
	case choice:
		for _, alt := range v.elements {
			if !isAssignable(alt) {
				return false
			}
		}
		return true
	}
	return false
}

func (a *Assignment) parseRule(sv []byte, parent *CstNode, ctx *Context) int {
	index := len(parent.Children)
	i := a.element.parseRule(sv, parent, ctx)
	if i == parseFailure {
		return parseFailure
	}
	if len(parent.Children) <= index {
		panic(fmt.Errorf("assignment to %q matched without producing a CST node", a.feature))
	}
	parent.Children[index].Action = a
	return i
}

func (a *Assignment) parseTerminal(sv []byte) int {
	panic(fmt.Errorf("assignment to %q cannot be matched in terminal mode", a.feature))
}

// execute materializes the value carried by node and writes it into the
// target's field.  A rule-call child yields the rule's value; a literal
// child yields the matched text.
func (a *Assignment) execute(target AstNode, node *CstNode) {
	var value any
	if r, ok := node.Source.(Rule); ok {
		value = r.value(node)
	} else {
		value = string(node.Text)
	}
	a.set(target, value)
}

// refSetter is implemented by Reference fields: the incoming string is
// stored as the reference's raw text and resolution is deferred.
type refSetter interface {
	setRefText(string)
}

func (a *Assignment) set(target AstNode, value any) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		panic(fmt.Errorf("assignment to %q: target %T is not a pointer to a struct", a.feature, target))
	}
	field := rv.Elem().FieldByName(a.feature)
	if !field.IsValid() {
		panic(fmt.Errorf("assignment: type %T has no field %q", target, a.feature))
	}

	if ref, ok := field.Addr().Interface().(refSetter); ok {
		text, ok := value.(string)
		if !ok {
			panic(fmt.Errorf("assignment to reference %q: expected a string, got %T", a.feature, value))
		}
		ref.setRefText(text)
		return
	}

	if field.Kind() == reflect.Slice {
		field.Set(reflect.Append(field, a.convert(field.Type().Elem(), value)))
		return
	}
	field.Set(a.convert(field.Type(), value))
}

// convert checks the produced value against the field's declared type.
// For AST-node values this is the downcast of the projection: the
// dynamic pointer type must be assignable to the declared one.
func (a *Assignment) convert(typ reflect.Type, value any) reflect.Value {
	if value == nil {
		switch typ.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map:
			return reflect.Zero(typ)
		}
		panic(fmt.Errorf("assignment to %q: cannot assign nil to field type %v", a.feature, typ))
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(typ) {
		panic(fmt.Errorf("assignment to %q: cannot assign value of type %T to field type %v", a.feature, value, typ))
	}
	return rv
}
