// Package keyexpr builds DynamoDB key condition and conditional write
// expressions with fixed placeholder conventions.
package keyexpr

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Placeholder names used by every expression built in this package.
const (
	NamePartition  = "#pk"
	NameSort       = "#sk"
	ValuePartition = ":pkValue"
	ValueSort      = ":skValue"
	ValueSortUpper = ":skValueUpper"
)

// Comparators that require dedicated expression syntax. Any other comparator
// is inserted verbatim between the sort key placeholder and its value.
const (
	BeginsWith = "begins_with"
	Between    = "BETWEEN"
)

// Condition is a DynamoDB expression together with its placeholder bindings.
type Condition struct {
	// Expression is the expression text, referencing #pk/#sk placeholder
	// names and :pkValue/:skValue placeholder values.
	Expression string

	// Names maps placeholder names to attribute names.
	Names map[string]string

	// Values maps placeholder values to attribute values.
	Values map[string]types.AttributeValue
}

// Sort describes the optional sort key half of a key condition.
type Sort struct {
	// Name is the sort key attribute name.
	Name string

	// Comparator is the comparison operator. Empty defaults to "=".
	Comparator string

	// Value is the sort key operand.
	Value types.AttributeValue

	// Upper is the second operand, used only with the Between comparator.
	Upper types.AttributeValue
}

// KeyCondition builds the key condition expression for a query. With no sort
// condition the expression is "#pk = :pkValue"; otherwise the sort clause is
// appended according to the comparator.
func KeyCondition(pkName string, pkValue types.AttributeValue, sort *Sort) Condition {
	cond := Condition{
		Expression: fmt.Sprintf("%s = %s", NamePartition, ValuePartition),
		Names:      map[string]string{NamePartition: pkName},
		Values:     map[string]types.AttributeValue{ValuePartition: pkValue},
	}
	if sort == nil {
		return cond
	}

	cond.Names[NameSort] = sort.Name
	cond.Values[ValueSort] = sort.Value

	comparator := sort.Comparator
	if comparator == "" {
		comparator = "="
	}

	switch comparator {
	case BeginsWith:
		cond.Expression += fmt.Sprintf(" AND %s(%s, %s)", BeginsWith, NameSort, ValueSort)
	case Between:
		cond.Values[ValueSortUpper] = sort.Upper
		cond.Expression += fmt.Sprintf(" AND %s BETWEEN %s AND %s", NameSort, ValueSort, ValueSortUpper)
	default:
		cond.Expression += fmt.Sprintf(" AND %s %s %s", NameSort, comparator, ValueSort)
	}
	return cond
}

// CreateCondition builds the conditional write expression that guards item
// creation. With a sort key the condition requires both key attributes to be
// absent on the target item, preventing a silent overwrite of an existing
// composite key; without one only the partition key must be absent.
func CreateCondition(pkName, skName string) Condition {
	cond := Condition{
		Expression: fmt.Sprintf("attribute_not_exists(%s)", NamePartition),
		Names:      map[string]string{NamePartition: pkName},
	}
	if skName != "" {
		cond.Expression += fmt.Sprintf(" AND attribute_not_exists(%s)", NameSort)
		cond.Names[NameSort] = skName
	}
	return cond
}
