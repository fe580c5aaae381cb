package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Comparator selects the sort key comparison operator in a Query.
type Comparator string

const (
	Equal          Comparator = "="
	GreaterThan    Comparator = ">"
	LessThan       Comparator = "<"
	GreaterOrEqual Comparator = ">="
	LessOrEqual    Comparator = "<="
	BeginsWith     Comparator = "begins_with"
	Between        Comparator = "BETWEEN"
)

// Query describes a key-condition query against the base table or a
// secondary index.
type Query struct {
	// PartitionValue is the partition key value to match. Required.
	PartitionValue any

	// SortValue is the optional sort key operand. When set, the entity (or
	// the queried index) must have a declared sort key.
	SortValue any

	// SortUpper is the upper bound operand, used only with Between.
	SortUpper any

	// Comparator is the sort key comparison. Default: Equal.
	Comparator Comparator

	// IndexName is the optional secondary index to query. When set, key
	// attribute names are resolved from the index declarations instead of
	// the base table's.
	IndexName string

	// Descending reverses the sort order. Default: ascending.
	Descending bool

	// Limit is the maximum number of items to return (0 = no limit).
	Limit int32

	// StartToken resumes a query from the NextToken of a previous result.
	StartToken string
}

// QueryResult holds the items matched by a Query.
type QueryResult[T any] struct {
	// Items are the matched entities in sort order.
	Items []T

	// Count is the number of items returned. Zero when the store reports none.
	Count int32

	// NextToken is an opaque continuation token, empty when no further pages
	// exist. Pass it as Query.StartToken to fetch the next page.
	NextToken string
}

// pageKey is the serialized form of one key attribute inside a page token.
// Key attributes are scalar, so each entry carries exactly one of S, N, or B.
// Numbers stay in DynamoDB's decimal string form so values beyond float64
// precision survive the round trip.
type pageKey struct {
	S *string `json:"s,omitempty"`
	N *string `json:"n,omitempty"`
	B []byte  `json:"b,omitempty"`
}

// encodePageToken converts a LastEvaluatedKey into an opaque token. An empty
// key yields an empty token.
func encodePageToken(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	plain := make(map[string]pageKey, len(key))
	for name, av := range key {
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			s := v.Value
			plain[name] = pageKey{S: &s}
		case *types.AttributeValueMemberN:
			n := v.Value
			plain[name] = pageKey{N: &n}
		case *types.AttributeValueMemberB:
			plain[name] = pageKey{B: v.Value}
		default:
			return "", fmt.Errorf("facet: encode page token: unsupported key attribute type %T", av)
		}
	}
	data, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("facet: encode page token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// decodePageToken converts an opaque token back into an ExclusiveStartKey.
// An empty token yields a nil key.
func decodePageToken(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed page token", ErrInvalidInput)
	}
	var plain map[string]pageKey
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, fmt.Errorf("%w: malformed page token", ErrInvalidInput)
	}
	key := make(map[string]types.AttributeValue, len(plain))
	for name, entry := range plain {
		switch {
		case entry.S != nil:
			key[name] = &types.AttributeValueMemberS{Value: *entry.S}
		case entry.N != nil:
			key[name] = &types.AttributeValueMemberN{Value: *entry.N}
		case entry.B != nil:
			key[name] = &types.AttributeValueMemberB{Value: entry.B}
		default:
			return nil, fmt.Errorf("%w: malformed page token", ErrInvalidInput)
		}
	}
	return key, nil
}
