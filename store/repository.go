package store

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/facet/internal/keyexpr"
)

// DeletedAtAttribute is the attribute stamped onto soft-deleted items,
// holding an RFC 3339 UTC timestamp.
const DeletedAtAttribute = "deletedAt"

// Repository provides typed DynamoDB operations for a single entity type.
//
// A repository holds no schema state of its own: table and key attribute
// names are resolved from the registry on every call, so declarations made
// after construction are still visible.
type Repository[T any] struct {
	client   DynamoDBClient
	registry *Registry
	logger   *slog.Logger
	clock    Clock
	model    reflect.Type
}

// New creates a Repository for T bound to the DefaultRegistry.
func New[T any](client DynamoDBClient, config Config) *Repository[T] {
	return NewWithRegistry[T](client, config, DefaultRegistry)
}

// NewWithRegistry creates a Repository for T bound to an explicit registry.
func NewWithRegistry[T any](client DynamoDBClient, config Config, registry *Registry) *Repository[T] {
	config.validate()
	return &Repository[T]{
		client:   client,
		registry: registry,
		logger:   config.Logger,
		clock:    config.Clock,
		model:    entityType(reflect.TypeOf((*T)(nil)).Elem()),
	}
}

// SetRegistry rebinds the repository to a different registry.
func (r *Repository[T]) SetRegistry(registry *Registry) {
	r.registry = registry
}

// Create writes a new item, failing if an item with the same key already
// exists. When T has a declared sort key the guard covers both key
// attributes, so an existing composite key is never silently overwritten.
// A conditional check failure surfaces as the SDK's native
// ConditionalCheckFailedException, untranslated.
func (r *Repository[T]) Create(ctx context.Context, item *T) (*T, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: nil item", ErrInvalidInput)
	}

	table, err := r.tableName()
	if err != nil {
		return nil, err
	}
	pkName, ok := r.registry.PartitionKey(r.model)
	if !ok {
		return nil, fmt.Errorf("%w: no partition key declared for %s", ErrMissingSchema, r.model)
	}
	skName, _ := r.registry.SortKey(r.model)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("facet: marshal item: %w", err)
	}

	cond := keyexpr.CreateCondition(pkName, skName)
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(table),
		Item:                     av,
		ConditionExpression:      aws.String(cond.Expression),
		ExpressionAttributeNames: cond.Names,
	})
	if err != nil {
		r.logger.Error("create item failed", "table", table, "error", err)
		return nil, err
	}
	return item, nil
}

// Get retrieves the item at the given primary key, returning ErrNotFound if
// no item exists. Pass a nil sortKey for entities without a declared sort
// key; supplying a sort key value when none is declared returns
// ErrMissingSchema.
func (r *Repository[T]) Get(ctx context.Context, partitionKey, sortKey any) (*T, error) {
	raw, _, err := r.getRaw(ctx, partitionKey, sortKey)
	if err != nil {
		return nil, err
	}
	return unmarshalItem[T](raw)
}

// Put writes the item unconditionally (upsert).
func (r *Repository[T]) Put(ctx context.Context, item *T) (*T, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: nil item", ErrInvalidInput)
	}

	table, err := r.tableName()
	if err != nil {
		return nil, err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("facet: marshal item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("put item failed", "table", table, "error", err)
		return nil, err
	}
	return item, nil
}

// SoftDelete marks the item at the given key as deleted by stamping its
// deletedAt attribute with the current time, leaving the item in place.
//
// This is a read followed by an unconditional write, not an atomic update:
// a concurrent Put, SoftDelete, or Remove against the same key can race
// with it, and the last write wins.
func (r *Repository[T]) SoftDelete(ctx context.Context, partitionKey, sortKey any) (*T, error) {
	raw, table, err := r.getRaw(ctx, partitionKey, sortKey)
	if err != nil {
		return nil, err
	}

	raw[DeletedAtAttribute] = &types.AttributeValueMemberS{
		Value: r.clock().Format(time.RFC3339),
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      raw,
	})
	if err != nil {
		r.logger.Error("soft delete failed", "table", table, "error", err)
		return nil, err
	}
	return unmarshalItem[T](raw)
}

// Remove hard-deletes the item at the given primary key. Deleting a missing
// item is not an error.
func (r *Repository[T]) Remove(ctx context.Context, partitionKey, sortKey any) error {
	table, err := r.tableName()
	if err != nil {
		return err
	}
	key, err := r.keyMap(partitionKey, sortKey)
	if err != nil {
		return err
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		r.logger.Error("delete item failed", "table", table, "error", err)
		return err
	}
	return nil
}

// Query runs a key-condition query against the base table or, when
// q.IndexName is set, a secondary index.
func (r *Repository[T]) Query(ctx context.Context, q Query) (*QueryResult[T], error) {
	if q.PartitionValue == nil {
		return nil, fmt.Errorf("%w: partition value required", ErrInvalidInput)
	}

	table, err := r.tableName()
	if err != nil {
		return nil, err
	}

	pkName, err := r.queryPartitionKey(q.IndexName)
	if err != nil {
		return nil, err
	}
	pkValue, err := keyValue(q.PartitionValue)
	if err != nil {
		return nil, err
	}

	sort, err := r.querySortCondition(q)
	if err != nil {
		return nil, err
	}

	startKey, err := decodePageToken(q.StartToken)
	if err != nil {
		return nil, err
	}

	cond := keyexpr.KeyCondition(pkName, pkValue, sort)
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    aws.String(cond.Expression),
		ExpressionAttributeNames:  cond.Names,
		ExpressionAttributeValues: cond.Values,
		ScanIndexForward:          aws.Bool(!q.Descending),
		ExclusiveStartKey:         startKey,
	}
	if q.IndexName != "" {
		input.IndexName = aws.String(q.IndexName)
	}
	if q.Limit > 0 {
		input.Limit = aws.Int32(q.Limit)
	}

	out, err := r.client.Query(ctx, input)
	if err != nil {
		r.logger.Error("query failed", "table", table, "index", q.IndexName, "error", err)
		return nil, err
	}

	items := make([]T, 0, len(out.Items))
	for _, raw := range out.Items {
		item, err := unmarshalItem[T](raw)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	next, err := encodePageToken(out.LastEvaluatedKey)
	if err != nil {
		return nil, err
	}

	return &QueryResult[T]{
		Items:     items,
		Count:     out.Count,
		NextToken: next,
	}, nil
}

// queryPartitionKey resolves the partition key attribute for a query,
// scoped to the index when one is named.
func (r *Repository[T]) queryPartitionKey(index string) (string, error) {
	if index != "" {
		name, err := r.registry.IndexPartitionKey(r.model, index)
		if err != nil {
			return "", err
		}
		if name == "" {
			return "", fmt.Errorf("%w: no partition key declared for index %q on %s", ErrMissingSchema, index, r.model)
		}
		return name, nil
	}

	name, ok := r.registry.PartitionKey(r.model)
	if !ok {
		return "", fmt.Errorf("%w: no partition key declared for %s", ErrMissingSchema, r.model)
	}
	return name, nil
}

// querySortCondition builds the sort half of the key condition, or nil when
// the query has no sort value.
func (r *Repository[T]) querySortCondition(q Query) (*keyexpr.Sort, error) {
	if q.SortValue == nil {
		return nil, nil
	}

	var skName string
	if q.IndexName != "" {
		name, err := r.registry.IndexSortKey(r.model, q.IndexName)
		if err != nil {
			return nil, err
		}
		skName = name
	} else {
		skName, _ = r.registry.SortKey(r.model)
	}
	if skName == "" {
		return nil, fmt.Errorf("%w: sort value supplied but no sort key declared for %s", ErrMissingSchema, r.model)
	}

	comparator := q.Comparator
	if comparator == "" {
		comparator = Equal
	}

	skValue, err := keyValue(q.SortValue)
	if err != nil {
		return nil, err
	}
	sort := &keyexpr.Sort{
		Name:       skName,
		Comparator: string(comparator),
		Value:      skValue,
	}

	if comparator == Between {
		if q.SortUpper == nil {
			return nil, fmt.Errorf("%w: Between requires SortUpper", ErrInvalidInput)
		}
		upper, err := keyValue(q.SortUpper)
		if err != nil {
			return nil, err
		}
		sort.Upper = upper
	}
	return sort, nil
}

// getRaw performs the point read shared by Get and SoftDelete, returning
// the raw item and the resolved table name.
func (r *Repository[T]) getRaw(ctx context.Context, partitionKey, sortKey any) (map[string]types.AttributeValue, string, error) {
	table, err := r.tableName()
	if err != nil {
		return nil, "", err
	}
	key, err := r.keyMap(partitionKey, sortKey)
	if err != nil {
		return nil, "", err
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		r.logger.Error("get item failed", "table", table, "error", err)
		return nil, "", err
	}
	if out.Item == nil {
		return nil, "", ErrNotFound
	}
	return out.Item, table, nil
}

// tableName resolves the declared table name for T.
func (r *Repository[T]) tableName() (string, error) {
	name, ok := r.registry.TableName(r.model)
	if !ok {
		return "", fmt.Errorf("%w: no table name declared for %s", ErrMissingSchema, r.model)
	}
	return name, nil
}

// keyMap builds the primary key map for a point operation. The sort key
// entry is included only when a sort key value is supplied.
func (r *Repository[T]) keyMap(partitionKey, sortKey any) (map[string]types.AttributeValue, error) {
	if partitionKey == nil {
		return nil, fmt.Errorf("%w: nil partition key value", ErrInvalidInput)
	}
	pkName, ok := r.registry.PartitionKey(r.model)
	if !ok {
		return nil, fmt.Errorf("%w: no partition key declared for %s", ErrMissingSchema, r.model)
	}

	pkValue, err := keyValue(partitionKey)
	if err != nil {
		return nil, err
	}
	key := map[string]types.AttributeValue{pkName: pkValue}

	if sortKey != nil {
		skName, ok := r.registry.SortKey(r.model)
		if !ok {
			return nil, fmt.Errorf("%w: sort key value supplied but no sort key declared for %s", ErrMissingSchema, r.model)
		}
		skValue, err := keyValue(sortKey)
		if err != nil {
			return nil, err
		}
		key[skName] = skValue
	}
	return key, nil
}

// keyValue marshals a scalar key value to its attribute value form.
func keyValue(v any) (types.AttributeValue, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("facet: marshal key value: %w", err)
	}
	return av, nil
}

// unmarshalItem converts a raw DynamoDB item into a typed entity.
func unmarshalItem[T any](raw map[string]types.AttributeValue) (*T, error) {
	var out T
	if err := attributevalue.UnmarshalMap(raw, &out); err != nil {
		return nil, fmt.Errorf("facet: unmarshal item: %w", err)
	}
	return &out, nil
}
