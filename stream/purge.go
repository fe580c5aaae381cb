// Package stream provides DynamoDB Streams handlers for soft-delete cleanup.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/facet/store"
)

// DefaultRetention is how long a soft-deleted item is kept before TTL
// expiry when no retention is configured.
const DefaultRetention = 30 * 24 * time.Hour

// Handler schedules TTL-based purging of soft-deleted items.
//
// When a repository soft-deletes an item, the item stays in the table with a
// deletedAt timestamp. Attaching this handler to the table's stream sets a
// numeric ttl attribute to deletedAt + retention on each newly soft-deleted
// item, so DynamoDB expires it after the retention window.
type Handler struct {
	client    store.DynamoDBClient
	tableName string
	retention time.Duration
	logger    *slog.Logger
}

// NewHandler creates a stream handler for the given table. A zero retention
// defaults to DefaultRetention.
func NewHandler(client store.DynamoDBClient, tableName string, retention time.Duration, logger *slog.Logger) *Handler {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		client:    client,
		tableName: tableName,
		retention: retention,
		logger:    logger,
	}
}

// HandlePurgeScheduling processes DynamoDB stream events, scheduling TTL
// expiry for items whose deletedAt attribute was newly stamped. This
// function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandlePurgeScheduling(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	// Only process MODIFY events where deletedAt was added
	if record.EventName != "MODIFY" {
		return nil
	}

	oldStamp := getStringAttr(record.Change.OldImage, store.DeletedAtAttribute)
	newStamp := getStringAttr(record.Change.NewImage, store.DeletedAtAttribute)
	if oldStamp != "" || newStamp == "" {
		return nil
	}

	deletedAt, err := time.Parse(time.RFC3339, newStamp)
	if err != nil {
		h.logger.Warn("skipping record with unparseable deletedAt",
			"eventID", record.EventID,
			"deletedAt", newStamp,
		)
		return nil
	}

	key := ConvertStreamKey(record.Change.Keys)
	if len(key) == 0 {
		return fmt.Errorf("stream record %s has no key attributes", record.EventID)
	}

	expiry := deletedAt.Add(h.retention).Unix()
	_, err = h.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(h.tableName),
		Key:                 key,
		UpdateExpression:    aws.String("SET #ttl = :expiry"),
		ConditionExpression: aws.String("attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expiry": &types.AttributeValueMemberN{
				Value: strconv.FormatInt(expiry, 10),
			},
		},
	})

	// Ignore condition failure - purge already scheduled
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	if err != nil {
		return err
	}

	h.logger.Info("scheduled purge for soft-deleted item",
		"table", h.tableName,
		"expiry", expiry,
	)
	return nil
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeString {
			return v.String()
		}
	}
	return ""
}

// ConvertStreamKey converts a DynamoDB stream key to the SDK attribute
// value form used by store operations.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue)
	for k, v := range streamKey {
		switch v.DataType() {
		case events.DataTypeString:
			result[k] = &types.AttributeValueMemberS{Value: v.String()}
		case events.DataTypeNumber:
			result[k] = &types.AttributeValueMemberN{Value: v.Number()}
		case events.DataTypeBinary:
			result[k] = &types.AttributeValueMemberB{Value: v.Binary()}
		}
	}
	return result
}
