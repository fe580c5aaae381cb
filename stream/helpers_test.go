package stream

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

// --- getStringAttr Tests ---

func TestGetStringAttr_ExistingString(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"deletedAt": events.NewStringAttribute("2024-06-01T12:00:00Z"),
	}

	result := getStringAttr(image, "deletedAt")
	if result != "2024-06-01T12:00:00Z" {
		t.Errorf("expected '2024-06-01T12:00:00Z', got %q", result)
	}
}

func TestGetStringAttr_MissingKey(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"other": events.NewStringAttribute("value"),
	}

	result := getStringAttr(image, "deletedAt")
	if result != "" {
		t.Errorf("expected empty string for missing key, got %q", result)
	}
}

func TestGetStringAttr_NilImage(t *testing.T) {
	var image map[string]events.DynamoDBAttributeValue

	result := getStringAttr(image, "deletedAt")
	if result != "" {
		t.Errorf("expected empty string for nil image, got %q", result)
	}
}

func TestGetStringAttr_WrongType(t *testing.T) {
	// Attribute exists but is a number, not a string
	image := map[string]events.DynamoDBAttributeValue{
		"deletedAt": events.NewNumberAttribute("1717243200"),
	}

	result := getStringAttr(image, "deletedAt")
	if result != "" {
		t.Errorf("expected empty string for non-string attribute, got %q", result)
	}
}

// --- processRecord Logic Tests ---

func TestProcessRecord_SkipsNonModifyEvents(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
	}{
		{"INSERT", "INSERT"},
		{"REMOVE", "REMOVE"},
		{"Unknown", "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(nil, "users", 0, nil)
			record := events.DynamoDBEventRecord{
				EventName: tt.eventName,
			}

			err := h.processRecord(context.Background(), record)
			if err != nil {
				t.Errorf("expected no error for %s event, got %v", tt.eventName, err)
			}
		})
	}
}

func TestProcessRecord_SkipsModifyWithoutDeletedAt(t *testing.T) {
	h := NewHandler(nil, "users", 0, nil)

	record := events.DynamoDBEventRecord{
		EventName: "MODIFY",
		Change: events.DynamoDBStreamRecord{
			OldImage: map[string]events.DynamoDBAttributeValue{
				"pk":   events.NewStringAttribute("USER"),
				"name": events.NewStringAttribute("old"),
			},
			NewImage: map[string]events.DynamoDBAttributeValue{
				"pk":   events.NewStringAttribute("USER"),
				"name": events.NewStringAttribute("new"),
			},
		},
	}

	err := h.processRecord(context.Background(), record)
	if err != nil {
		t.Errorf("expected no error for MODIFY without deletedAt, got %v", err)
	}
}

func TestProcessRecord_MissingKeyAttributes(t *testing.T) {
	h := NewHandler(nil, "users", 0, nil)

	// Newly stamped deletedAt but no key attributes on the record
	record := events.DynamoDBEventRecord{
		EventID:   "evt-bad",
		EventName: "MODIFY",
		Change: events.DynamoDBStreamRecord{
			OldImage: map[string]events.DynamoDBAttributeValue{
				"pk": events.NewStringAttribute("USER"),
			},
			NewImage: map[string]events.DynamoDBAttributeValue{
				"pk":        events.NewStringAttribute("USER"),
				"deletedAt": events.NewStringAttribute("2024-06-01T12:00:00Z"),
			},
		},
	}

	err := h.processRecord(context.Background(), record)
	if err == nil {
		t.Error("expected an error for a record with no key attributes")
	}
}
