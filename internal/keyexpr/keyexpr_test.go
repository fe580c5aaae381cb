package keyexpr

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func strAttr(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

// --- KeyCondition Tests ---

func TestKeyCondition_PartitionOnly(t *testing.T) {
	cond := KeyCondition("pk", strAttr("USER"), nil)

	if cond.Expression != "#pk = :pkValue" {
		t.Errorf("expected '#pk = :pkValue', got %q", cond.Expression)
	}
	if cond.Names["#pk"] != "pk" {
		t.Errorf("expected #pk bound to 'pk', got %q", cond.Names["#pk"])
	}
	if v, ok := cond.Values[":pkValue"].(*types.AttributeValueMemberS); !ok || v.Value != "USER" {
		t.Error("expected :pkValue bound to 'USER'")
	}
	if len(cond.Names) != 1 || len(cond.Values) != 1 {
		t.Errorf("expected single name and value binding, got %d/%d", len(cond.Names), len(cond.Values))
	}
}

func TestKeyCondition_SortDefaultComparator(t *testing.T) {
	cond := KeyCondition("pk", strAttr("USER"), &Sort{
		Name:  "sk",
		Value: strAttr("user-1"),
	})

	if cond.Expression != "#pk = :pkValue AND #sk = :skValue" {
		t.Errorf("unexpected expression %q", cond.Expression)
	}
	if cond.Names["#sk"] != "sk" {
		t.Errorf("expected #sk bound to 'sk', got %q", cond.Names["#sk"])
	}
	if v, ok := cond.Values[":skValue"].(*types.AttributeValueMemberS); !ok || v.Value != "user-1" {
		t.Error("expected :skValue bound to 'user-1'")
	}
}

func TestKeyCondition_Comparators(t *testing.T) {
	tests := []struct {
		comparator string
		expected   string
	}{
		{"=", "#pk = :pkValue AND #sk = :skValue"},
		{">", "#pk = :pkValue AND #sk > :skValue"},
		{"<", "#pk = :pkValue AND #sk < :skValue"},
		{">=", "#pk = :pkValue AND #sk >= :skValue"},
		{"<=", "#pk = :pkValue AND #sk <= :skValue"},
	}

	for _, tt := range tests {
		t.Run(tt.comparator, func(t *testing.T) {
			cond := KeyCondition("pk", strAttr("A"), &Sort{
				Name:       "sk",
				Comparator: tt.comparator,
				Value:      strAttr("B"),
			})
			if cond.Expression != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, cond.Expression)
			}
		})
	}
}

func TestKeyCondition_BeginsWith(t *testing.T) {
	cond := KeyCondition("pk", strAttr("USER"), &Sort{
		Name:       "sk",
		Comparator: BeginsWith,
		Value:      strAttr("2024-"),
	})

	expected := "#pk = :pkValue AND begins_with(#sk, :skValue)"
	if cond.Expression != expected {
		t.Errorf("expected %q, got %q", expected, cond.Expression)
	}
	if v, ok := cond.Values[":skValue"].(*types.AttributeValueMemberS); !ok || v.Value != "2024-" {
		t.Error("expected :skValue bound to '2024-'")
	}
}

func TestKeyCondition_Between(t *testing.T) {
	cond := KeyCondition("pk", strAttr("USER"), &Sort{
		Name:       "sk",
		Comparator: Between,
		Value:      strAttr("2024-01"),
		Upper:      strAttr("2024-12"),
	})

	expected := "#pk = :pkValue AND #sk BETWEEN :skValue AND :skValueUpper"
	if cond.Expression != expected {
		t.Errorf("expected %q, got %q", expected, cond.Expression)
	}
	if v, ok := cond.Values[":skValueUpper"].(*types.AttributeValueMemberS); !ok || v.Value != "2024-12" {
		t.Error("expected :skValueUpper bound to '2024-12'")
	}
}

func TestKeyCondition_NumericPartition(t *testing.T) {
	cond := KeyCondition("year", &types.AttributeValueMemberN{Value: "2024"}, nil)

	if v, ok := cond.Values[":pkValue"].(*types.AttributeValueMemberN); !ok || v.Value != "2024" {
		t.Error("expected numeric :pkValue binding")
	}
}

// --- CreateCondition Tests ---

func TestCreateCondition_PartitionOnly(t *testing.T) {
	cond := CreateCondition("pk", "")

	if cond.Expression != "attribute_not_exists(#pk)" {
		t.Errorf("unexpected expression %q", cond.Expression)
	}
	if cond.Names["#pk"] != "pk" {
		t.Errorf("expected #pk bound to 'pk', got %q", cond.Names["#pk"])
	}
	if _, ok := cond.Names["#sk"]; ok {
		t.Error("expected no #sk binding without a sort key")
	}
	if len(cond.Values) != 0 {
		t.Errorf("expected no value bindings, got %d", len(cond.Values))
	}
}

func TestCreateCondition_CompositeKey(t *testing.T) {
	cond := CreateCondition("pk", "sk")

	expected := "attribute_not_exists(#pk) AND attribute_not_exists(#sk)"
	if cond.Expression != expected {
		t.Errorf("expected %q, got %q", expected, cond.Expression)
	}
	if cond.Names["#sk"] != "sk" {
		t.Errorf("expected #sk bound to 'sk', got %q", cond.Names["#sk"])
	}
}

func TestCreateCondition_CustomAttributeNames(t *testing.T) {
	cond := CreateCondition("user_id", "created_at")

	if cond.Names["#pk"] != "user_id" {
		t.Errorf("expected #pk bound to 'user_id', got %q", cond.Names["#pk"])
	}
	if cond.Names["#sk"] != "created_at" {
		t.Errorf("expected #sk bound to 'created_at', got %q", cond.Names["#sk"])
	}
}
