package mongo

import (
	"testing"

	"attorneyvisit/internal/migrations/mongo/validators"

	"go.mongodb.org/mongo-driver/bson"
)

func TestReceiptIndexes(t *testing.T) {
	indexes := ReceiptIndexes()
	if len(indexes) != 3 {
		t.Fatalf("len(indexes) = %d, want 3", len(indexes))
	}

	first, ok := indexes[0].Keys.(bson.D)
	if !ok || first[0].Key != "submission_id" {
		t.Errorf("first index keys = %v", indexes[0].Keys)
	}
	if indexes[0].Options == nil || indexes[0].Options.Unique == nil || !*indexes[0].Options.Unique {
		t.Error("submission_id index must be unique")
	}

	ttl := indexes[2].Options
	if ttl == nil || ttl.ExpireAfterSeconds == nil || *ttl.ExpireAfterSeconds != int32(180*24*60*60) {
		t.Error("created_at index must expire receipts after the retention period")
	}
}

func TestReceiptValidator_RequiredFields(t *testing.T) {
	schema := validators.ReceiptValidator["$jsonSchema"].(bson.M)
	required := schema["required"].([]string)

	want := map[string]bool{"submission_id": true, "identifier_kind": true, "simulated": true, "created_at": true}
	for _, f := range required {
		delete(want, f)
	}
	if len(want) != 0 {
		t.Errorf("missing required fields: %v", want)
	}
}
