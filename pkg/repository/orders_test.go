package repository

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestPurchasedUpdateOnBuy(t *testing.T) {
	at := time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)

	update := purchasedUpdate(true, at)

	set, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatalf("missing $set: %+v", update)
	}
	if set["purchased"] != true {
		t.Errorf("purchased not set: %+v", set)
	}
	if set["purchased_at"] != at {
		t.Errorf("purchased_at not set to the buy time: %+v", set)
	}
	if _, unsets := update["$unset"]; unsets {
		t.Errorf("buy should not unset anything: %+v", update)
	}
}

func TestPurchasedUpdateOnReturnClearsTimestamp(t *testing.T) {
	update := purchasedUpdate(false, time.Now())

	set, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatalf("missing $set: %+v", update)
	}
	if set["purchased"] != false {
		t.Errorf("purchased not cleared: %+v", set)
	}
	if _, stale := set["purchased_at"]; stale {
		t.Errorf("return must not write purchased_at: %+v", set)
	}

	unset, ok := update["$unset"].(bson.M)
	if !ok {
		t.Fatalf("return must unset purchased_at: %+v", update)
	}
	if _, ok := unset["purchased_at"]; !ok {
		t.Errorf("purchased_at not unset: %+v", unset)
	}
}
