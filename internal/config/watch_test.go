package config

import "testing"

func TestDecodeMergePatch(t *testing.T) {
	patch := []byte(`{"engine":{"loop_count":20}}`)
	changes := decodeMergePatch(patch)
	if len(changes) != 1 {
		t.Fatalf("expected 1 top-level change, got %d: %+v", len(changes), changes)
	}
	if changes[0].Path != "/engine" || changes[0].Op != "replace" {
		t.Errorf("unexpected change: %+v", changes[0])
	}
	obj, ok := changes[0].Value.(map[string]any)
	if !ok || obj["loop_count"] != float64(20) {
		t.Errorf("expected nested loop_count=20, got %+v", changes[0].Value)
	}
}

func TestDecodeMergePatchMultipleTopLevelKeys(t *testing.T) {
	patch := []byte(`{"engine":{"loop_count":5},"logging":{"level":"debug"}}`)
	changes := decodeMergePatch(patch)
	if len(changes) != 2 {
		t.Fatalf("expected 2 top-level changes, got %d: %+v", len(changes), changes)
	}
}

func TestDecodeMergePatchEmpty(t *testing.T) {
	if changes := decodeMergePatch([]byte(`{}`)); len(changes) != 0 {
		t.Errorf("expected no changes for an empty patch, got %+v", changes)
	}
}

func TestDecodeMergePatchMalformed(t *testing.T) {
	if changes := decodeMergePatch([]byte(`not json`)); changes != nil {
		t.Errorf("expected nil changes for malformed input, got %+v", changes)
	}
}
