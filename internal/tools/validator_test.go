package tools

import (
	"errors"
	"testing"
)

func TestValidateCallSchema(t *testing.T) {
	reg := NewRegistry(nil, nil, nil)
	err := ValidateCall(reg, NameScanEnvs, map[string]interface{}{"root_path": "/tmp/x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateCall(reg, NameScanEnvs, map[string]interface{}{}); err == nil {
		t.Fatalf("expected missing root_path error")
	}
	if err := ValidateCall(reg, NameScanEnvs, map[string]interface{}{"root_path": ""}); err == nil {
		t.Fatalf("expected empty root_path error")
	}
	if err := ValidateCall(reg, NameDownloadRepo, map[string]interface{}{"repo_url": 123}); err == nil {
		t.Fatalf("expected type error")
	}
}

func TestValidateOptionalFields(t *testing.T) {
	reg := NewRegistry(nil, nil, nil)
	if err := ValidateCall(reg, NameDownloadRepo, map[string]interface{}{"repo_url": "acme/widgets"}); err != nil {
		t.Fatalf("ref should be optional: %v", err)
	}
	if err := ValidateCall(reg, NameDownloadRepo, map[string]interface{}{"repo_url": "acme/widgets", "ref": nil}); err != nil {
		t.Fatalf("null ref should be accepted: %v", err)
	}
	if err := ValidateCall(reg, NameDownloadRepo, map[string]interface{}{"repo_url": "acme/widgets", "ref": 7}); err == nil {
		t.Fatalf("expected ref type error")
	}
}

func TestValidateUnknownTool(t *testing.T) {
	reg := NewRegistry(nil, nil, nil)
	err := ValidateCall(reg, "terminal.exec", map[string]interface{}{})
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if err := ValidateCall(nil, NameScanEnvs, nil); err == nil {
		t.Fatalf("expected error for nil registry")
	}
}

func TestCatalogDeclaresStringParameters(t *testing.T) {
	reg := NewRegistry(nil, nil, nil)
	for _, schema := range reg.Schemas() {
		for _, field := range schema.Parameters {
			if field.Type != "string" {
				t.Fatalf("%s.%s: validation only handles string parameters, got %s", schema.Name, field.Name, field.Type)
			}
		}
	}
}
