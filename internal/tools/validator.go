package tools

import (
	"errors"
	"fmt"
)

// ValidateCall checks tool call arguments against the tool's schema.
func ValidateCall(reg *Registry, name string, args map[string]interface{}) error {
	if reg == nil {
		return errors.New("tool registry unavailable")
	}
	schema, ok := reg.Schema(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return validateAgainstSchema(schema, args)
}

func validateAgainstSchema(schema Schema, args map[string]interface{}) error {
	for _, field := range schema.Parameters {
		val, exists := args[field.Name]
		if exists && val == nil && !field.Required {
			continue
		}
		if field.Required && !exists {
			return fmt.Errorf("%s is required", field.Name)
		}
		if !exists {
			continue
		}
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("%s must be string", field.Name)
		}
		if field.Required && s == "" {
			return fmt.Errorf("%s must not be empty", field.Name)
		}
	}
	return nil
}
