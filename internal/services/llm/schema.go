package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// convertToGenaiSchema converts a map[string]interface{} JSON schema into a genai.Schema.
// Supported keys: type, description, enum, required, minimum, maximum, items,
// properties and propertyOrdering.
func convertToGenaiSchema(schemaMap map[string]interface{}) (*genai.Schema, error) {
	if len(schemaMap) == 0 {
		return nil, nil
	}

	schema := &genai.Schema{}

	if typeStr, ok := schemaMap["type"].(string); ok {
		switch strings.ToLower(typeStr) {
		case "object":
			schema.Type = genai.TypeObject
		case "array":
			schema.Type = genai.TypeArray
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		default:
			return nil, fmt.Errorf("unsupported schema type %q", typeStr)
		}
	}

	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}

	schema.Enum = stringList(schemaMap["enum"])
	schema.Required = stringList(schemaMap["required"])
	schema.PropertyOrdering = stringList(schemaMap["propertyOrdering"])

	schema.Minimum = floatPtr(schemaMap["minimum"])
	schema.Maximum = floatPtr(schemaMap["maximum"])

	if itemsMap, ok := schemaMap["items"].(map[string]interface{}); ok {
		itemSchema, err := convertToGenaiSchema(itemsMap)
		if err != nil {
			return nil, fmt.Errorf("failed to convert items schema: %w", err)
		}
		schema.Items = itemSchema
	}

	if propsMap, ok := schemaMap["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema, len(propsMap))
		for propName, propVal := range propsMap {
			propMap, ok := propVal.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("property '%s' is not an object", propName)
			}
			propSchema, err := convertToGenaiSchema(propMap)
			if err != nil {
				return nil, fmt.Errorf("failed to convert property '%s': %w", propName, err)
			}
			schema.Properties[propName] = propSchema
		}
	}

	return schema, nil
}

func stringList(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...)
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func floatPtr(v interface{}) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

// renderSchemaForPrompt renders the schema as indented JSON for providers
// that take the schema as prompt text
func renderSchemaForPrompt(schemaMap map[string]interface{}) (string, error) {
	data, err := json.MarshalIndent(schemaMap, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
