package mcp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks template inputs and outputs against their JSON
// schemas. Compiled schemas are cached.
type Validator struct {
	cache sync.Map // map[string]*gojsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks a JSON document against a schema given as a map. A
// nil schema accepts everything.
func (v *Validator) Validate(schemaData map[string]any, docJSON string) error {
	if len(schemaData) == 0 {
		return nil
	}
	schema, err := v.compiled(schemaData)
	if err != nil {
		return fmt.Errorf("invalid schema definition: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(docJSON))
	if err != nil {
		return fmt.Errorf("validation execution failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("schema validation failed:\n- %s", dumpErrors(errs))
}

func (v *Validator) compiled(schemaData map[string]any) (*gojsonschema.Schema, error) {
	jsonBytes, err := json.Marshal(schemaData)
	if err != nil {
		return nil, err
	}
	key := string(jsonBytes)

	if val, ok := v.cache.Load(key); ok {
		return val.(*gojsonschema.Schema), nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
	if err != nil {
		return nil, err
	}
	v.cache.Store(key, schema)
	return schema, nil
}

func dumpErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0]
	}
	// return first 3 errors to avoid massive output
	truncated := ""
	if len(errs) > 3 {
		truncated = fmt.Sprintf("... and %d more", len(errs)-3)
		errs = errs[:3]
	}

	result := ""
	for i, e := range errs {
		if i > 0 {
			result += "\n- "
		}
		result += e
	}
	return result + truncated
}
