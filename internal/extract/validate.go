package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator compiles a schema once and validates documents against it.
type SchemaValidator struct {
	name      string
	schemaMap map[string]any

	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

func NewSchemaValidator(name string, schemaMap map[string]any) *SchemaValidator {
	return &SchemaValidator{name: name, schemaMap: schemaMap}
}

func (v *SchemaValidator) compile() {
	b, err := json.Marshal(v.schemaMap)
	if err != nil {
		v.err = fmt.Errorf("marshal schema: %w", err)
		return
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(v.name, bytes.NewReader(b)); err != nil {
		v.err = fmt.Errorf("add schema: %w", err)
		return
	}
	v.schema, v.err = compiler.Compile(v.name)
	if v.err != nil {
		v.err = fmt.Errorf("compile schema: %w", v.err)
	}
}

// Validate checks data against the compiled schema.
func (v *SchemaValidator) Validate(data []byte) error {
	v.once.Do(v.compile)
	if v.err != nil {
		return v.err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
