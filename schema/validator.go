package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/johnathanacortesd/LimpiarV/internal/pipeline"
)

//go:embed options.schema.json
var optionsSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateRunOptions parses the options JSON a client sends with a cleaning
// request. Fields left out keep their pipeline defaults; unknown fields and
// out-of-range thresholds are rejected.
func ValidateRunOptions(payload json.RawMessage) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	if len(bytes.TrimSpace(payload)) == 0 {
		return opts, nil
	}

	value, err := decodeStrictJSON(payload)
	if err != nil {
		return opts, fmt.Errorf("decode options JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return opts, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return opts, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return opts, fmt.Errorf("normalize options JSON: %w", err)
	}

	if err := json.Unmarshal(normalized, &opts); err != nil {
		return opts, fmt.Errorf("unmarshal options: %w", err)
	}

	return opts, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("options.schema.json", strings.NewReader(optionsSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("options.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(raw)))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("options contain trailing content")
	}

	return value, nil
}
