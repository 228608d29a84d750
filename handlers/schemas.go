package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const maxBodyBytes = 1 << 20

const objectIDPattern = `"type": "string", "pattern": "^[0-9a-fA-F]{24}$"`

const dateSchema = `{"type": "string", "minLength": 1}`

var schemaSources = map[string]string{
	"register": `{
		"type": "object",
		"additionalProperties": false,
		"required": ["username", "email", "password"],
		"properties": {
			"username": {"type": "string", "minLength": 1, "maxLength": 64},
			"email": {"type": "string", "format": "email"},
			"password": {"type": "string", "minLength": 6, "maxLength": 72}
		}
	}`,
	"login": `{
		"type": "object",
		"additionalProperties": false,
		"required": ["email", "password"],
		"properties": {
			"email": {"type": "string", "minLength": 1},
			"password": {"type": "string", "minLength": 1}
		}
	}`,
	"project-create": `{
		"type": "object",
		"additionalProperties": false,
		"required": ["name", "startDate", "endDate"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"startDate": ` + dateSchema + `,
			"endDate": ` + dateSchema + `,
			"status": {"enum": ["not-started", "in-progress", "completed"]},
			"userIds": {"type": "array", "items": {` + objectIDPattern + `}}
		}
	}`,
	"project-update": `{
		"type": "object",
		"additionalProperties": false,
		"minProperties": 1,
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"startDate": ` + dateSchema + `,
			"endDate": ` + dateSchema + `,
			"status": {"enum": ["not-started", "in-progress", "completed"]},
			"userIds": {"type": "array", "items": {` + objectIDPattern + `}}
		}
	}`,
	// The status enum is enforced by ProjectService.UpdateStatus.
	"project-status": `{
		"type": "object",
		"additionalProperties": false,
		"required": ["status"],
		"properties": {
			"status": {"type": "string"}
		}
	}`,
	"task-create": `{
		"type": "object",
		"additionalProperties": false,
		"required": ["name", "projectId"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"status": {"enum": ["pending", "in-progress", "completed"]},
			"projectId": {` + objectIDPattern + `}
		}
	}`,
	"task-update": `{
		"type": "object",
		"additionalProperties": false,
		"minProperties": 1,
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"status": {"enum": ["pending", "in-progress", "completed"]}
		}
	}`,
	"issue-create": `{
		"type": "object",
		"additionalProperties": false,
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"status": {"enum": ["open", "in-progress", "closed"]},
			"priority": {"enum": ["low", "medium", "high"]}
		}
	}`,
	"issue-update": `{
		"type": "object",
		"additionalProperties": false,
		"minProperties": 1,
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"status": {"enum": ["open", "in-progress", "closed"]},
			"priority": {"enum": ["low", "medium", "high"]}
		}
	}`,
}

// BodyValidator checks request bodies against compiled JSON schemas.
type BodyValidator struct {
	schemas map[string]*jsonschema.Schema
}

func NewBodyValidator() (*BodyValidator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	for name, src := range schemaSources {
		if err := compiler.AddResource(name+".json", strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	schemas := make(map[string]*jsonschema.Schema, len(schemaSources))
	for name := range schemaSources {
		schema, err := compiler.Compile(name + ".json")
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		schemas[name] = schema
	}
	return &BodyValidator{schemas: schemas}, nil
}

// BadRequestError is a body that failed to parse or validate.
type BadRequestError struct {
	Path    string
	Message string
}

func (e *BadRequestError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Decode reads the body, validates it against the named schema and decodes
// it into dst.
func (v *BodyValidator) Decode(r *http.Request, schemaName string, dst interface{}) error {
	schema, ok := v.schemas[schemaName]
	if !ok {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return &BadRequestError{Message: "could not read request body"}
	}
	if len(data) > maxBodyBytes {
		return &BadRequestError{Message: "request body too large"}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &BadRequestError{Message: "invalid JSON payload"}
	}
	if err := schema.Validate(doc); err != nil {
		return schemaError(err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &BadRequestError{Message: "invalid request payload"}
	}
	return nil
}

// schemaError reports the first leaf cause, which names the offending field.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &BadRequestError{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	path := strings.TrimPrefix(ve.InstanceLocation, "/")
	return &BadRequestError{Path: strings.ReplaceAll(path, "/", "."), Message: ve.Message}
}
