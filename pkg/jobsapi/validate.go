package jobsapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/garnizeh/jobtrail/pkg/models"
	"github.com/qri-io/jsonschema"
)

//go:embed schema/*.json
var schemaFS embed.FS

// ErrInvalidPayload is returned when a request body fails schema validation.
var ErrInvalidPayload = errors.New("invalid job payload")

var (
	createSchema = mustSchema("schema/job_create.json")
	patchSchema  = mustSchema("schema/job_patch.json")
)

func mustSchema(name string) *jsonschema.Schema {
	b, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("jobsapi: read %s: %v", name, err))
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(b, rs); err != nil {
		panic(fmt.Sprintf("jobsapi: compile %s: %v", name, err))
	}
	return rs
}

// ValidateCreate checks a create payload against the embedded create schema.
func ValidateCreate(ctx context.Context, p models.JobPatch) error {
	return validate(ctx, createSchema, p)
}

// ValidatePatch checks an update payload against the embedded patch schema.
func ValidatePatch(ctx context.Context, p models.JobPatch) error {
	return validate(ctx, patchSchema, p)
}

func validate(ctx context.Context, rs *jsonschema.Schema, p models.JobPatch) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	verrs, err := rs.ValidateBytes(ctx, data)
	if err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(verrs))
	for _, ke := range verrs {
		if ke.PropertyPath != "" && ke.PropertyPath != "/" {
			msgs = append(msgs, ke.PropertyPath+": "+ke.Message)
			continue
		}
		msgs = append(msgs, ke.Message)
	}
	return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
}
