package jsonrpc

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	relerrors "thoreinstein.com/relnote/pkg/errors"
)

// ValidateArgs checks tool arguments against a JSON Schema. A nil
// args is treated as an empty object so tools with all-optional
// parameters can be called without an arguments field.
func ValidateArgs(schema map[string]any, args json.RawMessage) error {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewBytesLoader(args),
	)
	if err != nil {
		return relerrors.NewInvalidParams("arguments are not a JSON object").WithCause(err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return relerrors.NewInvalidParams(strings.Join(details, "; "))
}
