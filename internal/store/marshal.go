package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ontic/internal/ir"
)

// marshalArgs converts positional args to canonical JSON TEXT.
func marshalArgs(args ir.List) (string, error) {
	if args == nil {
		args = ir.List{}
	}
	data, err := ir.MarshalVerbatim(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// marshalResult converts an outcome result to canonical JSON TEXT.
func marshalResult(result ir.Object) (string, error) {
	if result == nil {
		result = ir.Object{}
	}
	data, err := ir.MarshalVerbatim(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses canonical JSON TEXT. Large integers survive because
// ir.List decodes numbers via json.Number.
func unmarshalArgs(data string) (ir.List, error) {
	if data == "" || data == "[]" {
		return ir.List{}, nil
	}
	var list ir.List
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return list, nil
}

func unmarshalResult(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return obj, nil
}
