package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct converts a projection into a protobuf Struct through its JSON form, so
// gRPC and HTTP clients see the same field names.
func ToStruct(v any) (*structpb.Struct, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode projection: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("projection is not an object: %w", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("convert projection: %w", err)
	}
	return out, nil
}

// ToListStruct wraps a list projection under a single field.
func ToListStruct(field string, v any) (*structpb.Struct, error) {
	return ToStruct(map[string]any{field: v})
}
