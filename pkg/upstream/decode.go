package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/hostel-console-api/internal/models"
)

// DecodeList accepts a bare array, {data: [...]}, {content: [...]} or
// {data: {content: [...]}} and returns the contained objects.
func DecodeList(body []byte) ([]models.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []models.Record{}, nil
	}
	raw, err := decode(body)
	if err != nil {
		return nil, err
	}
	items, ok := unwrapList(raw)
	if !ok {
		return nil, fmt.Errorf("unrecognized list payload of type %T", raw)
	}
	records := make([]models.Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			records = append(records, models.Record(obj))
		}
	}
	return records, nil
}

// DecodeRecord decodes a single object, unwrapping a {data: {...}} envelope.
func DecodeRecord(body []byte) (models.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return models.Record{}, nil
	}
	raw, err := decode(body)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected object payload, got %T", raw)
	}
	if inner, ok := obj["data"].(map[string]interface{}); ok {
		if _, hasID := obj["id"]; !hasID {
			return models.Record(inner), nil
		}
	}
	return models.Record(obj), nil
}

func decode(body []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode upstream payload: %w", err)
	}
	return raw, nil
}

func unwrapList(raw interface{}) ([]interface{}, bool) {
	switch v := raw.(type) {
	case []interface{}:
		return v, true
	case map[string]interface{}:
		for _, key := range []string{"data", "content"} {
			if inner, ok := v[key]; ok {
				if items, ok := unwrapList(inner); ok {
					return items, true
				}
			}
		}
	}
	return nil, false
}
