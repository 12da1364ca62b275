package config

import (
	"encoding/json"
	"fmt"
	"strconv"

	yaml "gopkg.in/yaml.v3"
)

// decodeDocument unmarshals a configuration document into target using target's json tags.
// Valid JSON is decoded directly. Anything else is read as YAML, converted to the shapes that
// encoding/json produces, and then decoded the same way.
func decodeDocument(data []byte, target interface{}) error {
	if json.Valid(data) {
		return json.Unmarshal(data, target)
	}
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("not valid JSON or YAML: %w", err)
	}
	converted, err := jsonShaped(doc, "")
	if err != nil {
		return err
	}
	reencoded, err := json.Marshal(converted)
	if err != nil {
		return err
	}
	return json.Unmarshal(reencoded, target)
}

// jsonShaped replaces any map with non-string keys by a map[string]interface{}, failing if a
// key is not a string. at is the location of value within the document.
func jsonShaped(value interface{}, at string) (interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		for i, item := range v {
			converted, err := jsonShaped(item, at+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			v[i] = converted
		}
		return v, nil
	case map[string]interface{}:
		for key, item := range v {
			converted, err := jsonShaped(item, at+"."+key)
			if err != nil {
				return nil, err
			}
			v[key] = converted
		}
		return v, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			key, ok := k.(string)
			if !ok {
				if at == "" {
					at = "top level"
				}
				return nil, fmt.Errorf("map key %v at %s is a %T; only string keys are allowed", k, at, k)
			}
			converted, err := jsonShaped(item, at+"."+key)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	default:
		return value, nil
	}
}
