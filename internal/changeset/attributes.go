package changeset

import (
	"fmt"
	"reflect"
	"time"

	"github.com/steveyegge/reqsync/internal/model"
	"github.com/steveyegge/reqsync/internal/types"
)

// valueBuilder is the validator's result: the resolved kind, the
// canonical storage key and the canonicalized value.
type valueBuilder struct {
	Kind  types.AttributeKind
	Key   string // "values" for Enum, "value" otherwise
	Value any    // []string for Enum; string/int64/float64/bool/time.Time otherwise
}

// checkAttributeValue type-checks a raw snapshot value against the
// owning requirement type's declared attribute kind and canonicalizes
// it. Enum values must additionally name at least one declared literal
// of the data type definition. Mismatches fail with
// InvalidFieldValueError; the validator never substitutes defaults.
func (tc *TrackerChange) checkAttributeValue(name string, raw any, reqTypeID string) (valueBuilder, error) {
	reqType, ok := tc.snapshot.RequirementTypes[reqTypeID]
	if !ok {
		return valueBuilder{}, &InvalidFieldValueError{
			Attribute: name, Value: raw,
			Reason: fmt.Sprintf("unknown requirement type %q", reqTypeID),
		}
	}
	def, ok := reqType.Attributes[name]
	if !ok {
		return valueBuilder{}, &InvalidFieldValueError{
			Attribute: name, Value: raw,
			Reason: fmt.Sprintf("attribute not declared on requirement type %q", reqTypeID),
		}
	}

	if def.Kind == types.KindEnum {
		values, ok := stringList(raw)
		if !ok {
			return valueBuilder{}, &InvalidFieldValueError{
				Attribute: name, Value: raw, Reason: "expected a list of literal names",
			}
		}
		options := tc.snapshot.DataTypes[name]
		if !anyDeclared(values, options) {
			return valueBuilder{}, &InvalidFieldValueError{
				Attribute: name, Value: raw,
				Reason: fmt.Sprintf("no listed literal is declared on data type %q", name),
			}
		}
		return valueBuilder{Kind: def.Kind, Key: "values", Value: values}, nil
	}

	value, ok := canonicalScalar(def.Kind, raw)
	if !ok {
		return valueBuilder{}, &InvalidFieldValueError{
			Attribute: name, Value: raw,
			Reason: fmt.Sprintf("expected a %s value", def.Kind),
		}
	}
	return valueBuilder{Kind: def.Kind, Key: "value", Value: value}, nil
}

// attributeValueCreate builds the creation payload for one attribute
// value, resolving the definition and, for Enum kinds, each literal to
// a concrete reference or promise.
func (tc *TrackerChange) attributeValueCreate(name string, raw any, reqTypeID string) (types.AttributeValuePayload, error) {
	builder, err := tc.checkAttributeValue(name, raw, reqTypeID)
	if err != nil {
		return types.AttributeValuePayload{}, err
	}

	payload := types.AttributeValuePayload{
		Kind:       builder.Kind,
		Definition: tc.resolveAttributeDefinition(builder.Kind, name, reqTypeID),
	}
	if builder.Kind == types.KindEnum {
		for _, v := range builder.Value.([]string) {
			payload.Values = append(payload.Values, tc.resolveEnumValue(name, v))
		}
	} else {
		payload.Value = builder.Value
	}
	return payload, nil
}

// attributeValueMod diffs one snapshot attribute against the live work
// item. It returns a creation payload when the value is not stored
// live, a (name, value) modification when the stored value differs, or
// neither when nothing changed or the live type does not declare the
// attribute in the snapshot.
func (tc *TrackerChange) attributeValueMod(live model.Item, name string, raw any) (*types.AttributeValuePayload, any, bool, error) {
	liveType := live.ItemType()
	if liveType == nil {
		return nil, nil, false, nil
	}
	reqTypeID := liveType.Identifier
	reqType, ok := tc.snapshot.RequirementTypes[reqTypeID]
	if !ok {
		return nil, nil, false, nil
	}
	if _, ok := reqType.Attributes[name]; !ok {
		return nil, nil, false, nil
	}

	builder, err := tc.checkAttributeValue(name, raw, reqTypeID)
	if err != nil {
		return nil, nil, false, err
	}

	defID := types.AttributeDefinitionID(name, reqTypeID)
	attrDef := tc.finder.AttributeDefinitionByIdentifier(defID, builder.Kind == types.KindEnum)
	var stored *model.AttributeValue
	if attrDef != nil {
		stored = attributeByDefinition(live, attrDef)
	}
	if stored == nil {
		payload, err := tc.attributeValueCreate(name, raw, reqTypeID)
		if err != nil {
			return nil, nil, false, err
		}
		return &payload, nil, false, nil
	}

	if builder.Kind == types.KindEnum {
		if !sameStringSet(stored.ValueNames(), builder.Value.([]string)) {
			return nil, builder.Value, true, nil
		}
		return nil, nil, false, nil
	}
	if !valuesEqual(stored.Value, builder.Value) {
		return nil, builder.Value, true, nil
	}
	return nil, nil, false, nil
}

func attributeByDefinition(live model.Item, def *model.AttributeDefinition) *model.AttributeValue {
	for _, a := range live.ItemAttributes() {
		if a.Definition == def {
			return a
		}
	}
	return nil
}

// stringList normalizes a raw snapshot list into []string. YAML decodes
// sequences as []any.
func stringList(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func anyDeclared(values, options []string) bool {
	for _, v := range values {
		for _, o := range options {
			if v == o {
				return true
			}
		}
	}
	return false
}

// canonicalScalar checks a raw scalar's runtime shape against the kind
// and converts it to the canonical in-memory type.
func canonicalScalar(kind types.AttributeKind, raw any) (any, bool) {
	switch kind {
	case types.KindString:
		s, ok := raw.(string)
		return s, ok
	case types.KindInteger:
		switch v := raw.(type) {
		case int:
			return int64(v), true
		case int64:
			return v, true
		}
		return nil, false
	case types.KindFloat:
		f, ok := raw.(float64)
		return f, ok
	case types.KindBoolean:
		b, ok := raw.(bool)
		return b, ok
	case types.KindDate:
		t, ok := raw.(time.Time)
		return t, ok
	}
	return nil, false
}

func valuesEqual(a, b any) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}

func sameStringSet(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	other := make(map[string]bool, len(b))
	for _, s := range b {
		if !set[s] {
			return false
		}
		other[s] = true
	}
	return len(set) == len(other)
}
