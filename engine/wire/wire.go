// Package wire encodes compiled predicates as protobuf Structs so they can
// cross process boundaries or be stored next to saved searches.
//
// Every node becomes a Struct with a "kind" field plus the fields that kind
// uses. Values carry their attribute type, and time values travel as
// RFC 3339 strings, so decoding restores the original Go types.
package wire

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/convert"
	"github.com/omniql-engine/omnifilter/mapping"
)

// Field names of an encoded node.
const (
	fieldKind     = "kind"
	fieldPath     = "path"
	fieldType     = "type"
	fieldOp       = "op"
	fieldValue    = "value"
	fieldValues   = "values"
	fieldPattern  = "pattern"
	fieldNegated  = "negated"
	fieldChildren = "children"
)

// ============================================================================
// ENCODE
// ============================================================================

// ToProto encodes node. A nil node encodes as the universal predicate.
func ToProto(node *ast.PredicateNode) (*structpb.Struct, error) {
	if node == nil {
		node = ast.True()
	}
	fields := map[string]*structpb.Value{
		fieldKind: structpb.NewStringValue(string(node.Kind)),
	}

	switch node.Kind {
	case ast.KindTrue:
	case ast.KindAnd, ast.KindNot:
		children := make([]*structpb.Value, len(node.Children))
		for i, c := range node.Children {
			s, err := ToProto(c)
			if err != nil {
				return nil, err
			}
			children[i] = structpb.NewStructValue(s)
		}
		fields[fieldChildren] = structpb.NewListValue(&structpb.ListValue{Values: children})
	case ast.KindCompare:
		v, err := encodeValue(node.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", node.Path, err)
		}
		fields[fieldPath] = structpb.NewStringValue(node.Path)
		fields[fieldType] = structpb.NewStringValue(string(node.Type))
		fields[fieldOp] = structpb.NewStringValue(string(node.Op))
		fields[fieldValue] = v
	case ast.KindLike:
		fields[fieldPath] = structpb.NewStringValue(node.Path)
		fields[fieldType] = structpb.NewStringValue(string(node.Type))
		fields[fieldPattern] = structpb.NewStringValue(node.Pattern)
		fields[fieldNegated] = structpb.NewBoolValue(node.Negated)
	case ast.KindNull:
		fields[fieldPath] = structpb.NewStringValue(node.Path)
		fields[fieldNegated] = structpb.NewBoolValue(node.Negated)
	case ast.KindIn:
		values := make([]*structpb.Value, len(node.Values))
		for i, item := range node.Values {
			v, err := encodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", node.Path, err)
			}
			values[i] = v
		}
		fields[fieldPath] = structpb.NewStringValue(node.Path)
		fields[fieldType] = structpb.NewStringValue(string(node.Type))
		fields[fieldValues] = structpb.NewListValue(&structpb.ListValue{Values: values})
	default:
		return nil, fmt.Errorf("unknown node kind: %s", node.Kind)
	}
	return &structpb.Struct{Fields: fields}, nil
}

func encodeValue(v any) (*structpb.Value, error) {
	switch x := v.(type) {
	case time.Time:
		return structpb.NewStringValue(x.Format(time.RFC3339Nano)), nil
	case *time.Time:
		if x == nil {
			return structpb.NewNullValue(), nil
		}
		return structpb.NewStringValue(x.Format(time.RFC3339Nano)), nil
	case uuid.UUID:
		return structpb.NewStringValue(x.String()), nil
	}
	return structpb.NewValue(v)
}

// MarshalJSON encodes node as protojson.
func MarshalJSON(node *ast.PredicateNode) ([]byte, error) {
	s, err := ToProto(node)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// ============================================================================
// DECODE
// ============================================================================

// Decoder restores typed values through a conversion service.
type Decoder struct {
	conv *convert.Service
}

// NewDecoder creates a decoder. A nil conv uses the defaults.
func NewDecoder(conv *convert.Service) *Decoder {
	if conv == nil {
		conv = convert.New()
	}
	return &Decoder{conv: conv}
}

// FromProto decodes with the default conversion service.
func FromProto(s *structpb.Struct) (*ast.PredicateNode, error) {
	return NewDecoder(nil).FromProto(s)
}

// UnmarshalJSON decodes protojson with the default conversion service.
func UnmarshalJSON(data []byte) (*ast.PredicateNode, error) {
	return NewDecoder(nil).UnmarshalJSON(data)
}

// UnmarshalJSON decodes protojson.
func (d *Decoder) UnmarshalJSON(data []byte) (*ast.PredicateNode, error) {
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("invalid predicate json: %w", err)
	}
	return d.FromProto(s)
}

// FromProto decodes an encoded node.
func (d *Decoder) FromProto(s *structpb.Struct) (*ast.PredicateNode, error) {
	if s == nil {
		return nil, fmt.Errorf("predicate is nil")
	}
	f := s.GetFields()
	kind := ast.NodeKind(f[fieldKind].GetStringValue())
	path := f[fieldPath].GetStringValue()
	typ := mapping.Kind(f[fieldType].GetStringValue())

	switch kind {
	case ast.KindTrue:
		return ast.True(), nil

	case ast.KindAnd, ast.KindNot:
		var children []*ast.PredicateNode
		for _, v := range f[fieldChildren].GetListValue().GetValues() {
			c, err := d.FromProto(v.GetStructValue())
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		if kind == ast.KindNot {
			if len(children) != 1 {
				return nil, fmt.Errorf("NOT takes one child, got %d", len(children))
			}
			return ast.Not(children[0]), nil
		}
		return &ast.PredicateNode{Kind: ast.KindAnd, Children: children}, nil

	case ast.KindCompare:
		if path == "" {
			return nil, fmt.Errorf("COMPARE without path")
		}
		v, err := d.decodeValue(f[fieldValue], typ)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return ast.Compare(path, typ, ast.CompareOp(f[fieldOp].GetStringValue()), v), nil

	case ast.KindLike:
		return ast.Like(path, typ, f[fieldPattern].GetStringValue(), f[fieldNegated].GetBoolValue()), nil

	case ast.KindNull:
		return ast.IsNull(path, f[fieldNegated].GetBoolValue()), nil

	case ast.KindIn:
		items := f[fieldValues].GetListValue().GetValues()
		values := make([]any, len(items))
		for i, item := range items {
			v, err := d.decodeValue(item, typ)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
			values[i] = v
		}
		return ast.In(path, typ, values), nil
	}
	return nil, fmt.Errorf("unknown node kind: %q", kind)
}

// decodeValue restores the Go type the compiler produced for typ.
func (d *Decoder) decodeValue(v *structpb.Value, typ mapping.Kind) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw := v.AsInterface()
	if raw == nil {
		return nil, nil
	}

	switch typ {
	case mapping.KindDate, mapping.KindTimestamp:
		s, ok := raw.(string)
		if !ok {
			return raw, nil
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, nil
		}
		return d.conv.Convert(s, typ)
	case mapping.KindInt:
		// structpb numbers are float64
		if f, ok := raw.(float64); ok && f == float64(int64(f)) {
			return int64(f), nil
		}
	case mapping.KindUUID:
		if s, ok := raw.(string); ok {
			return d.conv.Convert(s, typ)
		}
	}
	return raw, nil
}
