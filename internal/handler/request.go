package handler

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/report"
	"google.golang.org/protobuf/types/known/structpb"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// fields wraps a request struct with typed accessors. Accessors record the
// first malformed field in err instead of failing individually.
type fields struct {
	m   map[string]*structpb.Value
	err error
}

func newFields(s *structpb.Struct) *fields {
	if s == nil {
		return &fields{m: map[string]*structpb.Value{}}
	}
	return &fields{m: s.GetFields()}
}

func (f *fields) fail(key, want string) {
	if f.err == nil {
		f.err = fmt.Errorf("field %q must be %s", key, want)
	}
}

func (f *fields) has(key string) bool {
	_, ok := f.m[key]
	return ok
}

func (f *fields) isNull(key string) bool {
	v, ok := f.m[key]
	if !ok {
		return false
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return null
}

func (f *fields) str(key string) string {
	v, ok := f.m[key]
	if !ok || f.isNull(key) {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(k.StringValue)
	case *structpb.Value_NumberValue:
		return fmt.Sprint(k.NumberValue)
	}
	f.fail(key, "a string")
	return ""
}

func (f *fields) float(key string) (float64, bool) {
	v, ok := f.m[key]
	if !ok || f.isNull(key) {
		return 0, false
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
		f.fail(key, "a number")
		return 0, false
	}
	return n.NumberValue, true
}

func (f *fields) int(key string) (int, bool) {
	n, ok := f.float(key)
	if !ok {
		return 0, false
	}
	if n != math.Trunc(n) {
		f.fail(key, "a whole number")
		return 0, false
	}
	return int(n), true
}

func (f *fields) boolean(key string) bool {
	v, ok := f.m[key]
	if !ok || f.isNull(key) {
		return false
	}
	b, isBool := v.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		f.fail(key, "a boolean")
		return false
	}
	return b.BoolValue
}

func (f *fields) time(key string) (time.Time, bool) {
	s := f.str(key)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	f.fail(key, "a date (YYYY-MM-DD or RFC 3339)")
	return time.Time{}, false
}

func (f *fields) list(key string) []*structpb.Value {
	v, ok := f.m[key]
	if !ok || f.isNull(key) {
		return nil
	}
	l, isList := v.GetKind().(*structpb.Value_ListValue)
	if !isList {
		f.fail(key, "a list")
		return nil
	}
	return l.ListValue.GetValues()
}

func intPtr(f *fields, key string) *int {
	if v, ok := f.int(key); ok {
		return &v
	}
	return nil
}

func floatPtr(f *fields, key string) *float64 {
	if v, ok := f.float(key); ok {
		return &v
	}
	return nil
}

func strPtr(f *fields, key string) *string {
	if !f.has(key) || f.isNull(key) {
		return nil
	}
	v := f.str(key)
	return &v
}

// toStruct renders any response value as a Struct with money rounded to
// cents.
func toStruct(v any) (*structpb.Struct, error) {
	plain, err := report.Present(v)
	if err != nil {
		return nil, err
	}
	m, ok := plain.(map[string]any)
	if !ok {
		m = map[string]any{"data": plain}
	}
	return structpb.NewStruct(m)
}
