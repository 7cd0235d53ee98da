package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/agstack/OpenAgri-ReportingService/models"
)

// FieldError records a field that could not be decoded and was replaced by its default.
type FieldError struct {
	NodeID string
	Field  string
	Err    error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: field %s: %v", e.NodeID, e.Field, e.Err)
}

var (
	errNotString = errors.New("not a string")
	errNotNumber = errors.New("not a number")
	errNotBool   = errors.New("not a boolean")
	errNotObject = errors.New("not an object")
	errNotRef    = errors.New("not a reference")
	errIntRange  = errors.New("not a finite integer in range")
	errBadDate   = errors.New("unrecognised date format")
)

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the date and datetime formats found in platform datasets.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errBadDate, s)
}

// reader reads typed fields of one JSON object. Decode failures are appended to errs
// (shared with nested readers of the same node) and the zero value is returned.
type reader struct {
	nodeID string
	prefix string
	fields map[string]json.RawMessage
	errs   *[]FieldError
}

func (n Node) reader(errs *[]FieldError) *reader {
	return &reader{nodeID: n.ID, fields: n.fields, errs: errs}
}

func (r *reader) fail(key string, err error) {
	*r.errs = append(*r.errs, FieldError{NodeID: r.nodeID, Field: r.prefix + key, Err: err})
}

// lookup returns the first of keys that is present and not null.
func (r *reader) lookup(keys ...string) (string, json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := r.fields[k]; ok && !isNull(v) {
			return k, v, true
		}
	}
	return "", nil, false
}

func (r *reader) has(keys ...string) bool {
	_, _, ok := r.lookup(keys...)
	return ok
}

// unwrapValue returns the inner value of a JSON-LD value object ({"@value": ...}).
func unwrapValue(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || raw[0] != '{' {
		return raw
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	if v, ok := obj["@value"]; ok {
		return v
	}
	return raw
}

func decodeString(raw json.RawMessage) (string, error) {
	raw = unwrapValue(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var f json.Number
	if err := json.Unmarshal(raw, &f); err == nil {
		return f.String(), nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	return "", errNotString
}

func decodeFloat(raw json.RawMessage) (float64, error) {
	raw = unwrapValue(raw)
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, nil
		}
	}
	return 0, errNotNumber
}

func decodeTime(raw json.RawMessage) (time.Time, error) {
	raw = unwrapValue(raw)
	if len(raw) > 0 && raw[0] == '{' {
		// OWL-Time instants: {"inXSDDateTime": "..."}
		var inst struct {
			DateTime json.RawMessage `json:"inXSDDateTime"`
		}
		if err := json.Unmarshal(raw, &inst); err == nil && !isNull(inst.DateTime) {
			raw = unwrapValue(inst.DateTime)
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, errNotString
	}
	return ParseTime(s)
}

func decodeRef(raw json.RawMessage) (models.Ref, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return models.Ref{ID: s}, nil
	}
	var ref models.Ref
	if err := json.Unmarshal(raw, &ref); err != nil || raw[0] != '{' {
		return models.Ref{}, errNotRef
	}
	return ref, nil
}

// list returns the elements of an array, or the value itself as a one-element list.
func list(raw json.RawMessage) []json.RawMessage {
	if len(raw) > 0 && raw[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err == nil {
			return elems
		}
	}
	return []json.RawMessage{raw}
}

func (r *reader) String(keys ...string) string {
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	s, err := decodeString(raw)
	if err != nil {
		r.fail(k, err)
		return ""
	}
	return strings.TrimSpace(s)
}

func (r *reader) Float(keys ...string) *float64 {
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	f, err := decodeFloat(raw)
	if err != nil {
		r.fail(k, err)
		return nil
	}
	return &f
}

// Int truncates numeric values toward zero.
func (r *reader) Int(keys ...string) *int {
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	f, err := decodeFloat(raw)
	if err != nil {
		r.fail(k, err)
		return nil
	}
	if math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
		r.fail(k, errIntRange)
		return nil
	}
	i := int(f)
	return &i
}

func (r *reader) Bool(keys ...string) *bool {
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	raw = unwrapValue(raw)
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return &v
		}
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		v := f != 0
		return &v
	}
	r.fail(k, errNotBool)
	return nil
}

func (r *reader) Time(keys ...string) *time.Time {
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	t, err := decodeTime(raw)
	if err != nil {
		r.fail(k, err)
		return nil
	}
	return &t
}

// Times decodes a list of dates, dropping the elements that do not parse.
func (r *reader) Times(keys ...string) []time.Time {
	out := []time.Time{}
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return out
	}
	for i, el := range list(raw) {
		t, err := decodeTime(el)
		if err != nil {
			r.fail(fmt.Sprintf("%s[%d]", k, i), err)
			continue
		}
		out = append(out, t)
	}
	return out
}

// Ref reads an {"@id": ...} object or a bare identifier string. Empty ids yield nil.
func (r *reader) Ref(keys ...string) *models.Ref {
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	if raw[0] == '[' {
		refs := r.Refs(k)
		if len(refs) == 0 {
			return nil
		}
		return &refs[0]
	}
	ref, err := decodeRef(raw)
	if err != nil {
		r.fail(k, err)
		return nil
	}
	if ref.ID == "" {
		return nil
	}
	return &ref
}

// Refs reads a list of references; a single reference is accepted as a list of one.
func (r *reader) Refs(keys ...string) []models.Ref {
	out := []models.Ref{}
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return out
	}
	for i, el := range list(raw) {
		if isNull(el) {
			continue
		}
		ref, err := decodeRef(el)
		if err != nil {
			r.fail(fmt.Sprintf("%s[%d]", k, i), err)
			continue
		}
		if ref.ID != "" {
			out = append(out, ref)
		}
	}
	return out
}

// Quantity reads {"numericValue": n, "unit": iri}; a bare number is a unitless quantity.
// The unit is reduced to its IRI suffix.
func (r *reader) Quantity(keys ...string) *models.QuantityValue {
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	if raw[0] != '{' {
		f, err := decodeFloat(raw)
		if err != nil {
			r.fail(k, err)
			return nil
		}
		return &models.QuantityValue{Value: &f}
	}
	q := r.Object(k)
	return &models.QuantityValue{
		Value: q.Float("numericValue", "hasNumericValue", "hasValue"),
		Unit:  models.UnitSuffix(q.String("unit", "hasUnit", "isMeasuredIn")),
	}
}

// Label reads a value that is either a display string or an object naming something.
// Objects resolve to their name, else the short id of their @id.
func (r *reader) Label(keys ...string) string {
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	if raw[0] != '{' {
		return r.String(k)
	}
	o := r.Object(k)
	if name := o.String("name", "hasName", "title"); name != "" {
		return name
	}
	return models.ShortID(o.String("@id"))
}

// Object returns a reader over a nested object. Missing keys give an empty reader.
func (r *reader) Object(keys ...string) *reader {
	nested := &reader{nodeID: r.nodeID, errs: r.errs}
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return nested
	}
	nested.prefix = r.prefix + k + "."
	if raw[0] == '[' {
		// A one-element list standing in for an object.
		if objs := r.Objects(k); len(objs) > 0 {
			return objs[0]
		}
		return nested
	}
	if err := json.Unmarshal(raw, &nested.fields); err != nil {
		r.fail(k, errNotObject)
	}
	return nested
}

// Objects returns readers over a list of nested objects; a single object is a list of one.
func (r *reader) Objects(keys ...string) []*reader {
	out := []*reader{}
	k, raw, ok := r.lookup(keys...)
	if !ok {
		return out
	}
	for i, el := range list(raw) {
		if isNull(el) {
			continue
		}
		nested := &reader{nodeID: r.nodeID, prefix: fmt.Sprintf("%s%s[%d].", r.prefix, k, i), errs: r.errs}
		if err := json.Unmarshal(el, &nested.fields); err != nil {
			r.fail(fmt.Sprintf("%s[%d]", k, i), errNotObject)
			continue
		}
		out = append(out, nested)
	}
	return out
}

// raw exposes a field for decoders that need to branch on its JSON shape.
func (r *reader) raw(keys ...string) (string, json.RawMessage, bool) {
	return r.lookup(keys...)
}
