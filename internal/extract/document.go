// Package extract maps loosely typed JSON-LD @graph nodes into typed report records.
//
// Only the top-level structure is strict: a payload that is not a JSON object or has no
// @graph array is rejected as a whole. Below that, nodes of other types are skipped and
// every field falls back to its default when it is absent or cannot be decoded.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
)

// Document is a parsed JSON-LD payload. Nodes keep their @graph order.
type Document struct {
	Context json.RawMessage
	Nodes   []Node
	byID    map[string]int
}

// Node is one @graph element. Invalid nodes (not JSON objects) are kept so indexes stay stable.
type Node struct {
	ID      string
	Types   []string
	Index   int
	Invalid bool
	fields  map[string]json.RawMessage
}

type header struct {
	ID   string   `json:"@id"`
	Type typeList `json:"@type"`
}

// typeList accepts "@type" written as a string or as an array of strings.
type typeList []string

func (t *typeList) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	if b[0] == '[' {
		var many []string
		if err := json.Unmarshal(b, &many); err != nil {
			return err
		}
		*t = many
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*t = typeList{one}
	return nil
}

// Parse decodes a JSON-LD document with a top-level @graph array.
// An empty @graph is valid; a missing or null one is a MalformedDocument error.
func Parse(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, apperr.Wrap(apperr.KindMalformedDocument, err, "Received json does not comply to expected format.")
	}
	raw, ok := top["@graph"]
	if !ok || isNull(raw) {
		return nil, apperr.New(apperr.KindMalformedDocument, "Received json does not comply to expected format: missing @graph.")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, apperr.Wrap(apperr.KindMalformedDocument, err, "Received json does not comply to expected format: @graph is not an array.")
	}
	return newDocument(top["@context"], elems), nil
}

// ParseLoose accepts the shapes an upstream API answers with: a JSON-LD document,
// a bare array of nodes, a single node object, or an empty body / null.
func ParseLoose(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return newDocument(nil, nil), nil
	}
	switch data[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return nil, apperr.Wrap(apperr.KindMalformedDocument, err, "upstream returned an invalid JSON array")
		}
		return newDocument(nil, elems), nil
	case '{':
		var top map[string]json.RawMessage
		if err := json.Unmarshal(data, &top); err != nil {
			return nil, apperr.Wrap(apperr.KindMalformedDocument, err, "upstream returned an invalid JSON object")
		}
		if _, ok := top["@graph"]; ok {
			return Parse(data)
		}
		if len(top) == 0 {
			return newDocument(nil, nil), nil
		}
		return newDocument(nil, []json.RawMessage{data}), nil
	default:
		return nil, apperr.New(apperr.KindMalformedDocument, "upstream returned neither an object nor an array")
	}
}

func newDocument(ctx json.RawMessage, elems []json.RawMessage) *Document {
	doc := &Document{
		Context: ctx,
		Nodes:   make([]Node, 0, len(elems)),
		byID:    make(map[string]int, len(elems)),
	}
	for i, el := range elems {
		n := decodeNode(i, el)
		if n.ID != "" {
			if _, dup := doc.byID[n.ID]; !dup {
				doc.byID[n.ID] = i
			}
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc
}

func decodeNode(i int, raw json.RawMessage) Node {
	n := Node{Index: i}
	if err := json.Unmarshal(raw, &n.fields); err != nil || n.fields == nil {
		n.Invalid = true
		return n
	}
	var h header
	if err := json.Unmarshal(raw, &h); err == nil {
		n.ID = h.ID
		n.Types = h.Type
	}
	return n
}

// Lookup finds a top-level node by @id.
func (d *Document) Lookup(id string) (Node, bool) {
	i, ok := d.byID[id]
	if !ok {
		return Node{}, false
	}
	return d.Nodes[i], true
}

// Is reports whether the node carries one of types. Compact IRIs match on their
// local name, so "ocsm:IrrigationOperation" counts as "IrrigationOperation".
func (n Node) Is(types ...string) bool {
	for _, have := range n.Types {
		local := localName(have)
		for _, want := range types {
			if have == want || local == want {
				return true
			}
		}
	}
	return false
}

// Has reports whether key is present and not null.
func (n Node) Has(key string) bool {
	v, ok := n.fields[key]
	return ok && !isNull(v)
}

func (n Node) String() string {
	return fmt.Sprintf("node[%d] %s %v", n.Index, n.ID, n.Types)
}

func localName(iri string) string {
	if i := strings.LastIndexAny(iri, ":#/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

func isNull(b []byte) bool {
	return len(b) == 0 || bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
