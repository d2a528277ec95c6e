package rpc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/scale"
)

// flexUint decodes integers that sidecar renders either as JSON numbers or
// as decimal strings.
type flexUint uint64

func (f *flexUint) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s", string(b))
	}
	*f = flexUint(v)
	return nil
}

type metadataEnvelope struct {
	Metadata map[string]json.RawMessage `json:"metadata"`
}

type metadataDoc struct {
	Lookup struct {
		Types []lookupType `json:"types"`
	} `json:"lookup"`
	Pallets []struct {
		Name  string   `json:"name"`
		Index flexUint `json:"index"`
		Calls *struct {
			Type flexUint `json:"type"`
		} `json:"calls"`
		Errors *struct {
			Type flexUint `json:"type"`
		} `json:"errors"`
	} `json:"pallets"`
	Extrinsic struct {
		SignedExtensions []struct {
			Identifier string `json:"identifier"`
		} `json:"signedExtensions"`
	} `json:"extrinsic"`
}

type lookupType struct {
	ID   flexUint `json:"id"`
	Type struct {
		Def struct {
			Variant *struct {
				Variants []struct {
					Name   string   `json:"name"`
					Index  flexUint `json:"index"`
					Fields []struct {
						Name string   `json:"name"`
						Type flexUint `json:"type"`
					} `json:"fields"`
				} `json:"variants"`
			} `json:"variant"`
			Compact *struct {
				Type flexUint `json:"type"`
			} `json:"compact"`
		} `json:"def"`
	} `json:"type"`
}

// Metadata is the subset of the runtime metadata needed to encode calls,
// sign extrinsics and name module errors.
type Metadata struct {
	calls      map[string]scale.CallInfo
	errors     map[[2]uint8]string
	pallets    map[string]uint8
	extensions []string
}

// ParseMetadata decodes the body of GET /runtime/metadata. Both v14 and
// v15 layouts are accepted.
func ParseMetadata(body []byte) (*Metadata, error) {
	var env metadataEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}
	var raw json.RawMessage
	for _, v := range []string{"v15", "v14", "V15", "V14"} {
		if r, ok := env.Metadata[v]; ok {
			raw = r
			break
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("unsupported metadata version")
	}

	var doc metadataDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}

	types := make(map[uint64]lookupType, len(doc.Lookup.Types))
	for _, t := range doc.Lookup.Types {
		types[uint64(t.ID)] = t
	}

	m := &Metadata{
		calls:   make(map[string]scale.CallInfo),
		errors:  make(map[[2]uint8]string),
		pallets: make(map[string]uint8),
	}
	for _, ext := range doc.Extrinsic.SignedExtensions {
		m.extensions = append(m.extensions, ext.Identifier)
	}

	for _, p := range doc.Pallets {
		idx := uint8(p.Index)
		m.pallets[normalizeName(p.Name)] = idx

		if p.Calls != nil {
			t, ok := types[uint64(p.Calls.Type)]
			if !ok || t.Type.Def.Variant == nil {
				return nil, fmt.Errorf("pallet %s: call type %d is not a variant", p.Name, p.Calls.Type)
			}
			for _, v := range t.Type.Def.Variant.Variants {
				compact := make([]bool, len(v.Fields))
				for i, f := range v.Fields {
					ft, ok := types[uint64(f.Type)]
					compact[i] = ok && ft.Type.Def.Compact != nil
				}
				m.calls[callKey(p.Name, v.Name)] = scale.CallInfo{
					PalletIndex: idx,
					CallIndex:   uint8(v.Index),
					Compact:     compact,
				}
			}
		}

		if p.Errors != nil {
			if t, ok := types[uint64(p.Errors.Type)]; ok && t.Type.Def.Variant != nil {
				for _, v := range t.Type.Def.Variant.Variants {
					m.errors[[2]uint8{idx, uint8(v.Index)}] = v.Name
				}
			}
		}
	}
	return m, nil
}

// ResolveCall implements scale.CallResolver. Pallet and call names match
// regardless of case and of snake or camel spelling.
func (m *Metadata) ResolveCall(pallet, call string) (scale.CallInfo, error) {
	info, ok := m.calls[callKey(pallet, call)]
	if !ok {
		return scale.CallInfo{}, fmt.Errorf("call %s.%s not found in runtime metadata", pallet, call)
	}
	return info, nil
}

// PalletIndex returns the index of a pallet.
func (m *Metadata) PalletIndex(pallet string) (uint8, bool) {
	idx, ok := m.pallets[normalizeName(pallet)]
	return idx, ok
}

// ErrorName returns the variant name of a module error, or "" if unknown.
func (m *Metadata) ErrorName(palletIndex, errorIndex uint8) string {
	return m.errors[[2]uint8{palletIndex, errorIndex}]
}

// Extensions returns the signed extension identifiers in metadata order.
func (m *Metadata) Extensions() []string {
	return m.extensions
}

func callKey(pallet, call string) string {
	return normalizeName(pallet) + "." + normalizeName(call)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// annotate adds the resolved error name to every module error found in an
// event field, so callers can match failures by name.
func (m *Metadata) annotate(raw json.RawMessage) json.RawMessage {
	if m == nil || !strings.Contains(string(raw), "odule") {
		return raw
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	if !m.annotateValue(v) {
		return raw
	}
	out, err := json.Marshal(v)
	if err != nil {
		return raw
	}
	return out
}

func (m *Metadata) annotateValue(v any) bool {
	changed := false
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			if mod, ok := inner.(map[string]any); ok && strings.EqualFold(k, "module") {
				if _, named := mod["name"]; !named {
					wrapped, _ := json.Marshal(map[string]any{"module": mod})
					if d, err := chain.ParseDispatchError(wrapped); err == nil {
						if name := m.ErrorName(d.ModuleIndex, d.ErrorIndex); name != "" {
							mod["name"] = name
							changed = true
						}
					}
				}
				continue
			}
			if m.annotateValue(inner) {
				changed = true
			}
		}
	case []any:
		for _, inner := range t {
			if m.annotateValue(inner) {
				changed = true
			}
		}
	}
	return changed
}
