package model

import (
	"bytes"
	"encoding/json"
)

// RegistryRecord is the body of a GLEIF lei-records lookup. Every level below
// Data is optional; accessors report absence instead of failing.
type RegistryRecord struct {
	Data []RecordData `json:"data"`
}

type RecordData struct {
	Attributes *RecordAttributes `json:"attributes"`
}

type RecordAttributes struct {
	LEI    string          `json:"lei"`
	BIC    json.RawMessage `json:"bic"`
	Entity json.RawMessage `json:"entity"`
}

type Entity struct {
	LegalName    json.RawMessage `json:"legalName"`
	LegalAddress json.RawMessage `json:"legalAddress"`
}

type LegalName struct {
	Name string `json:"name"`
}

type Address struct {
	Country string `json:"country"`
}

func (r *RegistryRecord) First() (RecordData, bool) {
	if r == nil || len(r.Data) == 0 {
		return RecordData{}, false
	}
	return r.Data[0], true
}

// BICList reports false unless bic is a JSON list of strings.
func (a *RecordAttributes) BICList() ([]string, bool) {
	raw := bytes.TrimSpace(a.BIC)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	return list, true
}

// EntityObject reports false when entity is missing, null, empty or not an object.
func (a *RecordAttributes) EntityObject() (Entity, bool) {
	var fields map[string]json.RawMessage
	if !decodeObject(a.Entity, &fields) || len(fields) == 0 {
		return Entity{}, false
	}
	return Entity{
		LegalName:    fields["legalName"],
		LegalAddress: fields["legalAddress"],
	}, true
}

// Name is empty unless legalName is an object.
func (e Entity) Name() string {
	var ln LegalName
	if !decodeObject(e.LegalName, &ln) {
		return ""
	}
	return ln.Name
}

func (e Entity) Country() string {
	var addr Address
	if !decodeObject(e.LegalAddress, &addr) {
		return ""
	}
	return addr.Country
}

func decodeObject(raw json.RawMessage, v any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
