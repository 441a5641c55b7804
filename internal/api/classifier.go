package api

// classifier.go decides whether a 2xx response actually succeeded.
//
// The backend does not use one envelope. Shapes seen so far:
//
//	{"success": true, "data": ...}
//	{"message": "Course created successfully", "course": {...}}
//	{"courses": [...]}
//	{"students": [...]}            (also "studentData")
//	{"session": {...}}             (also "sessions")
//	{"stats": {...}}
//	{"token": "...", "user": {...}}
//	{"message": "...", "results": {"successful": [], "skipped": [], "failed": []}}
//	{"message": "...", "added": 3, "skipped": 1, "totalProcessed": 4}
//	{"teachers": [...]}            (also "requests", "shareRequest")
//	{"faqs": [...]}
//
// A response succeeds when any signal is present: success == true, a message
// mentioning success, or a truthy payload key of the endpoint's family.

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Family names the payload keys an endpoint may answer with.
type Family int

const (
	Generic Family = iota
	CourseFamily
	StudentsFamily
	SessionFamily
	StatsFamily
	AuthFamily
	BulkFamily
	CopyFamily
	SharingFamily
	SupportFamily
)

var familyKeys = map[Family][]string{
	Generic:        {"data"},
	CourseFamily:   {"course", "courses", "data"},
	StudentsFamily: {"students", "student", "studentData", "data"},
	SessionFamily:  {"session", "sessions", "data"},
	StatsFamily:    {"stats", "data"},
	AuthFamily:     {"token", "user", "data"},
	BulkFamily:     {"results", "successful", "data"},
	CopyFamily:     {"added", "totalProcessed", "data"},
	SharingFamily:  {"teachers", "requests", "request", "shareRequest", "data"},
	SupportFamily:  {"faqs", "data"},
}

// Keys returns the payload keys of the family, most specific first.
func (f Family) Keys() []string {
	if keys, ok := familyKeys[f]; ok {
		return keys
	}
	return familyKeys[Generic]
}

// classify applies the success predicate to a decoded 2xx body.
func classify(raw map[string]json.RawMessage, family Family) bool {
	if v, ok := raw["success"]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("true")) {
		return true
	}

	if msg := strings.ToLower(stringField(raw, "message")); strings.Contains(msg, "success") {
		return true
	}

	for _, key := range family.Keys() {
		if v, ok := raw[key]; ok && truthy(v) {
			return true
		}
	}
	return false
}

// truthy reports whether a JSON value is present in the loose sense: not
// null, false, "" or 0. Empty arrays and objects count as present.
func truthy(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`:
		return false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n != 0
	}
	return true
}

// serverMessage extracts the human-readable message of a response body.
// "message" wins over "error"; an "error" object contributes its own message.
func serverMessage(raw map[string]json.RawMessage) string {
	if msg := stringField(raw, "message"); msg != "" {
		return msg
	}
	if msg := stringField(raw, "error"); msg != "" {
		return msg
	}
	if v, ok := raw["error"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(v, &nested); err == nil {
			return stringField(nested, "message")
		}
	}
	return ""
}

func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
