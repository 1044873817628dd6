package proto

import (
	"errors"
	"fmt"
	"math"

	"github.com/dmitrijs2005/attendpass/internal/credential"
	"google.golang.org/protobuf/types/known/structpb"
)

// Field names of the Struct messages.
const (
	FieldSessionID     = "sessionId"
	FieldEventID       = "eventId"
	FieldHallID        = "hallId"
	FieldSessionName   = "sessionName"
	FieldExpiryMinutes = "expiryMinutes"
	FieldIssuedAt      = "issuedAt"
	FieldExpiresAt     = "expiresAt"
	FieldNonce         = "nonce"
	FieldTag           = "tag"

	FieldCredential = "credential"
	FieldWire       = "wire"
	FieldRequests   = "requests"
	FieldSequential = "sequential"
	FieldExport     = "export"
	FieldResults    = "results"
	FieldError      = "error"
	FieldCode       = "code"
	FieldExportKey  = "exportKey"
	FieldExportURL  = "exportUrl"
	FieldAccepted   = "accepted"
	FieldReason     = "reason"
	FieldMessage    = "message"
	FieldDuplicate  = "duplicate"
	FieldHandoff    = "handoff"
	FieldStatus     = "status"
	FieldCheckIns   = "checkIns"
	FieldAttendeeID = "attendeeId"
	FieldRecorded   = "recorded"
	FieldUpdatedAt  = "updatedAt"
)

// ErrBadField is wrapped by every field type error.
var ErrBadField = errors.New("bad field")

func fieldErr(key, want string) error {
	return fmt.Errorf("%w: %s must be %s", ErrBadField, key, want)
}

func lookup(s *structpb.Struct, key string) (*structpb.Value, bool) {
	v, ok := s.GetFields()[key]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

// String returns a string field; absent and null read as "".
func String(s *structpb.Struct, key string) (string, error) {
	v, ok := lookup(s, key)
	if !ok {
		return "", nil
	}
	k, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", fieldErr(key, "a string")
	}
	return k.StringValue, nil
}

// Bool returns a bool field; absent reads as false.
func Bool(s *structpb.Struct, key string) (bool, error) {
	v, ok := lookup(s, key)
	if !ok {
		return false, nil
	}
	k, isBool := v.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		return false, fieldErr(key, "a boolean")
	}
	return k.BoolValue, nil
}

// Int64 returns an integral number field.
func Int64(s *structpb.Struct, key string) (int64, error) {
	v, ok := lookup(s, key)
	if !ok {
		return 0, fieldErr(key, "present")
	}
	k, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, fieldErr(key, "a number")
	}
	f := k.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fieldErr(key, "an integer")
	}
	return int64(f), nil
}

// OptionalInt returns nil for an absent field, otherwise an integral number.
func OptionalInt(s *structpb.Struct, key string) (*int, error) {
	if _, ok := lookup(s, key); !ok {
		return nil, nil
	}
	n, err := Int64(s, key)
	if err != nil {
		return nil, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fieldErr(key, "a 32-bit integer")
	}
	m := int(n)
	return &m, nil
}

// Nested returns a Struct field.
func Nested(s *structpb.Struct, key string) (*structpb.Struct, error) {
	v, ok := lookup(s, key)
	if !ok {
		return nil, fieldErr(key, "present")
	}
	k, isStruct := v.GetKind().(*structpb.Value_StructValue)
	if !isStruct {
		return nil, fieldErr(key, "an object")
	}
	return k.StructValue, nil
}

// StructList returns a list field whose elements are all objects.
func StructList(s *structpb.Struct, key string) ([]*structpb.Struct, error) {
	v, ok := lookup(s, key)
	if !ok {
		return nil, nil
	}
	k, isList := v.GetKind().(*structpb.Value_ListValue)
	if !isList {
		return nil, fieldErr(key, "a list")
	}
	out := make([]*structpb.Struct, 0, len(k.ListValue.GetValues()))
	for i, item := range k.ListValue.GetValues() {
		st, isStruct := item.GetKind().(*structpb.Value_StructValue)
		if !isStruct {
			return nil, fieldErr(fmt.Sprintf("%s[%d]", key, i), "an object")
		}
		out = append(out, st.StructValue)
	}
	return out, nil
}

func putOptional(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}

// RequestMap is the message form of an issuance request.
func RequestMap(r credential.Request) map[string]any {
	m := map[string]any{
		FieldSessionID: r.SessionID,
		FieldEventID:   r.EventID,
	}
	putOptional(m, FieldHallID, r.HallID)
	putOptional(m, FieldSessionName, r.SessionName)
	if r.ExpiryMinutes != nil {
		m[FieldExpiryMinutes] = *r.ExpiryMinutes
	}
	return m
}

// RequestFromStruct reads an issuance request.
func RequestFromStruct(s *structpb.Struct) (credential.Request, error) {
	var (
		r   credential.Request
		err error
	)
	if r.SessionID, err = String(s, FieldSessionID); err != nil {
		return r, err
	}
	if r.EventID, err = String(s, FieldEventID); err != nil {
		return r, err
	}
	if r.HallID, err = String(s, FieldHallID); err != nil {
		return r, err
	}
	if r.SessionName, err = String(s, FieldSessionName); err != nil {
		return r, err
	}
	r.ExpiryMinutes, err = OptionalInt(s, FieldExpiryMinutes)
	return r, err
}

// CredentialMap is the message form of a credential.
func CredentialMap(c *credential.Credential) map[string]any {
	m := map[string]any{
		FieldSessionID: c.SessionID,
		FieldEventID:   c.EventID,
		FieldIssuedAt:  c.IssuedAt,
		FieldExpiresAt: c.ExpiresAt,
		FieldNonce:     c.Nonce,
		FieldTag:       c.Tag,
	}
	putOptional(m, FieldHallID, c.HallID)
	putOptional(m, FieldSessionName, c.SessionName)
	return m
}

// CredentialFromStruct reads a credential message.
func CredentialFromStruct(s *structpb.Struct) (*credential.Credential, error) {
	c := &credential.Credential{}
	for key, dst := range map[string]*string{
		FieldSessionID:   &c.SessionID,
		FieldEventID:     &c.EventID,
		FieldHallID:      &c.HallID,
		FieldSessionName: &c.SessionName,
		FieldNonce:       &c.Nonce,
		FieldTag:         &c.Tag,
	} {
		v, err := String(s, key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}

	var err error
	if c.IssuedAt, err = Int64(s, FieldIssuedAt); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = Int64(s, FieldExpiresAt); err != nil {
		return nil, err
	}
	return c, nil
}

// HandoffMap is the message form of an accepted scan.
func HandoffMap(h credential.Handoff) map[string]any {
	m := map[string]any{
		FieldSessionID: h.SessionID,
		FieldEventID:   h.EventID,
		FieldIssuedAt:  h.IssuedAt,
		FieldExpiresAt: h.ExpiresAt,
	}
	putOptional(m, FieldHallID, h.HallID)
	return m
}

// HandoffFromStruct reads a handoff message.
func HandoffFromStruct(s *structpb.Struct) (credential.Handoff, error) {
	var (
		h   credential.Handoff
		err error
	)
	if h.SessionID, err = String(s, FieldSessionID); err != nil {
		return h, err
	}
	if h.EventID, err = String(s, FieldEventID); err != nil {
		return h, err
	}
	if h.HallID, err = String(s, FieldHallID); err != nil {
		return h, err
	}
	if h.IssuedAt, err = Int64(s, FieldIssuedAt); err != nil {
		return h, err
	}
	h.ExpiresAt, err = Int64(s, FieldExpiresAt)
	return h, err
}

// Attendance is the check-in counter of one session. UpdatedAt is epoch ms.
type Attendance struct {
	SessionID string
	EventID   string
	CheckIns  int64
	UpdatedAt int64
}

func AttendanceMap(a Attendance) map[string]any {
	return map[string]any{
		FieldSessionID: a.SessionID,
		FieldEventID:   a.EventID,
		FieldCheckIns:  a.CheckIns,
		FieldUpdatedAt: a.UpdatedAt,
	}
}

func AttendanceFromStruct(s *structpb.Struct) (Attendance, error) {
	var (
		a   Attendance
		err error
	)
	if a.SessionID, err = String(s, FieldSessionID); err != nil {
		return a, err
	}
	if a.EventID, err = String(s, FieldEventID); err != nil {
		return a, err
	}
	if a.CheckIns, err = Int64(s, FieldCheckIns); err != nil {
		return a, err
	}
	a.UpdatedAt, err = Int64(s, FieldUpdatedAt)
	return a, err
}
