package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

type checkinPayload struct {
	Name      string  `validate:"required,min=2"`
	Email     string  `validate:"omitempty,email"`
	Latitude  float64 `validate:"latitude_opt"`
	Longitude float64 `validate:"longitude_opt"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	if err := v.RegisterValidation("latitude_opt", validateOptionalLatitude); err != nil {
		t.Fatalf("register latitude_opt: %v", err)
	}
	if err := v.RegisterValidation("longitude_opt", validateOptionalLongitude); err != nil {
		t.Fatalf("register longitude_opt: %v", err)
	}
	return v
}

func TestOptionalCoordinateTags(t *testing.T) {
	v := newValidate(t)

	tests := []struct {
		name    string
		payload checkinPayload
		wantOK  bool
	}{
		{"valid coordinates", checkinPayload{Name: "CDMX", Latitude: 19.4326, Longitude: -99.1332}, true},
		{"zero value passes", checkinPayload{Name: "origin"}, true},
		{"latitude too large", checkinPayload{Name: "bad", Latitude: 90.5}, false},
		{"latitude too small", checkinPayload{Name: "bad", Latitude: -91}, false},
		{"longitude too large", checkinPayload{Name: "bad", Longitude: 180.1}, false},
		{"longitude too small", checkinPayload{Name: "bad", Longitude: -181}, false},
		{"boundary values", checkinPayload{Name: "edge", Latitude: -90, Longitude: 180}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.payload)
			if tt.wantOK && err != nil {
				t.Fatalf("Struct() = %v, want nil", err)
			}
			if !tt.wantOK && err == nil {
				t.Fatal("Struct() = nil, want validation error")
			}
		})
	}
}

func TestFormatProducesFieldMessages(t *testing.T) {
	v := newValidate(t)

	err := v.Struct(checkinPayload{Name: "x", Email: "not-an-email", Latitude: 120})
	if err == nil {
		t.Fatal("Struct() = nil, want validation error")
	}

	fields := Format(err)
	want := map[string]string{
		"name":     "must be at least 2 characters",
		"email":    "must be a valid email address",
		"latitude": "must be between -90 and 90",
	}
	if len(fields) != len(want) {
		t.Fatalf("Format() returned %d entries, want %d: %+v", len(fields), len(want), fields)
	}
	for _, fe := range fields {
		msg, ok := want[fe.Field]
		if !ok {
			t.Errorf("unexpected field %q in %+v", fe.Field, fields)
			continue
		}
		if fe.Message != msg {
			t.Errorf("field %q message = %q, want %q", fe.Field, fe.Message, msg)
		}
	}
}

func TestFormatNonValidationError(t *testing.T) {
	fields := Format(errors.New("unexpected EOF"))
	if len(fields) != 1 {
		t.Fatalf("Format() returned %d entries, want 1", len(fields))
	}
	if fields[0].Field != "body" || fields[0].Message != "invalid request body" {
		t.Fatalf("Format() = %+v, want generic body entry", fields[0])
	}
}
