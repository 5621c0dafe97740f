package validation

import (
	"fmt"
	"testing"
)

type signupForm struct {
	Email string `form:"email" validate:"required,email"`
	Name  string `form:"name" validate:"required"`
	Age   int    `form:"age" validate:"gte=18"`
}

func TestStructMapsTagsToCodes(t *testing.T) {
	v := Struct(signupForm{Email: "nope", Age: 3})
	want := map[string]string{"email": "invalid_email", "name": "required", "age": "invalid"}
	for field, code := range want {
		if v[field] != code {
			t.Errorf("%s: got %q, want %q", field, v[field], code)
		}
	}
	if got := Struct(signupForm{Email: "a@b.co", Name: "Ada", Age: 30}); !got.Empty() {
		t.Fatalf("expected no violations, got %v", got)
	}
}

func TestNumberValidators(t *testing.T) {
	v := Violations{}
	PositiveFloat("rate", 0, v)
	RangeFloat("discount", 101, 0, 100, v)
	RangeFloat("ok", 100, 0, 100, v)
	if v["rate"] != "must_be_positive" || v["discount"] != "out_of_range" {
		t.Fatalf("unexpected violations %v", v)
	}
	if _, ok := v["ok"]; ok {
		t.Fatal("upper bound is inclusive")
	}
}

func TestErrRoundTrip(t *testing.T) {
	if (Violations{}).Err() != nil {
		t.Fatal("empty violations must not be an error")
	}
	err := fmt.Errorf("save: %w", Violations{"b": "required", "a": "invalid"}.Err())
	v, ok := AsViolations(err)
	if !ok || v["a"] != "invalid" {
		t.Fatalf("AsViolations(%v) = %v, %v", err, v, ok)
	}
	if got := err.Error(); got != "save: validation failed: a: invalid, b: required" {
		t.Fatalf("unexpected message %q", got)
	}
}
