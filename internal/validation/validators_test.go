package validation

import (
	"testing"
)

type testPaymentRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Amount  string `json:"amount" validate:"required,money"`
	DueDate string `json:"due_date" validate:"required,civil_date"`
}

type testReminderRequest struct {
	SubjectKind string `json:"subject_kind" validate:"required,subject_kind"`
}

func TestValidate_CustomTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        testPaymentRequest
		wantFields []string
	}{
		{"valid", testPaymentRequest{"Rent", "1,200.00", "2025-11-01"}, nil},
		{"dollar amount", testPaymentRequest{"Rent", "$50", "2025-11-01"}, nil},
		{"bad amount", testPaymentRequest{"Rent", "abc", "2025-11-01"}, []string{"amount"}},
		{"negative amount", testPaymentRequest{"Rent", "-1", "2025-11-01"}, []string{"amount"}},
		{"bad date", testPaymentRequest{"Rent", "10", "01/11/2025"}, []string{"due_date"}},
		{"impossible date", testPaymentRequest{"Rent", "10", "2025-02-30"}, []string{"due_date"}},
		{"all missing", testPaymentRequest{}, []string{"name", "amount", "due_date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate.Struct(tt.req)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			fields := FieldErrors(err)
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("FieldErrors() = %v, want fields %v", fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := fields[f]; !ok {
					t.Errorf("missing field error for %q in %v", f, fields)
				}
			}
		})
	}
}

func TestValidate_SubjectKind(t *testing.T) {
	t.Parallel()

	if err := Validate.Struct(testReminderRequest{SubjectKind: "payment"}); err != nil {
		t.Errorf("payment should be valid: %v", err)
	}
	err := Validate.Struct(testReminderRequest{SubjectKind: "meeting"})
	if got := FieldErrors(err)["subject_kind"]; got != "must be 'task' or 'payment'" {
		t.Errorf("FieldErrors()[subject_kind] = %q", got)
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"line1\nline2", "line1\nline2"},
		{"bell\x07char", "bellchar"},
		{"\x00 \x01", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeText(tt.in); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	t.Parallel()

	if got := FieldErrors(nil); got != nil {
		t.Errorf("FieldErrors(nil) = %v, want nil", got)
	}
}
