package validator

import (
	"strings"
	"testing"
)

type slotInput struct {
	Name string `validate:"required,runemax=5"`
	Date string `validate:"required,slotdate"`
	Time string `validate:"required,slottime"`
	Kind string `validate:"omitempty,oneof=a b"`
}

func TestValidate(t *testing.T) {
	v := New()

	tt := []struct {
		name    string
		input   slotInput
		wantErr string
	}{
		{
			name:  "valid",
			input: slotInput{Name: "ランチ会", Date: "2025-06-01", Time: "9:05"},
		},
		{
			name:    "missing name",
			input:   slotInput{Date: "2025-06-01", Time: "12:00"},
			wantErr: ErrFieldRequired,
		},
		{
			name:    "name too long",
			input:   slotInput{Name: "abcdef", Date: "2025-06-01", Time: "12:00"},
			wantErr: ErrFieldExceedsMaxLen,
		},
		{
			name:    "bad date",
			input:   slotInput{Name: "a", Date: "2025-13-01", Time: "12:00"},
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "bad time",
			input:   slotInput{Name: "a", Date: "2025-06-01", Time: "24:00"},
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "bad enum",
			input:   slotInput{Name: "a", Date: "2025-06-01", Time: "12:00", Kind: "c"},
			wantErr: ErrInvalidValue,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.input)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.HasPrefix(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() error = %v, want prefix %q", err, tc.wantErr)
			}
		})
	}
}
