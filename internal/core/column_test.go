package core

import (
	"testing"
)

func TestInferEmailColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   string
		wantOK bool
	}{
		{"exact match", []string{"name", "email"}, "email", true},
		{"exact match ignores case and space", []string{"name", " Email "}, " Email ", true},
		{"exact beats substring", []string{"work_email", "email"}, "email", true},
		{"substring", []string{"id", "Contact Email"}, "Contact Email", true},
		{"hyphenated", []string{"id", "E-Mail Address"}, "E-Mail Address", true},
		{"mail fallback", []string{"id", "mailbox"}, "mailbox", true},
		{"email hint beats mail hint", []string{"mailing_list", "primary_email"}, "primary_email", true},
		{"no candidate", []string{"id", "name", "phone"}, "", false},
		{"empty header", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferEmailColumn(tt.header)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("InferEmailColumn(%v) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCheckColumn(t *testing.T) {
	header := []string{"name", "email"}

	if err := CheckColumn(header, "email"); err != nil {
		t.Errorf("CheckColumn(email) = %v, want nil", err)
	}
	if err := CheckColumn(header, "Email"); err == nil {
		t.Error("CheckColumn is case-sensitive, want error for Email")
	}
	if err := CheckColumn(header, ""); err == nil {
		t.Error("CheckColumn(\"\") = nil, want error")
	}
}
