package message

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
)

func TestHeader(t *testing.T) {
	m := &Message{Headers: []Header{
		{"From", "a@example.com"},
		{"subject", "hello"},
		{"From", "second@example.com"},
	}}
	cases := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"From", "a@example.com", true},
		{"from", "a@example.com", true},
		{"Subject", "hello", true},
		{"Date", "", false},
	}
	for _, tc := range cases {
		got, ok := m.Header(tc.name)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Header(%q) = %q, %v, want %q, %v", tc.name, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestIsServiceError(t *testing.T) {
	base := &ServiceError{Op: "list", Err: errors.New("401")}
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), false},
		{base, true},
		{errors.Wrap(base, "listing"), true},
		{fmt.Errorf("run: %w", base), true},
	}
	for _, tc := range cases {
		if got := IsServiceError(tc.err); got != tc.want {
			t.Errorf("IsServiceError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
