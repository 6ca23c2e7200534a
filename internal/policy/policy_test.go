package policy

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/matta/mailpdf/internal/message"
)

func TestSenderAddress(t *testing.T) {
	cases := []struct {
		from string
		want string
	}{
		{"a@b.com", "a@b.com"},
		{"Name <a@b.com>", "a@b.com"},
		{"First Last <first_last@gmail.com>", "first_last@gmail.com"},
		{"\"Doe, Jane\" <jane@example.com>", "jane@example.com"},
		{" spaced@example.com ", " spaced@example.com "},
		{"Name <", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SenderAddress(tc.from); got != tc.want {
			t.Errorf("SenderAddress(%q) = %q, want %q", tc.from, got, tc.want)
		}
	}
}

func TestAllowList(t *testing.T) {
	l := NewAllowList("bot@example.com", "maint@example.com", "", "bot@example.com")
	if got, want := l.Len(), 2; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	cases := []struct {
		addr string
		want bool
	}{
		{"bot@example.com", true},
		{"maint@example.com", true},
		{"Bot@example.com", false},
		{"alice@ex.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := l.Contains(tc.addr); got != tc.want {
			t.Errorf("Contains(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
	if diff := cmp.Diff([]string{"bot@example.com", "maint@example.com"}, l.Addresses()); diff != "" {
		t.Errorf("Addresses() mismatch (-want +got):\n%s", diff)
	}

	var zero AllowList
	if zero.Contains("bot@example.com") {
		t.Error("zero AllowList allowed an address")
	}
}

func TestSplitAddresses(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a@x.com", []string{"a@x.com"}},
		{"a@x.com,b@x.com", []string{"a@x.com", "b@x.com"}},
		{" a@x.com ; b@x.com,\n c@x.com ", []string{"a@x.com", "b@x.com", "c@x.com"}},
		{",,", nil},
	}
	for _, tc := range cases {
		got := SplitAddresses(tc.in)
		if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("SplitAddresses(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		age  time.Duration
		want Action
	}{
		{-time.Hour, Respond},
		{0, Respond},
		{time.Hour, Respond},
		{3 * time.Hour, Respond},
		{3*time.Hour + time.Second, Ignore},
		{4 * time.Hour, Ignore},
		{6 * 24 * time.Hour, Ignore},
		{7 * 24 * time.Hour, Ignore},
		{7*24*time.Hour + time.Second, Trash},
		{10 * 24 * time.Hour, Trash},
	}
	for _, tc := range cases {
		if got := Decide(tc.age); got != tc.want {
			t.Errorf("Decide(%v) = %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	parts := []message.Part{
		{MimeType: MimePDF, Filename: "body-is-never-an-attachment"},
		{MimeType: MimePNG, Filename: "a.png"},
		{MimeType: "text/plain"},
		{MimeType: MimeJPEG, Filename: "b.jpg"},
		{MimeType: "image/gif", Filename: "c.gif"},
		{MimeType: "IMAGE/PNG", Filename: "d.png"},
		{MimeType: MimePDF, Filename: "e.pdf"},
		{MimeType: "application/octet-stream", Filename: "f.pdf"},
	}
	want := []message.Part{
		{MimeType: MimePNG, Filename: "a.png"},
		{MimeType: MimeJPEG, Filename: "b.jpg"},
		{MimeType: MimePDF, Filename: "e.pdf"},
	}
	if diff := cmp.Diff(want, Classify(parts)); diff != "" {
		t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
	}
	if got := Classify(parts[:1]); len(got) != 0 {
		t.Errorf("Classify(body only) = %v, want empty", got)
	}
	if got := Classify(nil); len(got) != 0 {
		t.Errorf("Classify(nil) = %v, want empty", got)
	}
}

func TestNeedsConversion(t *testing.T) {
	cases := map[string]bool{MimePDF: false, MimePNG: true, MimeJPEG: true}
	for mt, want := range cases {
		if got := NeedsConversion(mt); got != want {
			t.Errorf("NeedsConversion(%q) = %v, want %v", mt, got, want)
		}
	}
}

func TestSequencer(t *testing.T) {
	s := DefaultSequencer()
	var got []string
	for i := 0; i < 3; i++ {
		got = append(got, s.Next())
	}
	if diff := cmp.Diff([]string{"pdf_1.pdf", "pdf_2.pdf", "pdf_3.pdf"}, got); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}

	// A fresh sequencer restarts regardless of earlier use.
	if got, want := DefaultSequencer().Next(), "pdf_1.pdf"; got != want {
		t.Errorf("fresh Next() = %q, want %q", got, want)
	}

	cases := []struct {
		base, ext string
		want      string
	}{
		{"scan", "pdf", "scan_1.pdf"},
		{"", "", "pdf_1.pdf"},
		{"img", "", "img_1.pdf"},
	}
	for _, tc := range cases {
		if got := NewSequencer(tc.base, tc.ext).Next(); got != tc.want {
			t.Errorf("NewSequencer(%q, %q).Next() = %q, want %q", tc.base, tc.ext, got, tc.want)
		}
	}
}
