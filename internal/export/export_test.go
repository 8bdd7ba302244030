package export

import (
	"bytes"
	"reflect"
	"testing"
)

func TestFlatten_HTMLParagraphs(t *testing.T) {
	got := Flatten("<p>A</p><p>B</p>")
	want := []string{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten = %v, want %v", got, want)
	}
}

func TestFlatten_StripsInlineFormatting(t *testing.T) {
	got := Flatten("<h1>Leave Application</h1><p>Dear <b>Sir</b>,</p>")
	want := []string{"Leave Application", "Dear Sir,"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten = %v, want %v", got, want)
	}
}

func TestFlatten_BreakTags(t *testing.T) {
	got := Flatten("<p>Line one<br/>Line two</p>")
	want := []string{"Line one", "Line two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten = %v, want %v", got, want)
	}
}

func TestFlatten_PlainText(t *testing.T) {
	got := Flatten("First line\nSecond line\n\nThird")
	want := []string{"First line", "Second line", "Third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten = %v, want %v", got, want)
	}
}

func TestFlatten_Empty(t *testing.T) {
	if got := Flatten(""); len(got) != 0 {
		t.Errorf("Flatten(\"\") = %v, want empty", got)
	}
}

func TestToPDF_ProducesDocument(t *testing.T) {
	a := NewAdapter()

	data, err := a.ToPDF([]byte("<p>Dear Sir,</p><p>I hereby request leave.</p>"), "Leave Application")
	if err != nil {
		t.Fatalf("ToPDF failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("expected PDF magic header, got %q", data[:min(8, len(data))])
	}
}

func TestToDOCX_ProducesDocument(t *testing.T) {
	a := NewAdapter()

	data, err := a.ToDOCX("Dear Sir,\n\nI hereby request leave.", "Leave Application")
	if err != nil {
		t.Fatalf("ToDOCX failed: %v", err)
	}
	// DOCX files are ZIP archives.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("expected ZIP magic header, got %q", data[:min(4, len(data))])
	}
}
