package render

import "testing"

func TestNumberToWords(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "zero"},
		{1, "one"},
		{7, "seven"},
		{13, "thirteen"},
		{19, "nineteen"},
		{20, "twenty"},
		{21, "twenty-one"},
		{40, "forty"},
		{99, "ninety-nine"},
		{100, "one hundred"},
		{105, "one hundred five"},
		{350, "three hundred fifty"},
		{999, "nine hundred ninety-nine"},
		{1000, "one thousand"},
		{1001, "one thousand one"},
		{12345, "twelve thousand three hundred forty-five"},
		{1_000_000, "1000000"},
		{-3, "-3"},
	}
	for _, c := range cases {
		if got := NumberToWords(c.in); got != c.want {
			t.Errorf("NumberToWords(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestWordsWithDigits(t *testing.T) {
	if got := WordsWithDigits(3); got != "three (3)" {
		t.Errorf("WordsWithDigits(3) = %q", got)
	}
	if got := WordsWithDigits(24); got != "twenty-four (24)" {
		t.Errorf("WordsWithDigits(24) = %q", got)
	}
}

func TestFormatTestingMonth(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-02", "FEBRUARY 2026"},
		{"2025-12", "DECEMBER 2025"},
		{"2026-13", "2026-13"},
		{"garbage", "garbage"},
		{"", ""},
	}
	for _, c := range cases {
		if got := FormatTestingMonth(c.in); got != c.want {
			t.Errorf("FormatTestingMonth(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
