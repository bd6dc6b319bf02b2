package common

import "testing"

func TestParseSize(t *testing.T) {
	s, err := ParseSize(" 320x480 ")
	if err != nil {
		t.Fatalf("ParseSize: %v", err)
	}
	if s.Width != 320 || s.Height != 480 {
		t.Errorf("got %v", s)
	}
	if s.Min() != 320 {
		t.Errorf("Min() = %v", s.Min())
	}
	if s.String() != "320x480" {
		t.Errorf("String() = %q", s.String())
	}
	for _, bad := range []string{"", "320", "ax2", "2xb"} {
		if _, err := ParseSize(bad); err == nil {
			t.Errorf("ParseSize(%q) succeeded", bad)
		}
	}
}

func TestEnvironment_Fingerprint(t *testing.T) {
	a := Environment{Horizontal: SizeClassCompact, Idiom: IdiomPhone, Bounds: Size{Width: 320, Height: 480}}
	b := a
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal environments must share fingerprint")
	}
	variants := []Environment{
		{Horizontal: SizeClassRegular, Idiom: IdiomPhone, Bounds: a.Bounds},
		{Horizontal: SizeClassCompact, Vertical: SizeClassCompact, Idiom: IdiomPhone, Bounds: a.Bounds},
		{Horizontal: SizeClassCompact, Idiom: IdiomPad, Bounds: a.Bounds},
		{Horizontal: SizeClassCompact, Idiom: IdiomPhone, Bounds: Size{Width: 480, Height: 320}},
	}
	for _, v := range variants {
		if v.Fingerprint() == a.Fingerprint() {
			t.Errorf("%v and %v share fingerprint", v, a)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if sc, err := ParseSizeClass("Regular"); err != nil || sc != SizeClassRegular {
		t.Errorf("ParseSizeClass = %v, %v", sc, err)
	}
	if _, err := ParseSizeClass("huge"); err == nil {
		t.Error("ParseSizeClass(huge) succeeded")
	}
	if id, err := ParseIdiom("TV"); err != nil || id != IdiomTv {
		t.Errorf("ParseIdiom = %v, %v", id, err)
	}
	if got := len(IdiomNames()); got != 5 {
		t.Errorf("IdiomNames() has %d entries", got)
	}
}
