package css_test

import (
	"errors"
	"slices"
	"testing"

	"stylekit/css"
)

func TestParseSelector_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"Button",
		"Button*",
		"Button:primary",
		"Button:primary*",
		".shadow",
		"@toolbar",
		"toolbar Button:primary",
		"Button[default]",
		"Button:primary[idiom == pad]*",
		"Label[width > 300 and idiom == phone]",
		".shadow[horizontal != compact]",
		"@toolbar[?wide]",
		"toolbar .shadow[height <= 20]",
	} {
		t.Run(s, func(t *testing.T) {
			sel, err := css.ParseSelector(s)
			if err != nil {
				t.Fatalf("ParseSelector(%q): %v", s, err)
			}
			if got := sel.String(); got != s {
				t.Errorf("String() = %q, want %q", got, s)
			}
			again, err := css.ParseSelector(sel.String())
			if err != nil {
				t.Fatalf("reparse: %v", err)
			}
			if again.Kind != sel.Kind || again.Type != sel.Type || again.Trait != sel.Trait ||
				again.Scope != sel.Scope || again.AppliesToSubclasses != sel.AppliesToSubclasses ||
				again.Condition.String() != sel.Condition.String() {
				t.Errorf("reparsed %+v, want %+v", again, sel)
			}
		})
	}
}

func TestParseSelector_LargeConstant(t *testing.T) {
	sel, err := css.ParseSelector("A[width > 1e21]")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	if got := sel.Condition.Expressions[0].Number; got != 1e21 {
		t.Fatalf("constant = %v, want 1e21", got)
	}

	again, err := css.ParseSelector(sel.String())
	if err != nil {
		t.Fatalf("reparse of %q: %v", sel.String(), err)
	}
	if got := again.Condition.Expressions[0].Number; got != 1e21 {
		t.Errorf("reparsed constant = %v, want 1e21 (text %q)", got, sel.String())
	}
	if again.String() != sel.String() {
		t.Errorf("String() = %q, want %q", again.String(), sel.String())
	}
}

func TestParseSelector_Forms(t *testing.T) {
	tests := []struct {
		in    string
		kind  css.SelectorKind
		typ   string
		trait string
		scope string
		sub   bool
	}{
		{"Button", css.TypeMatch, "Button", "", "", false},
		{"Button *", css.TypeMatch, "Button", "", "", true},
		{"Button : primary", css.TypeMatch, "Button", "primary", "", false},
		{".primary", css.TraitMatch, "", "primary", "", false},
		{"@bar", css.ScopeMatch, "", "", "bar", false},
		{"bar Button", css.ScopeMatch, "Button", "", "bar", false},
		{"@bar Button*", css.ScopeMatch, "Button", "", "bar", true},
		{"Button [default]", css.TypeMatch, "Button", "", "", false},
	}
	for _, tt := range tests {
		sel, err := css.ParseSelector(tt.in)
		if err != nil {
			t.Errorf("ParseSelector(%q): %v", tt.in, err)
			continue
		}
		if sel.Kind != tt.kind || sel.Type != tt.typ || sel.Trait != tt.trait || sel.Scope != tt.scope || sel.AppliesToSubclasses != tt.sub {
			t.Errorf("ParseSelector(%q) = %+v", tt.in, sel)
		}
	}
}

func TestParseSelector_Errors(t *testing.T) {
	for _, s := range []string{
		"",
		"a b c",
		".x*",
		"@x*",
		"A[width > wide]",
		"A[idiom < pad]",
		"A[foo == 1]",
		"A[width > 1",
		"A:",
		"#id",
		"A B:",
	} {
		_, err := css.ParseSelector(s)
		if err == nil {
			t.Errorf("ParseSelector(%q) succeeded", s)
			continue
		}
		if !errors.Is(err, css.ErrMalformedSelector) && !errors.Is(err, css.ErrMalformedCondition) {
			t.Errorf("ParseSelector(%q) error %v is not a selector or condition error", s, err)
		}
	}
}

func mustSelector(t *testing.T, s string) css.Selector {
	t.Helper()
	sel, err := css.ParseSelector(s)
	if err != nil {
		t.Fatalf("ParseSelector(%q): %v", s, err)
	}
	return sel
}

func TestComparePriority(t *testing.T) {
	less := [][2]string{
		{"A*", "A"},
		{"A", "A[default]"},
		{"A*", "A[default]*"},
		{"A", "A:x"},
		{"A:x[default]", ".x"},
		{".x[default]", "@s"},
		{"A[idiom == pad]*", "A[idiom == pad]"},
	}
	for _, pair := range less {
		a, b := mustSelector(t, pair[0]), mustSelector(t, pair[1])
		if css.ComparePriority(a, b) >= 0 {
			t.Errorf("priority(%s)=%d must be below priority(%s)=%d", pair[0], a.Priority(), pair[1], b.Priority())
		}
	}
}

func TestCompareRules_TotalOrder(t *testing.T) {
	rules := []*css.Rule{
		{Selector: mustSelector(t, "A:x"), Order: 0},
		{Selector: mustSelector(t, "A"), Order: 1},
		{Selector: mustSelector(t, "A"), Order: 2},
		{Selector: mustSelector(t, "A*"), Order: 3},
	}
	slices.SortFunc(rules, css.CompareRules)

	var got []int
	for _, r := range rules {
		got = append(got, r.Order)
	}
	if want := []int{3, 1, 2, 0}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
