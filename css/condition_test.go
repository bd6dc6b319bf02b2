package css_test

import (
	"testing"

	"stylekit/common"
	"stylekit/css"
)

func env(h, v common.SizeClass, idiom common.Idiom, w, hgt float64) common.Environment {
	return common.Environment{Horizontal: h, Vertical: v, Idiom: idiom, Bounds: common.Size{Width: w, Height: hgt}}
}

func TestCondition_Evaluate(t *testing.T) {
	compact, regular := common.SizeClassCompact, common.SizeClassRegular

	tests := []struct {
		cond string
		env  common.Environment
		want bool
	}{
		{"width = 1 and height < 2", env(compact, 0, 0, 1, 1), true},
		{"width = 1 and height < 2", env(compact, 0, 0, 2, 1), false},
		{"width = 1 and height < 2", env(compact, 0, 0, 0, 0), false},
		{"width ≠ 1", env(compact, 0, 0, 2, 1), true},
		{"width != 1", env(compact, 0, 0, 1, 1), false},
		{"horizontal ≠ compact", env(regular, 0, 0, 0, 0), true},
		{"horizontal ≠ compact", env(compact, 0, 0, 0, 0), false},
		{"horizontal = compact", env(compact, 0, 0, 0, 0), true},
		{"vertical ≠ compact", env(0, regular, 0, 0, 0), true},
		{"vertical == compact", env(0, regular, 0, 0, 0), false},
		{"horizontal = compact and width ≠ 1", env(compact, 0, 0, 2, 1), true},
		{"horizontal = compact and width ≠ 1", env(regular, 0, 0, 2, 1), false},
		{"width > 1", env(0, 0, 0, 2, 0), true},
		{"width > 1", env(0, 0, 0, 1, 0), false},
		{"width ≥ 1", env(0, 0, 0, 1, 0), true},
		{"width >= 1", env(0, 0, 0, 0, 0), false},
		{"height ≤ 3", env(0, 0, 0, 5, 3), true},
		{"height <= 3", env(0, 0, 0, 5, 4), false},
		{"default", env(0, 0, 0, 0, 0), true},
		{"idiom == pad", env(0, 0, common.IdiomPad, 0, 0), true},
		{"idiom == pad", env(0, 0, common.IdiomPhone, 0, 0), false},
		{"idiom != pad", env(0, 0, common.IdiomUnspecified, 0, 0), true},
		{"width > 300 and idiom == phone", env(0, 0, common.IdiomPhone, 320, 0), true},
		{"width > 300 and idiom == phone", env(0, 0, common.IdiomPhone, 300, 0), false},
		{"width > 300 and idiom == phone", env(0, 0, common.IdiomPad, 320, 0), false},
		{"width > 1e3", env(0, 0, 0, 500, 0), false},
		{"width > 1e3", env(0, 0, 0, 1001, 0), true},
		{"height < 2.5e1px", env(0, 0, 0, 0, 24), true},
		{"height < 2.5e1px", env(0, 0, 0, 0, 25), false},
	}
	for _, tt := range tests {
		c, err := css.ParseCondition(tt.cond)
		if err != nil {
			t.Errorf("ParseCondition(%q): %v", tt.cond, err)
			continue
		}
		if got := c.Evaluate(tt.env, nil); got != tt.want {
			t.Errorf("%q on %v = %v, want %v", tt.cond, tt.env, got, tt.want)
		}
	}
}

func TestCondition_Nil(t *testing.T) {
	var c *css.Condition
	if !c.Evaluate(common.Environment{}, nil) {
		t.Error("missing condition must be true")
	}
}

func TestCondition_External(t *testing.T) {
	ext := css.Externals{
		"alwaysfalse": func(common.Environment) bool { return false },
		"alwaystrue":  func(common.Environment) bool { return true },
	}
	tests := []struct {
		cond string
		want bool
	}{
		{"?alwaysFalse", false},
		{"?alwaysTrue", true},
		{"?alwaysTrue and width > 10", false},
		{"?notRegistered", true},
	}
	for _, tt := range tests {
		c, err := css.ParseCondition(tt.cond)
		if err != nil {
			t.Errorf("ParseCondition(%q): %v", tt.cond, err)
			continue
		}
		if got := c.Evaluate(common.Environment{}, ext); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.cond, got, tt.want)
		}
	}
}

func TestParseCondition_Errors(t *testing.T) {
	for _, s := range []string{
		"",
		"foo = 1 and height << 2",
		"horizontal > compact",
		"idiom >= phone",
		"width == compact",
		"idiom == watch",
		"width 3",
		"? x y",
		"width > 1 and",
		"width > 3furlongs",
	} {
		if _, err := css.ParseCondition(s); err == nil {
			t.Errorf("ParseCondition(%q) succeeded", s)
		}
	}
}
