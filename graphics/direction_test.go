package graphics

import (
	"image/color"
	"testing"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
)

func TestLocaleDirection(t *testing.T) {
	tests := []struct {
		locale string
		expect di.Direction
	}{
		{"yi", di.DirectionRTL},
		{"he-IL", di.DirectionRTL},
		{"he_IL", di.DirectionRTL},
		{"en", di.DirectionLTR},
		{"fr-CA", di.DirectionLTR},
		{"", di.DirectionLTR},
	}
	for _, tc := range tests {
		t.Run(tc.locale, func(t *testing.T) {
			if got := LocaleDirection(tc.locale); got != tc.expect {
				t.Errorf("LocaleDirection(%q) = %v, want %v", tc.locale, got, tc.expect)
			}
		})
	}
}

func TestDetectScript(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect language.Script
	}{
		{"Yiddish", "דער טאָג", language.Hebrew},
		{"Latin", "hello", language.Latin},
		{"Digits only", "1234", language.Latin},
		{"Mixed Hebrew dominant", "שלום a", language.Hebrew},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectScript([]rune(tc.input))
			if got != tc.expect {
				t.Errorf("DetectScript(%q) = %v, want %v", tc.input, got, tc.expect)
			}
			if tc.expect == language.Hebrew && ScriptDirection(got) != di.DirectionRTL {
				t.Errorf("hebrew script should read right to left")
			}
		})
	}
}

func grayOf(y uint8) color.Gray { return color.Gray{Y: y} }
