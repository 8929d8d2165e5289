package graphics

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
)

var rtlLanguages = map[language.Language]bool{
	"he": true, "iw": true, "yi": true, "ji": true,
	"ar": true, "fa": true, "ur": true, "syr": true,
}

// LocaleDirection returns the reading direction for a BCP 47 locale such as
// "yi" or "he-IL".
func LocaleDirection(locale string) di.Direction {
	if rtlLanguages[language.NewLanguage(locale).Primary()] {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// ScriptDirection returns the horizontal direction a script is written in.
func ScriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

// DetectScript returns the strong script used by most runes, Latin when the
// text carries no strong script.
func DetectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	best := language.Latin
	for _, r := range runes {
		script := language.LookupScript(r)
		if !script.Strong() {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			best = script
		}
	}
	return best
}
