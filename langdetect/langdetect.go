// Package langdetect provides lightweight language identification,
// used to gate speech synthesis to languages the voices support.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// candidates covers the languages the assistant realistically sees.
// A smaller set keeps detection fast and more accurate on short text.
var candidates = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Russian,
	lingua.Chinese,
	lingua.Japanese,
}

// Detect returns the ISO 639-1 code and English display name of the
// text's language. Unknown or empty text yields ("auto", "Unknown").
func Detect(text string) (code, name string) {
	if strings.TrimSpace(text) == "" {
		return "auto", "Unknown"
	}
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidates...).
			Build()
	})
	lang, ok := detector.DetectLanguageOf(text)
	if !ok {
		return "auto", "Unknown"
	}
	code = strings.ToLower(lang.IsoCode639_1().String())
	tag := language.Make(code)
	return code, display.English.Tags().Name(tag)
}

// IsEnglish reports whether the text is detected as English.
func IsEnglish(text string) bool {
	code, _ := Detect(text)
	return code == "en"
}
