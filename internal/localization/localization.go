// Package localization provides the response message catalog.
// Translations are JSON files embedded in the binary, one per language
// (e.g. "pt.json"); Portuguese is the default.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// DefaultLanguage is used when the client states no supported preference.
const DefaultLanguage = "pt"

//go:embed locales/*.json
var locales embed.FS

// Localizer manages the translations for the application.
// It is read-only after construction and safe for concurrent use.
type Localizer struct {
	translations map[string]map[string]string
	matcher      language.Matcher
	langs        []string
}

// New loads the embedded catalog.
func New() (*Localizer, error) {
	sub, err := fs.Sub(locales, "locales")
	if err != nil {
		return nil, err
	}
	return NewLocalizer(sub)
}

// NewLocalizer loads every "<lang>.json" file at the root of fsys.
func NewLocalizer(fsys fs.FS) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || path.Ext(file.Name()) != ".json" {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, file.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}
		l.translations[lang] = translations
	}

	if _, ok := l.translations[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("localization catalog has no %q file", DefaultLanguage)
	}

	// The default language must come first: the matcher falls back to it.
	l.langs = []string{DefaultLanguage}
	tags := []language.Tag{language.Make(DefaultLanguage)}
	for lang := range l.translations {
		if lang == DefaultLanguage {
			continue
		}
		l.langs = append(l.langs, lang)
		tags = append(tags, language.Make(lang))
	}
	l.matcher = language.NewMatcher(tags)

	return l, nil
}

// GetString returns the localized string for a given key and language.
// Unknown languages and keys fall back to the default language, then to the key itself.
func (l *Localizer) GetString(lang, key string) string {
	if value, ok := l.translations[lang][key]; ok {
		return value
	}
	if value, ok := l.translations[DefaultLanguage][key]; ok {
		return value
	}
	return key
}

// Negotiate picks the best supported language for an Accept-Language header.
func (l *Localizer) Negotiate(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DefaultLanguage
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return DefaultLanguage
	}
	_, index, confidence := l.matcher.Match(prefs...)
	if confidence == language.No {
		return DefaultLanguage
	}
	return l.langs[index]
}

// Message resolves key in the language the request asked for.
func (l *Localizer) Message(c *gin.Context, key string) string {
	return l.GetString(l.Negotiate(c.GetHeader("Accept-Language")), key)
}
