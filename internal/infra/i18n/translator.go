// Package i18n renders reply texts from embedded YAML locales.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLocale backs every other locale: keys missing from the requested
// locale resolve from it.
const DefaultLocale = "en"

type Translator struct {
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys over the default
// locale. It fails only when neither file exists.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	merged := make(map[string]string)
	found := false
	for _, lang := range []string{DefaultLocale, langCode} {
		data, err := fs.ReadFile(fsys, path.Join("locales", lang+".yaml"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read locale %q: %w", lang, err)
		}
		entries, err := parseLocale(data)
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", lang, err)
		}
		for k, v := range entries {
			merged[k] = v
		}
		found = true
	}
	if !found {
		return nil, fmt.Errorf("no translation file for %q", langCode)
	}
	return &Translator{translations: merged}, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	entries, err := parseLocale(data)
	if err != nil {
		return nil, err
	}
	return &Translator{translations: entries}, nil
}

func parseLocale(data []byte) (map[string]string, error) {
	var entries map[string]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse translations: %w", err)
	}
	return entries, nil
}

// T returns the translation for key formatted with args. Unknown keys come
// back unchanged.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
