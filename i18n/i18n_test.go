package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		header, want string
	}{
		{"en-US,en;q=0.9", "en"},
		{"EN-gb", "en"},
		{"fr-FR,fr;q=0.8", "fr"},
		{"de-DE,en;q=0.5", "en"},
		{"es", "fr"},
		{"", "fr"},
		{";;;", "fr"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.header), tt.header)
	}
}

func TestTranslations(t *testing.T) {
	assert.Equal(t, "Required", T("en", "required"))
	assert.Equal(t, "Requis", T("fr", "required"))
	// unknown code -> fallback to code
	assert.Equal(t, "__nope__", T("en", "__nope__"))
	// unknown language -> fr
	assert.Equal(t, "Requis", T("es", "required"))
	assert.Equal(t, "Total TTC", T("fr", "grand_total"))
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for code := range catalog[FR] {
		_, ok := catalog[EN][code]
		assert.True(t, ok, "missing en translation for %q", code)
	}
	assert.Len(t, catalog[EN], len(catalog[FR]))
}

func TestLangContext(t *testing.T) {
	assert.Equal(t, "fr", LangFrom(context.Background()))
	assert.Equal(t, "en", LangFrom(WithLang(context.Background(), "EN")))
	assert.Equal(t, "fr", LangFrom(WithLang(context.Background(), "klingon")))
}
