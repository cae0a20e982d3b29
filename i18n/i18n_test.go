package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	assert.Equal(t, "pt", Match("pt-BR"))
	assert.Equal(t, "es", Match("es_AR"))
	assert.Equal(t, "ru", Match("ru"))
	assert.Equal(t, "en", Match("de-DE"))
}

func TestTranslate(t *testing.T) {
	prev := GetLang()
	t.Cleanup(func() { SetLang(prev) })

	SetLang("es")
	assert.Equal(t, "Pulsa y espera eternamente", T("Press and wait eternally"))
	assert.Equal(t, "untranslated", T("untranslated"))

	SetLang("en")
	assert.Equal(t, "Press and wait eternally", T("Press and wait eternally"))
}
