package i18n

import (
	"log"
	"os"
	"strings"

	"github.com/jeandeaual/go-locale"
)

// EnvLang forces the UI language when set.
const EnvLang = "EVENTLOOP_LANG"

var lang string

var translations = map[string]map[string]string{
	"Event Loop Tutorial - %s": {
		"pt": "Tutorial de Event Loop - %s",
		"es": "Tutorial de Event Loop - %s",
		"ru": "Учебник по циклу событий - %s",
	},
	"Press and wait eternally": {
		"pt": "Pressione e espere eternamente",
		"es": "Pulsa y espera eternamente",
		"ru": "Нажмите и ждите вечно",
	},
	"Working… %s": {
		"pt": "Trabalhando… %s",
		"es": "Trabajando… %s",
		"ru": "Работаю… %s",
	},
	"Stuck Synchronous Call": {
		"pt": "Chamada síncrona travada",
		"es": "Llamada síncrona bloqueada",
		"ru": "Зависший синхронный вызов",
	},
	"Button with New Thread": {
		"pt": "Botão com nova thread",
		"es": "Botón con nuevo hilo",
		"ru": "Кнопка с новым потоком",
	},
	"Button with New Thread and Disable Behavior": {
		"pt": "Botão com nova thread e desativação",
		"es": "Botón con nuevo hilo y desactivación",
		"ru": "Кнопка с новым потоком и блокировкой",
	},
	"Cooperative Button": {
		"pt": "Botão cooperativo",
		"es": "Botón cooperativo",
		"ru": "Кооперативная кнопка",
	},
}

func init() {
	// Check for override environment variable
	if forcedLang := strings.TrimSpace(os.Getenv(EnvLang)); forcedLang != "" {
		log.Printf("%s is set to: '%s'", EnvLang, forcedLang)
		lang = forcedLang
		return
	}

	userLocales, err := locale.GetLocales()
	if err != nil {
		log.Println("Could not get user locale, defaulting to english")
		lang = "en"
		return
	}
	if len(userLocales) == 0 {
		log.Println("No user locale detected, defaulting to english")
		lang = "en"
		return
	}
	lang = Match(userLocales[0])
	log.Printf("Detected user locale %s, language set to: %s", userLocales[0], lang)
}

// Match maps a locale such as "pt-BR" to a supported language code.
func Match(userLocale string) string {
	for _, l := range []string{"pt", "es", "ru"} {
		if strings.HasPrefix(userLocale, l) {
			return l
		}
	}
	return "en"
}

// T returns the translation of key for the current language, or key itself.
func T(key string) string {
	if translated, ok := translations[key][lang]; ok {
		return translated
	}
	return key
}

func GetLang() string {
	return lang
}

// SetLang overrides the detected language.
func SetLang(l string) {
	lang = l
}
