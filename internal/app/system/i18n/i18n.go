// Package i18n translates the fixed UI messages (flashes, page notices) into
// Dutch and English. Dutch is the default.
package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	NL = "nl"
	EN = "en"
)

// CookieName holds the visitor's chosen language.
const CookieName = "lang"

var (
	supported = []language.Tag{language.Dutch, language.English}
	matcher   = language.NewMatcher(supported)
	cat       = buildCatalog()

	defaultLang = NL
)

// SetDefault changes the fallback language. Unknown values are ignored.
func SetDefault(lang string) {
	if lang == NL || lang == EN {
		defaultLang = lang
	}
}

// Default returns the fallback language.
func Default() string { return defaultLang }

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Dutch))
	for key, m := range messages {
		_ = b.SetString(language.Dutch, key, m.nl)
		_ = b.SetString(language.English, key, m.en)
	}
	return b
}

func tagFor(lang string) language.Tag {
	if lang == EN {
		return language.English
	}
	return language.Dutch
}

// T returns the message for key in lang, formatting args into it. Unknown
// keys are returned as is.
func T(lang, key string, args ...any) string {
	p := message.NewPrinter(tagFor(lang), message.Catalog(cat))
	return p.Sprintf(key, args...)
}

// Match picks the best supported language for the given preferences, in
// order (a cookie value, an Accept-Language header, ...).
func Match(prefs ...string) string {
	var tags []language.Tag
	for _, p := range prefs {
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return defaultLang
	}
	tag, _, conf := matcher.Match(tags...)
	if conf == language.No {
		return defaultLang
	}
	base, _ := tag.Base()
	if base.String() == EN {
		return EN
	}
	return NL
}

type ctxKey struct{}

// Middleware resolves the request language. A ?lang= query value is stored
// in a cookie and wins over the cookie and the Accept-Language header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var lang string
		if q := r.URL.Query().Get("lang"); q == NL || q == EN {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    q,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		} else {
			var cookie string
			if c, err := r.Cookie(CookieName); err == nil {
				cookie = c.Value
			}
			lang = Match(cookie, r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, lang)))
	})
}

// FromRequest returns the language resolved by Middleware, or the default.
func FromRequest(r *http.Request) string {
	if lang, ok := r.Context().Value(ctxKey{}).(string); ok {
		return lang
	}
	return defaultLang
}
