package views

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eringen/spacetraveling"
)

var supported = []language.Tag{
	language.BrazilianPortuguese,
	language.AmericanEnglish,
}

var matcher = language.NewMatcher(supported)

var messages = map[language.Tag]map[string]string{
	language.BrazilianPortuguese: {
		"listing.load_more":    "Carregar mais posts",
		"listing.loading":      "Carregando...",
		"listing.load_failed":  "Não foi possível carregar mais posts.",
		"listing.retry":        "Tentar novamente",
		"listing.empty":        "Nenhum post publicado ainda.",
		"post.reading_time":    "%d min",
		"preview.active":       "Você está vendo uma pré-visualização.",
		"preview.exit":         "Sair da pré-visualização",
		"error.not_found":      "Página não encontrada",
		"error.not_found_body": "O post que você procura não existe ou foi removido.",
		"error.server":         "Algo deu errado",
		"error.server_body":    "Tente novamente em alguns instantes.",
		"nav.home":             "Voltar para o início",
	},
	language.AmericanEnglish: {
		"listing.load_more":    "Load more posts",
		"listing.loading":      "Loading...",
		"listing.load_failed":  "Could not load more posts.",
		"listing.retry":        "Try again",
		"listing.empty":        "No posts published yet.",
		"post.reading_time":    "%d min",
		"preview.active":       "You are viewing a preview.",
		"preview.exit":         "Exit preview",
		"error.not_found":      "Page not found",
		"error.not_found_body": "The post you are looking for does not exist or was removed.",
		"error.server":         "Something went wrong",
		"error.server_body":    "Please try again in a moment.",
		"nav.home":             "Back to home",
	},
}

var monthAbbrev = map[language.Tag][12]string{
	language.BrazilianPortuguese: {"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	language.AmericanEnglish:     {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

func init() {
	for tag, msgs := range messages {
		tags := []language.Tag{tag}
		if base, conf := tag.Base(); conf != language.No {
			if baseTag, err := language.Parse(base.String()); err == nil && baseTag.String() != tag.String() {
				tags = append(tags, baseTag)
			}
		}
		keys := make([]string, 0, len(msgs))
		for key := range msgs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			for _, t := range tags {
				if err := message.SetString(t, key, msgs[key]); err != nil {
					panic(fmt.Sprintf("views: register %q for %s: %v", key, t, err))
				}
			}
		}
	}
}

// Locale renders UI strings and dates for one supported language.
type Locale struct {
	Tag     language.Tag
	printer *message.Printer
}

// NewLocale returns the supported locale closest to the BCP 47 tag s,
// falling back to pt-BR.
func NewLocale(s string) Locale {
	tag := supported[0]
	if parsed, err := language.Parse(strings.TrimSpace(s)); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return Locale{Tag: tag, printer: message.NewPrinter(tag)}
}

// T returns the localized message for key.
func (l Locale) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// FormatDate formats a CMS publication date as "dd MMM yyyy" with the
// locale's month abbreviation, e.g. "25 mar 2021". Empty dates give "" and
// unparseable ones are returned as is.
func (l Locale) FormatDate(s string) string {
	if s == "" {
		return ""
	}
	t, ok := spacetraveling.ParsePublicationDate(s)
	if !ok {
		return s
	}
	months := monthAbbrev[l.Tag]
	return fmt.Sprintf("%02d %s %d", t.Day(), months[t.Month()-1], t.Year())
}
