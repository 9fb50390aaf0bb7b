package web

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/alexanderramin/zenstory/internal/catalog"
)

// newMatcher builds an Accept-Language matcher over the bundled languages,
// with the default language first so it wins ties.
func newMatcher(c *catalog.Catalog) (language.Matcher, []string) {
	codes := []string{catalog.DefaultLanguage}
	for _, code := range c.LanguageCodes() {
		if code != catalog.DefaultLanguage {
			codes = append(codes, code)
		}
	}
	tags := make([]language.Tag, len(codes))
	for i, code := range codes {
		tags[i] = language.Make(code)
	}
	return language.NewMatcher(tags), codes
}

// language picks the UI language: the lang query parameter when given,
// else the best Accept-Language match.
func (s *Server) language(r *http.Request) string {
	if q := r.URL.Query().Get("lang"); q != "" {
		return s.deps.Catalog.NormalizeLanguage(q)
	}
	return s.negotiate(r.Header.Get("Accept-Language"))
}

func (s *Server) negotiate(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return catalog.DefaultLanguage
	}
	_, idx, conf := s.matcher.Match(tags...)
	if conf == language.No {
		return catalog.DefaultLanguage
	}
	return s.codes[idx]
}
