package service

import (
	"net/url"
	"strings"

	"github.com/RubachokBoss/student-portal/internal/models"
)

// AllowedExtensions is the submission allow-list, in picker order.
var AllowedExtensions = []string{"pdf", "doc", "docx", "ppt", "pptx", "xls", "xlsx", "zip", "jpg", "jpeg", "png"}

var allowedExtensions = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AllowedExtensions))
	for _, ext := range AllowedExtensions {
		m[ext] = struct{}{}
	}
	return m
}()

// AcceptList renders the allow-list as a file input accept attribute.
func AcceptList() string {
	parts := make([]string, len(AllowedExtensions))
	for i, ext := range AllowedExtensions {
		parts[i] = "." + ext
	}
	return strings.Join(parts, ",")
}

// Extension returns the lower-cased text after the last dot, or "" when the
// name has no dot.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

func IsAllowedExtension(ext string) bool {
	_, ok := allowedExtensions[ext]
	return ok
}

// ParseIdentity reads id, name and course from a query-shaped string. Absent or
// empty values fall back to the defaults. Malformed pairs never discard the
// well-formed ones.
func ParseIdentity(raw string) models.Identity {
	values := parseQuery(strings.TrimPrefix(raw, "?"))
	return models.Identity{
		ID:     values.Get("id"),
		Name:   valueOr(values.Get("name"), models.DefaultStudentName),
		Course: valueOr(values.Get("course"), models.DefaultCourse),
	}
}

// parseQuery splits on '&' only and never fails: a pair without '=' has an
// empty value and invalid escapes are kept literally.
func parseQuery(raw string) url.Values {
	values := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		values.Add(unescapeLenient(key), unescapeLenient(value))
	}
	return values
}

func unescapeLenient(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return strings.ToValidUTF8(s, "\uFFFD")
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// EncodeIdentity is the inverse of ParseIdentity for non-empty fields. Empty
// fields are omitted.
func EncodeIdentity(identity models.Identity) string {
	var b strings.Builder
	write := func(key, value string) {
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	write("name", identity.Name)
	write("id", identity.ID)
	write("course", identity.Course)
	return b.String()
}

// Location is the address-bar value mirroring identity.
func Location(identity models.Identity) string {
	return "/?" + EncodeIdentity(identity)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
