// Package interpolate expands Docker-Compose-style "${…}" variable
// references against an environment map. It is a pure function: no I/O, no
// YAML awareness.
package interpolate

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnterminatedVariable is returned when a "${" is never closed.
var ErrUnterminatedVariable = errors.New("unterminated variable")

// ErrInvalidVariableSyntax is returned for syntactically invalid forms, such
// as an empty variable name ("${}").
var ErrInvalidVariableSyntax = errors.New("invalid variable syntax")

// Interpolate expands raw against env following the Compose variable
// grammar:
//
//	$$          literal $
//	${VAR}      value of VAR, empty if unset
//	${VAR:-D}   D if VAR is unset or empty
//	${VAR-D}    D if VAR is unset (empty is valid)
//	${VAR:+A}   A if VAR is set and non-empty, else empty
//	${VAR+A}    A if VAR is set, else empty
//
// A "$" not followed by "{" or "$", including a trailing "$" at end of
// input, is a literal "$". Nested "${}" is not supported. The result is
// always a freshly built string, even when raw contains no "$".
func Interpolate(raw string, env map[string]string) (string, error) {
	var out strings.Builder
	out.Grow(len(raw))

	i := 0
	for i < len(raw) {
		c := raw[i]
		if c != '$' {
			out.WriteByte(c)
			i++
			continue
		}

		// c == '$'
		if i+1 >= len(raw) {
			// trailing $ at end of input
			out.WriteByte('$')
			i++
			continue
		}

		switch raw[i+1] {
		case '$':
			out.WriteByte('$')
			i += 2
		case '{':
			end := strings.IndexByte(raw[i+2:], '}')
			if end == -1 {
				return "", errors.Wrapf(ErrUnterminatedVariable, "starting at byte %d", i)
			}
			body := raw[i+2 : i+2+end]
			expanded, err := expandBraced(body, env)
			if err != nil {
				return "", err
			}
			out.WriteString(expanded)
			i = i + 2 + end + 1
		default:
			out.WriteByte('$')
			i++
		}
	}

	return out.String(), nil
}

// expandBraced expands the content of a "${…}" form, not including the
// braces themselves.
func expandBraced(body string, env map[string]string) (string, error) {
	if body == "" {
		return "", errors.Wrap(ErrInvalidVariableSyntax, "empty variable name")
	}

	// Two-character modifiers are scanned for before one-character ones, so
	// ":-" and ":+" take priority over "-" and "+".
	if idx := strings.Index(body, ":-"); idx != -1 {
		name, def := body[:idx], body[idx+2:]
		if name == "" {
			return "", errors.Wrap(ErrInvalidVariableSyntax, "empty variable name")
		}
		v, set := env[name]
		if !set || v == "" {
			return def, nil
		}
		return v, nil
	}
	if idx := strings.Index(body, ":+"); idx != -1 {
		name, alt := body[:idx], body[idx+2:]
		if name == "" {
			return "", errors.Wrap(ErrInvalidVariableSyntax, "empty variable name")
		}
		v, set := env[name]
		if set && v != "" {
			return alt, nil
		}
		return "", nil
	}
	if idx := strings.IndexByte(body, '-'); idx != -1 {
		name, def := body[:idx], body[idx+1:]
		if name == "" {
			return "", errors.Wrap(ErrInvalidVariableSyntax, "empty variable name")
		}
		v, set := env[name]
		if !set {
			return def, nil
		}
		return v, nil
	}
	if idx := strings.IndexByte(body, '+'); idx != -1 {
		name, alt := body[:idx], body[idx+1:]
		if name == "" {
			return "", errors.Wrap(ErrInvalidVariableSyntax, "empty variable name")
		}
		v, set := env[name]
		if set {
			return alt, nil
		}
		return "", nil
	}

	// Plain "${VAR}" — value of VAR, empty if unset.
	return env[body], nil
}
