package linter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Select applies --take and then --skip to linters. Both lists must name
// known linter codes; an unknown code is an error that lists the available
// linters and, when one is close enough, suggests it.
func Select(linters []*Linter, skip, take []string) ([]*Linter, error) {
	codes := make([]string, 0, len(linters))
	known := map[string]bool{}
	for _, l := range linters {
		codes = append(codes, l.Code)
		known[l.Code] = true
	}
	sort.Strings(codes)

	if err := checkKnown("--take", take, known, codes); err != nil {
		return nil, err
	}
	if err := checkKnown("--skip", skip, known, codes); err != nil {
		return nil, err
	}

	out := linters
	if len(take) > 0 {
		slog.Debug("taking linters", "codes", take)
		out = filter(out, toSet(take), true)
	}
	if len(skip) > 0 {
		slog.Debug("skipping linters", "codes", skip)
		out = filter(out, toSet(skip), false)
	}
	return out, nil
}

// Formatters returns the linters marked is_formatter.
func Formatters(linters []*Linter) []*Linter {
	var out []*Linter
	for _, l := range linters {
		if l.IsFormatter {
			out = append(out, l)
		}
	}
	return out
}

func checkKnown(flag string, requested []string, known map[string]bool, codes []string) error {
	for _, c := range requested {
		if known[c] {
			continue
		}
		msg := fmt.Sprintf("Unknown linter specified in %s: %s. These linters are available: [%s]",
			flag, c, strings.Join(codes, ", "))
		if s := suggest(c, codes); s != "" {
			msg += fmt.Sprintf(". Did you mean %s?", s)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

// suggest returns the closest known code to c, matching case-insensitively.
func suggest(c string, codes []string) string {
	if len(codes) == 0 {
		return ""
	}
	lower := make([]string, len(codes))
	for i, code := range codes {
		lower[i] = strings.ToLower(code)
	}
	matches := fuzzy.Find(strings.ToLower(c), lower)
	if len(matches) == 0 {
		return ""
	}
	return codes[matches[0].Index]
}

func toSet(codes []string) map[string]bool {
	s := make(map[string]bool, len(codes))
	for _, c := range codes {
		s[c] = true
	}
	return s
}

func filter(linters []*Linter, set map[string]bool, keep bool) []*Linter {
	var out []*Linter
	for _, l := range linters {
		if set[l.Code] == keep {
			out = append(out, l)
		}
	}
	return out
}
