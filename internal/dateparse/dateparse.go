// Package dateparse turns user-typed dates into calendar dates. Strict
// YYYY-MM-DD always wins; anything else goes through a natural-language parser
// ("tomorrow", "next friday", "in 3 days").
package dateparse

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"eventcal/internal/model"
)

var isoShape = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

var (
	parserOnce sync.Once
	parser     *when.Parser
)

func natural() *when.Parser {
	parserOnce.Do(func() {
		parser = when.New(nil)
		parser.Add(en.All...)
		parser.Add(common.All...)
	})
	return parser
}

// Parse resolves input relative to now.
func Parse(input string, now time.Time) (model.Date, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return model.Date{}, fmt.Errorf("invalid date: empty")
	}
	if d, err := model.ParseDate(input); err == nil {
		return d, nil
	} else if isoShape.MatchString(input) {
		// 2025-02-30 must not fall through to the natural parser, which would
		// resolve it to today.
		return model.Date{}, err
	}
	switch strings.ToLower(input) {
	case "today", "now":
		return model.DateOf(now), nil
	}
	res, err := natural().Parse(input, now)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid date %q: %w", input, err)
	}
	if res == nil || res.Index != 0 || len(strings.TrimSpace(res.Text)) != len(input) {
		return model.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or a phrase like \"next friday\"", input)
	}
	return model.DateOf(res.Time.In(now.Location())), nil
}

// Normalize returns the YYYY-MM-DD form of input, or input unchanged when it
// cannot be resolved so strict validation downstream reports it.
func Normalize(input string, now time.Time) string {
	d, err := Parse(input, now)
	if err != nil {
		return input
	}
	return d.String()
}
