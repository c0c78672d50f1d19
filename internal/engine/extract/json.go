package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/cockroachdb/errors"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// Numeric salary pairs found in aggregator dumps.
var salaryPairs = [][2]string{
	{"salary_min", "salary_max"},
	{"min_salary", "max_salary"},
	{"minSalary", "maxSalary"},
}

// extractJSON accepts a bare list, {"jobs": [...]}, {"results": [...]} or a single object.
func extractJSON(p engine.RawPayload, t *engine.Tables) (Result, error) {
	data := bytes.TrimPrefix(p.Data, []byte("\xef\xbb\xbf"))
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, errors.Wrapf(engine.ErrCorruptPayload, "%s: %v", p.SourcePath, err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
		for _, key := range t.JSON.ListKeys {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
	default:
		return Result{}, errors.Wrapf(engine.ErrCorruptPayload, "%s: top-level %T is not an object or list", p.SourcePath, doc)
	}

	var res Result
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			res.Skipped = append(res.Skipped, Skip{Index: i, Reason: fmt.Sprintf("item is %T, not an object", item)})
			continue
		}
		res.collect(mapObject(obj, t), i, p)
	}
	return res, nil
}

// mapObject resolves one JSON listing through the alias table. Unknown keys are dropped.
func mapObject(obj map[string]any, t *engine.Tables) *builder {
	b := newBuilder()
	for _, field := range textFields {
		for _, alias := range t.JSON.Aliases[field] {
			raw, ok := obj[alias]
			if !ok {
				continue
			}
			v := flatten(raw, t.JSON.ValueKeys)
			if field == fieldSummary || field == fieldRequirements || field == fieldBenefits {
				v = htmlToText(v)
			}
			b.set(field, v)
			if b.fields[field] != "" {
				break
			}
		}
	}
	if b.fields[fieldCompensation] == "" {
		b.set(fieldCompensation, salaryFromPair(obj))
	}
	for _, alias := range t.JSON.Aliases[fieldKeywords] {
		if raw, ok := obj[alias]; ok {
			b.addKeywords(flattenList(raw, t.JSON.ValueKeys)...)
		}
	}
	return b
}

// flatten reduces a JSON value to text: objects to their first name-like key,
// arrays to a comma-joined list, numbers to their shortest form.
func flatten(v any, valueKeys []string) string {
	switch x := v.(type) {
	case nil, bool:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return formatNumber(x)
	case map[string]any:
		for _, k := range valueKeys {
			if s := flatten(x[k], valueKeys); s != "" {
				return s
			}
		}
		return ""
	case []any:
		return strings.Join(flattenList(x, valueKeys), ", ")
	default:
		return fmt.Sprint(x)
	}
}

func flattenList(v any, valueKeys []string) []string {
	list, ok := v.([]any)
	if !ok {
		if s := flatten(v, valueKeys); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := flatten(item, valueKeys); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// salaryFromPair renders numeric min/max salary keys as compensation text.
func salaryFromPair(obj map[string]any) string {
	for _, pair := range salaryPairs {
		lo, _ := obj[pair[0]].(float64)
		hi, _ := obj[pair[1]].(float64)
		if s := formatSalary(int(lo), int(hi)); s != "" {
			return s
		}
	}
	return ""
}

func formatSalary(min, max int) string {
	switch {
	case min <= 0 && max <= 0:
		return ""
	case min <= 0:
		return fmt.Sprintf("up to $%d", max)
	case max <= 0:
		return fmt.Sprintf("starting at $%d", min)
	case min == max:
		return fmt.Sprintf("$%d", max)
	}
	return fmt.Sprintf("$%d - $%d", min, max)
}

// htmlToText converts HTML-bearing descriptions to markdown text.
// Plain text passes through unchanged.
func htmlToText(s string) string {
	if !engine.LooksLikeHTML(s) {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil || strings.TrimSpace(md) == "" {
		return engine.CleanHTML(s)
	}
	return strings.TrimSpace(md)
}
