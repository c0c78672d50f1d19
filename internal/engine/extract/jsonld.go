package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// extractJSONLD maps schema.org JobPosting blocks (single object, array or @graph).
// Blocks that fail to decode are skipped.
func extractJSONLD(doc *goquery.Document, p engine.RawPayload, t *engine.Tables) Result {
	var res Result
	idx := 0
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			res.Skipped = append(res.Skipped, Skip{Index: idx, Reason: "invalid JSON-LD block"})
			idx++
			return
		}
		for _, posting := range jobPostings(v) {
			res.collect(mapObject(flattenPosting(posting, t), t), idx, p)
			idx++
		}
	})
	return res
}

// jobPostings walks a decoded JSON-LD value and returns every JobPosting node.
func jobPostings(v any) []map[string]any {
	switch x := v.(type) {
	case []any:
		var out []map[string]any
		for _, item := range x {
			out = append(out, jobPostings(item)...)
		}
		return out
	case map[string]any:
		if graph, ok := x["@graph"]; ok {
			return jobPostings(graph)
		}
		if isJobPosting(x["@type"]) {
			return []map[string]any{x}
		}
	}
	return nil
}

func isJobPosting(t any) bool {
	switch x := t.(type) {
	case string:
		return x == "JobPosting"
	case []any:
		for _, item := range x {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

// flattenPosting rewrites the nested schema.org shapes (jobLocation.address,
// baseSalary.value) into the flat keys the alias table understands.
func flattenPosting(posting map[string]any, t *engine.Tables) map[string]any {
	out := make(map[string]any, len(posting)+2)
	for k, v := range posting {
		out[k] = v
	}
	if lt, _ := posting["jobLocationType"].(string); strings.EqualFold(lt, "TELECOMMUTE") {
		out["jobLocation"] = "Remote"
	} else if loc := postingLocation(posting["jobLocation"]); loc != "" {
		out["jobLocation"] = loc
	}
	if salary := postingSalary(posting["baseSalary"]); salary != "" {
		out["baseSalary"] = salary
	}
	if exp := flatten(posting["experienceRequirements"], t.JSON.ValueKeys); exp != "" {
		out["experience"] = exp
	}
	return out
}

func postingLocation(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		if len(x) > 0 {
			return postingLocation(x[0])
		}
	case map[string]any:
		addr, ok := x["address"].(map[string]any)
		if !ok {
			if s, ok := x["address"].(string); ok {
				return s
			}
			return ""
		}
		city, _ := addr["addressLocality"].(string)
		region, _ := addr["addressRegion"].(string)
		zip, _ := addr["postalCode"].(string)
		loc := strings.TrimSpace(city)
		if region != "" {
			if loc != "" {
				loc += ", "
			}
			loc += strings.TrimSpace(region)
		}
		if zip != "" && loc != "" {
			loc += " " + strings.TrimSpace(zip)
		}
		if loc == "" {
			loc, _ = addr["addressCountry"].(string)
		}
		return loc
	}
	return ""
}

func postingSalary(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	switch val := m["value"].(type) {
	case float64:
		return formatSalary(int(val), int(val))
	case map[string]any:
		lo, _ := val["minValue"].(float64)
		hi, _ := val["maxValue"].(float64)
		if lo == 0 && hi == 0 {
			single, _ := val["value"].(float64)
			lo, hi = single, single
		}
		s := formatSalary(int(lo), int(hi))
		if s != "" {
			if unit, _ := val["unitText"].(string); unit != "" {
				s = fmt.Sprintf("%s per %s", s, strings.ToLower(unit))
			}
		}
		return s
	}
	return ""
}
