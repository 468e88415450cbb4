package retriever

import "strings"

// intentKeywords maps each recognized intent to the cue words whose
// presence in a lowercased query suggests it (spec 4.12 "scan for
// intent keywords"). Checked in this order; the first match wins, with
// troubleshooting checked first since an urgent incident query often
// also contains factual-sounding words ("what is causing...").
var intentKeywordOrder = []Intent{
	IntentTroubleshooting,
	IntentProcedural,
	IntentComparative,
	IntentRelational,
	IntentTemporal,
	IntentExploratory,
	IntentFactual,
}

var intentKeywords = map[Intent][]string{
	IntentTroubleshooting: {"error", "failing", "fails", "failed", "broken", "down", "outage", "crash", "not working", "issue", "debug", "fix"},
	IntentProcedural:      {"how to", "how do i", "steps to", "guide", "runbook", "procedure", "install", "configure", "deploy"},
	IntentComparative:     {"vs", "versus", "compare", "difference between", "better than"},
	IntentRelational:      {"depends on", "related to", "connects to", "who owns", "owner of", "upstream", "downstream"},
	IntentTemporal:        {"when", "history", "changelog", "since", "last changed", "timeline"},
	IntentExploratory:     {"overview", "explain", "what is", "tell me about", "describe"},
	IntentFactual:         {"what", "who", "where", "which", "value of"},
}

// urgencyKeywords bump a query's urgency score when present (spec 4.12
// "Estimate urgency via keyword cues").
var urgencyKeywords = map[string]float64{
	"urgent":     0.4,
	"outage":     0.4,
	"prod":       0.3,
	"production": 0.3,
	"down":       0.3,
	"critical":   0.4,
	"sev1":       0.5,
	"sev2":       0.3,
	"now":        0.2,
	"asap":       0.3,
}

var queryStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true, "were": true,
	"to": true, "of": true, "in": true, "on": true, "for": true, "and": true, "or": true,
	"how": true, "what": true, "why": true, "when": true, "where": true, "who": true, "which": true,
	"do": true, "does": true, "did": true, "i": true, "it": true, "this": true, "that": true,
	"with": true, "at": true, "by": true, "from": true, "be": true, "can": true, "could": true,
}

// AnalyzeQuery performs spec 4.12's query analysis: lowercase, classify
// intent via keyword scan, extract content keywords with stopwords
// removed, and estimate urgency. Entity-mention extraction is left to
// the caller (it requires a live graph.Store lookup per candidate
// keyword) — see Retriever.analyzeWithEntities.
func AnalyzeQuery(query string) QueryAnalysis {
	lower := strings.ToLower(strings.TrimSpace(query))

	intent := IntentFactual
	for _, candidate := range intentKeywordOrder {
		for _, kw := range intentKeywords[candidate] {
			if strings.Contains(lower, kw) {
				intent = candidate
				goto found
			}
		}
	}
found:

	urgency := 0.0
	for kw, weight := range urgencyKeywords {
		if strings.Contains(lower, kw) {
			urgency += weight
		}
	}
	if urgency > 1.0 {
		urgency = 1.0
	}

	return QueryAnalysis{
		Query:           query,
		Intent:          intent,
		ContentKeywords: contentKeywords(lower),
		Urgency:         urgency,
	}
}

func contentKeywords(lower string) []string {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || queryStopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
