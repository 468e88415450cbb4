package retriever

// defaultModesByIntent gives each intent its spec 4.12 "intent-specific
// default" strategy combination when no explicit mode and no incident
// override apply.
var defaultModesByIntent = map[Intent][]Mode{
	IntentProcedural:      {ModeHybrid, ModeAdaptive},
	IntentRelational:      {ModeHybrid, ModeAdaptive},
	IntentFactual:         {ModeMultiQuery, ModeHybrid},
	IntentExploratory:     {ModeMultiQuery, ModeHybrid},
	IntentComparative:     {ModeMultiQuery},
	IntentTemporal:        {ModeMultiQuery},
	IntentTroubleshooting: {ModeAdaptive},
}

// SelectModes picks which strategies run for a query analysis (spec
// 4.12 "Mode selection"): an explicit override wins outright; a
// troubleshooting query with urgency above 0.7 always runs in Incident
// mode; otherwise the intent's default combination applies.
func SelectModes(analysis QueryAnalysis, explicit Mode) []Mode {
	if explicit != "" {
		return []Mode{explicit}
	}
	if analysis.Intent == IntentTroubleshooting && analysis.Urgency > 0.7 {
		return []Mode{ModeIncident}
	}
	if modes, ok := defaultModesByIntent[analysis.Intent]; ok {
		return modes
	}
	return []Mode{ModeMultiQuery}
}
