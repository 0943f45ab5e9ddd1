package gameimport

import "sort"

// BuildDryRun assembles the validation-only response: every parsed
// record gets a preview, and parse-level issues are folded in with the
// validator's. Previews number records 1-based from the top of the
// batch.
func BuildDryRun(games []Game, parseErrors, parseWarnings []Error, validation BatchValidation) DryRunResult {
	previews := make([]DryRunGamePreview, 0, len(games))
	for i, g := range games {
		typeSet := map[string]bool{}
		for _, artifact := range g.Artifacts {
			if artifact.ArtifactType != "" {
				typeSet[artifact.ArtifactType] = true
			}
		}
		artifactTypes := make([]string, 0, len(typeSet))
		for t := range typeSet {
			artifactTypes = append(artifactTypes, t)
		}
		sort.Strings(artifactTypes)

		previews = append(previews, DryRunGamePreview{
			RowNumber:      i + 1,
			GameKey:        g.GameKey,
			Name:           g.Name,
			PlayMode:       g.PlayMode,
			Status:         g.Status,
			Steps:          g.Steps,
			PhasesCount:    len(g.Phases),
			ArtifactsCount: len(g.Artifacts),
			TriggersCount:  len(g.Triggers),
			RolesCount:     len(g.Roles),
			ArtifactTypes:  artifactTypes,
		})
	}

	allErrors := append(append([]Error{}, parseErrors...), validation.AllErrors...)
	allWarnings := append(append([]Error{}, parseWarnings...), validation.AllWarnings...)

	return DryRunResult{
		Valid:        len(allErrors) == 0,
		TotalRows:    len(games),
		ValidCount:   len(validation.ValidGames),
		WarningCount: len(allWarnings),
		ErrorCount:   len(allErrors),
		Errors:       allErrors,
		Warnings:     allWarnings,
		Games:        previews,
	}
}
