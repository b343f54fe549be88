// Package checklist tracks read-mode progress through a strategy's rules.
// The checked set is deliberately ephemeral: it lives in memory, is never
// persisted, and resets on restart. Progress is always recomputed as a pure
// function of (strategy, checked set) so no counter can drift.
package checklist

import (
	"fmt"
	"math"

	"tradejournal/src/model"
)

// Key identifies one rule checkbox inside a strategy. Rules are keyed by the
// index of their section plus their own ID, so reordering sections resets
// progress for moved rules instead of mis-attributing it.
func Key(sectionIndex int, ruleID uint) string {
	return fmt.Sprintf("%d-%d", sectionIndex, ruleID)
}

type SectionProgress struct {
	Title   string `json:"title"`
	Checked int    `json:"checked"`
	Total   int    `json:"total"`
}

type Progress struct {
	Sections   []SectionProgress `json:"sections"`
	Checked    int               `json:"checked"`
	Total      int               `json:"total"`
	Percentage int               `json:"percentage"`
}

// ComputeProgress derives per-section and overall progress. Only keys that
// map to an existing rule are counted, so a stale set can never push a
// section's checked count past its rule count. An empty strategy reports 0%.
func ComputeProgress(strategy *model.Strategy, checked map[string]bool) Progress {
	progress := Progress{
		Sections: make([]SectionProgress, 0, len(strategy.Sections)),
	}

	for i, section := range strategy.Sections {
		sp := SectionProgress{
			Title: section.Title,
			Total: len(section.Rules),
		}

		for _, rule := range section.Rules {
			if checked[Key(i, rule.ID)] {
				sp.Checked++
			}
		}

		progress.Sections = append(progress.Sections, sp)
		progress.Checked += sp.Checked
		progress.Total += sp.Total
	}

	if progress.Total > 0 {
		progress.Percentage = int(math.Round(float64(progress.Checked) / float64(progress.Total) * 100))
	}

	return progress
}
