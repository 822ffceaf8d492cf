package services

import (
	"fmt"
	"strings"
)

// Advisory severities. Only SeverityError blocks effect recording; a
// warning is shown to the user who may proceed.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// HierarchyAdvisory is the outcome of checking a source/target/effect
// combination against the legal-precedence rules.
type HierarchyAdvisory struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Blocking reports whether the advisory forbids recording the effect.
func (a *HierarchyAdvisory) Blocking() bool {
	return a != nil && a.Severity == SeverityError
}

// blockedEffects are the effects a lower-ranked act may not produce on a
// higher-ranked one.
var blockedEffects = map[string]bool{
	"ABROGE":   true,
	"MODIFIE":  true,
	"REMPLACE": true,
}

// ValidateHierarchy applies the legal-precedence rules to a candidate
// effect. Act types are matched case-insensitively, rules in precedence
// order, first match wins; nil means no objection. Pure function with no
// side effects: callers re-run it whenever source text, target text or
// effect changes.
func ValidateHierarchy(sourceActType, targetActType, effectType string) *HierarchyAdvisory {
	source := strings.ToLower(strings.TrimSpace(sourceActType))
	target := strings.ToLower(strings.TrimSpace(targetActType))
	effect := strings.ToUpper(strings.TrimSpace(effectType))

	if !blockedEffects[effect] {
		return nil
	}

	// A circulaire cannot repeal, modify or replace a law or decree.
	if source == "circulaire" {
		switch target {
		case "loi", "decret", "décret", "décret-loi":
			return &HierarchyAdvisory{
				Severity: SeverityError,
				Message: fmt.Sprintf(
					"Une circulaire ne peut pas %s une %s. Utilisez 'COMPLÈTE' pour ajouter une interprétation.",
					strings.ToLower(effect), target),
			}
		}
	}

	// An arrêté generally cannot modify a law. Advisory only.
	if source == "arrete" || source == "arrêté" {
		if target == "loi" {
			return &HierarchyAdvisory{
				Severity: SeverityWarning,
				Message:  "Un arrêté ne peut généralement pas modifier une loi. Vérifiez la cohérence juridique.",
			}
		}
	}

	// A decree cannot modify a law; only a law can.
	if source == "decret" || source == "décret" {
		if target == "loi" {
			return &HierarchyAdvisory{
				Severity: SeverityWarning,
				Message:  "Un décret ne peut pas modifier une loi. Seule une loi peut modifier une loi.",
			}
		}
	}

	return nil
}
