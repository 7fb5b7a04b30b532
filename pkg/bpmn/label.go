package bpmn

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leanflow/leanflow/pkg/models"
)

const (
	labelMaxWords = 6
	labelMaxChars = 60
)

// Leading infinitives are rewritten as nominal phrases so task labels read as
// outcomes ("Validar datos" -> "Validación de datos").
var verbNominal = map[string]string{
	"recibir":     "Recepción de",
	"recepcionar": "Recepción de",
	"leer":        "Lectura de",
	"revisar":     "Revisión de",
	"validar":     "Validación de",
	"verificar":   "Verificación de",
	"procesar":    "Proceso de",
	"analizar":    "Análisis de",
	"generar":     "Generación de",
	"crear":       "Creación de",
	"enviar":      "Envío de",
	"descargar":   "Descarga de",
	"aprobar":     "Aprobación de",
	"rechazar":    "Rechazo de",
}

var labelStopwords = map[string]bool{
	"de": true, "la": true, "el": true, "en": true, "con": true, "para": true,
	"por": true, "del": true, "las": true, "los": true, "una": true, "un": true,
	"y": true, "o": true, "u": true, "al": true, "lo": true, "su": true,
	"sus": true, "a": true, "que": true, "se": true,
}

var (
	leadingNumbering = regexp.MustCompile(`^\s*[-*•]?\s*\d+[.)\-:]\s*`)
	digitTokens      = regexp.MustCompile(`\b\d+[.)\-:]*\s*`)
	noiseSymbols     = regexp.MustCompile(`[•·✓✔✅\[\](){}#*_~<>|]`)
	doubledArticles  = regexp.MustCompile(`\bde\s+(de|la|el|los|las)\b`)
	leadingArticle   = regexp.MustCompile(`^(la|el|los|las|un|una|unos|unas)\s+`)
	collapseSpaces   = regexp.MustCompile(`\s+`)
)

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u",
)

// CompactLabel builds a short, readable task label from the activity
// description. The activity name is only a fallback for empty or
// uninformative descriptions.
func CompactLabel(description, activityName string) string {
	fallback := strings.TrimSpace(activityName)
	if fallback == "" {
		fallback = "Actividad"
	}

	text := strings.TrimSpace(description)
	if text == "" {
		return fallback
	}

	text = leadingNumbering.ReplaceAllString(text, "")
	text = digitTokens.ReplaceAllString(text, " ")
	text = noiseSymbols.ReplaceAllString(text, " ")
	text = collapseSpaces.ReplaceAllString(strings.TrimSpace(text), " ")

	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	if len(words) == 0 {
		return fallback
	}

	if nominal, ok := verbNominal[accentReplacer.Replace(words[0])]; ok {
		rest := leadingArticle.ReplaceAllString(strings.Join(words[1:], " "), "")
		core := doubledArticles.ReplaceAllString(strings.TrimSpace(nominal+" "+rest), "de")

		if label := titleES(limitLabel(core)); label != "" {
			return label
		}

		return fallback
	}

	content := make([]string, 0, len(words))

	for _, w := range words {
		w = strings.Trim(w, ".,;:!?¿¡")
		if w != "" && !labelStopwords[w] && len([]rune(w)) > 2 {
			content = append(content, w)
		}

		if len(content) == labelMaxWords {
			break
		}
	}

	if len(content) == 0 {
		return fallback
	}

	if label := titleES(limitLabel(strings.Join(content, " "))); label != "" {
		return label
	}

	return fallback
}

func limitLabel(s string) string {
	words := strings.Fields(s)
	if len(words) > labelMaxWords {
		words = words[:labelMaxWords]
	}

	s = strings.Join(words, " ")

	if runes := []rune(s); len(runes) > labelMaxChars {
		s = strings.TrimSpace(string(runes[:labelMaxChars]))
	}

	return s
}

// titleES capitalizes each word except interior stopwords, so connectives
// stay lowercase ("Validación de Datos", not "Validación De Datos").
func titleES(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if i > 0 && labelStopwords[w] {
			continue
		}

		runes := []rune(w)
		words[i] = strings.ToUpper(string(runes[0])) + string(runes[1:])
	}

	return strings.Join(words, " ")
}

// taskLabel is the diagram-facing label: compact name plus an optional
// duration line.
func taskLabel(a *models.Activity, showTimes bool) string {
	label := CompactLabel(a.Description, a.Name)

	if showTimes && a.DurationMinutes > 0 {
		label += fmt.Sprintf("\n⏱ %.0f min", a.DurationMinutes)
	}

	return label
}

// taskDocumentation keeps the full description (and timing detail) in the
// documentation element, where viewers show it on demand.
func taskDocumentation(a *models.Activity, showTimes bool) string {
	parts := make([]string, 0, 2)

	if a.Description != "" {
		parts = append(parts, a.Description)
	}

	if showTimes && a.DurationMinutes > 0 {
		parts = append(parts, fmt.Sprintf("Duración estándar: %.1f min", a.DurationMinutes))
	}

	return strings.Join(parts, " || ")
}
