package suggest

import "strings"

// contextualRule maps domain keywords found in an assistant answer to the
// follow-up suggestions they trigger.
type contextualRule struct {
	keywords  []string
	followUps []Suggestion
}

var contextualRules = []contextualRule{
	{
		keywords:  []string{"precio", "s/"},
		followUps: []Suggestion{{Text: "Ver más productos similares", Icon: "tags"}},
	},
	{
		keywords: []string{"talla"},
		followUps: []Suggestion{
			{Text: "Guía de tallas", Icon: "ruler"},
			{Text: "Política de cambios", Icon: "exchange-alt"},
		},
	},
	{
		keywords:  []string{"color", "disponible"},
		followUps: []Suggestion{{Text: "Ver otros colores disponibles", Icon: "palette"}},
	},
	{
		keywords:  []string{"devolución", "cambio"},
		followUps: []Suggestion{{Text: "Ubicación de la tienda", Icon: "map-marker-alt"}},
	},
}

// Contextual scans an assistant answer for domain keywords and returns the
// follow-up suggestions each matched rule contributes. Pure function of the
// text; an answer with no keywords yields nil.
func Contextual(answer string) []Suggestion {
	lower := strings.ToLower(answer)

	var followUps []Suggestion
	for _, rule := range contextualRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				followUps = append(followUps, rule.followUps...)
				break
			}
		}
	}
	return followUps
}
