package classify

import (
	"strings"
	"sync"

	"clasificador/pkg/schema"
)

const classifyPromptHeader = `Sos un sistema de clasificación de hechos delictivos. Analizá el relato provisto por el usuario y clasificalo según estas categorías exactas, eligiendo UN valor de cada lista:
`

const classifyPromptRules = `
**Reglas**:
- Usá únicamente los valores listados; si ninguno aplica usá OTROS.
- Si no hubo armas, ARMAS debe ser NINGUNA.
- Si el relato no describe un hecho de interés, CALIFICACION debe ser NINGUNO_DE_INTERES.
- 'observaciones' es texto libre con detalles relevantes, máximo 500 caracteres.
- Respondé SOLO con un objeto JSON válido, sin markdown ni comentarios, con estas claves exactas:
{"JURISDICCION":"valor","CALIFICACION":"valor","MODALIDAD":"valor","VICTIMAS":"valor","LESIONADO":"valor","IMPUTADOS":"valor","EDAD":"valor","ARMAS":"valor","LUGAR":"valor","TENTATIVA":"valor","observaciones":"texto"}`

// SystemPrompt enumerates every category with its allowed values.
var SystemPrompt = sync.OnceValue(func() string {
	var b strings.Builder
	b.WriteString(classifyPromptHeader)
	for _, c := range schema.Categories() {
		b.WriteString("\n")
		b.WriteString(string(c))
		b.WriteString(": ")
		b.WriteString(strings.Join(schema.Allowed(c), ", "))
	}
	b.WriteString("\n")
	b.WriteString(classifyPromptRules)
	return b.String()
})

func UserPrompt(narrative string) string {
	return "Texto a analizar: " + narrative
}
