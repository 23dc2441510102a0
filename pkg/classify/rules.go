package classify

import (
	"context"

	"clasificador/pkg/schema"
	"clasificador/pkg/utils"
)

type rule struct {
	value    string
	keywords []string
}

// Keyword rules per category, in priority order. The first matching rule
// wins. Keywords are stored folded (lower-case, no diacritics).
var (
	homicidioRule = rule{"HOMICIDIO_SIMPLE", []string{"homicidio", "asesinato", "muerte", "mato", "muerto", "cadaver"}}
	femicidioRule = rule{"FEMICIDIO", []string{"femicidio", "violencia de genero"}}
	roboRule      = rule{"ROBO_SIMPLE", []string{"robo", "asalto", "sustraccion", "hurto", "robaron", "sustrajo"}}

	roboRefinements = []rule{
		{"ROBO_ASALTO_VIA_PUBLICA", []string{"via publica", "calle", "vereda"}},
		{"ROBO_ASALTO_COMERCIO", []string{"comercio", "negocio", "tienda"}},
	}

	calificacionRules = []rule{
		{"LESIONES_ARMA_IMPROPIA", []string{"lesiones", "herido", "golpeo", "agredio"}},
		{"ESTAFAS_OTROS", []string{"estafa", "defraudacion", "engano"}},
		{"LEY_23737_TENENCIA", []string{"droga", "marihuana", "cocaina", "estupefaciente"}},
	}

	armasRules = []rule{
		{"FUEGO", []string{"arma de fuego", "pistola", "revolver", "bala", "disparo", "tiro"}},
		{"BLANCA", []string{"cuchillo", "navaja", "arma blanca", "punal"}},
		{"IMPROPIA", []string{"palo", "bate", "piedra", "botella"}},
	}

	lugarRules = []rule{
		{"VIA_PUBLICA", []string{"calle", "via publica", "vereda", "avenida", "ruta", "plaza"}},
		{"FINCA", []string{"casa", "domicilio", "vivienda", "hogar", "departamento"}},
		{"COMERCIO", []string{"comercio", "negocio", "tienda", "local", "shop"}},
		{"ESTABLECIMIENTO_EDUCATIVO", []string{"escuela", "colegio", "universidad", "instituto"}},
	}

	victimasRules = []rule{
		{"FEMENINO", []string{"mujer", "femenina", "senora", "chica"}},
		{"MASCULINO", []string{"hombre", "masculino", "senor", "chico"}},
	}

	lesionadoRules = []rule{
		{schema.No, []string{"sin lesiones", "ileso", "ilesa"}},
		{schema.Si, []string{"herido", "herida", "lesionado", "lesionada", "golpeado", "golpeada", "lastimado", "lastimada"}},
	}

	imputadosRules = []rule{
		{"FEMENINO", []string{"imputada", "detenida", "sospechosa", "aprehendida"}},
		{"MASCULINO", []string{"imputado", "detenido", "sospechoso", "aprehendido", "sujeto"}},
	}

	edadRules = []rule{
		{"MENOR", []string{"menor de edad", "menores", "nino", "nina", "adolescente"}},
		{"MAYOR", []string{"mayor de edad", "adulto", "adulta"}},
	}

	jurisdiccionRules = []rule{
		{"RURAL", []string{"zona rural", "rural", "campo", "chacra"}},
	}

	tentativaRules = []rule{
		{schema.Si, []string{"tentativa", "intento de", "intento robar", "intentaron"}},
	}
)

func firstMatch(folded string, rules []rule) (string, bool) {
	for _, r := range rules {
		if utils.HasWord(folded, r.keywords...) {
			return r.value, true
		}
	}
	return "", false
}

// Rules is the keyword-matching tier. It is a pure function of its keyword
// lists and always succeeds.
type Rules struct{}

func NewRules() Rules { return Rules{} }

func (Rules) Name() string        { return StrategyRules }
func (Rules) Confidence() float64 { return ConfidenceRules }

func (Rules) TryClassify(_ context.Context, text string) (map[string]any, error) {
	return resultMap(ClassifyByRules(text)), nil
}

// ClassifyByRules applies the keyword rules to text.
func ClassifyByRules(text string) schema.Result {
	folded := utils.Fold(text)

	res := schema.Result{
		Jurisdiccion:  "URBANA",
		Calificacion:  schema.Otros,
		Modalidad:     schema.Otros,
		Victimas:      schema.Otros,
		Lesionado:     schema.Otros,
		Imputados:     schema.Otros,
		Edad:          schema.Otros,
		Armas:         schema.Ninguna,
		Lugar:         schema.Otros,
		Tentativa:     schema.No,
		Observaciones: "Clasificación automática por reglas",
	}

	switch {
	case utils.HasWord(folded, homicidioRule.keywords...):
		res.Calificacion = homicidioRule.value
	case utils.HasWord(folded, femicidioRule.keywords...):
		res.Calificacion = femicidioRule.value
	case utils.HasWord(folded, roboRule.keywords...):
		res.Calificacion = roboRule.value
		if v, ok := firstMatch(folded, roboRefinements); ok {
			res.Calificacion = v
		}
	default:
		if v, ok := firstMatch(folded, calificacionRules); ok {
			res.Calificacion = v
		}
	}
	if m := "MODALIDAD_" + res.Calificacion; schema.IsAllowed(schema.Modalidad, m) {
		res.Modalidad = m
	}

	apply := func(dst *string, rules []rule) {
		if v, ok := firstMatch(folded, rules); ok {
			*dst = v
		}
	}
	apply(&res.Jurisdiccion, jurisdiccionRules)
	apply(&res.Armas, armasRules)
	apply(&res.Lugar, lugarRules)
	apply(&res.Victimas, victimasRules)
	apply(&res.Lesionado, lesionadoRules)
	apply(&res.Imputados, imputadosRules)
	apply(&res.Edad, edadRules)
	apply(&res.Tentativa, tentativaRules)

	return res
}

// DefaultResult is the terminal fallback: nothing of interest.
func DefaultResult() schema.Result {
	return schema.Result{
		Jurisdiccion:  schema.Otros,
		Calificacion:  schema.NingunoDeInteres,
		Modalidad:     schema.Otros,
		Victimas:      schema.Otros,
		Lesionado:     schema.Otros,
		Imputados:     schema.Otros,
		Edad:          schema.Otros,
		Armas:         schema.Ninguna,
		Lugar:         schema.Otros,
		Tentativa:     schema.No,
		Observaciones: "Sin información suficiente para clasificar",
	}
}

func resultMap(r schema.Result) map[string]any {
	out := make(map[string]any, 11)
	for c, v := range r.Values() {
		out[string(c)] = v
	}
	out[observacionesKey] = r.Observaciones
	return out
}
