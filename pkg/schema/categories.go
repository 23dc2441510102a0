package schema

import (
	"slices"
	"strings"
)

type Category string

const (
	Jurisdiccion Category = "JURISDICCION"
	Calificacion Category = "CALIFICACION"
	Modalidad    Category = "MODALIDAD"
	Victimas     Category = "VICTIMAS"
	Lesionado    Category = "LESIONADO"
	Imputados    Category = "IMPUTADOS"
	Edad         Category = "EDAD"
	Armas        Category = "ARMAS"
	Lugar        Category = "LUGAR"
	Tentativa    Category = "TENTATIVA"
)

const (
	// Otros is the sentinel every category falls back to.
	Otros = "OTROS"
	// NingunoDeInteres marks a narrative with nothing worth classifying.
	NingunoDeInteres = "NINGUNO_DE_INTERES"
	// Ninguna means no weapon was involved.
	Ninguna = "NINGUNA"

	Si = "SI"
	No = "NO"

	// MaxObservaciones caps the free-text field, in runes.
	MaxObservaciones = 500
)

var categories = []Category{
	Jurisdiccion,
	Calificacion,
	Modalidad,
	Victimas,
	Lesionado,
	Imputados,
	Edad,
	Armas,
	Lugar,
	Tentativa,
}

var calificaciones = []string{
	"HOMICIDIO_SIMPLE", "FEMICIDIO", "INTRAFAMILIAR", "EN_RINA", "EN_OCASION_DE_ROBO", "AJUSTE_DE_CUENTAS",
	"ROBO_ESCRUCHE", "ROBO_ENTRADERA", "ROBO_ASALTO_FINCA", "ROBO_ASALTO_VIA_PUBLICA", "ROBO_ASALTO_COMERCIO",
	"ROBO_MOTOCHORROS", "ROBO_ROBACABLES", "ROBO_SIMPLE", "ROBO_ROBARRUEDAS", "ROBO_ROMPEVIDRIOS",
	"ROBO_ARREBATADOR", "ROBO_BICICLETA", "ROBO_CHOFERES_REPARTIDORES",
	"ENFRENTAMIENTOS_EN_OCASION_DE_ROBO", "ENFRENTAMIENTOS_AJUSTE_DE_CUENTAS", "ENFRENTAMIENTOS_PROCEDIMIENTO_POLICIAL",
	"ENFRENTAMIENTOS_EN_RINA", "ENFRENTAMIENTOS_BANDAS_ANTAGONICAS",
	"SUSTRACCION_AUTOMOTOR_LEVANTAMIENTO", "SUSTRACCION_AUTOMOTOR_ASALTO", "SUSTRACCION_MOTOVEHICULO_LEVANTAMIENTO",
	"SUSTRACCION_MOTOVEHICULO_ASALTO", "LESIONES_ARMA_FUEGO", "LESIONES_ARMA_BLANCA", "LESIONES_ARMA_IMPROPIA",
	"USURPACION", "ABUSO_SEXUAL_SIMPLE", "ABUSO_SEXUAL_ACCESO_CARNAL", "LEY_23737_TENENCIA", "LEY_23737_CONSUMO",
	"LEY_23737_COMERCIALIZACION", "LEY_23737_SIEMBRA", "ABIGEATO", "ESTAFAS_MARKETPLACE", "ESTAFAS_WHATSAPP",
	"ESTAFAS_CUENTO_DEL_TIO", "ESTAFAS_OTROS", "ABUSO_DE_ARMAS", "TENENCIA_DE_ARMAS", "PORTACION_DE_ARMAS",
	"ENCUBRIMIENTO_VIA_PUBLICA", "ENCUBRIMIENTO_TALLER", "ENCUBRIMIENTO_DOMICILIO_PARTICULAR",
	NingunoDeInteres, Otros,
}

// modalidades mirror the first 31 calificaciones with a MODALIDAD_ prefix.
var modalidades = func() []string {
	out := make([]string, 0, 32)
	for _, c := range calificaciones[:31] {
		out = append(out, "MODALIDAD_"+c)
	}
	return append(out, Otros)
}()

var allowed = map[Category][]string{
	Jurisdiccion: {"URBANA", "RURAL", "MIXTA", Otros},
	Calificacion: calificaciones,
	Modalidad:    modalidades,
	Victimas:     {"FEMENINO", "MASCULINO", "AMBOS", Otros},
	Lesionado:    {Si, No, Otros},
	Imputados:    {"FEMENINO", "MASCULINO", "AMBOS", Otros},
	Edad:         {"MAYOR", "MENOR", "AMBOS", Otros},
	Armas:        {"FUEGO", "BLANCA", "IMPROPIA", Ninguna, Otros},
	Lugar:        {"FINCA", "VIA_PUBLICA", "COMERCIO", "ESTABLECIMIENTO_EDUCATIVO", Otros},
	Tentativa:    {Si, No, Otros},
}

var allowedSet = func() map[Category]map[string]struct{} {
	out := make(map[Category]map[string]struct{}, len(allowed))
	for c, values := range allowed {
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		out[c] = set
	}
	return out
}()

// Categories returns the ten classification dimensions in prompt order.
func Categories() []Category {
	return slices.Clone(categories)
}

// Allowed returns the enumerated values of c, or nil for an unknown category.
func Allowed(c Category) []string {
	return slices.Clone(allowed[c])
}

func IsAllowed(c Category, value string) bool {
	_, ok := allowedSet[c][value]
	return ok
}

func Sentinel(Category) string {
	return Otros
}

// Lookup resolves a key to its canonical category, ignoring case and
// surrounding whitespace.
func Lookup(key string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(key)))
	_, ok := allowed[c]
	return c, ok
}
