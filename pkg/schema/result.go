package schema

import (
	"github.com/invopop/jsonschema"
)

// Result is one narrative classified across every category.
type Result struct {
	Jurisdiccion  string `json:"JURISDICCION" jsonschema_description:"Jurisdicción del hecho"`
	Calificacion  string `json:"CALIFICACION" jsonschema_description:"Calificación legal del hecho"`
	Modalidad     string `json:"MODALIDAD" jsonschema_description:"Modalidad delictiva"`
	Victimas      string `json:"VICTIMAS" jsonschema_description:"Género de las víctimas"`
	Lesionado     string `json:"LESIONADO" jsonschema_description:"Si hubo personas lesionadas"`
	Imputados     string `json:"IMPUTADOS" jsonschema_description:"Género de los imputados"`
	Edad          string `json:"EDAD" jsonschema_description:"Franja etaria de los involucrados"`
	Armas         string `json:"ARMAS" jsonschema_description:"Tipo de arma utilizada"`
	Lugar         string `json:"LUGAR" jsonschema_description:"Tipo de lugar del hecho"`
	Tentativa     string `json:"TENTATIVA" jsonschema_description:"Si el hecho quedó en grado de tentativa"`
	Observaciones string `json:"observaciones" jsonschema:"maxLength=500" jsonschema_description:"Texto libre con detalles relevantes"`
}

func (r *Result) field(c Category) *string {
	switch c {
	case Jurisdiccion:
		return &r.Jurisdiccion
	case Calificacion:
		return &r.Calificacion
	case Modalidad:
		return &r.Modalidad
	case Victimas:
		return &r.Victimas
	case Lesionado:
		return &r.Lesionado
	case Imputados:
		return &r.Imputados
	case Edad:
		return &r.Edad
	case Armas:
		return &r.Armas
	case Lugar:
		return &r.Lugar
	case Tentativa:
		return &r.Tentativa
	}
	return nil
}

// Value returns the value stored for c, or "" for an unknown category.
func (r Result) Value(c Category) string {
	if p := r.field(c); p != nil {
		return *p
	}
	return ""
}

// Set stores value under c. Unknown categories are ignored.
func (r *Result) Set(c Category, value string) {
	if p := r.field(c); p != nil {
		*p = value
	}
}

func (r Result) Values() map[Category]string {
	out := make(map[Category]string, len(categories))
	for _, c := range categories {
		out[c] = r.Value(c)
	}
	return out
}

// Valid reports whether every category holds one of its allowed values.
func (r Result) Valid() bool {
	for _, c := range categories {
		if !IsAllowed(c, r.Value(c)) {
			return false
		}
	}
	return len([]rune(r.Observaciones)) <= MaxObservaciones
}

// JSONSchemaExtend injects the enumerated values of each category.
func (Result) JSONSchemaExtend(s *jsonschema.Schema) {
	if s.Properties == nil {
		return
	}
	for _, c := range categories {
		prop, ok := s.Properties.Get(string(c))
		if !ok || prop == nil {
			continue
		}
		values := allowed[c]
		prop.Enum = make([]any, len(values))
		for i, v := range values {
			prop.Enum[i] = v
		}
	}
}
