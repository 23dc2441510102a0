package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clasificador/pkg/schema"
)

func TestClassifyByRules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[schema.Category]string
	}{
		{
			name: "robbery on the street",
			text: "Robo con arma de fuego en la vía pública a una mujer",
			want: map[schema.Category]string{
				schema.Calificacion: "ROBO_ASALTO_VIA_PUBLICA",
				schema.Modalidad:    "MODALIDAD_ROBO_ASALTO_VIA_PUBLICA",
				schema.Armas:        "FUEGO",
				schema.Lugar:        "VIA_PUBLICA",
				schema.Victimas:     "FEMENINO",
				schema.Jurisdiccion: "URBANA",
				schema.Tentativa:    schema.No,
			},
		},
		{
			name: "homicide takes priority over robbery",
			text: "Homicidio en ocasión de robo en el domicilio, con cuchillo",
			want: map[schema.Category]string{
				schema.Calificacion: "HOMICIDIO_SIMPLE",
				schema.Armas:        "BLANCA",
				schema.Lugar:        "FINCA",
			},
		},
		{
			name: "robbery in a shop",
			text: "Asalto a un comercio del centro",
			want: map[schema.Category]string{
				schema.Calificacion: "ROBO_ASALTO_COMERCIO",
				schema.Lugar:        "COMERCIO",
			},
		},
		{
			name: "drugs have no modality",
			text: "Se secuestró marihuana en la plaza",
			want: map[schema.Category]string{
				schema.Calificacion: "LEY_23737_TENENCIA",
				schema.Modalidad:    schema.Otros,
				schema.Lugar:        "VIA_PUBLICA",
			},
		},
		{
			name: "injuries",
			text: "Un señor resultó herido tras una pelea, agredió con un palo",
			want: map[schema.Category]string{
				schema.Calificacion: "LESIONES_ARMA_IMPROPIA",
				schema.Lesionado:    schema.Si,
				schema.Armas:        "IMPROPIA",
				schema.Victimas:     "MASCULINO",
			},
		},
		{
			name: "uninjured wins over injury words",
			text: "Intento de robo, la víctima resultó ilesa y el sospechoso herido",
			want: map[schema.Category]string{
				schema.Lesionado: schema.No,
				schema.Tentativa: schema.Si,
			},
		},
		{
			name: "accused and age",
			text: "Fue aprehendido un menor de edad en zona rural",
			want: map[schema.Category]string{
				schema.Imputados:    "MASCULINO",
				schema.Edad:         "MENOR",
				schema.Jurisdiccion: "RURAL",
			},
		},
		{
			name: "word starts only",
			text: "El sujeto se retiró del lugar",
			want: map[schema.Category]string{
				schema.Armas:        schema.Ninguna,
				schema.Calificacion: schema.Otros,
				schema.Imputados:    "MASCULINO",
			},
		},
		{
			name: "nothing matches",
			text: "Texto sin palabras clave",
			want: map[schema.Category]string{
				schema.Calificacion: schema.Otros,
				schema.Modalidad:    schema.Otros,
				schema.Victimas:     schema.Otros,
				schema.Armas:        schema.Ninguna,
				schema.Lugar:        schema.Otros,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ClassifyByRules(tt.text)
			require.True(t, res.Valid(), "%+v", res)
			assert.Equal(t, "Clasificación automática por reglas", res.Observaciones)
			for c, v := range tt.want {
				assert.Equal(t, v, res.Value(c), c)
			}
		})
	}
}

func TestRulesStrategy(t *testing.T) {
	raw, err := NewRules().TryClassify(context.Background(), "hurto de bicicleta")
	require.NoError(t, err)
	assert.Len(t, raw, 11)
	assert.Equal(t, "ROBO_SIMPLE", raw["CALIFICACION"])

	res, ok := Sanitize(raw)
	require.True(t, ok)
	assert.Equal(t, ClassifyByRules("hurto de bicicleta"), *res)
}

func TestDefaultResult(t *testing.T) {
	res := DefaultResult()
	require.True(t, res.Valid())
	assert.Equal(t, schema.NingunoDeInteres, res.Calificacion)
	assert.Equal(t, schema.Ninguna, res.Armas)
	assert.Equal(t, schema.No, res.Tentativa)
	assert.Equal(t, schema.Otros, res.Jurisdiccion)
}
