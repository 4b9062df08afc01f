package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string     `json:"name" yaml:"name"`
	Point [3]float64 `json:"point" yaml:"point,flow"`
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": JSON, "YAML": YAML, " yml ": YAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseFormat("toml")
	require.ErrorIs(t, err, ErrUnknownFormat)
	_, err = For("gob")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCodecs(t *testing.T) {
	in := sample{Name: "vector-1", Point: [3]float64{1, 2.5, -3}}

	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			c, err := For(f)
			require.NoError(t, err)
			require.Equal(t, f, c.Format())

			var buf bytes.Buffer
			require.NoError(t, c.Encode(&buf, in))

			var out sample
			require.NoError(t, c.Decode(&buf, &out))
			require.Equal(t, in, out)
		})
	}
}

func TestMarshalYAMLFlow(t *testing.T) {
	b, err := Marshal(YAML, sample{Name: "a", Point: [3]float64{1, 2, 3}})
	require.NoError(t, err)
	require.Equal(t, "name: a\npoint: [1, 2, 3]\n", string(b))
	require.Equal(t, "application/yaml", YAML.ContentType())
}
