package arbor_test

import (
	"testing"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectAccess(t *testing.T) {
	doc := arbor.MustParseJSON(`{"a":1,"b":{"c":"x"},"n":null}`)
	assert.Equal(t, int64(1), doc.Get("a").Int())
	assert.True(t, doc.Get("n").IsNull())
	assert.True(t, doc.Get("z").IsMissing())
	assert.Equal(t, "x", doc.Lookup(field.Dotted("b.c")).Str())
	assert.True(t, doc.Lookup(field.Dotted("a.c")).IsMissing())
}

func TestWith(t *testing.T) {
	doc := arbor.MustParseJSON(`{"a":1,"b":2}`)
	assert.Equal(t, `{"a":10,"b":2}`, doc.With("a", arbor.NewInt(10)).String())
	assert.Equal(t, `{"a":1,"b":2,"c":true}`, doc.With("c", arbor.True).String())
	assert.Equal(t, `{"b":2}`, doc.With("a", arbor.Missing).String())
	assert.Equal(t, `{"a":1,"b":2,"x":{"y":null}}`, doc.WithPath(field.Dotted("x.y"), arbor.Null).String())
	// The original is unchanged.
	assert.Equal(t, `{"a":1,"b":2}`, doc.String())
}

func TestNewObjectDropsMissing(t *testing.T) {
	v := arbor.NewObject([]arbor.Field{
		{Name: "a", Value: arbor.Missing},
		{Name: "b", Value: arbor.Null},
		{Name: "b", Value: arbor.NewInt(3)},
	})
	assert.Equal(t, `{"b":3}`, v.String())
}

func TestJSONRoundTrip(t *testing.T) {
	cases := []string{
		`{"a":1,"b":[1,2.5,"x",null,true],"c":{"d":{}}}`,
		`[]`,
		`"hello \"world\""`,
		`-0.5`,
		`12.0`,
	}
	for _, c := range cases {
		v, err := arbor.ParseJSON([]byte(c))
		require.NoError(t, err, c)
		assert.Equal(t, c, v.String())
	}
}

func TestJSONNumbers(t *testing.T) {
	assert.Equal(t, arbor.KindInt, arbor.MustParseJSON(`42`).Kind())
	assert.Equal(t, arbor.KindFloat, arbor.MustParseJSON(`42.0`).Kind())
	assert.Equal(t, arbor.KindFloat, arbor.MustParseJSON(`4e2`).Kind())
	// Too large for an int64.
	assert.Equal(t, arbor.KindFloat, arbor.MustParseJSON(`123456789012345678901234567890`).Kind())
}

func TestReadJSONStream(t *testing.T) {
	var docs []string
	err := arbor.ReadJSON(bytesReader("{\"a\":1}\n{\"a\":2} {\"a\":3}"), func(v arbor.Value) error {
		docs = append(docs, v.String())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`, `{"a":3}`}, docs)
	_, err = arbor.ParseJSON([]byte(`1 2`))
	assert.Error(t, err)
}
