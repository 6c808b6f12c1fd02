package markup

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonMarkConvertFragment(t *testing.T) {
	c := NewCommonMark(zerolog.Nop())

	assert.Contains(t, c.ConvertFragment("<b>x</b>"), "**x**")
	assert.Contains(t, c.ConvertFragment(`<a href="http://x">t</a>`), "[t](http://x)")
	assert.Equal(t, "", c.ConvertFragment(""))
}

func TestNewSelectsConverter(t *testing.T) {
	conv, err := New("", zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Strict{}, conv)

	conv, err = New(ConverterStrict, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Strict{}, conv)

	conv, err = New(ConverterCommonMark, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &CommonMark{}, conv)

	_, err = New("rst", zerolog.Nop())
	assert.ErrorContains(t, err, `unknown markup converter "rst"`)
}
