package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full-width latin", "ＡＢＣ１２３", "ABC123"},
		{"half-width katakana", "ﾓｰﾆﾝｸﾞ", "モーニング"},
		{"already normal", "モーニング娘。", "モーニング娘。"},
		{"empty", "", ""},
		{"ideographic space", "高橋　愛", "高橋 愛"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextIsIdempotent(t *testing.T) {
	for _, s := range []string{"ｱｲｳ", "①②", "ﬁ", "Å"} {
		once := Text(s)
		assert.Equal(t, once, Text(once), s)
	}
}

func TestOptional(t *testing.T) {
	assert.Nil(t, Optional(nil))

	in := "ＴＥＳＴ"
	out := Optional(&in)
	if assert.NotNil(t, out) {
		assert.Equal(t, "TEST", *out)
	}
	assert.Equal(t, "ＴＥＳＴ", in)
}
