package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercases and collapses whitespace", "My   ORDER\n\tarrived  broken", "my order arrived broken"},
		{"strips courtesy words", "Hello, please refund my order. Thanks!", "refund my order"},
		{"strips punctuation", "refund, now! (order #42)", "refund now order 42"},
		{"strips attachment banners", "body --- Attachment: receipt.pdf --- more", "body more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.input))
		})
	}
}

func TestNormalizeEmailSubject(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Re: broken kettle", "broken kettle"},
		{"RE: RE: broken kettle", "broken kettle"},
		{"Fwd: Re: broken kettle", "broken kettle"},
		{"FW[2]: broken kettle", "broken kettle"},
		{"broken kettle", "broken kettle"},
		{"  broken kettle  ", "broken kettle"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmailSubject(tt.input), "input %q", tt.input)
	}
}

func TestNormalizeMessageID(t *testing.T) {
	assert.Equal(t, "abc@mail.example.com", NormalizeMessageID(" <abc@mail.example.com> "))
	assert.Equal(t, "abc@mail.example.com", NormalizeMessageID("abc@mail.example.com"))
	assert.Equal(t, "", NormalizeMessageID("<>"))
}

func TestSignatureRoundTrip(t *testing.T) {
	// Arrange
	signature := []uint64{0, 1, 0xdeadbeef, ^uint64(0)}

	// Act
	encoded := EncodeSignature(signature)
	decoded, err := DecodeSignature(encoded)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, signature, decoded)
}

func TestDecodeSignature_Malformed(t *testing.T) {
	_, err := DecodeSignature("not hex")
	assert.Error(t, err)

	// Valid hex, wrong length.
	_, err = DecodeSignature("abcdef")
	assert.Error(t, err)
}

func TestHTMLToText(t *testing.T) {
	// Arrange
	input := `<html><head><style>p { color: red; }</style></head>
<body><p>First line</p><div>Second <b>line</b></div><script>alert(1)</script></body></html>`

	// Act
	text := HTMLToText(input)

	// Assert
	assert.Contains(t, text, "First line")
	assert.Contains(t, text, "Second line")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "alert")
}

func TestGenerateNanoIDWithPrefix(t *testing.T) {
	id := GenerateNanoIDWithPrefix("cmp", 16)
	assert.Len(t, id, len("cmp_")+16)
	assert.Contains(t, id, "cmp_")
	assert.NotEqual(t, id, GenerateNanoIDWithPrefix("cmp", 16))
}
