package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSpanInText(t *testing.T) {
	text := "담보명: 암진단비\n가입금액  3,000만원\n비고 없음"

	assert.True(t, ValidateSpanInText("3,000만원", text))
	assert.True(t, ValidateSpanInText("가입금액 3,000만원", text), "whitespace differences must not matter")
	assert.True(t, ValidateSpanInText("암진단비 가입금액", text), "newlines in the source must not matter")

	assert.False(t, ValidateSpanInText("2억원", text))
	assert.False(t, ValidateSpanInText("", text))
	assert.False(t, ValidateSpanInText("   ", text))
	assert.False(t, ValidateSpanInText("3,000만원", ""))
}
