package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "重点内容", cleanMarkdown("**重点内容**"))
	assert.Equal(t, "斜体", cleanMarkdown("*斜体*"))
	assert.Equal(t, "代码", cleanMarkdown("`代码`"))
	assert.Equal(t, "混合 重点 和 代码 在一起", cleanMarkdown("混合 **重点** 和 `代码` 在一起"))
	assert.Equal(t, "没有标记", cleanMarkdown("没有标记"))
}

func TestNewSynthesizerDefaultVoice(t *testing.T) {
	s := NewSynthesizer("", "/tmp/data")
	assert.Equal(t, DefaultVoice, s.voice)

	s = NewSynthesizer("zh-CN-XiaoxiaoNeural", "/tmp/data")
	assert.Equal(t, "zh-CN-XiaoxiaoNeural", s.voice)
}
