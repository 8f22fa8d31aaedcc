package job

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceString(t *testing.T) {
	assert.Equal(t, "add_url", SourceAddURL.String())
	assert.Equal(t, "get_url", SourceGetURL.String())
	assert.Equal(t, "remove_url", SourceRemoveURL.String())
	assert.Equal(t, "transcription", SourceTranscription.String())
	assert.Equal(t, "diarization", SourceDiarization.String())
	assert.Equal(t, "post_processing", SourcePostProcessing.String())
	assert.Equal(t, "unknown", SourceUnknown.String())
	assert.Equal(t, "unknown", Source(100).String())
}

func TestParseSource(t *testing.T) {
	for s := SourceUnknown; s <= SourcePostProcessing; s++ {
		r, err := ParseSource(s.String())
		assert.Nil(t, err)
		assert.Equal(t, s, r)
	}
	_, err := ParseSource("olia")
	assert.NotNil(t, err)
}

func TestSourceJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		S Source `json:"s"`
	}{S: SourceDiarization})
	assert.Nil(t, err)
	assert.Equal(t, `{"s":"diarization"}`, string(b))

	var r struct {
		S Source `json:"s"`
	}
	assert.Nil(t, json.Unmarshal([]byte(`{"s":"get_url"}`), &r))
	assert.Equal(t, SourceGetURL, r.S)
	assert.NotNil(t, json.Unmarshal([]byte(`{"s":"xxx"}`), &r))
}

func TestFailureText(t *testing.T) {
	assert.Equal(t, "Error during transcription: decode error",
		(&Failure{Source: SourceTranscription, Message: "decode error"}).Text())
	assert.Equal(t, "Error during transcription: boom",
		(&Failure{Source: SourceUnknown, Message: "boom"}).Text())
	assert.Equal(t, "Error during audio download: 404",
		(&Failure{Source: SourceGetURL, Message: "404"}).Text())
}

func TestProcessError(t *testing.T) {
	err := NewProcessError(SourceDiarization, "olia")
	assert.Equal(t, "diarization: olia", err.Error())
	assert.Nil(t, WrapProcessError(SourceGetURL, nil))
	pe, ok := WrapProcessError(SourceGetURL, assert.AnError).(*ProcessError)
	assert.True(t, ok)
	assert.Equal(t, SourceGetURL, pe.Source)
	assert.Equal(t, assert.AnError.Error(), pe.Message)
}
