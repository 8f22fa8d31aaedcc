package job

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//ValidationError indicates a malformed request
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

//IsValidationError checks whether err or its cause is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

const vocabMsg = "vocab must be a list of strings"

//Form field names
const (
	PrmJobName                   = "job_name"
	PrmTaskToken                 = "task_token"
	PrmSourceLang                = "source_lang"
	PrmNumSpeakers               = "num_speakers"
	PrmDiarization               = "diarization"
	PrmMultiChannel              = "multi_channel"
	PrmBatchSize                 = "batch_size"
	PrmOffsetStart               = "offset_start"
	PrmOffsetEnd                 = "offset_end"
	PrmVocab                     = "vocab"
	PrmTimestamps                = "timestamps"
	PrmWordTimestamps            = "word_timestamps"
	PrmInternalVAD               = "internal_vad"
	PrmRepetitionPenalty         = "repetition_penalty"
	PrmCompressionRatioThreshold = "compression_ratio_threshold"
	PrmLogProbThreshold          = "log_prob_threshold"
	PrmNoSpeechThreshold         = "no_speech_threshold"
	PrmConditionOnPreviousText   = "condition_on_previous_text"
)

type jsonSpec struct {
	Spec
	Vocab json.RawMessage `json:"vocab"`
}

//FromJSON builds the spec from a JSON body, unknown fields are ignored.
//An empty body gives the default spec
func FromJSON(data []byte) (Spec, error) {
	in := jsonSpec{Spec: DefaultSpec()}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &in); err != nil {
			return Spec{}, newValidationError("wrong JSON: %v", err)
		}
	}
	res := in.Spec
	var err error
	res.Vocab, err = parseVocab(in.Vocab)
	if err != nil {
		return Spec{}, err
	}
	return res, validate(&res)
}

func parseVocab(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var values []interface{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, newValidationError(vocabMsg)
	}
	return normalizeVocab(values)
}

func normalizeVocab(values []interface{}) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	res := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, newValidationError(vocabMsg)
		}
		res = append(res, s)
	}
	return res, nil
}

//FromForm builds the spec from multipart or url encoded form values
func FromForm(values url.Values) (Spec, error) {
	res := DefaultSpec()
	p := formParser{values: values}
	res.JobName = p.str(PrmJobName, res.JobName)
	res.TaskToken = p.str(PrmTaskToken, res.TaskToken)
	res.SourceLang = p.str(PrmSourceLang, res.SourceLang)
	res.Timestamps = p.str(PrmTimestamps, res.Timestamps)
	res.NumSpeakers = p.int(PrmNumSpeakers, res.NumSpeakers)
	res.BatchSize = p.int(PrmBatchSize, res.BatchSize)
	res.Diarization = p.bool(PrmDiarization, res.Diarization)
	res.MultiChannel = p.bool(PrmMultiChannel, res.MultiChannel)
	res.WordTimestamps = p.bool(PrmWordTimestamps, res.WordTimestamps)
	res.InternalVAD = p.bool(PrmInternalVAD, res.InternalVAD)
	res.ConditionOnPreviousText = p.bool(PrmConditionOnPreviousText, res.ConditionOnPreviousText)
	res.OffsetStart = p.floatPtr(PrmOffsetStart)
	res.OffsetEnd = p.floatPtr(PrmOffsetEnd)
	res.RepetitionPenalty = p.float(PrmRepetitionPenalty, res.RepetitionPenalty)
	res.CompressionRatioThreshold = p.float(PrmCompressionRatioThreshold, res.CompressionRatioThreshold)
	res.LogProbThreshold = p.float(PrmLogProbThreshold, res.LogProbThreshold)
	res.NoSpeechThreshold = p.float(PrmNoSpeechThreshold, res.NoSpeechThreshold)
	if p.err != nil {
		return Spec{}, p.err
	}
	var vocab []interface{}
	for _, v := range values[PrmVocab] {
		if strings.TrimSpace(v) != "" {
			vocab = append(vocab, v)
		}
	}
	var err error
	if res.Vocab, err = normalizeVocab(vocab); err != nil {
		return Spec{}, err
	}
	return res, validate(&res)
}

// thresholds and penalties are passed to the engine as is
func validate(spec *Spec) error {
	if spec.BatchSize < 1 {
		return newValidationError("batch_size must be >= 1, got %d", spec.BatchSize)
	}
	return nil
}

type formParser struct {
	values url.Values
	err    error
}

func (p *formParser) raw(name string) (string, bool) {
	v := strings.TrimSpace(p.values.Get(name))
	return v, v != "" && p.err == nil
}

func (p *formParser) str(name, def string) string {
	if v, ok := p.raw(name); ok {
		return v
	}
	return def
}

func (p *formParser) int(name string, def int) int {
	v, ok := p.raw(name)
	if !ok {
		return def
	}
	r, err := strconv.Atoi(v)
	if err != nil {
		p.err = newValidationError("%s must be an integer, got '%s'", name, v)
		return def
	}
	return r
}

func (p *formParser) float(name string, def float64) float64 {
	if r := p.floatPtr(name); r != nil {
		return *r
	}
	return def
}

func (p *formParser) floatPtr(name string) *float64 {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	r, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = newValidationError("%s must be a number, got '%s'", name, v)
		return nil
	}
	return &r
}

func (p *formParser) bool(name string, def bool) bool {
	v, ok := p.raw(name)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "t", "true", "on", "yes", "y":
		return true
	case "0", "f", "false", "off", "no", "n":
		return false
	}
	p.err = newValidationError("%s must be a boolean, got '%s'", name, v)
	return def
}

//ToForm converts the spec to form values, FromForm(ToForm(s)) gives s back
func ToForm(spec *Spec) url.Values {
	res := url.Values{}
	setStr := func(k, v string) {
		if v != "" {
			res.Set(k, v)
		}
	}
	setFloat := func(k string, v float64) {
		res.Set(k, strconv.FormatFloat(v, 'f', -1, 64))
	}
	setStr(PrmJobName, spec.JobName)
	setStr(PrmTaskToken, spec.TaskToken)
	setStr(PrmSourceLang, spec.SourceLang)
	setStr(PrmTimestamps, spec.Timestamps)
	res.Set(PrmNumSpeakers, strconv.Itoa(spec.NumSpeakers))
	res.Set(PrmBatchSize, strconv.Itoa(spec.BatchSize))
	res.Set(PrmDiarization, strconv.FormatBool(spec.Diarization))
	res.Set(PrmMultiChannel, strconv.FormatBool(spec.MultiChannel))
	res.Set(PrmWordTimestamps, strconv.FormatBool(spec.WordTimestamps))
	res.Set(PrmInternalVAD, strconv.FormatBool(spec.InternalVAD))
	res.Set(PrmConditionOnPreviousText, strconv.FormatBool(spec.ConditionOnPreviousText))
	if spec.OffsetStart != nil {
		setFloat(PrmOffsetStart, *spec.OffsetStart)
	}
	if spec.OffsetEnd != nil {
		setFloat(PrmOffsetEnd, *spec.OffsetEnd)
	}
	setFloat(PrmRepetitionPenalty, spec.RepetitionPenalty)
	setFloat(PrmCompressionRatioThreshold, spec.CompressionRatioThreshold)
	setFloat(PrmLogProbThreshold, spec.LogProbThreshold)
	setFloat(PrmNoSpeechThreshold, spec.NoSpeechThreshold)
	for _, v := range spec.Vocab {
		res.Add(PrmVocab, v)
	}
	return res
}
