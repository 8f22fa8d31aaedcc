package job

import (
	"context"
)

//Spec is a validated transcription request
type Spec struct {
	JobName      string   `json:"job_name"`
	TaskToken    string   `json:"task_token"`
	SourceLang   string   `json:"source_lang"`
	NumSpeakers  int      `json:"num_speakers"`
	Diarization  bool     `json:"diarization"`
	MultiChannel bool     `json:"multi_channel"`
	BatchSize    int      `json:"batch_size"`
	OffsetStart  *float64 `json:"offset_start"`
	OffsetEnd    *float64 `json:"offset_end"`
	Vocab        []string `json:"vocab"`
	Timestamps   string   `json:"timestamps"`

	WordTimestamps bool `json:"word_timestamps"`
	InternalVAD    bool `json:"internal_vad"`

	RepetitionPenalty         float64 `json:"repetition_penalty"`
	CompressionRatioThreshold float64 `json:"compression_ratio_threshold"`
	LogProbThreshold          float64 `json:"log_prob_threshold"`
	NoSpeechThreshold         float64 `json:"no_speech_threshold"`
	ConditionOnPreviousText   bool    `json:"condition_on_previous_text"`
}

//AutoSpeakers lets the engine detect the number of speakers
const AutoSpeakers = -1

//DefaultSpec returns the spec with default values
func DefaultSpec() Spec {
	return Spec{
		SourceLang:                "en",
		NumSpeakers:               AutoSpeakers,
		BatchSize:                 1,
		Timestamps:                "s",
		RepetitionPenalty:         1.2,
		CompressionRatioThreshold: 2.4,
		LogProbThreshold:          -1.0,
		NoSpeechThreshold:         0.6,
		ConditionOnPreviousText:   true,
	}
}

//Audio is the input of the job: uploaded data or a remote URL
type Audio struct {
	URL      string
	FileName string
	Data     []byte
}

//Job is one unit of background work
type Job struct {
	Spec          Spec
	Audio         Audio
	SendToStorage bool
	SendToWebhook bool
}

//Processor is the transcription engine
type Processor interface {
	//Warmup is called once before the service starts to accept requests
	Warmup(ctx context.Context) error
	//Process returns the result or an error, *ProcessError for a known stage failure
	Process(ctx context.Context, spec *Spec, audio *Audio) (*Result, error)
}
