package job

//Word is a recognized token with its timing
type Word struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

//Utterance is a continuous speech segment of one speaker
type Utterance struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker int     `json:"speaker"`
	Words   []Word  `json:"words,omitempty"`
}

//ProcessTimes keeps durations of the processing stages in seconds
type ProcessTimes struct {
	Total          float64  `json:"total"`
	Transcription  *float64 `json:"transcription"`
	Diarization    *float64 `json:"diarization"`
	PostProcessing *float64 `json:"post_processing"`
}

//Result is the transcription response
type Result struct {
	Utterances    []Utterance   `json:"utterances"`
	AudioDuration float64       `json:"audio_duration"`
	ProcessTimes  *ProcessTimes `json:"process_times,omitempty"`
	Spec
}

//WithSpec returns a shallow copy of the result echoing the request params
func (r *Result) WithSpec(spec Spec) *Result {
	if r == nil {
		return nil
	}
	res := *r
	res.Spec = spec
	return &res
}

//WithoutWords returns a copy with per word data dropped from every utterance
func (r *Result) WithoutWords() *Result {
	res := *r
	res.Utterances = make([]Utterance, len(r.Utterances))
	for i, u := range r.Utterances {
		u.Words = nil
		res.Utterances[i] = u
	}
	return &res
}
