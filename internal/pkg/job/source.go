package job

import (
	"github.com/pkg/errors"
)

//Source identifies the processing stage that failed
type Source int

const (
	//SourceUnknown is used for unexpected faults that are not process errors
	SourceUnknown Source = iota
	//SourceAddURL value
	SourceAddURL
	//SourceGetURL value
	SourceGetURL
	//SourceRemoveURL value
	SourceRemoveURL
	//SourceTranscription value
	SourceTranscription
	//SourceDiarization value
	SourceDiarization
	//SourcePostProcessing value
	SourcePostProcessing
)

var (
	sourceName = map[Source]string{SourceUnknown: "unknown", SourceAddURL: "add_url",
		SourceGetURL: "get_url", SourceRemoveURL: "remove_url",
		SourceTranscription: "transcription", SourceDiarization: "diarization",
		SourcePostProcessing: "post_processing"}
	nameSource = map[string]Source{"unknown": SourceUnknown, "add_url": SourceAddURL,
		"get_url": SourceGetURL, "remove_url": SourceRemoveURL,
		"transcription": SourceTranscription, "diarization": SourceDiarization,
		"post_processing": SourcePostProcessing}
	sourceStage = map[Source]string{SourceUnknown: "transcription", SourceAddURL: "url adding",
		SourceGetURL: "audio download", SourceRemoveURL: "url removal",
		SourceTranscription: "transcription", SourceDiarization: "diarization",
		SourcePostProcessing: "post-processing"}
)

func (s Source) String() string {
	if n, ok := sourceName[s]; ok {
		return n
	}
	return sourceName[SourceUnknown]
}

//Stage returns a human readable stage name
func (s Source) Stage() string {
	if n, ok := sourceStage[s]; ok {
		return n
	}
	return sourceStage[SourceUnknown]
}

//MarshalText implements encoding.TextMarshaler
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

//UnmarshalText implements encoding.TextUnmarshaler
func (s *Source) UnmarshalText(b []byte) error {
	r, err := ParseSource(string(b))
	if err != nil {
		return err
	}
	*s = r
	return nil
}

//ParseSource converts a name to the Source
func ParseSource(name string) (Source, error) {
	if r, ok := nameSource[name]; ok {
		return r, nil
	}
	return SourceUnknown, errors.Errorf("unknown source '%s'", name)
}
