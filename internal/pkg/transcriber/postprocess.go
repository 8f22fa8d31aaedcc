package transcriber

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/pkg/errors"
)

var (
	spacesRegexp  = regexp.MustCompile(`\s+`)
	lonelyIRegexp = regexp.MustCompile(`\bi\b`)
	// applied one after another, the order matters
	punctFixes     = [][2]string{{"...", ""}, {" ?", "?"}, {" !", "!"}, {" .", "."}, {" ,", ","}, {" :", ":"}, {" ;", ";"}}
	endPunctuation = ".?!:;,"
)

//IsEmptyText checks if the text has nothing but spaces and periods
func IsEmptyText(text string) bool {
	return strings.TrimSpace(spacesRegexp.ReplaceAllString(strings.ReplaceAll(text, ".", ""), "")) == ""
}

//FormatPunct fixes capitalization and spacing around punctuation in engine output
func FormatPunct(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	r, size := utf8.DecodeRuneInString(text)
	if unicode.IsLower(r) {
		text = string(unicode.ToUpper(r)) + text[size:]
	}
	if !strings.ContainsAny(text[len(text)-1:], endPunctuation) {
		text += "."
	}
	for _, f := range punctFixes {
		text = strings.ReplaceAll(text, f[0], f[1])
	}
	text = spacesRegexp.ReplaceAllString(text, " ")
	text = lonelyIRegexp.ReplaceAllString(text, "I")
	return strings.TrimSpace(text)
}

//PostProcess formats utterances texts and drops empty ones
func PostProcess(res *job.Result) error {
	if res == nil {
		return errors.New("no result")
	}
	utts := make([]job.Utterance, 0, len(res.Utterances))
	for i, u := range res.Utterances {
		if u.End < u.Start {
			return errors.Errorf("wrong utterance %d time: %f > %f", i, u.Start, u.End)
		}
		if IsEmptyText(u.Text) {
			continue
		}
		u.Text = FormatPunct(u.Text)
		utts = append(utts, u)
	}
	res.Utterances = utts
	return nil
}
