package guidance

import (
	"github.com/labstack/gommon/log"

	"indoor-nav-server/logstream"
)

// TranscriptSpeaker is the default voice adapter: it writes each phrase to
// the log and the monitoring transcript. A real TTS process follows the
// transcript stream and renders the "[TTS]" lines.
type TranscriptSpeaker struct {
	transcript *logstream.Buffer
}

func NewTranscriptSpeaker(transcript *logstream.Buffer) *TranscriptSpeaker {
	return &TranscriptSpeaker{transcript: transcript}
}

func (s *TranscriptSpeaker) Speak(text string) {
	log.Infof("[TTS] %s", text)
	if s.transcript != nil {
		s.transcript.Append("[TTS] " + text)
	}
}
