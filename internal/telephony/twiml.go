package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlConnect struct {
	XMLName xml.Name     `xml:"Connect"`
	Stream  *twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL        string           `xml:"url,attr"`
	Parameters []twimlParameter `xml:"Parameter"`
}

type twimlParameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// RenderMediaStream answers a call by connecting it to the media-stream
// WebSocket. The CallSid rides along as a custom parameter because the
// stream's start frame is otherwise the only place Twilio repeats it.
func RenderMediaStream(wsURL, callSid string) (string, error) {
	if strings.TrimSpace(wsURL) == "" {
		return "", errors.New("telephony: stream url required")
	}
	r := twimlResponse{
		Verbs: []any{
			twimlConnect{Stream: &twimlStream{
				URL: wsURL,
				Parameters: []twimlParameter{
					{Name: "CallSid", Value: callSid},
				},
			}},
		},
	}
	return renderTwiML(r)
}

// RenderRejection plays a short notice and hangs up. Used when the dialed
// number has no configured business.
func RenderRejection(message string) (string, error) {
	r := twimlResponse{
		Verbs: []any{
			twimlSay{Text: message},
			twimlHangup{},
		},
	}
	return renderTwiML(r)
}

func renderTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
