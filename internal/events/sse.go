package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteSSE encodes ev as a Server-Sent Events frame:
//
//	id: <seq>
//	event: <type>
//	data: <json>
func WriteSSE(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + 48)
	if ev.Seq > 0 {
		buf.WriteString("id: ")
		buf.WriteString(strconv.FormatUint(ev.Seq, 10))
		buf.WriteByte('\n')
	}
	buf.WriteString("event: ")
	buf.WriteString(string(ev.Type))
	buf.WriteString("\ndata: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	_, err = w.Write(buf.Bytes())
	return err
}

// Frame is a decoded Server-Sent Events message with its raw JSON data.
type Frame struct {
	ID   string
	Type Type
	Data json.RawMessage
}

// Decode unmarshals the frame data into v.
func (f Frame) Decode(v any) error {
	return json.Unmarshal(f.Data, v)
}

// Decoder reads Server-Sent Events frames from a stream.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Decoder{scanner: scanner}
}

// Next returns the next complete frame. Comment lines and keepalives are
// skipped. io.EOF is returned when the stream ends cleanly.
func (d *Decoder) Next() (Frame, error) {
	var (
		frame Frame
		data  []string
		seen  bool
	)
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			if seen {
				frame.Data = json.RawMessage(strings.Join(data, "\n"))
				if frame.Type == "" {
					frame.Type = "message"
				}
				return frame, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			frame.ID = value
			seen = true
		case "event":
			frame.Type = Type(value)
			seen = true
		case "data":
			data = append(data, value)
			seen = true
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}
