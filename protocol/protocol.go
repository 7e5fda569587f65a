// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Length-prefixed exchange of files, JSON messages and acknowledgements
// between an ELMO client and an ELMO server.
//
// Every payload is preceded by its length on 4 bytes, little-endian.
// Acknowledgements are the 2 ASCII bytes "OK" or "NO", without length.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"

	"github.com/golang/glog"
)

const (
	ChunkSize = 64 * 1024
	lenSize   = 4
)

var (
	ack  = []byte("OK")
	nack = []byte("NO")
)

// A decoded JSON object.
type Message map[string]interface{}

func EncodeLength(n int) []byte {
	b := make([]byte, lenSize)
	for i := range b {
		b[i] = byte(n & 0xff)
		n >>= 8
	}
	return b
}

func DecodeLength(b []byte) int {
	n := 0
	for i := 0; i < lenSize && i < len(b); i++ {
		n |= int(b[i]) << (8 * i)
	}
	return n
}

func writeChunks(w io.Writer, src io.Reader) error {
	if _, err := io.CopyBuffer(w, src, make([]byte, ChunkSize)); err != nil {
		return fmt.Errorf("Failed sending payload: %v", err)
	}
	return nil
}

func SendBytes(w io.Writer, data []byte) error {
	if _, err := w.Write(EncodeLength(len(data))); err != nil {
		return fmt.Errorf("Failed sending length: %v", err)
	}
	return writeChunks(w, bytes.NewReader(data))
}

func SendFile(w io.Writer, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if _, err = w.Write(EncodeLength(int(st.Size()))); err != nil {
		return fmt.Errorf("Failed sending length: %v", err)
	}
	return writeChunks(w, io.LimitReader(f, st.Size()))
}

// Reads one length-prefixed payload.
// A payload cut short by the peer is returned with io.ErrUnexpectedEOF.
func GetFile(r io.Reader) ([]byte, error) {
	hdr := make([]byte, lenSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("Failed reading length: %w", err)
	}
	size := int64(DecodeLength(hdr))
	var buf bytes.Buffer
	n, err := io.CopyBuffer(&buf, io.LimitReader(r, size), make([]byte, ChunkSize))
	if err != nil {
		return buf.Bytes(), fmt.Errorf("Failed reading payload: %v", err)
	}
	if n < size {
		return buf.Bytes(), io.ErrUnexpectedEOF
	}
	return buf.Bytes(), nil
}

func SendData(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("JSON encoder failed %v", err)
	}
	glog.V(2).Infof("Sending %d bytes of JSON", len(data))
	return SendBytes(w, data)
}

// Decodes one JSON payload into v.
// Returns false, without error, when the payload is not valid JSON for v.
func GetData(r io.Reader, v interface{}) (bool, error) {
	data, err := GetFile(r)
	if err != nil {
		return false, err
	}
	glog.V(2).Infof("Received %d bytes of JSON", len(data))
	if err = json.Unmarshal(data, v); err != nil {
		glog.Warningf("Malformed JSON payload: %v", err)
		return false, nil
	}
	return true, nil
}

func SendAck(w io.Writer, ok bool) error {
	msg := ack
	if !ok {
		msg = nack
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("Failed sending acknowledgement: %v", err)
	}
	return nil
}

// Returns true on "OK", false on anything else.
func GetAck(r io.Reader) (bool, error) {
	b := make([]byte, len(ack))
	if _, err := io.ReadFull(r, b); err != nil {
		return false, fmt.Errorf("Failed reading acknowledgement: %w", err)
	}
	return bytes.Equal(b, ack), nil
}

// One connection, seen from either side.
type Protocol struct {
	conn   net.Conn
	closed atomic.Bool
}

func New(conn net.Conn) *Protocol {
	return &Protocol{conn: conn}
}

func (p *Protocol) Conn() net.Conn {
	return p.conn
}

func (p *Protocol) SendBytes(data []byte) error {
	return SendBytes(p.conn, data)
}

func (p *Protocol) SendFile(filename string) error {
	return SendFile(p.conn, filename)
}

func (p *Protocol) GetFile() ([]byte, error) {
	return GetFile(p.conn)
}

func (p *Protocol) SendData(v interface{}) error {
	return SendData(p.conn, v)
}

func (p *Protocol) GetData(v interface{}) (bool, error) {
	return GetData(p.conn, v)
}

func (p *Protocol) SendAck() error {
	return SendAck(p.conn, true)
}

func (p *Protocol) SendNack() error {
	return SendAck(p.conn, false)
}

func (p *Protocol) GetAck() (bool, error) {
	return GetAck(p.conn)
}

// Closing twice is a no-op. Safe to call from another goroutine to interrupt
// a blocked exchange.
func (p *Protocol) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Sends a NACK, closes the connection and aborts the exchange.
func (p *Protocol) Refuse(reason string) Outcome {
	if err := p.SendNack(); err != nil {
		glog.V(1).Infof("NACK not delivered: %v", err)
	}
	p.Close()
	return Aborted(reason)
}

// How an exchange ended, when no transport error occurred.
type Outcome struct {
	aborted bool
	reason  string
}

var Completed = Outcome{}

func Aborted(reason string) Outcome {
	return Outcome{true, reason}
}

func (o Outcome) IsAborted() bool {
	return o.aborted
}

func (o Outcome) Reason() string {
	return o.reason
}

func (o Outcome) String() string {
	if o.aborted {
		return "aborted: " + o.reason
	}
	return "completed"
}
