package voice

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// Clip is decoded audio: interleaved signed 16-bit little-endian PCM.
type Clip struct {
	SampleRate int
	Channels   int
	Data       []byte
}

// Duration is the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.Channels == 0 || c.SampleRate == 0 {
		return 0
	}
	frames := len(c.Data) / (2 * c.Channels)
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// DecodeFile reads and decodes a cached audio file.
func DecodeFile(path string) (Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, fmt.Errorf("read audio file: %w", err)
	}
	return Decode(data)
}

// Decode turns raw audio file bytes into a playable clip. WAV is tried
// first, MP3 second; both failing abandons the clip.
func Decode(data []byte) (Clip, error) {
	clip, wavErr := decodeWAV(data)
	if wavErr == nil {
		return clip, nil
	}
	clip, mp3Err := decodeMP3(data)
	if mp3Err == nil {
		return clip, nil
	}
	return Clip{}, fmt.Errorf("decode audio: wav: %v; mp3: %v", wavErr, mp3Err)
}

// decodeWAV parses a canonical RIFF/WAVE file with uncompressed PCM
// samples. 8-bit audio is widened to 16-bit.
func decodeWAV(data []byte) (Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("not a wav file")
	}

	var (
		clip     Clip
		bits     int
		haveFmt  bool
		haveData bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return Clip{}, fmt.Errorf("unsupported wav encoding %d", format)
			}
			clip.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			clip.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			clip.Data = data[body : body+size]
			haveData = true
		}

		// Chunks are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !haveFmt || !haveData {
		return Clip{}, fmt.Errorf("wav missing fmt or data chunk")
	}
	if clip.Channels < 1 || clip.SampleRate <= 0 {
		return Clip{}, fmt.Errorf("wav has invalid format values")
	}

	switch bits {
	case 16:
		// already in target layout
	case 8:
		clip.Data = widen8to16(clip.Data)
	default:
		return Clip{}, fmt.Errorf("unsupported wav bit depth %d", bits)
	}
	return clip, nil
}

// widen8to16 converts unsigned 8-bit samples to signed 16-bit LE.
func widen8to16(in []byte) []byte {
	out := make([]byte, len(in)*2)
	for i, b := range in {
		s := (int16(b) - 128) << 8
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// decodeMP3 decodes an MP3 stream; the decoder always yields stereo
// 16-bit LE samples.
func decodeMP3(data []byte) (Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, err
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return Clip{}, err
	}
	return Clip{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Data:       pcm,
	}, nil
}

// scale applies a linear volume factor in [0,1] to the samples in
// place. Full volume leaves them untouched.
func (c Clip) scale(volume float64) {
	if volume >= 1 {
		return
	}
	if volume < 0 {
		volume = 0
	}
	for i := 0; i+1 < len(c.Data); i += 2 {
		s := int16(binary.LittleEndian.Uint16(c.Data[i : i+2]))
		binary.LittleEndian.PutUint16(c.Data[i:], uint16(int16(float64(s)*volume)))
	}
}
