package tts

import (
	"encoding/binary"
	"fmt"
	"io"
)

// pcmAudio is decoded mono PCM16 little endian.
type pcmAudio struct {
	data       []byte
	sampleRate int
}

// readWAVPCM16 returns raw PCM16 mono bytes from a WAV body. Stereo input is
// averaged to mono.
func readWAVPCM16(r io.Reader) (pcmAudio, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return pcmAudio{}, err
	}
	if len(b) < 44 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return pcmAudio{}, fmt.Errorf("not a WAV")
	}
	off := 12
	var dataOff, dataLen int
	var channels uint16
	var sampRate uint32
	for off+8 <= len(b) {
		cid := string(b[off : off+4])
		csz := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		off += 8
		if cid == "fmt " {
			if csz < 16 || off+csz > len(b) {
				return pcmAudio{}, fmt.Errorf("bad fmt chunk")
			}
			fmtTag := binary.LittleEndian.Uint16(b[off:])
			channels = binary.LittleEndian.Uint16(b[off+2:])
			sampRate = binary.LittleEndian.Uint32(b[off+4:])
			bits := binary.LittleEndian.Uint16(b[off+14:])
			if fmtTag != 1 || bits != 16 {
				return pcmAudio{}, fmt.Errorf("unsupported WAV format tag=%d bits=%d", fmtTag, bits)
			}
			off += csz
		} else if cid == "data" {
			dataOff = off
			dataLen = csz
			break
		} else {
			off += csz
		}
	}
	if dataOff <= 0 || dataOff+dataLen > len(b) {
		return pcmAudio{}, fmt.Errorf("no data chunk")
	}
	raw := b[dataOff : dataOff+dataLen]
	if channels == 2 {
		out := make([]byte, dataLen/2)
		for i := 0; i+3 < len(raw); i += 4 {
			a := int32(int16(binary.LittleEndian.Uint16(raw[i:])))
			c := int32(int16(binary.LittleEndian.Uint16(raw[i+2:])))
			binary.LittleEndian.PutUint16(out[i/2:], uint16(int16((a+c)/2)))
		}
		raw = out
	}
	return pcmAudio{data: raw, sampleRate: int(sampRate)}, nil
}

// scaleVolume multiplies every sample by vol in place, clipping at int16 range.
func scaleVolume(pcm []byte, vol float64) {
	if vol == 1 {
		return
	}
	if vol < 0 {
		vol = 0
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) * vol
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(v)))
	}
}
