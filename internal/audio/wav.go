package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
)

// EncodeWAV wraps a raw PCM16LE buffer in a WAV container.
func EncodeWAV(raw Raw) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWAVTo(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAVTo writes raw PCM16LE audio to out as a WAV stream.
func WriteWAVTo(out io.Writer, raw Raw) error {
	if err := raw.Validate(); err != nil {
		return err
	}

	const (
		bitsPerSample = 16
		audioFormat   = 1 // PCM
	)

	dataSize := uint32(len(raw.PCM))
	byteRate := uint32(raw.SampleRate * raw.Channels * bitsPerSample / 8)
	blockAlign := uint16(raw.Channels * bitsPerSample / 8)

	w := bufio.NewWriter(out)

	// RIFF header.
	if _, err := w.WriteString("RIFF"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(36)+dataSize); err != nil {
		return err
	}
	if _, err := w.WriteString("WAVE"); err != nil {
		return err
	}

	// fmt chunk.
	if _, err := w.WriteString("fmt "); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(16)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(audioFormat)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(raw.Channels)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(raw.SampleRate)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, byteRate); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, blockAlign); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(bitsPerSample)); err != nil {
		return err
	}

	// data chunk.
	if _, err := w.WriteString("data"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, dataSize); err != nil {
		return err
	}
	if _, err := w.Write(raw.PCM); err != nil {
		return err
	}
	return w.Flush()
}
