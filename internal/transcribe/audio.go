package transcribe

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

const (
	targetSampleRate = 16000
	targetChannels   = 1
)

// audioInfo describes the preprocessed WAV handed to whisper.cpp.
type audioInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// inspectWAV checks the preprocessed file is the 16 kHz mono PCM whisper expects.
func inspectWAV(path string) (audioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return audioInfo{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return audioInfo{}, fmt.Errorf("not a valid WAV file: %s", path)
	}

	info := audioInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if info.SampleRate != targetSampleRate || info.Channels != targetChannels {
		return info, fmt.Errorf("unexpected WAV format %d Hz / %d ch, want %d Hz mono",
			info.SampleRate, info.Channels, targetSampleRate)
	}

	if err := dec.FwdToPCM(); err != nil {
		return info, fmt.Errorf("locate PCM data: %w", err)
	}
	bytesPerSecond := info.SampleRate * info.Channels * info.BitDepth / 8
	if bytesPerSecond > 0 {
		info.Duration = time.Duration(dec.PCMLen()) * time.Second / time.Duration(bytesPerSecond)
	}
	return info, nil
}
