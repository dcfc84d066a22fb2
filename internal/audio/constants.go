// Package audio holds frame types, volume metrics and the WAV container codec.
package audio

// Audio format constants
const (
	// Channels is fixed to mono for every capture and container.
	Channels = 1

	// WAVBitDepth is the PCM sample width written to the temporary container.
	WAVBitDepth = 16

	// wavFormatPCM is the RIFF audio format tag for integer PCM.
	wavFormatPCM = 1

	// pcm16Scale converts between normalized float samples and int16 PCM.
	pcm16Scale = 32767
)
