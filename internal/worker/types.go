package worker

import "time"

const (
	defaultCPUCheckInterval = 10 * time.Second

	inputToken  = "$INPUT"
	outputToken = "$OUTPUT"
)

// Transcoder turns the input artifact into the output artifact.
type Transcoder interface {
	Transcode(inputPath, outputPath string) error
}

// CPUReader returns the host CPU usage in percent.
type CPUReader func() (float64, error)
