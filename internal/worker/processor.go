package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/amankumarsingh77/ffserve/internal/config"
	"github.com/amankumarsingh77/ffserve/pkg/utils"
)

// passTranscoder runs the configured encoder passes one after another.
type passTranscoder struct {
	binary string
	dir    string
	passes [][]string
}

// NewTranscoder builds the encode pipeline. Passes run with dir as working
// directory so multi-pass statistics files stay next to the artifacts.
func NewTranscoder(cfg config.EncoderConfig, dir string) Transcoder {
	passes := [][]string{strings.Fields(cfg.Pass1)}
	if pass2 := strings.Fields(cfg.Pass2); len(pass2) > 0 {
		passes = append(passes, pass2)
	}
	binary := cfg.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	return &passTranscoder{
		binary: binary,
		dir:    dir,
		passes: passes,
	}
}

func (p *passTranscoder) Transcode(inputPath, outputPath string) error {
	for i, template := range p.passes {
		descriptor := fmt.Sprintf("%s pass %d", filepath.Base(p.binary), i+1)
		args := BuildArguments(template, inputPath, outputPath)
		// Passes are not cancellable: a stuck encoder holds the worker.
		if _, err := utils.RunCommand(context.Background(), p.dir, p.binary, args, descriptor); err != nil {
			return err
		}
	}
	return nil
}

// BuildArguments substitutes the $INPUT and $OUTPUT tokens. Tokens are
// matched whole; everything else passes through.
func BuildArguments(template []string, inputPath, outputPath string) []string {
	args := make([]string, len(template))
	for i, token := range template {
		switch token {
		case inputToken:
			args[i] = inputPath
		case outputToken:
			args[i] = outputPath
		default:
			args[i] = token
		}
	}
	return args
}
