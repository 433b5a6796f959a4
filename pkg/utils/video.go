package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/amankumarsingh77/ffserve/internal/models"
)

var (
	durationRe   = regexp.MustCompile(`(?m)^  Duration: (\d\d):(\d\d):(\d\d)\.\d\d,`)
	resolutionRe = regexp.MustCompile(`(?m)^  Stream [^ ]+: Video: .*, (\d\d\d+)x(\d\d\d+)`)
)

// FFProbe reads duration and resolution from the report ffprobe writes to
// stderr.
type FFProbe struct {
	Binary string
}

func NewFFProbe(binary string) *FFProbe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFProbe{Binary: binary}
}

func (p *FFProbe) Probe(ctx context.Context, path string) (*models.Metadata, error) {
	res, err := RunCommand(ctx, "", p.Binary, []string{path}, p.Binary)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(res.Stderr) {
		return nil, errors.New("invalid encoding")
	}
	return ParseProbeOutput(string(res.Stderr))
}

// ParseProbeOutput extracts the duration (whole seconds) and the first video
// stream's resolution from an ffprobe report.
func ParseProbeOutput(text string) (*models.Metadata, error) {
	d := durationRe.FindStringSubmatch(text)
	if d == nil {
		return nil, errors.New("no duration found")
	}
	hours, _ := strconv.Atoi(d[1])
	minutes, _ := strconv.Atoi(d[2])
	seconds, _ := strconv.Atoi(d[3])

	r := resolutionRe.FindStringSubmatch(text)
	if r == nil {
		return nil, errors.New("no resolution found")
	}
	width, err := strconv.Atoi(r[1])
	if err != nil {
		return nil, fmt.Errorf("invalid width: %v", err)
	}
	height, err := strconv.Atoi(r[2])
	if err != nil {
		return nil, fmt.Errorf("invalid height: %v", err)
	}

	return &models.Metadata{
		Width:    width,
		Height:   height,
		Duration: hours*3600 + minutes*60 + seconds,
	}, nil
}
