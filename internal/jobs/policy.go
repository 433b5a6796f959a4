package jobs

import (
	"fmt"
	"time"

	"github.com/amankumarsingh77/ffserve/internal/config"
	"github.com/amankumarsingh77/ffserve/internal/models"
)

type RejectionKind string

const (
	RejectInvalidVideo         RejectionKind = "InvalidVideo"
	RejectVideoTooLong         RejectionKind = "VideoTooLong"
	RejectIncorrectOrientation RejectionKind = "IncorrectOrientation"
)

// Rejection is the reason a submitted video was refused. It is a value the
// caller reports back, not a failure of the service.
type Rejection struct {
	Kind        RejectionKind
	Description string
}

func (r *Rejection) String() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Description)
}

func InvalidVideo() *Rejection {
	return &Rejection{
		Kind:        RejectInvalidVideo,
		Description: "Supplied file is not in a recognised video format",
	}
}

type Policy struct {
	MaxDuration time.Duration
	Orientation config.Orientation
}

func NewPolicy(cfg config.PolicyConfig) Policy {
	return Policy{
		MaxDuration: cfg.MaxDuration,
		Orientation: cfg.Orientation,
	}
}

// Check returns nil when meta satisfies the policy. A square video satisfies
// both orientations.
func (p Policy) Check(meta *models.Metadata) *Rejection {
	if p.MaxDuration > 0 && time.Duration(meta.Duration)*time.Second > p.MaxDuration {
		return &Rejection{
			Kind:        RejectVideoTooLong,
			Description: fmt.Sprintf("Video duration is greater than %d seconds", int64(p.MaxDuration/time.Second)),
		}
	}

	switch p.Orientation {
	case config.OrientationLandscape:
		if meta.Height > meta.Width {
			return &Rejection{
				Kind:        RejectIncorrectOrientation,
				Description: "Video is in portrait orientation, only landscape videos are accepted",
			}
		}
	case config.OrientationPortrait:
		if meta.Height < meta.Width {
			return &Rejection{
				Kind:        RejectIncorrectOrientation,
				Description: "Video is in landscape orientation, only portrait videos are accepted",
			}
		}
	}
	return nil
}
