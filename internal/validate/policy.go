package validate

import "github.com/vuqn/pagepost/internal/model"

// Policy is the set of limits applied to one media candidate. Zero
// fields disable the corresponding check.
type Policy struct {
	MaxSizeBytes int64
	MinDuration  float64 // seconds, video only
	MaxDuration  float64 // seconds, video only
}

// Policies maps content types to their configured limits.
type Policies struct {
	MaxVideoSizeBytes     int64
	MinVideoDuration      float64
	MaxStoryVideoDuration float64
	MaxReelVideoDuration  float64
}

// For returns the policy for a media kind within a content type.
// Photos have no size or duration limits; videos are capped by size and,
// for stories and reels, by duration.
func (p Policies) For(ct model.ContentType, kind model.MediaKind) Policy {
	if kind != model.KindVideo {
		return Policy{}
	}
	pol := Policy{MaxSizeBytes: p.MaxVideoSizeBytes}
	switch ct {
	case model.ContentStoryVideo:
		pol.MinDuration = p.MinVideoDuration
		pol.MaxDuration = p.MaxStoryVideoDuration
	case model.ContentReel:
		pol.MinDuration = p.MinVideoDuration
		pol.MaxDuration = p.MaxReelVideoDuration
	}
	return pol
}
