package validate

import (
	"testing"

	"github.com/vuqn/pagepost/internal/model"
)

func TestPoliciesFor(t *testing.T) {
	p := Policies{
		MaxVideoSizeBytes:     2048 * 1024 * 1024,
		MinVideoDuration:      3,
		MaxStoryVideoDuration: 60,
		MaxReelVideoDuration:  90,
	}

	tests := []struct {
		name string
		ct   model.ContentType
		kind model.MediaKind
		want Policy
	}{
		{"photo has no limits", model.ContentFeed, model.KindPhoto, Policy{}},
		{"story photo has no limits", model.ContentStoryPhoto, model.KindPhoto, Policy{}},
		{"story video", model.ContentStoryVideo, model.KindVideo, Policy{MaxSizeBytes: 2048 * 1024 * 1024, MinDuration: 3, MaxDuration: 60}},
		{"reel video", model.ContentReel, model.KindVideo, Policy{MaxSizeBytes: 2048 * 1024 * 1024, MinDuration: 3, MaxDuration: 90}},
		{"video post has size cap only", model.ContentVideo, model.KindVideo, Policy{MaxSizeBytes: 2048 * 1024 * 1024}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.For(tt.ct, tt.kind); got != tt.want {
				t.Fatalf("For(%s, %s) = %+v, want %+v", tt.ct, tt.kind, got, tt.want)
			}
		})
	}
}
