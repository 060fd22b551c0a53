package model

import (
	"fmt"
	"time"
)

// TargetKind discriminates what a reaction points at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetTweet   TargetKind = "tweet"
)

func (k TargetKind) Valid() bool {
	switch k {
	case TargetVideo, TargetComment, TargetTweet:
		return true
	}
	return false
}

// ParseTargetKind accepts the lower-case kind names used on the wire.
func ParseTargetKind(s string) (TargetKind, error) {
	k := TargetKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown target kind %q", s)
	}
	return k, nil
}

// Target is exactly one video, comment or tweet. The zero value is not a
// valid target; build one with NewTarget.
type Target struct {
	Kind TargetKind
	ID   string
}

func NewTarget(kind TargetKind, id string) (Target, error) {
	if !kind.Valid() {
		return Target{}, fmt.Errorf("unknown target kind %q", kind)
	}
	if id == "" {
		return Target{}, fmt.Errorf("empty %s id", kind)
	}
	return Target{Kind: kind, ID: id}, nil
}

func (t Target) String() string { return string(t.Kind) + ":" + t.ID }

// Reaction mirrors the `reactions` table: one reactor, one target. The
// (ReactorID, Target) pair is unique.
type Reaction struct {
	ID        string
	ReactorID string
	Target    Target
	CreatedAt time.Time
}
