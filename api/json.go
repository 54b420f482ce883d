package api

import "github.com/biowearables/breath"

// snapshot is the JSON form of breath.Features.
type snapshot struct {
	Time      float64 `json:"time"` // seconds
	Index     uint64  `json:"index"`
	Position  uint16  `json:"position"`
	PosAmpl   uint16  `json:"positionAmplitude"`
	Velocity  uint16  `json:"velocity"`
	VelAmpl   uint16  `json:"velocityAmplitude"`
	Direction string  `json:"direction"`
	Speed     uint16  `json:"speed"`
	Inhales   int     `json:"inhales"`
	Exhales   int     `json:"exhales"`
	Target    target  `json:"target"`
}

type target struct {
	Frequency float64 `json:"frequency"`
	Position  uint16  `json:"position"`
	Velocity  uint16  `json:"velocity"`
	Speed     uint16  `json:"speed"`
	OnTarget  bool    `json:"onTarget"`
}

func newSnapshot(f breath.Features) snapshot {
	return snapshot{
		Time:      f.Time.Seconds(),
		Index:     f.Index,
		Position:  f.Position,
		PosAmpl:   f.PositionAmplitude,
		Velocity:  f.Velocity,
		VelAmpl:   f.VelocityAmplitude,
		Direction: f.Direction.String(),
		Speed:     f.Speed,
		Inhales:   f.Inhales,
		Exhales:   f.Exhales,
		Target: target{
			Frequency: f.Target.Frequency,
			Position:  f.Target.Position,
			Velocity:  f.Target.Velocity,
			Speed:     f.Target.Speed,
			OnTarget:  f.OnTarget(),
		},
	}
}

type targetRequest struct {
	Frequency float64 `json:"frequency" binding:"required"`
}

// gainRequest numbers gains from 1.
type gainRequest struct {
	Gain int `json:"gain" binding:"required"`
}

// linkRequest changes only the fields it sets.
type linkRequest struct {
	Group     *int  `json:"group,omitempty"`
	Streaming *bool `json:"streaming,omitempty"`
}
