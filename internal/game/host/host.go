// Package host describes what the simulation core needs from the game
// engine that embeds it: rigid bodies it can read and push, a ball it can
// despawn and respawn, one-shot audio and animation triggers.
package host

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Body is a physics-driven entity owned by the host engine.
type Body interface {
	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
	Rotation() mgl64.Quat
	SetRotation(mgl64.Quat)
	LinearVelocity() mgl64.Vec3
	SetLinearVelocity(mgl64.Vec3)
	AngularVelocity() mgl64.Vec3
	SetAngularVelocity(mgl64.Vec3)
	ApplyImpulse(mgl64.Vec3)
	// WakeUp forces the physics engine to pick up a teleport or velocity change.
	WakeUp()
}

// BallBody is the match ball. Despawn removes it from the world until the
// next Spawn.
type BallBody interface {
	Body
	Spawn(at mgl64.Vec3)
	Despawn()
	IsSpawned() bool
}

// Cue names a one-shot sound effect.
type Cue string

const (
	CueWhistle Cue = "audio/sfx/soccer/whistle.mp3"
	CueKick    Cue = "audio/sfx/soccer/kick.mp3"
)

// AudioPlayer plays one-shot cues in the world.
type AudioPlayer interface {
	Play(cue Cue, volume float64)
}

// Animator controls model animations on a player body.
type Animator interface {
	// StopLooped stops every looped animation except the ones listed.
	StopLooped(except ...string)
	PlayOneshot(names ...string)
}

// Camera is the per-connection camera a human participant sees through.
type Camera interface {
	AttachTo(Body) error
}

// NopAudio discards every cue.
type NopAudio struct{}

// Play implements AudioPlayer.
func (NopAudio) Play(Cue, float64) {}

// NopAnimator ignores animation requests.
type NopAnimator struct{}

// StopLooped implements Animator.
func (NopAnimator) StopLooped(...string) {}

// PlayOneshot implements Animator.
func (NopAnimator) PlayOneshot(...string) {}
