package host

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Kinematic is a minimal rigid body: impulses change velocity through mass,
// Integrate advances position with explicit Euler steps. It stands in for the
// real physics engine in the headless server and in tests.
type Kinematic struct {
	mu       sync.Mutex
	pos      mgl64.Vec3
	rot      mgl64.Quat
	vel      mgl64.Vec3
	angVel   mgl64.Vec3
	mass     float64
	spawned  bool
	awake    int
	Gravity  float64
	GroundY  float64
	Radius   float64
	grounded bool
}

// NewKinematic creates a spawned body at pos. A mass of zero is treated as 1.
func NewKinematic(pos mgl64.Vec3, mass float64) *Kinematic {
	if mass <= 0 {
		mass = 1
	}
	return &Kinematic{
		pos:     pos,
		rot:     mgl64.QuatIdent(),
		mass:    mass,
		spawned: true,
	}
}

func (k *Kinematic) Position() mgl64.Vec3 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.pos
}

func (k *Kinematic) SetPosition(p mgl64.Vec3) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pos = p
}

func (k *Kinematic) Rotation() mgl64.Quat {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.rot
}

func (k *Kinematic) SetRotation(q mgl64.Quat) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rot = q
}

func (k *Kinematic) LinearVelocity() mgl64.Vec3 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.vel
}

func (k *Kinematic) SetLinearVelocity(v mgl64.Vec3) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.vel = v
}

func (k *Kinematic) AngularVelocity() mgl64.Vec3 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.angVel
}

func (k *Kinematic) SetAngularVelocity(v mgl64.Vec3) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.angVel = v
}

func (k *Kinematic) ApplyImpulse(j mgl64.Vec3) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.vel = k.vel.Add(j.Mul(1 / k.mass))
}

func (k *Kinematic) WakeUp() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.awake++
}

// WakeCount reports how many times WakeUp was called.
func (k *Kinematic) WakeCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.awake
}

func (k *Kinematic) Spawn(at mgl64.Vec3) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pos = at
	k.spawned = true
}

func (k *Kinematic) Despawn() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.spawned = false
}

func (k *Kinematic) IsSpawned() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.spawned
}

// Integrate advances the body by dt seconds. It reports true when the body
// touched the ground plane during this step, which hosts forward as a
// terrain contact.
func (k *Kinematic) Integrate(dt float64) (landed bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.spawned {
		return false
	}
	if k.Gravity != 0 {
		k.vel = k.vel.Add(mgl64.Vec3{0, -k.Gravity * dt, 0})
	}
	k.pos = k.pos.Add(k.vel.Mul(dt))

	floor := k.GroundY + k.Radius
	if k.Gravity != 0 && k.pos.Y() <= floor {
		k.pos[1] = floor
		switch {
		case !k.grounded && k.vel.Y() < 0:
			// keep the impact velocity so the contact handler can bounce it
			landed = true
		case k.vel.Y() < 0:
			k.vel[1] = 0
		}
		k.grounded = true
	} else {
		k.grounded = false
	}
	return landed
}
