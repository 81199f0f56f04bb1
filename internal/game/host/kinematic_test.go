package host

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestKinematicImpulseUsesMass(t *testing.T) {
	k := NewKinematic(mgl64.Vec3{}, 2)
	k.ApplyImpulse(mgl64.Vec3{4, 0, 2})
	assert.Equal(t, mgl64.Vec3{2, 0, 1}, k.LinearVelocity())
}

func TestKinematicIntegrateLandsOnce(t *testing.T) {
	k := NewKinematic(mgl64.Vec3{0, 1, 0}, 1)
	k.Gravity = 10
	k.SetLinearVelocity(mgl64.Vec3{0, -10, 0})

	assert.True(t, k.Integrate(0.5), "first ground contact is reported")
	assert.Equal(t, 0.0, k.Position().Y())
	assert.Less(t, k.LinearVelocity().Y(), 0.0, "impact velocity kept for the bounce handler")

	assert.False(t, k.Integrate(0.5), "resting on the ground is not a new contact")
	assert.Equal(t, 0.0, k.LinearVelocity().Y())
}

func TestKinematicDespawnedDoesNotMove(t *testing.T) {
	k := NewKinematic(mgl64.Vec3{}, 1)
	k.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
	k.Despawn()
	k.Integrate(1)
	assert.Equal(t, mgl64.Vec3{}, k.Position())

	k.Spawn(mgl64.Vec3{5, 0, 5})
	assert.True(t, k.IsSpawned())
	assert.Equal(t, mgl64.Vec3{5, 0, 5}, k.Position())
}
