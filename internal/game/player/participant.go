package player

import (
	"sync"

	"github.com/cryptochris8/Hysports-Soccer/internal/game/host"
)

// Participant is whoever drives a player entity. Humans come with a camera
// and an ability slot; simulated participants get no-op stand-ins.
type Participant interface {
	Name() string
	IsHuman() bool
	AttachCamera(body host.Body) error
	Abilities() AbilityHolder
}

// AbilityHolder stores the power-up a participant is carrying.
type AbilityHolder interface {
	Ability() (string, bool)
	SetAbility(name string)
	// UseAbility consumes the held ability and returns its name.
	UseAbility() (string, bool)
	ClearAbility()
}

// HumanParticipant is a connected player.
type HumanParticipant struct {
	name      string
	camera    host.Camera
	abilities *AbilitySlot
}

// NewHumanParticipant creates a participant bound to a connection camera.
// A nil camera is allowed for headless clients.
func NewHumanParticipant(name string, camera host.Camera) *HumanParticipant {
	return &HumanParticipant{name: name, camera: camera, abilities: &AbilitySlot{}}
}

func (p *HumanParticipant) Name() string             { return p.name }
func (p *HumanParticipant) IsHuman() bool            { return true }
func (p *HumanParticipant) Abilities() AbilityHolder { return p.abilities }

// AttachCamera points the participant's camera at body.
func (p *HumanParticipant) AttachCamera(body host.Body) error {
	if p.camera == nil {
		return nil
	}
	return p.camera.AttachTo(body)
}

// SimulatedParticipant is an AI-controlled player.
type SimulatedParticipant struct {
	name string
}

// NewSimulatedParticipant creates an AI participant.
func NewSimulatedParticipant(name string) *SimulatedParticipant {
	return &SimulatedParticipant{name: name}
}

func (p *SimulatedParticipant) Name() string                 { return p.name }
func (p *SimulatedParticipant) IsHuman() bool                { return false }
func (p *SimulatedParticipant) AttachCamera(host.Body) error { return nil }
func (p *SimulatedParticipant) Abilities() AbilityHolder     { return NopAbilityHolder{} }

// AbilitySlot holds at most one ability.
type AbilitySlot struct {
	mu   sync.Mutex
	name string
}

func (s *AbilitySlot) Ability() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.name != ""
}

func (s *AbilitySlot) SetAbility(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *AbilitySlot) UseAbility() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.name
	s.name = ""
	return name, name != ""
}

func (s *AbilitySlot) ClearAbility() {
	s.SetAbility("")
}

// NopAbilityHolder never holds anything.
type NopAbilityHolder struct{}

func (NopAbilityHolder) Ability() (string, bool)    { return "", false }
func (NopAbilityHolder) SetAbility(string)          {}
func (NopAbilityHolder) UseAbility() (string, bool) { return "", false }
func (NopAbilityHolder) ClearAbility()              {}
