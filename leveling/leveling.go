// Package leveling converts experience points into levels.
//
// Reaching level n+1 from level n costs n*100 XP, so every level is more
// expensive than the previous one. The remainder carries over.
package leveling

import (
	"errors"
	"fmt"
)

const costPerLevel = 100

var (
	ErrNegativeAmount  = errors.New("xp amount must not be negative")
	ErrInvalidProgress = errors.New("invalid user progress")
)

type UserProgress struct {
	Level int `json:"level"`
	Xp    int `json:"xp"`
}

func NewUserProgress() UserProgress {
	return UserProgress{Level: 1, Xp: 0}
}

// CostOf returns the XP needed to leave the given level.
func CostOf(level int) int {
	return level * costPerLevel
}

func (p UserProgress) Validate() error {
	if p.Level < 1 || p.Xp < 0 || p.Xp >= CostOf(p.Level) {
		return fmt.Errorf("%w: level=%d xp=%d", ErrInvalidProgress, p.Level, p.Xp)
	}
	return nil
}

// TotalXP is the XP accumulated since level 1, xp included.
func TotalXP(p UserProgress) int {
	total := p.Xp
	for i := 1; i < p.Level; i++ {
		total += CostOf(i)
	}
	return total
}

// AddXP adds amount to p and resolves every level-up it causes.
func AddXP(p UserProgress, amount int) (UserProgress, error) {
	if amount < 0 {
		return p, fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}

	p.Xp += amount
	for p.Xp >= CostOf(p.Level) {
		p.Xp -= CostOf(p.Level)
		p.Level++
	}
	return p, nil
}
