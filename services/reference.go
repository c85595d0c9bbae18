package services

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// ReferenceGenerator builds human-readable booking codes of the form
// BK-{year}-{last 4 digits of epoch millis}{2 random digits}.
// Codes are short, not unique; the bookings table enforces uniqueness.
type ReferenceGenerator struct {
	now  func() time.Time
	intn func(n int) int
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{now: time.Now, intn: rand.IntN}
}

func NewReferenceGeneratorWith(now func() time.Time, intn func(n int) int) *ReferenceGenerator {
	return &ReferenceGenerator{now: now, intn: intn}
}

func (g *ReferenceGenerator) Generate() string {
	now := g.now()
	return fmt.Sprintf("BK-%04d-%04d%02d", now.Year(), now.UnixMilli()%10000, g.intn(100))
}
