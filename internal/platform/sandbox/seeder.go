// Package sandbox generates reproducible synthetic patient records for demos
// and local development.
package sandbox

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/ehr/recorder/internal/domain/patient"
)

var (
	firstNames = []string{
		"James", "Maria", "Robert", "Aisha", "Michael", "Priya", "David",
		"Elena", "Daniel", "Grace", "Thomas", "Yuki", "Samuel", "Fatima",
	}
	lastNames = []string{
		"Smith", "Johnson", "Garcia", "Patel", "Nguyen", "Kim", "Okafor",
		"Martinez", "Lee", "Brown", "Kowalski", "Haddad", "Rossi", "Clark",
	}
	cities = []string{
		"Boston, MA", "Austin, TX", "Denver, CO", "Seattle, WA", "Chicago, IL",
		"Atlanta, GA", "Portland, OR", "Phoenix, AZ", "Nashville, TN",
	}
	emailDomains = []string{"example.com", "example.org", "mail.test"}
)

// Generator produces valid patient.Input values. The same seed and clock
// always yield the same sequence.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
	n   int
}

func NewGenerator(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// Patient returns the next synthetic record. Diagnosis dates fall within the
// five years before the generator's clock.
func (g *Generator) Patient() patient.Input {
	g.n++
	first, last := g.pick(firstNames), g.pick(lastNames)
	age := patient.MinAge + g.rng.Intn(90-patient.MinAge)
	weight := 45 + g.rng.Float64()*75
	stage := patient.Stages[g.rng.Intn(len(patient.Stages))]
	diagnosed := g.now().AddDate(0, 0, -g.rng.Intn(5*365))

	return patient.Input{
		Name:          first + " " + last,
		Email:         fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), g.n, g.pick(emailDomains)),
		Age:           strconv.Itoa(age),
		Weight:        strconv.FormatFloat(float64(int(weight*10))/10, 'f', -1, 64),
		Location:      g.pick(cities),
		Stage:         string(stage),
		DateDiagnosed: diagnosed.Format(patient.DateLayout),
	}
}

// Patients returns count records.
func (g *Generator) Patients(count int) []patient.Input {
	out := make([]patient.Input, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, g.Patient())
	}
	return out
}
