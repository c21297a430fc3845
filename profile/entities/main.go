// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities cpu.pprof
//
// Tuning knobs are read from .env: ENTITY_COUNT, ROUNDS.
package main

import (
	"os"
	"strconv"

	"github.com/edwinsyarief/hakoniwa"
	"github.com/joho/godotenv"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
)

type position struct {
	X, Y float32
}

type velocity struct {
	X, Y float32
}

type health struct {
	Current, Max int
}

var log = logrus.New()

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file, using defaults")
	}
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.WithField("key", key).Warn("ignoring malformed env value")
	}
	return def
}

func main() {
	entities := envInt("ENTITY_COUNT", 100000)
	rounds := envInt("ROUNDS", 50)

	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	defer p.Stop()

	var stats hakoniwa.MemoryStats
	for i := 0; i < rounds; i++ {
		stats = run(entities)
	}

	log.WithFields(logrus.Fields{
		"rounds":          rounds,
		"entities":        stats.Entities,
		"archetypes":      stats.Archetypes,
		"component_bytes": stats.ComponentBytes,
		"metadata_bytes":  stats.MetadataBytes,
	}).Info("entity churn complete")
}

// run exercises the creation, migration, and destruction paths.
func run(numEntities int) hakoniwa.MemoryStats {
	w := hakoniwa.NewWorld(numEntities)
	batch := hakoniwa.NewBuilder2[position, velocity](w)
	ents := batch.NewEntitiesWithValues(numEntities, position{}, velocity{X: 1, Y: 1})

	// Migrate half the entities through an add/remove cycle.
	for i := 0; i < len(ents); i += 2 {
		hakoniwa.SetComponent(w, ents[i], health{Current: 100, Max: 100})
	}
	for i := 0; i < len(ents); i += 2 {
		hakoniwa.RemoveComponent[health](w, ents[i])
	}

	w.RemoveEntities(ents[:numEntities/2])
	return w.MemoryUsage()
}
