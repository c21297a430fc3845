// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query mem.pprof
//
// Tuning knobs are read from .env: ENTITY_COUNT, ITERS, ROUNDS.
package main

import (
	"os"
	"strconv"
	"time"

	"github.com/edwinsyarief/hakoniwa"
	"github.com/joho/godotenv"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
	W int64
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
	iters := envInt("ITERS", 1000)
	rounds := envInt("ROUNDS", 10)

	p := profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	defer p.Stop()

	start := time.Now()
	run(rounds, iters, entities)
	log.WithFields(logrus.Fields{
		"rounds":   rounds,
		"iters":    iters,
		"entities": entities,
		"elapsed":  time.Since(start).String(),
	}).Info("query sweep complete")
}

func run(rounds, iters, numEntities int) {
	for i := 0; i < rounds; i++ {
		w := hakoniwa.NewWorld(numEntities)
		batch := hakoniwa.NewBuilder2[comp1, comp2](w)
		batch.NewEntitiesWithValues(numEntities, comp1{}, comp2{V: 1, W: 1})
		hakoniwa.NewBuilder[comp3](w).NewEntities(numEntities / 10)

		query := hakoniwa.CreateQuery2[comp1, comp2](w)
		for j := 0; j < iters/2; j++ {
			query.Reset()
			for query.Next() {
				c1, c2 := query.Get()
				c1.V += c2.V
				c1.W += c2.W
			}
		}
		for j := 0; j < iters/2; j++ {
			hakoniwa.ParallelForEachChunk2(w, func(c1s []comp1, c2s []comp2) {
				for i := range c1s {
					c1s[i].V += c2s[i].V
					c1s[i].W += c2s[i].W
				}
			})
		}
	}
}
