// Command demo exercises two in-process hashseq Replicas exchanging
// HashNodes over a deliberately unreliable channel, and logs what each side
// sees as it converges. It is a driver program, not part of the library's
// public surface.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"aggregat4.net/hashseq/hashseq"
)

func main() {
	app := &cli.App{
		Name:  "hashseq-demo",
		Usage: "simulate two replicas editing text and converging over a flaky channel",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "drop-rate", Value: 0.3, Usage: "fraction of delivery attempts dropped"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug-level logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := zerolog.InfoLevel
	if c.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	dropRate := c.Float64("drop-rate")

	alice := newParticipant("alice", log)
	bob := newParticipant("bob", log)

	for i, ch := range "Hello" {
		node, err := alice.replica.Insert(i, ch)
		if err != nil {
			return fmt.Errorf("alice insert: %w", err)
		}
		alice.log.Debug().Str("id", node.ID().String()).Msg("authored insert")
	}
	for _, ch := range " world" {
		node, err := bob.replica.Insert(bob.replica.Len(), ch)
		if err != nil {
			return fmt.Errorf("bob insert: %w", err)
		}
		bob.log.Debug().Str("id", node.ID().String()).Msg("authored insert")
	}

	log.Info().Str("alice", alice.replica.Text()).Str("bob", bob.replica.Text()).Msg("before gossip")

	deliverFlaky(log, dropRate, alice, bob)
	deliverFlaky(log, dropRate, bob, alice)

	log.Info().Str("alice", alice.replica.Text()).Str("bob", bob.replica.Text()).Msg("after gossip")

	if pos := alice.replica.Len() - 1; pos >= 0 {
		node, err := alice.replica.Remove(pos)
		if err != nil {
			return fmt.Errorf("alice remove: %w", err)
		}
		alice.log.Debug().Str("id", node.ID().String()).Msg("authored remove")
	}

	deliverFlaky(log, dropRate, alice, bob)

	log.Info().Str("alice", alice.replica.Text()).Str("bob", bob.replica.Text()).Msg("after delete propagates")

	if alice.replica.Text() != bob.replica.Text() {
		return fmt.Errorf("replicas failed to converge: %q vs %q", alice.replica.Text(), bob.replica.Text())
	}
	log.Info().Msg("replicas converged")
	return nil
}

// participant wraps a Replica with a session label and a logger scoped to
// it, constructed per instance rather than reaching for a global one.
type participant struct {
	id      uuid.UUID
	replica *hashseq.Replica
	log     zerolog.Logger
	outbox  <-chan hashseq.HashNode
}

func newParticipant(name string, base zerolog.Logger) *participant {
	r := hashseq.New()
	id := uuid.New()
	return &participant{
		id:      id,
		replica: r,
		log:     base.With().Str("participant", name).Str("session", id.String()).Logger(),
		outbox:  r.Listen(64),
	}
}

// deliverFlaky drains from's outbox into to, retrying each delivery against
// a simulated flaky transport via an exponential backoff, the way a real
// gossip link might need to retry a dropped datagram.
func deliverFlaky(log zerolog.Logger, dropRate float64, from, to *participant) {
	for {
		var node hashseq.HashNode
		select {
		case n, ok := <-from.outbox:
			if !ok {
				return
			}
			node = n
		default:
			return
		}

		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Microsecond
		b.MaxElapsedTime = time.Millisecond

		err := backoff.Retry(func() error {
			if rand.Float64() < dropRate {
				return fmt.Errorf("simulated drop delivering %s", node.ID())
			}
			return to.replica.Apply(node)
		}, b)

		if err != nil {
			log.Warn().Str("id", node.ID().String()).Err(err).Msg("delivery abandoned")
			continue
		}
		log.Debug().Str("from", from.id.String()).Str("to", to.id.String()).Str("id", node.ID().String()).Msg("delivered")
	}
}
