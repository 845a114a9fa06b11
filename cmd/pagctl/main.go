// Command pagctl replays a recorded dataflow event trace through the PAG
// construction pipeline and writes the resulting edges as JSON lines.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/li1/pagstream/archive"
	"github.com/li1/pagstream/emit"
	"github.com/li1/pagstream/pag"
	"github.com/li1/pagstream/transport"
)

func main() {
	app := cli.NewApp()
	app.Name = "pagctl"
	app.Usage = "replay a dataflow event trace into a Program Activity Graph"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "source-peers", Value: 1, Usage: "number of replay sources (file or TCP connections)"},
		cli.StringFlag{Name: "mode", Value: "file", Usage: "replay mode: file or tcp"},
		cli.StringFlag{Name: "dir", Value: ".", Usage: "directory containing <peer>.dump files (file mode)"},
		cli.StringFlag{Name: "endpoint", Value: transport.DefaultTCPEndpoint, Usage: "TCP endpoint to listen on (tcp mode)"},
		cli.StringFlag{Name: "out", Value: "", Usage: "output file for JSON-lines edges (default stdout)"},
		cli.IntFlag{Name: "partitions", Value: 1, Usage: "RemoteEdges join shard count"},
		cli.BoolFlag{Name: "trace", Usage: "emit every ingested event and produced edge as a trace log line"},
		cli.BoolFlag{Name: "otel", Usage: "export pipeline telemetry as OpenTelemetry spans instead of log lines"},
		cli.BoolFlag{Name: "flush-pending", Usage: "flush TrimLocal's last pending edge per worker at shutdown"},
		cli.StringFlag{Name: "archive-sqlite", Value: "", Usage: "path to a SQLite database to archive edges into"},
		cli.StringFlag{Name: "archive-mysql", Value: "", Usage: "DSN of a MySQL database to archive edges into"},
		cli.BoolFlag{Name: "metrics", Usage: "register Prometheus metrics for this run"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("pagctl failed")
	}
}

func run(c *cli.Context) error {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	runID := uuid.NewString()
	log := logrus.WithField("run_id", runID)

	sink, err := buildSink(c)
	if err != nil {
		return err
	}
	defer sink.Close()

	out, err := buildOutput(c)
	if err != nil {
		return err
	}
	defer out.Close()

	if c.Bool("otel") {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.WithError(err).Warn("tracer provider shutdown failed")
			}
		}()
	}

	emitter := buildEmitter(c, log)
	var metrics *pag.Metrics
	if c.Bool("metrics") {
		metrics = pag.NewMetrics(prometheus.NewRegistry())
	}

	opts := []pag.Option{pag.WithEmitter(emitter), pag.WithPartitions(c.Int("partitions"))}
	if metrics != nil {
		opts = append(opts, pag.WithMetrics(metrics))
	}
	pipeline := pag.NewPipeline(opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events, sourceErrs := makeSource(c, ctx)

	if c.Bool("trace") {
		events = tapEvents(events, emitter)
	}

	log.Info("starting replay")
	edges, pipelineErrs := pipeline.Run(ctx, events)

	writer := bufio.NewWriter(out)
	defer writer.Flush()

	var batch []pag.PagEdge
	for edges != nil || pipelineErrs != nil || sourceErrs != nil {
		select {
		case e, ok := <-edges:
			if !ok {
				edges = nil
				continue
			}
			if c.Bool("trace") {
				meta := map[string]interface{}{}
				if line, err := transport.EncodeEdge(e); err == nil {
					meta["edge"] = string(line)
				}
				emitter.Emit(emit.Event{Stage: "driver", WorkerID: int(e.Src.Wid), Msg: "trace", Meta: meta})
			}
			if err := writeEdge(writer, e); err != nil {
				return err
			}
			batch = append(batch, e)
			if len(batch) >= 256 {
				if err := sink.Write(ctx, runID, batch); err != nil {
					log.WithError(err).Warn("archive write failed")
				}
				batch = batch[:0]
			}

		case err, ok := <-pipelineErrs:
			if !ok {
				pipelineErrs = nil
				continue
			}
			if err != nil {
				log.WithError(err).Error("pipeline assertion failure")
				cancel()
			}

		case err, ok := <-sourceErrs:
			if !ok {
				sourceErrs = nil
				continue
			}
			if err != nil {
				log.WithError(err).Warn("replay source error")
			}
		}
	}

	if len(batch) > 0 {
		if err := sink.Write(ctx, runID, batch); err != nil {
			log.WithError(err).Warn("archive write failed")
		}
	}

	if c.Bool("flush-pending") {
		<-pipeline.TrimLocal.Done()
		for _, e := range pipeline.TrimLocal.Flush() {
			if err := writeEdge(writer, e); err != nil {
				return err
			}
		}
	}

	log.Info("replay complete")
	return nil
}

func writeEdge(w *bufio.Writer, e pag.PagEdge) error {
	line, err := transport.EncodeEdge(e)
	if err != nil {
		return fmt.Errorf("encode edge: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s,\n", line)
	return err
}

func makeSource(c *cli.Context, ctx context.Context) (<-chan pag.Event, <-chan error) {
	peers := c.Int("source-peers")
	switch c.String("mode") {
	case "tcp":
		src := transport.NewTCPSource(c.String("endpoint"), peers)
		return src.Run(ctx)
	default:
		src := transport.NewFileSource(c.String("dir"), peers)
		return src.Run(ctx)
	}
}

func tapEvents(in <-chan pag.Event, emitter emit.Emitter) <-chan pag.Event {
	out := make(chan pag.Event, 256)
	go func() {
		defer close(out)
		for e := range in {
			meta := map[string]interface{}{}
			if line, err := transport.EncodeEvent(e); err == nil {
				meta["event"] = string(line)
			}
			emitter.Emit(emit.Event{Stage: "driver", WorkerID: int(e.Wid), Msg: "trace", Meta: meta})
			out <- e
		}
	}()
	return out
}

func buildEmitter(c *cli.Context, log *logrus.Entry) emit.Emitter {
	if c.Bool("otel") {
		return emit.NewOTelEmitter(otel.Tracer("pagctl"))
	}
	if c.Bool("trace") {
		return emit.NewLogEmitter(os.Stderr, false)
	}
	return emit.NewNullEmitter()
}

// nopCloser wraps stdout so the driver can always defer Close without
// shutting the process's real stdout down early.
type nopCloser struct{ *os.File }

func (nopCloser) Close() error { return nil }

func buildOutput(c *cli.Context) (interface {
	io.Writer
	io.Closer
}, error) {
	path := c.String("out")
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

func buildSink(c *cli.Context) (archive.Sink, error) {
	switch {
	case c.String("archive-sqlite") != "":
		return archive.NewSQLiteSink(c.String("archive-sqlite"))
	case c.String("archive-mysql") != "":
		return archive.NewMySQLSink(c.String("archive-mysql"))
	default:
		return archive.NewNullSink(), nil
	}
}
