package transport

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/li1/pagstream/pag"
)

// FileSource replays sourcePeers newline-delimited-JSON dump files, one per
// worker, named "<index>.dump" under dir — mirroring the source runtime's
// own per-peer file naming, with this project's JSON framing instead of its
// proprietary binary one.
type FileSource struct {
	Dir         string
	SourcePeers int
}

// NewFileSource constructs a FileSource.
func NewFileSource(dir string, sourcePeers int) *FileSource {
	return &FileSource{Dir: dir, SourcePeers: sourcePeers}
}

// Run opens every peer's dump file and merges their decoded events onto a
// single channel. Each file is read by its own goroutine so that one slow
// or large peer file does not stall the others; downstream consumers must
// not assume any interleaving guarantee across peers (spec §5: "across
// workers, no global ordering").
func (f *FileSource) Run(ctx context.Context) (<-chan pag.Event, <-chan error) {
	out := make(chan pag.Event, 256)
	errs := make(chan error, f.SourcePeers)

	var wg sync.WaitGroup
	for i := 0; i < f.SourcePeers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := f.replayFile(ctx, idx, out); err != nil {
				select {
				case errs <- err:
				default:
				}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(out)
		close(errs)
	}()

	return out, errs
}

func (f *FileSource) replayFile(ctx context.Context, idx int, out chan<- pag.Event) error {
	path := fmt.Sprintf("%s/%d.dump", f.Dir, idx)
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open replay file %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := decodeLine(line)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		select {
		case out <- event:
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}
