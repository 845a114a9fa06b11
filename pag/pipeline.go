package pag

import "context"

// Pipeline wires the five stages into the full construction graph described
// in spec §2: raw events → Peel → {LocalEdges → TrimLocal, RemoteEdges} →
// Merge → output. It exposes the TrimLocal and RemoteEdges stage handles so
// callers can call Flush and Stats respectively once the stream drains.
type Pipeline struct {
	Peel        *Peel
	LocalEdges  *LocalEdges
	TrimLocal   *TrimLocal
	RemoteEdges *RemoteEdges
	Merge       *Merge
}

// NewPipeline builds a Pipeline whose stages all share the given options.
// Pass WithPartitions to size RemoteEdges' join shards independently of the
// other stages' buffer sizes if needed.
func NewPipeline(opts ...Option) *Pipeline {
	return &Pipeline{
		Peel:        NewPeel(opts...),
		LocalEdges:  NewLocalEdges(opts...),
		TrimLocal:   NewTrimLocal(opts...),
		RemoteEdges: NewRemoteEdges(opts...),
		Merge:       NewMerge(),
	}
}

// Run drives raw events through every stage and returns the merged edge
// stream plus a single fan-in error channel. The error channel closes once
// all stage error channels have closed; a receive of a non-nil error on it
// means some stage hit a fatal assertion violation and that stage has
// already shut down.
func (p *Pipeline) Run(ctx context.Context, in <-chan Event) (<-chan PagEdge, <-chan error) {
	peeled, peelErrs := p.Peel.Run(ctx, in)

	peeledLocal := make(chan Event, cap(peeled))
	peeledRemote := make(chan Event, cap(peeled))
	go fanOutEvents(ctx, peeled, peeledLocal, peeledRemote)

	localRaw, localErrs := p.LocalEdges.Run(ctx, peeledLocal)
	trimmed, trimErrs := p.TrimLocal.Run(ctx, localRaw)
	remote, remoteErrs := p.RemoteEdges.Run(ctx, peeledRemote)

	merged := p.Merge.Run(ctx, trimmed, remote)

	errs := make(chan error, 4)
	go fanInErrors(errs, peelErrs, localErrs, trimErrs, remoteErrs)

	return merged, errs
}

func fanOutEvents(ctx context.Context, in <-chan Event, a, b chan<- Event) {
	defer close(a)
	defer close(b)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-in:
			if !ok {
				return
			}
			select {
			case a <- e:
			case <-ctx.Done():
				return
			}
			select {
			case b <- e:
			case <-ctx.Done():
				return
			}
		}
	}
}

func fanInErrors(out chan<- error, chans ...<-chan error) {
	defer close(out)
	remaining := len(chans)
	cases := make(chan error)
	for _, c := range chans {
		go func(c <-chan error) {
			for err := range c {
				cases <- err
			}
			cases <- nil
		}(c)
	}
	for remaining > 0 {
		err := <-cases
		if err == nil {
			remaining--
			continue
		}
		out <- err
	}
}
