package pulsarbench

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/pkg/errors"
	"github.com/sanity-io/litter"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
)

// Reader is the part of pulsar.Reader used by Watch.
type Reader interface {
	HasNext() bool
	Next(ctx context.Context) (pulsar.Message, error)
}

// Watch prints every message on the topic to out. It returns once the reader has caught up with the topic or ctx
// is cancelled.
func Watch(ctx *benchcontext.Context, reader Reader, out io.Writer) error {
	var messages, sentinels int
	for reader.HasNext() {
		msg, err := reader.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "error reading from pulsar")
		}
		messages++
		sentinel := IsSentinel(msg.Payload())
		if sentinel {
			sentinels++
		}
		_, err = fmt.Fprintf(out, "Id: %s\nPublished: %s\nSize: %d\nSentinel: %t\nProperties: %s\n",
			msg.ID(), msg.PublishTime(), len(msg.Payload()), sentinel, litter.Sdump(msg.Properties()))
		if err != nil {
			return errors.WithStack(err)
		}
	}
	ctx.Log.Infof("Read %d messages including %d sentinels", messages, sentinels)
	return nil
}
