// Package transfer moves image data between a source and a destination
// stream, one chunk at a time. It is the generic upload/download loop that
// sits above the stream adapters in pkg/transferio.
package transfer

import (
	"context"

	"github.com/sirupsen/logrus"

	"datastore-transfer/pkg/transferio"
)

// Pump copies Src into Dst until Src reports end of stream.
type Pump struct {
	Src transferio.ReadStream
	Dst transferio.WriteStream
	Log logrus.FieldLogger
}

// Run executes the transfer and returns the number of bytes moved. The
// source's EOF marker is set when it drains cleanly. Transport errors stop
// the transfer and propagate; closing the streams stays with their owner.
func (p *Pump) Run(ctx context.Context) (int64, error) {
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		chunk, err := p.Src.ReadChunk(transferio.ReadChunkSize)
		if err != nil {
			return written, err
		}
		if len(chunk) == 0 {
			p.Src.SetEOF(true)
			log.WithField("bytes", written).Debug("transfer drained source")
			return written, nil
		}
		n, err := p.Dst.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
}

// UploadImage drains an image-service chunk iterator into a datastore file
// of the declared size. Both ends are closed before it returns.
func UploadImage(ctx context.Context, chunks transferio.ChunkIterator, params transferio.DatastoreParams, fileSize int64, log logrus.FieldLogger) (int64, error) {
	src := transferio.NewChunkReader(chunks)
	defer src.Close()

	dst, err := transferio.NewDatastoreWriteStream(ctx, params, fileSize, log)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	return (&Pump{Src: src, Dst: dst, Log: log}).Run(ctx)
}

// DownloadImage copies a datastore file into dst. The read stream is
// closed before it returns; dst stays open for its owner.
func DownloadImage(ctx context.Context, params transferio.DatastoreParams, dst transferio.WriteStream, log logrus.FieldLogger) (int64, error) {
	src, err := transferio.NewDatastoreReadStream(ctx, params, log)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	return (&Pump{Src: src, Dst: dst, Log: log}).Run(ctx)
}
