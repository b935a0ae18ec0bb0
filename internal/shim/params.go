package shim

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tlsinterop/tlsinterop/internal/model"
)

const (
	// ClientGreeting is the first message sent by the client.
	ClientGreeting = "i am the client. nice to meet you server."

	// ServerGreeting is the reply sent by the server.
	ServerGreeting = "i am the server. a pleasure to make your acquaintance."

	// DefaultGigabytes is the default volume of the large data download.
	DefaultGigabytes = 256

	// DefaultChunkSize is the size of each chunk of the large data download.
	DefaultChunkSize = 1_000_000

	// DefaultChunksPerGigabyte is the number of chunks in a gigabyte.
	DefaultChunksPerGigabyte = 1_000

	// GigabytesEnv overrides [DefaultGigabytes].
	GigabytesEnv = "TLSINTEROP_LARGE_DATA_GB"

	// ProgressEvery is how often (in gigabytes) we log the download progress.
	ProgressEvery = 10
)

// Params contains the parameters of the application exchange. Both peers
// must use the same values.
type Params struct {
	// Gigabytes is the volume of the large data download.
	Gigabytes int

	// ChunkSize is the size of each chunk.
	ChunkSize int

	// ChunksPerGigabyte is the number of chunks in each gigabyte.
	ChunksPerGigabyte int

	// Logger is the OPTIONAL logger.
	Logger model.Logger
}

// NewParams returns the default [Params], honouring [GigabytesEnv].
func NewParams(logger model.Logger) (*Params, error) {
	params := &Params{
		Gigabytes:         DefaultGigabytes,
		ChunkSize:         DefaultChunkSize,
		ChunksPerGigabyte: DefaultChunksPerGigabyte,
		Logger:            logger,
	}
	if value := os.Getenv(GigabytesEnv); value != "" {
		gb, err := strconv.Atoi(value)
		if err != nil || gb < 1 {
			return nil, fmt.Errorf("invalid %s value: %q", GigabytesEnv, value)
		}
		params.Gigabytes = gb
	}
	return params, nil
}

func (p *Params) logger() model.Logger {
	return model.ValidLoggerOrDefault(p.Logger)
}

// ChunkTag returns the tag of the chunk with the given global index.
func ChunkTag(index, chunksPerGigabyte int) byte {
	return GigabyteTag(index / chunksPerGigabyte)
}

// GigabyteTag returns the tag of all the chunks of the given gigabyte.
func GigabyteTag(gigabyte int) byte {
	return byte(gigabyte % 256)
}
