package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	pkgerrors "github.com/obsops/fleetbrief/internal/errors"
)

const (
	reportsDirPerm  = 0o700
	reportFilePerm  = 0o600
	reportTimeStamp = "20060102_150405"
)

// FileChannel persists digests to a reports directory. It is the durable
// fallback: a report written here counts as delivered for exit purposes.
type FileChannel struct {
	dir string
}

func NewFileChannel(dir string) *FileChannel {
	return &FileChannel{dir: dir}
}

func (c *FileChannel) Name() string { return "file" }

// Deliver writes the digest to a timestamped file containing exactly the
// rendered text.
func (c *FileChannel) Deliver(_ context.Context, d Delivery) error {
	if c.dir == "" {
		return pkgerrors.WrapDeliveryError("write_report", c.Name(), fmt.Errorf("reports directory not configured"))
	}

	if err := os.MkdirAll(c.dir, reportsDirPerm); err != nil {
		return pkgerrors.WrapDeliveryError("write_report", c.Name(), fmt.Errorf("create reports directory: %w", err))
	}

	path := c.PathFor(d)
	if err := os.WriteFile(path, []byte(d.Body), reportFilePerm); err != nil {
		return pkgerrors.WrapDeliveryError("write_report", c.Name(), fmt.Errorf("write %s: %w", path, err))
	}

	log.Info().Str("path", path).Msg("Report written to file")
	return nil
}

// PathFor returns the file path a delivery would be written to.
func (c *FileChannel) PathFor(d Delivery) string {
	name := fmt.Sprintf("report_%s.txt", d.Timestamp.Format(reportTimeStamp))
	return filepath.Join(c.dir, name)
}
