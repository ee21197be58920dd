package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
	"github.com/saramaebee/devrev-mcp/pkg/logger"
)

// Fetcher is the slice of the API client the downloader consumes
type Fetcher interface {
	GetArtifact(ctx context.Context, id string) (*devrev.Artifact, error)
	LocateArtifact(ctx context.Context, id string) (*devrev.ArtifactLocateResponse, error)
	FetchURL(ctx context.Context, url string) (io.ReadCloser, error)
}

// Result describes a completed download
type Result struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type,omitempty"`
}

// Downloader streams artifact content to disk. Writes go to a
// temporary file in the target directory and are renamed into place
// only after the stream completes, so a failed download never leaves a
// partial file at the destination path.
type Downloader struct {
	fetcher Fetcher
}

// NewDownloader creates a downloader backed by the given API client
func NewDownloader(fetcher Fetcher) *Downloader {
	return &Downloader{fetcher: fetcher}
}

// Download resolves the artifact's download URL and saves its content
// under dir. When filename is empty the artifact's own file name is
// used.
func (d *Downloader) Download(ctx context.Context, artifactID, dir, filename string) (*Result, error) {
	normalized, err := core.NormalizeArtifactID(artifactID)
	if err != nil {
		return nil, err
	}

	meta, url, err := d.resolve(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if filename == "" {
		filename = meta.FileName()
	}
	if filename == "" {
		filename = core.TailID(normalized)
	}
	filename = filepath.Base(filename)

	result, err := d.save(ctx, url, dir, filename)
	if err != nil {
		return nil, err
	}
	if meta.File != nil {
		result.MimeType = meta.File.MimeType
	}

	logger.Info("artifact downloaded",
		"artifact_id", normalized,
		"path", result.Path,
		"size", result.Size,
	)
	return result, nil
}

// resolve fetches artifact metadata and finds a usable download URL,
// falling back to artifacts.locate when the metadata carries none.
func (d *Downloader) resolve(ctx context.Context, id string) (*devrev.Artifact, string, error) {
	meta, err := d.fetcher.GetArtifact(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if url := meta.ResolveDownloadURL(); url != "" {
		return meta, url, nil
	}

	located, err := d.fetcher.LocateArtifact(ctx, id)
	if err == nil {
		if located.URL != "" {
			return meta, located.URL, nil
		}
		if url := located.Artifact.ResolveDownloadURL(); url != "" {
			return meta, url, nil
		}
	}

	return nil, "", core.NewError(
		fmt.Errorf("artifact %s has no download URL", id),
		core.ErrorCodeDownloadFailed,
		map[string]any{"artifact_id": id},
	)
}

// save streams url into dir/filename atomically
func (d *Downloader) save(ctx context.Context, url, dir, filename string) (*Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, core.NewError(
			fmt.Errorf("failed to create download directory: %w", err),
			core.ErrorCodeDownloadFailed,
			map[string]any{"dir": dir},
		)
	}

	body, err := d.fetcher.FetchURL(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(dir, "."+filename+".partial-*")
	if err != nil {
		return nil, core.NewError(
			fmt.Errorf("failed to create temporary file: %w", err),
			core.ErrorCodeDownloadFailed,
			map[string]any{"dir": dir},
		)
	}
	tmpPath := tmp.Name()

	size, err := io.Copy(tmp, body)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, core.NewError(
			fmt.Errorf("failed to write artifact content: %w", err),
			core.ErrorCodeDownloadFailed,
			map[string]any{"path": tmpPath},
		)
	}

	// An empty stream means the presigned URL handed us nothing; a
	// zero-byte file at the destination would look like a finished
	// download.
	if size == 0 {
		os.Remove(tmpPath)
		return nil, core.NewError(
			fmt.Errorf("artifact stream was empty"),
			core.ErrorCodeDownloadFailed,
			map[string]any{"url": url},
		)
	}

	finalPath := filepath.Join(dir, filename)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, core.NewError(
			fmt.Errorf("failed to move artifact into place: %w", err),
			core.ErrorCodeDownloadFailed,
			map[string]any{"path": finalPath},
		)
	}

	return &Result{Path: finalPath, Filename: filename, Size: size}, nil
}
