package exporter

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/stravamark/stravamark/internal/common"
	"github.com/stravamark/stravamark/internal/models"
)

// Exporter writes activities as Markdown files under an output directory,
// with downloaded photos in a media/ subdirectory.
type Exporter struct {
	outputDir  string
	mediaDir   string
	logger     *common.Logger
	httpClient *http.Client
}

// Option configures the exporter
type Option func(*Exporter)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used for photo downloads
func WithHTTPClient(client *http.Client) Option {
	return func(e *Exporter) {
		e.httpClient = client
	}
}

// New creates an exporter rooted at outputDir.
func New(outputDir string, opts ...Option) *Exporter {
	e := &Exporter{
		outputDir: outputDir,
		mediaDir:  filepath.Join(outputDir, "media"),
		logger:    common.NewSilentLogger(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// OutputDir returns the output directory root.
func (e *Exporter) OutputDir() string {
	return e.outputDir
}

// SetupDirectories creates the output directories if they don't exist.
func (e *Exporter) SetupDirectories() error {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.MkdirAll(e.mediaDir, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	return nil
}

// ActivityPath returns the Markdown file path for an activity.
func (e *Exporter) ActivityPath(a *models.Activity) string {
	return filepath.Join(e.outputDir, a.Filename())
}

// Exists reports whether an activity file is already present.
func (e *Exporter) Exists(a *models.Activity) bool {
	_, err := os.Stat(e.ActivityPath(a))
	return err == nil
}

// Export writes a single activity to Markdown. It returns the written path,
// or "" when the file already exists and force is false.
func (e *Exporter) Export(a *models.Activity, force, downloadPhoto bool) (string, error) {
	path := e.ActivityPath(a)

	if !force && e.Exists(a) {
		return "", nil
	}

	if err := e.SetupDirectories(); err != nil {
		return "", err
	}

	if downloadPhoto && a.PhotoURL != "" {
		e.downloadPhoto(a)
	}

	content := GenerateMarkdown(a)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write activity file: %w", err)
	}

	e.logger.Debug().Str("path", path).Int64("id", a.ID).Msg("Activity exported")
	return path, nil
}

// downloadPhoto fetches the primary photo into the media directory. Photo
// failures never fail the export.
func (e *Exporter) downloadPhoto(a *models.Activity) {
	photoPath := filepath.Join(e.mediaDir, fmt.Sprintf("%d_photo.jpg", a.ID))

	if _, err := os.Stat(photoPath); err == nil {
		return // already downloaded
	}

	resp, err := e.httpClient.Get(a.PhotoURL)
	if err != nil {
		e.logger.Debug().Err(err).Int64("id", a.ID).Msg("Photo download failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Debug().Int("status", resp.StatusCode).Int64("id", a.ID).Msg("Photo download failed")
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.logger.Debug().Err(err).Int64("id", a.ID).Msg("Photo read failed")
		return
	}

	if err := os.WriteFile(photoPath, data, 0o644); err != nil {
		e.logger.Debug().Err(err).Int64("id", a.ID).Msg("Photo write failed")
	}
}
