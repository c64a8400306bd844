package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/thisisjab/usersearch/entity"
)

type FileSchemaSourceConfig struct {
	Path  string `yaml:"path" validate:"required"`
	Watch bool   `yaml:"watch"`
}

// FileSchemaSource reads table definitions from a YAML file and, when
// watching, reloads them whenever the file is written or replaced.
type FileSchemaSource struct {
	cfg    FileSchemaSourceConfig
	logger *slog.Logger
}

// NewFileSchemaSource creates a new FileSchemaSource instance.
func NewFileSchemaSource(logger *slog.Logger, cfg FileSchemaSourceConfig) *FileSchemaSource {
	cfg.Path = filepath.Clean(cfg.Path)
	return &FileSchemaSource{
		cfg:    cfg,
		logger: logger,
	}
}

func (f *FileSchemaSource) Name() string {
	return "file:" + f.cfg.Path
}

// Load reads and validates the schema file once.
func (f *FileSchemaSource) Load() ([]entity.Table, error) {
	data, err := os.ReadFile(f.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot read schema file: %w", err)
	}
	return ParseSchema(data)
}

// Provide sends the current schema to tablesChan and then, if watching, a new
// schema after every change to the file. An invalid change is logged and
// skipped so the previous schema stays in effect.
func (f *FileSchemaSource) Provide(ctx context.Context, tablesChan chan<- []entity.Table) error {
	tables, err := f.Load()
	if err != nil {
		return err
	}

	select {
	case tablesChan <- tables:
	case <-ctx.Done():
		return ctx.Err()
	}

	if !f.cfg.Watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors and config management
	// tools replace files by rename, which a watch on the old inode never sees.
	if err := watcher.Add(filepath.Dir(f.cfg.Path)); err != nil {
		return fmt.Errorf("cannot add schema directory to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				f.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}
			if filepath.Clean(event.Name) != f.cfg.Path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			tables, err := f.Load()
			if err != nil {
				f.logger.Error("cannot reload schema, keeping previous one.", "path", f.cfg.Path, "error", err)
				continue
			}

			f.logger.Info("schema reloaded.", "path", f.cfg.Path, "tables", len(tables))

			select {
			case tablesChan <- tables:
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
