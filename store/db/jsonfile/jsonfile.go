// Package jsonfile persists boards as plain JSON documents under the data
// directory:
//
//	<data>/settings.json
//	<data>/boards/<id>/board.json
//	<data>/boards/<id>/nodes.json
//	<data>/boards/<id>/summaries.json
//
// Documents are written atomically (temp file in the same directory, then
// rename) so a crash mid-write never leaves a half-written board behind.
package jsonfile

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"

	"github.com/ramify-app/ramify/internal/profile"
	"github.com/ramify-app/ramify/store"
)

const (
	boardsDirName     = "boards"
	boardFileName     = "board.json"
	nodesFileName     = "nodes.json"
	summariesFileName = "summaries.json"
	settingsFileName  = "settings.json"
)

// Driver stores board documents as JSON files.
type Driver struct {
	profile *profile.Profile
}

var _ store.Driver = (*Driver)(nil)

// NewDriver prepares the data directory layout.
func NewDriver(profile *profile.Profile) (*Driver, error) {
	if err := os.MkdirAll(filepath.Join(profile.Data, boardsDirName), 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create boards directory")
	}
	return &Driver{profile: profile}, nil
}

func (d *Driver) boardsDir() string {
	return filepath.Join(d.profile.Data, boardsDirName)
}

func (d *Driver) boardDir(boardID string) string {
	return filepath.Join(d.boardsDir(), boardID)
}

// ListBoards reads every board descriptor. Directories without a readable
// board.json are skipped with a warning rather than failing the whole
// listing. Results are ordered most recently updated first.
func (d *Driver) ListBoards(ctx context.Context) ([]*store.Board, error) {
	entries, err := os.ReadDir(d.boardsDir())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read boards directory")
	}
	boards := []*store.Board{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		board := &store.Board{}
		path := filepath.Join(d.boardDir(entry.Name()), boardFileName)
		if err := readJSON(path, board); err != nil {
			slog.Warn("skipping unreadable board", "dir", entry.Name(), "error", err)
			continue
		}
		boards = append(boards, board)
	}
	slices.SortFunc(boards, func(a, b *store.Board) int {
		if a.UpdatedTs != b.UpdatedTs {
			if a.UpdatedTs > b.UpdatedTs {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return boards, nil
}

// LoadBoard reads the full document set of one board. A missing summaries
// file is an empty history, not an error.
func (d *Driver) LoadBoard(ctx context.Context, boardID string) (*store.BoardDocuments, error) {
	dir := d.boardDir(boardID)
	docs := &store.BoardDocuments{Board: &store.Board{}}

	if err := readJSON(filepath.Join(dir, boardFileName), docs.Board); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrapf(store.ErrBoardNotFound, "board %s", boardID)
		}
		return nil, errors.Wrapf(err, "failed to read board %s", boardID)
	}
	if err := readJSON(filepath.Join(dir, nodesFileName), &docs.Nodes); err != nil {
		return nil, errors.Wrapf(err, "failed to read nodes of board %s", boardID)
	}
	if err := readJSON(filepath.Join(dir, summariesFileName), &docs.Summaries); err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrapf(err, "failed to read summaries of board %s", boardID)
		}
		docs.Summaries = []*store.Summary{}
	}
	return docs, nil
}

// SaveBoard writes the full document set, each file atomically.
func (d *Driver) SaveBoard(ctx context.Context, docs *store.BoardDocuments) error {
	if docs == nil || docs.Board == nil || docs.Board.ID == "" {
		return errors.New("cannot save a board without an id")
	}
	dir := d.boardDir(docs.Board.ID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "failed to create board directory %s", dir)
	}

	nodes := docs.Nodes
	if nodes == nil {
		nodes = []*store.Node{}
	}
	summaries := docs.Summaries
	if summaries == nil {
		summaries = []*store.Summary{}
	}

	if err := writeJSONAtomic(filepath.Join(dir, boardFileName), docs.Board); err != nil {
		return err
	}
	if err := writeJSONAtomic(filepath.Join(dir, nodesFileName), nodes); err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(dir, summariesFileName), summaries)
}

// DeleteBoard removes the board's directory.
func (d *Driver) DeleteBoard(ctx context.Context, boardID string) error {
	dir := d.boardDir(boardID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(store.ErrBoardNotFound, "board %s", boardID)
		}
		return errors.Wrapf(err, "failed to access board %s", boardID)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "failed to delete board %s", boardID)
	}
	return nil
}

// LoadSettings reads the settings document. No file yet means no settings,
// and a corrupt file is treated the same after a warning, so the caller
// falls back to defaults instead of wedging startup.
func (d *Driver) LoadSettings(ctx context.Context) (*store.Settings, error) {
	path := filepath.Join(d.profile.Data, settingsFileName)
	settings := &store.Settings{}
	if err := readJSON(path, settings); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, nil
		}
		slog.Warn("settings file is unreadable, falling back to defaults", "path", path, "error", err)
		return nil, nil
	}
	return settings, nil
}

// SaveSettings writes the settings document atomically.
func (d *Driver) SaveSettings(ctx context.Context, settings *store.Settings) error {
	return writeJSONAtomic(filepath.Join(d.profile.Data, settingsFileName), settings)
}

func (d *Driver) Close() error {
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to decode %s", path)
	}
	return nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to close temp file for %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
