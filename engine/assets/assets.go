package assets

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/vkcube/engine/core"
)

type ResourceType int

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeShader
	ResourceTypeImage
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	default:
		return "none"
	}
}

// AssetChange reports that a tracked file was created or rewritten on disk.
type AssetChange struct {
	Path string
	Type ResourceType
}

const changeBufferSize = 16

/**
 * @brief Watches the directories of a fixed set of asset files and reports
 * changes to those files. Changes to untracked files are ignored.
 */
type AssetManager struct {
	tracked map[string]ResourceType
	dirs    map[string]struct{}
	mutex   sync.RWMutex

	fsnotify  *fsnotify.Watcher
	changes   chan AssetChange
	done      chan struct{}
	wg        sync.WaitGroup
	started   bool
	closeOnce sync.Once
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating asset watcher")
	}
	return &AssetManager{
		tracked:  make(map[string]ResourceType),
		dirs:     make(map[string]struct{}),
		fsnotify: fsWatch,
		changes:  make(chan AssetChange, changeBufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Track registers files whose changes should be reported. The containing
// directory is watched so editors that replace files by rename are seen.
func (am *AssetManager) Track(paths ...string) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.Wrapf(err, "resolving %s", p)
		}
		assetType := DetermineAssetType(abs)
		if assetType == ResourceTypeNone {
			return errors.Newf("unsupported asset type: %s", p)
		}
		am.tracked[abs] = assetType

		dir := filepath.Dir(abs)
		if _, ok := am.dirs[dir]; ok {
			continue
		}
		if err := am.fsnotify.Add(dir); err != nil {
			return errors.Wrapf(err, "watching %s", dir)
		}
		am.dirs[dir] = struct{}{}
		core.LogDebug("watching asset directory %s", dir)
	}
	return nil
}

// Changes is closed once the manager is closed.
func (am *AssetManager) Changes() <-chan AssetChange {
	return am.changes
}

func (am *AssetManager) Start() {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if am.started {
		return
	}
	am.started = true
	am.wg.Add(1)
	go am.start()
}

func (am *AssetManager) Close() error {
	var err error
	am.closeOnce.Do(func() {
		close(am.done)
		am.wg.Wait()
		err = am.fsnotify.Close()
		close(am.changes)
	})
	return err
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err.Error())

		case <-am.done:
			return
		}
	}
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	am.mutex.RLock()
	assetType, ok := am.tracked[abs]
	am.mutex.RUnlock()
	if !ok {
		return
	}
	// Editors may emit an event before the new file is fully in place.
	if s, err := os.Stat(abs); err != nil || s.IsDir() {
		return
	}

	select {
	case am.changes <- AssetChange{Path: abs, Type: assetType}:
		core.LogDebug("asset changed: %s (%s)", abs, assetType)
	default:
		// A reload is already pending.
	}
}

func DetermineAssetType(path string) ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		return ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".webp":
		return ResourceTypeImage
	default:
		return ResourceTypeNone
	}
}
