package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yleoer/sheetmusic/pkg/util"
)

// TriggerRun 安排一次延迟批处理。防抖时间内的重复触发只会重置计时器。
func (br *BatchRunner) TriggerRun() {
	br.pendingMutex.Lock()
	defer br.pendingMutex.Unlock()
	if br.draining {
		return
	}
	// 如果已经有一个待定的批处理，就重置计时器
	if br.pending != nil && br.pending.Stop() {
		br.inflight.Done()
	}
	br.inflight.Add(1)
	br.pending = time.AfterFunc(br.cfg.WatchDebounce, func() {
		defer br.inflight.Done()
		br.pendingMutex.Lock()
		br.pending = nil
		ctx := br.ctx
		br.pendingMutex.Unlock()
		br.performRun(ctx)
	})
	br.logger.Printf("Scheduled batch for %s in %v", br.cfg.InputDir, br.cfg.WatchDebounce)
}

// performRun 等待输入目录中的文件稳定后执行批处理
func (br *BatchRunner) performRun(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !br.waitForFilesStability(ctx, br.cfg.InputDir) {
		if ctx.Err() != nil {
			return
		}
		br.logger.Printf("  -> Files in %s are still changing. Rescheduling batch.", br.cfg.InputDir)
		br.TriggerRun()
		return
	}
	if _, err := br.RunOnce(ctx); err != nil {
		br.logger.Printf("ERROR: Batch failed: %v", err)
	}
}

// checkInterval 稳定性检查的轮询间隔
func (br *BatchRunner) checkInterval() time.Duration {
	return min(time.Second, max(br.cfg.WatchQuiet/4, 10*time.Millisecond))
}

// waitForFilesStability 检查目录中的图片文件是否稳定：
// 所有图片的大小和修改时间在 WatchQuiet 内都没有变化。
func (br *BatchRunner) waitForFilesStability(ctx context.Context, dir string) bool {
	br.logger.Printf("  -> Waiting for files in %s to stabilize for %v...", dir, br.cfg.WatchQuiet)
	interval := br.checkInterval()
	previousFileStates := make(map[string]fileInfo)
	fileQuietSince := make(map[string]time.Time)
	startOverallWait := time.Now()
	for time.Since(startOverallWait) < br.cfg.WatchMaxWait {
		now := time.Now()
		entries, err := os.ReadDir(dir)
		if err != nil {
			br.logger.Printf("ERROR: Error reading directory %s for stability check: %v", dir, err)
			if !sleepContext(ctx, interval) {
				return false
			}
			continue
		}
		allQuiet := true
		currentFileStates := make(map[string]fileInfo)
		for _, entry := range entries {
			filePath := filepath.Join(dir, entry.Name())
			if entry.IsDir() || !util.IsImageFile(filePath) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				br.logger.Printf("ERROR: Error getting file info for %s: %v", filePath, err)
				allQuiet = false
				continue
			}
			state := fileInfo{Size: info.Size(), ModTime: info.ModTime()}
			currentFileStates[filePath] = state
			if prev, exists := previousFileStates[filePath]; !exists || prev != state {
				fileQuietSince[filePath] = now
				allQuiet = false
			} else if now.Sub(fileQuietSince[filePath]) < br.cfg.WatchQuiet {
				allQuiet = false
			}
		}
		previousFileStates = currentFileStates
		if len(currentFileStates) == 0 {
			br.logger.Printf("  -> No image files found in %s that require stability check. Proceeding.", dir)
			return true
		}
		if allQuiet {
			br.logger.Printf("  -> All image files in %s are stable for at least %v.", dir, br.cfg.WatchQuiet)
			return true
		}
		if !sleepContext(ctx, interval) {
			return false
		}
	}
	br.logger.Printf("  -> Max wait time for stability exceeded for %s.", dir)
	return false
}

// fileInfo 用于比较文件是否变化
type fileInfo struct {
	Size    int64
	ModTime time.Time
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Watch 先执行一次批处理，然后监听输入目录，图片文件变化时触发新的批处理，直到 ctx 结束。
func (br *BatchRunner) Watch(ctx context.Context) error {
	br.pendingMutex.Lock()
	br.ctx = ctx
	br.draining = false
	br.pendingMutex.Unlock()
	defer br.drain()

	if _, err := br.RunOnce(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(br.cfg.InputDir); err != nil {
		return fmt.Errorf("error adding input path %s to watcher: %w", br.cfg.InputDir, err)
	}
	br.logger.Printf("Monitoring input directory %s for changes...", br.cfg.InputDir)

	for {
		select {
		case <-ctx.Done():
			br.logger.Println("Watcher stopped.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			br.logger.Printf("Watcher event: %s, on %s", event.Op.String(), event.Name)
			br.TriggerRun()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			br.logger.Printf("ERROR: Watcher error: %v", err)
		}
	}
}

// relevantEvent 只关注图片文件的创建、写入、重命名和删除
func relevantEvent(event fsnotify.Event) bool {
	if !util.IsImageFile(event.Name) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

func (br *BatchRunner) stopPending() {
	br.pendingMutex.Lock()
	defer br.pendingMutex.Unlock()
	if br.pending != nil && br.pending.Stop() {
		br.inflight.Done()
	}
	br.pending = nil
}

// drain 取消尚未触发的批处理，并等待已经开始的批处理结束。
// Watch 返回后调用方才能安全关闭数据库。
func (br *BatchRunner) drain() {
	br.pendingMutex.Lock()
	br.draining = true
	br.pendingMutex.Unlock()
	br.stopPending()
	br.inflight.Wait()
}
